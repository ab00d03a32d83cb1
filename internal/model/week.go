package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

const (
	weekNumberKey     = "week_number"
	remainingBoostKey = "remaining_boost_data"
)

// WeekMetrics is one week of a locker's history: the week number plus an open
// set of numeric metrics keyed by metric id. A nil value means the publisher
// sent null for that metric.
type WeekMetrics struct {
	WeekNumber     int                 `validate:"gte=0"`
	Values         map[string]*float64 `validate:"-"`
	RemainingBoost *RemainingBoostData `validate:"-"`
}

// Value returns the metric value or nil when absent.
func (w WeekMetrics) Value(id string) *float64 {
	if w.Values == nil {
		return nil
	}
	return w.Values[id]
}

// Float returns the metric value and whether it was present and non-null.
func (w WeekMetrics) Float(id string) (float64, bool) {
	v := w.Value(id)
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Has reports whether the week carries a non-null value for id
func (w WeekMetrics) Has(id string) bool {
	return w.Value(id) != nil
}

// UnmarshalJSON decodes a flat week object. Non-numeric members other than
// remaining_boost_data are skipped rather than rejected.
func (w *WeekMetrics) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding week: %w", err)
	}
	renameAliases(raw, weekAliases)

	*w = WeekMetrics{Values: make(map[string]*float64, len(raw))}
	for key, msg := range raw {
		switch key {
		case weekNumberKey:
			var n float64
			if err := json.Unmarshal(msg, &n); err != nil {
				return fmt.Errorf("decoding week_number: %w", err)
			}
			w.WeekNumber = int(n)
		case remainingBoostKey:
			if isNull(msg) {
				continue
			}
			var rb RemainingBoostData
			if err := json.Unmarshal(msg, &rb); err != nil {
				// a malformed sub-object is treated as absent
				continue
			}
			w.RemainingBoost = &rb
		default:
			if isNull(msg) {
				w.Values[key] = nil
				continue
			}
			var v float64
			if err := json.Unmarshal(msg, &v); err != nil {
				continue
			}
			w.Values[key] = &v
		}
	}
	return nil
}

// MarshalJSON writes the week back in its flat form with sorted keys.
func (w WeekMetrics) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(w.Values))
	for k := range w.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"%s":%d`, weekNumberKey, w.WeekNumber)
	for _, k := range keys {
		name, _ := json.Marshal(k)
		val, err := json.Marshal(w.Values[k])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	if w.RemainingBoost != nil {
		rb, err := json.Marshal(w.RemainingBoost)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `,"%s":`, remainingBoostKey)
		buf.Write(rb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NewWeek builds a WeekMetrics from plain values, mostly for tests and fixtures.
func NewWeek(number int, values map[string]float64) WeekMetrics {
	w := WeekMetrics{WeekNumber: number, Values: make(map[string]*float64, len(values))}
	for k, v := range values {
		v := v
		w.Values[k] = &v
	}
	return w
}

func isNull(msg json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(msg), []byte("null"))
}
