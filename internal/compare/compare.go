// Package compare ranks the two lockers head-to-head on their latest week.
package compare

import (
	"fmt"
	"strings"

	"github.com/yourorg/locker-metrics/internal/format"
	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/registry"
	"github.com/yourorg/locker-metrics/internal/series"
)

// Winner identifies the emphasized side of a row.
type Winner string

const (
	WinnerA Winner = "A"
	WinnerB Winner = "B"
	Tie     Winner = "tie"
)

// Mode selects how Row.Winner is decided.
type Mode int

const (
	// ModeLegacy compares the table-formatted strings and ignores polarity:
	// equal strings tie, otherwise the lexically greater string wins.
	ModeLegacy Mode = iota
	// ModeNumeric compares raw values, higher wins, polarity ignored.
	ModeNumeric
	// ModeDirectional compares raw values using the registry direction.
	ModeDirectional
)

func (m Mode) String() string {
	switch m {
	case ModeNumeric:
		return "numeric"
	case ModeDirectional:
		return "directional"
	default:
		return "legacy"
	}
}

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "legacy":
		return ModeLegacy, nil
	case "numeric":
		return ModeNumeric, nil
	case "directional":
		return ModeDirectional, nil
	default:
		return ModeLegacy, fmt.Errorf("unknown compare mode %q", s)
	}
}

// BoostRefillNote accompanies the boost multiplier tooltip.
const BoostRefillNote = "Allocations of max boost refill every Thursday at 00:00 UTC"

// DefaultExclusions are governance-internal metrics not shown head-to-head.
var DefaultExclusions = []string{registry.Weight, registry.LockGain, registry.BoostFeesCollected}

// Options configures CompareLastWeek.
type Options struct {
	Mode    Mode
	Exclude []string
}

// DefaultOptions returns legacy mode with the default exclusion set
func DefaultOptions() Options {
	return Options{Mode: ModeLegacy, Exclude: DefaultExclusions}
}

// Detail is one labelled line of auxiliary tooltip content.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Row is one annotated comparison row.
type Row struct {
	MetricID string   `json:"metric_id"`
	Label    string   `json:"label"`
	DisplayA string   `json:"display_a"`
	DisplayB string   `json:"display_b"`
	RawA     *float64 `json:"raw_a"`
	RawB     *float64 `json:"raw_b"`

	// Winner follows the configured Mode.
	Winner Winner `json:"winner"`

	// NumericWinner always compares raw values with the registry direction.
	NumericWinner Winner `json:"numeric_winner"`

	DetailsA []Detail `json:"details_a,omitempty"`
	DetailsB []Detail `json:"details_b,omitempty"`
	Note     string   `json:"note,omitempty"`
}

// EmphasizeA reports whether side A is shown bold
func (r Row) EmphasizeA() bool { return r.Winner == WinnerA || r.Winner == Tie }

// EmphasizeB reports whether side B is shown bold
func (r Row) EmphasizeB() bool { return r.Winner == WinnerB || r.Winner == Tie }

// CompareLastWeek compares the last week of a and b on every requested metric
// not in opts.Exclude, in request order.
func CompareLastWeek(a, b model.EntitySeries, metricIDs []string, opts Options) []Row {
	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, id := range opts.Exclude {
		excluded[id] = struct{}{}
	}

	lastA := series.LastWeek(a)
	lastB := series.LastWeek(b)

	rows := make([]Row, 0, len(metricIDs))
	for _, id := range metricIDs {
		if _, skip := excluded[id]; skip {
			continue
		}
		rows = append(rows, compareWeek(id, lastA, lastB, opts.Mode))
	}
	return rows
}

func compareWeek(id string, a, b model.WeekMetrics, mode Mode) Row {
	row := Row{
		MetricID: id,
		Label:    registry.DisplayName(id),
		RawA:     a.Value(id),
		RawB:     b.Value(id),
	}
	row.DisplayA = format.Format(row.RawA, id, format.Table)
	row.DisplayB = format.Format(row.RawB, id, format.Table)
	row.NumericWinner = numericWinner(row.RawA, row.RawB, registry.DirectionOf(id))

	switch mode {
	case ModeNumeric:
		row.Winner = numericWinner(row.RawA, row.RawB, registry.HigherIsBetter)
	case ModeDirectional:
		row.Winner = row.NumericWinner
	default:
		row.Winner = legacyWinner(row.DisplayA, row.DisplayB)
	}

	switch id {
	case registry.BoostMultiplier:
		row.DetailsA = boostDetails(a)
		row.DetailsB = boostDetails(b)
		if row.DetailsA != nil || row.DetailsB != nil {
			row.Note = BoostRefillNote
		}
	case registry.GlobalWeightRatio:
		row.DetailsA = weightDetails(a, id)
		row.DetailsB = weightDetails(b, id)
	}
	return row
}

// legacyWinner compares display strings: "10.00%" sorts below "9.00%".
func legacyWinner(a, b string) Winner {
	switch {
	case a == b:
		return Tie
	case b > a:
		return WinnerB
	default:
		return WinnerA
	}
}

func numericWinner(a, b *float64, dir registry.Direction) Winner {
	switch {
	case dir == registry.Neutral:
		return Tie
	case a == nil && b == nil:
		return Tie
	case a == nil:
		return WinnerB
	case b == nil:
		return WinnerA
	case *a == *b:
		return Tie
	}
	aHigher := *a > *b
	if dir == registry.LowerIsBetter {
		aHigher = !aHigher
	}
	if aHigher {
		return WinnerA
	}
	return WinnerB
}

func boostDetails(w model.WeekMetrics) []Detail {
	if w.RemainingBoost == nil {
		return nil
	}
	return []Detail{
		{Label: "Max Boost Remaining", Value: format.Count(w.RemainingBoost.MaxBoostRemaining)},
		{Label: "Allocated", Value: format.Count(w.RemainingBoost.MaxBoostAllocation)},
	}
}

func weightDetails(w model.WeekMetrics, id string) []Detail {
	weight := w.Value(registry.Weight)
	global := w.Value(registry.GlobalWeight)
	if weight == nil && global == nil {
		return nil
	}
	return []Detail{
		{Label: "Locker Weight", Value: format.Format(weight, id, format.TableTooltip)},
		{Label: "Global Weight", Value: format.Format(global, id, format.TableTooltip)},
	}
}

// CompareAPR produces the staking and LP APR rows. Both compare raw values;
// the LP row carries the unboosted APR (half the boosted rate) as a detail.
func CompareAPR(a, b model.EntitySeries) []Row {
	staking := aprRow(registry.StakingAPR, a.CurrentStakingAPR, b.CurrentStakingAPR)

	lp := aprRow(registry.LpAPR, a.CurrentLpAPR, b.CurrentLpAPR)
	lp.DetailsA = []Detail{{Label: "Unboosted APR", Value: format.FormatFloat(UnboostedAPR(a.CurrentLpAPR), registry.LpAPR, format.Tooltip)}}
	lp.DetailsB = []Detail{{Label: "Unboosted APR", Value: format.FormatFloat(UnboostedAPR(b.CurrentLpAPR), registry.LpAPR, format.Tooltip)}}

	return []Row{staking, lp}
}

// UnboostedAPR is the LP APR without the max 2x boost
func UnboostedAPR(lpAPR float64) float64 {
	return lpAPR / 2
}

func aprRow(id string, a, b float64) Row {
	winner := numericWinner(&a, &b, registry.HigherIsBetter)
	return Row{
		MetricID:      id,
		Label:         registry.DisplayName(id),
		DisplayA:      format.FormatFloat(a, id, format.Table),
		DisplayB:      format.FormatFloat(b, id, format.Table),
		RawA:          &a,
		RawB:          &b,
		Winner:        winner,
		NumericWinner: winner,
	}
}

// CompareValues builds a row for values not read from a week, such as derived metrics.
func CompareValues(id string, a, b *float64, mode Mode) Row {
	wa := model.WeekMetrics{Values: map[string]*float64{id: a}}
	wb := model.WeekMetrics{Values: map[string]*float64{id: b}}
	return compareWeek(id, wa, wb, mode)
}
