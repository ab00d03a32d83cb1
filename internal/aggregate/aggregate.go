// Package aggregate derives cross-entity metrics that the snapshot does not
// publish directly, such as weekly emissions dominance and weight capture.
//
// Every ratio guards its denominator: a zero or missing input yields nil so
// the value renders as an empty string and a gap in charts.
package aggregate

import (
	"fmt"
	"math"

	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/registry"
	"github.com/yourorg/locker-metrics/internal/series"
)

// DerivedMetrics lists the metric ids DerivedSeries can compute.
var DerivedMetrics = []string{registry.WeeklyDominance, registry.AdjustedWeightCapture}

// WeeklyDominance is the entity's share of all emissions claimed that week,
// clamped to [0,1].
func WeeklyDominance(week model.WeekMetrics, totalEmissionsClaimed float64) *float64 {
	claimed, ok := week.Float(registry.EmissionsClaimed)
	if !ok {
		return nil
	}
	r := ratio(claimed, totalEmissionsClaimed)
	if r == nil {
		return nil
	}
	v := math.Max(0, math.Min(1, *r))
	return &v
}

// AdjustedWeightCapture is the share of the week's net new governance weight
// the entity locked, minus the share it already held at the start of the week.
// Positive values mean the entity grew faster than its existing share.
func AdjustedWeightCapture(week model.WeekMetrics, netWeeklyWeightGainAll, startingShare float64) *float64 {
	gain, ok := week.Float(registry.LockGain)
	if !ok || math.IsNaN(startingShare) {
		return nil
	}
	capture := ratio(gain, netWeeklyWeightGainAll)
	if capture == nil {
		return nil
	}
	v := *capture - startingShare
	return &v
}

// NetWeeklyWeightGain is the change in global weight between two consecutive weeks.
func NetWeeklyWeightGain(prev, cur model.WeekMetrics) *float64 {
	p, okPrev := prev.Float(registry.GlobalWeight)
	c, okCur := cur.Float(registry.GlobalWeight)
	if !okPrev || !okCur {
		return nil
	}
	v := c - p
	return &v
}

// SumMetric adds up id across weeks, skipping missing values. ok is false when
// no week carried the metric.
func SumMetric(weeks []model.WeekMetrics, id string) (float64, bool) {
	var total float64
	found := false
	for _, w := range weeks {
		if v, present := w.Float(id); present {
			total += v
			found = true
		}
	}
	return total, found
}

// DerivedSeries computes a derived metric for every aligned week of the pair.
func DerivedSeries(snap *model.Snapshot, pair model.Pair, metricID string) ([]series.AlignedRow, error) {
	a, b, err := snap.Series(pair)
	if err != nil {
		return nil, err
	}

	var value func(s model.EntitySeries, i int, peers []model.WeekMetrics) *float64
	switch metricID {
	case registry.WeeklyDominance:
		value = func(s model.EntitySeries, i int, peers []model.WeekMetrics) *float64 {
			// the week's total is unknown unless both entities report a claim
			if len(peers) < 2 {
				return nil
			}
			for _, p := range peers {
				if !p.Has(registry.EmissionsClaimed) {
					return nil
				}
			}
			total, _ := SumMetric(peers, registry.EmissionsClaimed)
			return WeeklyDominance(s.WeeklyData[i], total)
		}
	case registry.AdjustedWeightCapture:
		value = func(s model.EntitySeries, i int, _ []model.WeekMetrics) *float64 {
			return adjustedCaptureAt(s, i)
		}
	default:
		return nil, fmt.Errorf("unknown derived metric %q", metricID)
	}

	rows := series.Align(a, b, func(model.WeekMetrics) *float64 { return nil })
	for i := range rows {
		peers := make([]model.WeekMetrics, 0, 2)
		if i < len(a.WeeklyData) {
			peers = append(peers, a.WeeklyData[i])
		}
		if i < len(b.WeeklyData) {
			peers = append(peers, b.WeeklyData[i])
		}
		if i < len(a.WeeklyData) {
			rows[i].ValueA = value(a, i, peers)
		}
		if i < len(b.WeeklyData) {
			rows[i].ValueB = value(b, i, peers)
		}
	}
	return rows, nil
}

// Last returns the final row's values, or nils for an empty series.
func Last(rows []series.AlignedRow) (*float64, *float64) {
	if len(rows) == 0 {
		return nil, nil
	}
	r := rows[len(rows)-1]
	return r.ValueA, r.ValueB
}

// adjustedCaptureAt uses the previous week as the starting point for week i.
func adjustedCaptureAt(s model.EntitySeries, i int) *float64 {
	if i == 0 {
		return nil
	}
	prev, cur := s.WeeklyData[i-1], s.WeeklyData[i]
	net := NetWeeklyWeightGain(prev, cur)
	share, ok := prev.Float(registry.GlobalWeightRatio)
	if net == nil || !ok {
		return nil
	}
	return AdjustedWeightCapture(cur, *net, share)
}

func ratio(num, den float64) *float64 {
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return nil
	}
	r := num / den
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return nil
	}
	return &r
}
