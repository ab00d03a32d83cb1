// Package series aligns the two entities' weekly histories into index-matched
// rows for charts and comparison.
package series

import (
	"fmt"
	"strings"

	"github.com/yourorg/locker-metrics/internal/format"
	"github.com/yourorg/locker-metrics/internal/model"
)

const weekLabelPrefix = "Week "

// AlignedRow is one chart row: a week label and both entities' values.
type AlignedRow struct {
	Label  string   `json:"label"`
	Week   int      `json:"week"`
	ValueA *float64 `json:"value_a"`
	ValueB *float64 `json:"value_b"`
}

// ChartPoint is an AlignedRow with display strings attached.
type ChartPoint struct {
	AlignedRow
	Tick     string `json:"tick"`
	GraphA   string `json:"graph_a"`
	GraphB   string `json:"graph_b"`
	TooltipA string `json:"tooltip_a"`
	TooltipB string `json:"tooltip_b"`
}

// LastWeek returns the current (last) week of s, or an empty week when s has no history.
func LastWeek(s model.EntitySeries) model.WeekMetrics {
	if len(s.WeeklyData) == 0 {
		return model.WeekMetrics{}
	}
	return s.WeeklyData[len(s.WeeklyData)-1]
}

// WeekLabel renders the chart label for a week number
func WeekLabel(week int) string {
	return fmt.Sprintf("%s%d", weekLabelPrefix, week)
}

// TickLabel shortens "Week 12" to "W12" for axis ticks.
func TickLabel(label string) string {
	return "W" + strings.TrimPrefix(label, weekLabelPrefix)
}

// AlignSeries builds one row per week index present in either entity of the
// pair. Labels follow entity A's week numbers; past the end of A, B's week
// numbers are used. A missing slot is nil, never an error.
func AlignSeries(snap *model.Snapshot, pair model.Pair, metricID string) ([]AlignedRow, error) {
	a, b, err := snap.Series(pair)
	if err != nil {
		return nil, err
	}
	return Align(a, b, func(w model.WeekMetrics) *float64 { return w.Value(metricID) }), nil
}

// Align is AlignSeries over already-resolved entities with an arbitrary value selector.
func Align(a, b model.EntitySeries, value func(model.WeekMetrics) *float64) []AlignedRow {
	n := len(a.WeeklyData)
	if len(b.WeeklyData) > n {
		n = len(b.WeeklyData)
	}

	rows := make([]AlignedRow, n)
	for i := 0; i < n; i++ {
		var row AlignedRow
		if i < len(a.WeeklyData) {
			row.Week = a.WeeklyData[i].WeekNumber
			row.ValueA = value(a.WeeklyData[i])
		} else {
			row.Week = b.WeeklyData[i].WeekNumber
		}
		if i < len(b.WeeklyData) {
			row.ValueB = value(b.WeeklyData[i])
		}
		row.Label = WeekLabel(row.Week)
		rows[i] = row
	}
	return rows
}

// ChartPoints formats aligned rows for the graph axis and tooltip.
func ChartPoints(rows []AlignedRow, metricID string) []ChartPoint {
	points := make([]ChartPoint, len(rows))
	for i, r := range rows {
		points[i] = ChartPoint{
			AlignedRow: r,
			Tick:       TickLabel(r.Label),
			GraphA:     format.Format(r.ValueA, metricID, format.Graph),
			GraphB:     format.Format(r.ValueB, metricID, format.Graph),
			TooltipA:   format.Format(r.ValueA, metricID, format.Tooltip),
			TooltipB:   format.Format(r.ValueB, metricID, format.Tooltip),
		}
	}
	return points
}
