package series

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/locker-metrics/internal/model"
)

func weeks(from, count int, peg float64) []model.WeekMetrics {
	out := make([]model.WeekMetrics, count)
	for i := range out {
		out[i] = model.NewWeek(from+i, map[string]float64{"peg": peg + float64(i)/100})
	}
	return out
}

func snapshot(a, b []model.WeekMetrics) *model.Snapshot {
	return &model.Snapshot{
		UpdatedAt: 1,
		Entities: map[string]model.EntitySeries{
			"a": {WeeklyData: a},
			"b": {WeeklyData: b},
		},
	}
}

var pair = model.Pair{A: "a", B: "b"}

func TestAlignSeries_ShorterSecondEntity(t *testing.T) {
	snap := snapshot(weeks(1, 10, 1.0), weeks(1, 8, 0.9))

	rows, err := AlignSeries(snap, pair, "peg")
	require.NoError(t, err)
	require.Len(t, rows, 10)

	for i := 0; i < 8; i++ {
		assert.NotNil(t, rows[i].ValueA)
		assert.NotNil(t, rows[i].ValueB)
	}
	assert.Nil(t, rows[8].ValueB)
	assert.Nil(t, rows[9].ValueB)
	assert.Equal(t, "Week 10", rows[9].Label)
	assert.InDelta(t, 1.09, *rows[9].ValueA, 1e-9)
}

func TestAlignSeries_ShorterFirstEntity(t *testing.T) {
	snap := snapshot(weeks(1, 2, 1.0), weeks(5, 3, 0.9))

	rows, err := AlignSeries(snap, pair, "peg")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Week 1", rows[0].Label, "labels follow entity A")
	assert.Equal(t, "Week 7", rows[2].Label, "past A's end, B's week number is used")
	assert.Nil(t, rows[2].ValueA)
	assert.NotNil(t, rows[2].ValueB)
}

func TestAlignSeries_MissingMetricIsNil(t *testing.T) {
	snap := snapshot(weeks(1, 2, 1.0), weeks(1, 2, 1.0))

	rows, err := AlignSeries(snap, pair, "lock_gain")
	require.NoError(t, err)
	for _, r := range rows {
		assert.Nil(t, r.ValueA)
		assert.Nil(t, r.ValueB)
	}
}

func TestAlignSeries_Malformed(t *testing.T) {
	_, err := AlignSeries(&model.Snapshot{}, pair, "peg")
	assert.True(t, errors.Is(err, model.ErrInvalidSnapshot))

	_, err = AlignSeries(snapshot(nil, nil), model.Pair{A: "a", B: "zzz"}, "peg")
	assert.True(t, errors.Is(err, model.ErrInvalidSnapshot))
}

func TestAlignSeries_Empty(t *testing.T) {
	rows, err := AlignSeries(snapshot(nil, nil), pair, "peg")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLastWeek(t *testing.T) {
	assert.Equal(t, model.WeekMetrics{}, LastWeek(model.EntitySeries{}))

	s := model.EntitySeries{WeeklyData: weeks(3, 4, 1.0)}
	assert.Equal(t, 6, LastWeek(s).WeekNumber)
}

func TestChartPoints(t *testing.T) {
	snap := snapshot(weeks(11, 2, 1.0), weeks(11, 1, 0.9))
	rows, err := AlignSeries(snap, pair, "peg")
	require.NoError(t, err)

	points := ChartPoints(rows, "peg")
	require.Len(t, points, 2)
	assert.Equal(t, "W11", points[0].Tick)
	assert.Equal(t, "1.00", points[0].GraphA)
	assert.Equal(t, "0.90", points[0].TooltipB)
	assert.Equal(t, "", points[1].GraphB)
}

func TestTickLabel(t *testing.T) {
	assert.Equal(t, "W12", TickLabel("Week 12"))
	assert.Equal(t, "W12", TickLabel(WeekLabel(12)))
}
