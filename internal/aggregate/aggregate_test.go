package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/registry"
)

func TestWeeklyDominance(t *testing.T) {
	tests := []struct {
		name  string
		week  model.WeekMetrics
		total float64
		want  *float64
	}{
		{
			name:  "zero total is nil",
			week:  model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 500}),
			total: 0,
			want:  nil,
		},
		{
			name:  "missing field is nil",
			week:  model.NewWeek(1, nil),
			total: 1000,
			want:  nil,
		},
		{
			name:  "share",
			week:  model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 250}),
			total: 1000,
			want:  f(0.25),
		},
		{
			name:  "clamped above one",
			week:  model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 1500}),
			total: 1000,
			want:  f(1),
		},
		{
			name:  "nan total is nil",
			week:  model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 1}),
			total: math.NaN(),
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeeklyDominance(tt.week, tt.total)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-12)
		})
	}
}

func TestAdjustedWeightCapture(t *testing.T) {
	week := model.NewWeek(2, map[string]float64{registry.LockGain: 300})

	got := AdjustedWeightCapture(week, 1000, 0.2)
	require.NotNil(t, got)
	assert.InDelta(t, 0.1, *got, 1e-12)

	assert.Nil(t, AdjustedWeightCapture(week, 0, 0.2))
	assert.Nil(t, AdjustedWeightCapture(model.NewWeek(2, nil), 1000, 0.2))
	assert.Nil(t, AdjustedWeightCapture(week, 1000, math.NaN()))
}

func TestNetWeeklyWeightGain(t *testing.T) {
	prev := model.NewWeek(1, map[string]float64{registry.GlobalWeight: 1000})
	cur := model.NewWeek(2, map[string]float64{registry.GlobalWeight: 1500})

	got := NetWeeklyWeightGain(prev, cur)
	require.NotNil(t, got)
	assert.Equal(t, 500.0, *got)

	assert.Nil(t, NetWeeklyWeightGain(model.NewWeek(1, nil), cur))
}

func TestSumMetric(t *testing.T) {
	weeks := []model.WeekMetrics{
		model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 10}),
		model.NewWeek(1, nil),
		model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 5}),
	}
	total, ok := SumMetric(weeks, registry.EmissionsClaimed)
	assert.True(t, ok)
	assert.Equal(t, 15.0, total)

	_, ok = SumMetric(weeks, registry.Peg)
	assert.False(t, ok)
}

func TestDerivedSeries(t *testing.T) {
	snap := &model.Snapshot{
		UpdatedAt: 1,
		Entities: map[string]model.EntitySeries{
			"a": {WeeklyData: []model.WeekMetrics{
				model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 300, registry.GlobalWeight: 1000, registry.GlobalWeightRatio: 0.5, registry.LockGain: 0}),
				model.NewWeek(2, map[string]float64{registry.EmissionsClaimed: 0, registry.GlobalWeight: 1200, registry.GlobalWeightRatio: 0.5, registry.LockGain: 150}),
				model.NewWeek(3, map[string]float64{registry.EmissionsClaimed: 100, registry.GlobalWeight: 1200, registry.LockGain: 0}),
			}},
			"b": {WeeklyData: []model.WeekMetrics{
				model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 100}),
				model.NewWeek(2, map[string]float64{registry.EmissionsClaimed: 0}),
			}},
		},
	}
	pair := model.Pair{A: "a", B: "b"}

	dom, err := DerivedSeries(snap, pair, registry.WeeklyDominance)
	require.NoError(t, err)
	require.Len(t, dom, 3)
	assert.InDelta(t, 0.75, *dom[0].ValueA, 1e-12)
	assert.InDelta(t, 0.25, *dom[0].ValueB, 1e-12)
	assert.Nil(t, dom[1].ValueA, "zero total claimed")
	assert.Nil(t, dom[1].ValueB)
	assert.Nil(t, dom[2].ValueA, "b has no third week")
	assert.Nil(t, dom[2].ValueB)

	capture, err := DerivedSeries(snap, pair, registry.AdjustedWeightCapture)
	require.NoError(t, err)
	assert.Nil(t, capture[0].ValueA, "no previous week")
	require.NotNil(t, capture[1].ValueA)
	assert.InDelta(t, 0.25, *capture[1].ValueA, 1e-12) // 150/200 - 0.5
	assert.Nil(t, capture[2].ValueA, "no net gain")
	assert.Nil(t, capture[1].ValueB, "b lacks weight data")

	a, b := Last(capture)
	assert.Nil(t, a)
	assert.Nil(t, b)

	_, err = DerivedSeries(snap, pair, "mystery")
	assert.Error(t, err)

	_, err = DerivedSeries(&model.Snapshot{}, pair, registry.WeeklyDominance)
	assert.True(t, errors.Is(err, model.ErrInvalidSnapshot))
}

func TestDerivedSeries_DominanceNeedsBothClaims(t *testing.T) {
	tests := []struct {
		name string
		b    []model.WeekMetrics
	}{
		{
			name: "shorter peer series",
			b:    []model.WeekMetrics{model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 990})},
		},
		{
			name: "peer week without claim",
			b: []model.WeekMetrics{
				model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 990}),
				model.NewWeek(2, map[string]float64{registry.Peg: 1}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &model.Snapshot{
				Entities: map[string]model.EntitySeries{
					"a": {WeeklyData: []model.WeekMetrics{
						model.NewWeek(1, map[string]float64{registry.EmissionsClaimed: 10}),
						model.NewWeek(2, map[string]float64{registry.EmissionsClaimed: 10}),
					}},
					"b": {WeeklyData: tt.b},
				},
			}
			rows, err := DerivedSeries(snap, model.Pair{A: "a", B: "b"}, registry.WeeklyDominance)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.InDelta(t, 0.01, *rows[0].ValueA, 1e-12)

			a, b := Last(rows)
			assert.Nil(t, a)
			assert.Nil(t, b)
		})
	}
}

func f(v float64) *float64 { return &v }
