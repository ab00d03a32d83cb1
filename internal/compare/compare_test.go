package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/registry"
)

func entity(values map[string]float64) model.EntitySeries {
	return model.EntitySeries{WeeklyData: []model.WeekMetrics{
		model.NewWeek(1, map[string]float64{"peg": 0.5}),
		model.NewWeek(2, values),
	}}
}

func TestCompareLastWeek_PegTie(t *testing.T) {
	a := entity(map[string]float64{registry.Peg: 1.001})
	b := entity(map[string]float64{registry.Peg: 0.999})

	rows := CompareLastWeek(a, b, []string{registry.Peg}, DefaultOptions())
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "PEG", row.Label)
	assert.Equal(t, "1.00", row.DisplayA)
	assert.Equal(t, "1.00", row.DisplayB)
	assert.Equal(t, Tie, row.Winner)
	assert.True(t, row.EmphasizeA())
	assert.True(t, row.EmphasizeB())
	assert.Equal(t, WinnerA, row.NumericWinner, "raw values still differ")
}

func TestCompareLastWeek_Exclusions(t *testing.T) {
	a := entity(map[string]float64{registry.Peg: 1, registry.LockGain: 5, registry.Weight: 1, registry.BoostFeesCollected: 2})
	b := entity(map[string]float64{registry.Peg: 1})

	ids := []string{registry.Peg, registry.LockGain, registry.BoostMultiplier, registry.GlobalWeightRatio, registry.BoostFeesCollected, registry.Weight}
	rows := CompareLastWeek(a, b, ids, DefaultOptions())

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.MetricID
	}
	assert.Equal(t, []string{registry.Peg, registry.BoostMultiplier, registry.GlobalWeightRatio}, got)

	rows = CompareLastWeek(a, b, ids, Options{})
	assert.Len(t, rows, len(ids), "no exclusions configured")
}

func TestCompareLastWeek_LegacyStringOrdering(t *testing.T) {
	a := entity(map[string]float64{registry.GlobalWeightRatio: 0.10})
	b := entity(map[string]float64{registry.GlobalWeightRatio: 0.09})

	legacy := CompareLastWeek(a, b, []string{registry.GlobalWeightRatio}, DefaultOptions())[0]
	assert.Equal(t, "10%", legacy.DisplayA)
	assert.Equal(t, "9%", legacy.DisplayB)
	assert.Equal(t, WinnerB, legacy.Winner, "\"9%\" > \"10%\" as strings")
	assert.Equal(t, WinnerA, legacy.NumericWinner)

	numeric := CompareLastWeek(a, b, []string{registry.GlobalWeightRatio}, Options{Mode: ModeNumeric})[0]
	assert.Equal(t, WinnerA, numeric.Winner)
}

func TestCompareLastWeek_Directional(t *testing.T) {
	a := model.EntitySeries{WeeklyData: []model.WeekMetrics{model.NewWeek(1, map[string]float64{registry.FeeBps: 100, registry.BoostFeesCollected: 10})}}
	b := model.EntitySeries{WeeklyData: []model.WeekMetrics{model.NewWeek(1, map[string]float64{registry.FeeBps: 50, registry.BoostFeesCollected: 20})}}

	rows := CompareLastWeek(a, b, []string{registry.FeeBps, registry.BoostFeesCollected}, Options{Mode: ModeDirectional})
	require.Len(t, rows, 2)
	assert.Equal(t, WinnerB, rows[0].Winner, "lower fee wins")
	assert.Equal(t, Tie, rows[1].Winner, "neutral metric")

	legacy := CompareLastWeek(a, b, []string{registry.FeeBps}, DefaultOptions())
	assert.Equal(t, WinnerB, legacy[0].Winner, "\"50\" > \"100\" lexically")
}

func TestCompareLastWeek_MissingData(t *testing.T) {
	a := model.EntitySeries{}
	b := entity(map[string]float64{registry.BoostMultiplier: 1.5})

	rows := CompareLastWeek(a, b, []string{registry.BoostMultiplier, registry.GlobalWeightRatio}, DefaultOptions())
	require.Len(t, rows, 2)

	assert.Equal(t, "", rows[0].DisplayA)
	assert.Equal(t, "1.50x", rows[0].DisplayB)
	assert.Equal(t, WinnerB, rows[0].Winner)
	assert.Nil(t, rows[0].DetailsA, "absent remaining_boost_data yields no details")
	assert.Nil(t, rows[0].DetailsB)
	assert.Empty(t, rows[0].Note)

	assert.Equal(t, Tie, rows[1].Winner)
	assert.Equal(t, Tie, rows[1].NumericWinner)
}

func TestCompareLastWeek_Details(t *testing.T) {
	wa := model.NewWeek(1, map[string]float64{
		registry.BoostMultiplier:   1.75,
		registry.GlobalWeightRatio: 0.25,
		registry.Weight:            1234567.8,
		registry.GlobalWeight:      4938271.2,
	})
	wa.RemainingBoost = &model.RemainingBoostData{MaxBoostRemaining: 12345.6, MaxBoostAllocation: 50000}
	a := model.EntitySeries{WeeklyData: []model.WeekMetrics{wa}}
	b := entity(map[string]float64{registry.BoostMultiplier: 2})

	rows := CompareLastWeek(a, b, []string{registry.BoostMultiplier, registry.GlobalWeightRatio}, DefaultOptions())
	require.Len(t, rows, 2)

	assert.Equal(t, []Detail{
		{Label: "Max Boost Remaining", Value: "12,346"},
		{Label: "Allocated", Value: "50,000"},
	}, rows[0].DetailsA)
	assert.Equal(t, BoostRefillNote, rows[0].Note)

	assert.Equal(t, "25%", rows[1].DisplayA)
	assert.Equal(t, []Detail{
		{Label: "Locker Weight", Value: "1,234,568"},
		{Label: "Global Weight", Value: "4,938,271"},
	}, rows[1].DetailsA)
}

func TestCompareAPR(t *testing.T) {
	a := model.EntitySeries{CurrentStakingAPR: 0.1234, CurrentLpAPR: 0.30}
	b := model.EntitySeries{CurrentStakingAPR: 0.1234, CurrentLpAPR: 0.25}

	rows := CompareAPR(a, b)
	require.Len(t, rows, 2)

	assert.Equal(t, "STAKING APR", rows[0].Label)
	assert.Equal(t, "12.34%", rows[0].DisplayA)
	assert.Equal(t, Tie, rows[0].Winner)

	assert.Equal(t, "LP APR", rows[1].Label)
	assert.Equal(t, WinnerA, rows[1].Winner)
	assert.Equal(t, "15.00%", rows[1].DetailsA[0].Value)
	assert.Equal(t, "12.50%", rows[1].DetailsB[0].Value)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Directional")
	require.NoError(t, err)
	assert.Equal(t, ModeDirectional, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLegacy, m)

	_, err = ParseMode("sideways")
	assert.Error(t, err)
}
