package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/locker-metrics/internal/model"
)

func validSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Week:      12,
		UpdatedAt: 1700000000,
		Entities: map[string]model.EntitySeries{
			"cvxPrisma": {WeeklyData: []model.WeekMetrics{model.NewWeek(1, nil), model.NewWeek(2, nil)}},
			"yPrisma":   {WeeklyData: []model.WeekMetrics{model.NewWeek(1, nil)}},
		},
	}
}

func TestSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *model.Snapshot)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*model.Snapshot) {},
		},
		{
			name:    "zero timestamp",
			mutate:  func(s *model.Snapshot) { s.UpdatedAt = 0 },
			wantErr: "UpdatedAt",
		},
		{
			name:    "single entity",
			mutate:  func(s *model.Snapshot) { delete(s.Entities, "yPrisma") },
			wantErr: "Entities failed min=2",
		},
		{
			name: "weeks out of order",
			mutate: func(s *model.Snapshot) {
				s.Entities["yPrisma"] = model.EntitySeries{WeeklyData: []model.WeekMetrics{model.NewWeek(3, nil), model.NewWeek(3, nil)}}
			},
			wantErr: "yPrisma: week 3 follows week 3",
		},
		{
			name: "negative emissions week",
			mutate: func(s *model.Snapshot) {
				s.EmissionsSchedule = []model.WeekEmission{{SystemWeek: -1}}
			},
			wantErr: "SystemWeek",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)
			err := Snapshot(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, model.ErrInvalidSnapshot))

			var invalid *InvalidSnapshotError
			require.True(t, errors.As(err, &invalid))
			assert.NotEmpty(t, invalid.Problems)
		})
	}
}

func TestSnapshot_Nil(t *testing.T) {
	err := Snapshot(nil)
	assert.True(t, errors.Is(err, model.ErrInvalidSnapshot))
}

func TestFilterDelegates(t *testing.T) {
	delegates := []model.BoostDelegate{
		{Address: "0x5290Bc4c3D5B58a7fA9b3f7D9C6C5d5E1C2A9EE7", FeeBps: 100},
		{Address: "not-an-address", FeeBps: 100},
		{Address: "0x0000000000000000000000000000000000000002", FeeBps: 20000},
		{Address: "", FeeBps: 0},
		{Address: "0x0000000000000000000000000000000000000003", FeeBps: 0, ENSName: "zero.eth"},
	}

	got := FilterDelegates(delegates)
	require.Len(t, got, 2)
	assert.Equal(t, delegates[0].Address, got[0].Address)
	assert.Equal(t, "zero.eth", got[1].ENSName)
}

func TestDelegate(t *testing.T) {
	err := Delegate(model.BoostDelegate{Address: "0x0000000000000000000000000000000000000002", FeeBps: 20000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FeeBps failed lte=10000")

	assert.NoError(t, Delegate(model.BoostDelegate{Address: "0x0000000000000000000000000000000000000002"}))
}
