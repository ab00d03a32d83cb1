package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/locker-metrics/internal/model"
)

func testSnapshot(peg float64) *model.Snapshot {
	return &model.Snapshot{
		Week:      42,
		UpdatedAt: 1717000000,
		Entities: map[string]model.EntitySeries{
			"cvxPrisma": {WeeklyData: []model.WeekMetrics{model.NewWeek(42, map[string]float64{"peg": peg, "weight": 10})}},
			"yPrisma":   {WeeklyData: []model.WeekMetrics{model.NewWeek(42, map[string]float64{"peg": 0.9})}},
		},
	}
}

func TestDigest(t *testing.T) {
	a, err := Digest(testSnapshot(0.98))
	require.NoError(t, err)
	b, err := Digest(testSnapshot(0.98))
	require.NoError(t, err)
	c, err := Digest(testSnapshot(0.97))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Keccak256, c.Keccak256)
	assert.Len(t, a.Keccak256, 66)
	assert.Len(t, a.SHA256, 64)
	assert.Equal(t, 42, a.Week)
	assert.Equal(t, `"`+a.Keccak256[2:]+`"`, a.ETag())

	_, err = Digest(nil)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	fp, err := Digest(testSnapshot(0.98))
	require.NoError(t, err)

	tests := []struct {
		name    string
		digest  string
		want    bool
		wantErr bool
	}{
		{"match", fp.Keccak256, true, false},
		{"mismatch", "0x" + fp.SHA256, false, false},
		{"no prefix", fp.Keccak256[2:], false, true},
		{"short", "0x1234", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Verify(testSnapshot(0.98), tt.digest)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
