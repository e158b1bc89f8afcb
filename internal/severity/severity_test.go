package severity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenstack-labs/envmon-controller/internal/model"
	"github.com/greenstack-labs/envmon-controller/internal/severity"
)

func TestClassify_ThresholdTable(t *testing.T) {
	tests := []struct {
		count int
		want  model.SeverityLevel
	}{
		{0, model.LevelIdle},
		{1, model.LevelSingle},
		{2, model.LevelMultiple},
		{3, model.LevelMultiple},
		{4, model.LevelCritical},
		{5, model.LevelCritical},
		{6, model.LevelEmergency},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, severity.Classify(tt.count), "count %d", tt.count)
	}
}

func TestClassify_ClampsOutOfRangeCounts(t *testing.T) {
	assert.Equal(t, model.LevelIdle, severity.Classify(-1))
	assert.Equal(t, model.LevelEmergency, severity.Classify(7))
}

func TestRegister_StartsIdle(t *testing.T) {
	reg, err := severity.NewRegister()
	require.NoError(t, err)
	assert.Equal(t, model.LevelIdle, reg.Current())
}

func TestRegister_AdvanceFollowsCount(t *testing.T) {
	reg, err := severity.NewRegister()
	require.NoError(t, err)

	// next level depends only on the current count, not on history
	steps := []struct {
		count int
		want  model.SeverityLevel
	}{
		{1, model.LevelSingle},
		{3, model.LevelMultiple},
		{5, model.LevelCritical},
		{6, model.LevelEmergency},
		{0, model.LevelIdle},
		{6, model.LevelEmergency}, // idle straight to emergency
		{1, model.LevelSingle},    // and straight back down
	}

	for _, step := range steps {
		got := reg.Advance(step.count)
		assert.Equal(t, step.want, got, "count %d", step.count)
		assert.Equal(t, step.want, reg.Current())
	}
}

func TestRegister_AdvanceToSameLevel(t *testing.T) {
	reg, err := severity.NewRegister()
	require.NoError(t, err)

	reg.Advance(2)
	assert.Equal(t, model.LevelMultiple, reg.Current())
	reg.Advance(3)
	assert.Equal(t, model.LevelMultiple, reg.Current(), "2 and 3 abnormal map to the same level")
	reg.Advance(0)
	reg.Advance(0)
	assert.Equal(t, model.LevelIdle, reg.Current())
}

func TestRegister_ResetForcesIdleFromEveryLevel(t *testing.T) {
	counts := map[model.SeverityLevel]int{
		model.LevelIdle:      0,
		model.LevelSingle:    1,
		model.LevelMultiple:  2,
		model.LevelCritical:  4,
		model.LevelEmergency: 6,
	}

	for _, level := range model.Levels {
		reg, err := severity.NewRegister()
		require.NoError(t, err)

		reg.Advance(counts[level])
		require.Equal(t, level, reg.Current())

		reg.Reset()
		assert.Equal(t, model.LevelIdle, reg.Current(), "reset from %s", level)
	}
}

func TestRegister_AdvanceAfterReset(t *testing.T) {
	reg, err := severity.NewRegister()
	require.NoError(t, err)

	reg.Advance(6)
	reg.Reset()
	assert.Equal(t, model.LevelIdle, reg.Current())

	assert.Equal(t, model.LevelCritical, reg.Advance(4), "register keeps tracking counts after reset")
}
