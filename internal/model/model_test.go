package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenstack-labs/envmon-controller/internal/model"
)

func TestLevelRawRoundTrip(t *testing.T) {
	for _, level := range model.Levels {
		assert.Equal(t, level, model.LevelFromRaw(level.Raw()))
	}
}

func TestLevelFromRaw_UnusedEncodingsDecodeToIdle(t *testing.T) {
	for _, raw := range []uint8{5, 6, 7} {
		assert.Equal(t, model.LevelIdle, model.LevelFromRaw(raw), "raw %d", raw)
	}
}

func TestLevelFromName(t *testing.T) {
	for _, level := range model.Levels {
		got, ok := model.LevelFromName(level.String())
		assert.True(t, ok)
		assert.Equal(t, level, got)
	}

	_, ok := model.LevelFromName("meltdown")
	assert.False(t, ok)
}

func TestSensorReadingFlags(t *testing.T) {
	r := model.AllNormal()
	for _, c := range model.Channels {
		assert.True(t, r.Flag(c), "channel %s starts normal", c)
	}

	r.SetFlag(model.ChannelVOC, false)
	assert.False(t, r.Flag(model.ChannelVOC))
	assert.True(t, r.Flag(model.ChannelDust), "other channels unaffected")

	r.SetFlag(model.ChannelVOC, true)
	assert.Equal(t, model.AllNormal(), r)
}

func TestActuatorCommandGetSet(t *testing.T) {
	var cmd model.ActuatorCommand
	for _, a := range model.Actuators {
		assert.False(t, cmd.Get(a), "actuator %s starts off", a)
		cmd.Set(a, true)
		assert.True(t, cmd.Get(a))
	}

	assert.Equal(t, model.ActuatorCommand{
		ExhaustFan:    true,
		InlineDuctFan: true,
		Humidifier:    true,
		Dehumidifier:  true,
		CoolingSystem: true,
		LEDLight:      true,
	}, cmd)
}
