package decision_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenstack-labs/envmon-controller/internal/decision"
	"github.com/greenstack-labs/envmon-controller/internal/model"
)

// readingFromMask builds a reading where bit i of mask marks channel i
// abnormal.
func readingFromMask(mask int) model.SensorReading {
	var r model.SensorReading
	for i, c := range model.Channels {
		r.SetFlag(c, mask&(1<<i) == 0)
	}
	return r
}

func popCount(mask int) int {
	count := 0
	for mask != 0 {
		count += mask & 1
		mask >>= 1
	}
	return count
}

func TestCountAbnormal_AllCombinations(t *testing.T) {
	for mask := 0; mask < 64; mask++ {
		r := readingFromMask(mask)
		assert.Equal(t, popCount(mask), decision.CountAbnormal(r), "mask %06b", mask)
	}
}

func TestDecode_IdleIgnoresFlags(t *testing.T) {
	for mask := 0; mask < 64; mask++ {
		cmd, demand := decision.Decode(model.LevelIdle, readingFromMask(mask))
		assert.Equal(t, model.ActuatorCommand{}, cmd, "mask %06b", mask)
		assert.Equal(t, model.ActuatorCommand{}, demand, "mask %06b", mask)
	}
}

func TestDecode_EmergencyIgnoresFlags(t *testing.T) {
	wantCmd := model.ActuatorCommand{
		ExhaustFan:    true,
		InlineDuctFan: false, // hard-pinned dead channel
		Humidifier:    true,
		Dehumidifier:  true,
		CoolingSystem: true,
		LEDLight:      true,
	}
	wantDemand := wantCmd
	wantDemand.InlineDuctFan = true

	for mask := 0; mask < 64; mask++ {
		cmd, demand := decision.Decode(model.LevelEmergency, readingFromMask(mask))
		assert.Equal(t, wantCmd, cmd, "mask %06b", mask)
		assert.Equal(t, wantDemand, demand, "mask %06b", mask)
	}
}

func TestDecode_PerSensorRules(t *testing.T) {
	tests := []struct {
		name    string
		channel model.Channel
		want    model.ActuatorCommand
	}{
		{"temperature drives cooling", model.ChannelTemperature, model.ActuatorCommand{CoolingSystem: true}},
		{"humidity drives dehumidifier", model.ChannelHumidity, model.ActuatorCommand{Dehumidifier: true}},
		{"voc drives exhaust fan", model.ChannelVOC, model.ActuatorCommand{ExhaustFan: true}},
		{"dust drives exhaust fan", model.ChannelDust, model.ActuatorCommand{ExhaustFan: true}},
		{"airflow demand is pinned off", model.ChannelAirflow, model.ActuatorCommand{}},
		{"light drives led", model.ChannelLight, model.ActuatorCommand{LEDLight: true}},
	}

	levels := []model.SeverityLevel{model.LevelSingle, model.LevelMultiple, model.LevelCritical}

	for _, tt := range tests {
		for _, level := range levels {
			t.Run(fmt.Sprintf("%s at %s", tt.name, level), func(t *testing.T) {
				r := model.AllNormal()
				r.SetFlag(tt.channel, false)

				cmd, _ := decision.Decode(level, r)
				assert.Equal(t, tt.want, cmd)
			})
		}
	}
}

func TestDecode_SharedExhaustTarget(t *testing.T) {
	r := model.AllNormal()
	r.VOC = false
	r.Dust = false

	cmd, _ := decision.Decode(model.LevelMultiple, r)
	assert.Equal(t, model.ActuatorCommand{ExhaustFan: true}, cmd,
		"two triggering sensors still yield a single binary on")
}

func TestDecode_InlineDuctFanPinnedOff(t *testing.T) {
	r := model.AllNormal()
	r.Airflow = false

	for _, level := range []model.SeverityLevel{model.LevelSingle, model.LevelMultiple, model.LevelCritical} {
		cmd, demand := decision.Decode(level, r)
		assert.True(t, demand.InlineDuctFan, "rule intent preserved at %s", level)
		assert.False(t, cmd.InlineDuctFan, "physical output stays off at %s", level)
	}
}

func TestDecode_LevelInvariance(t *testing.T) {
	for mask := 0; mask < 64; mask++ {
		r := readingFromMask(mask)
		singleCmd, singleDemand := decision.Decode(model.LevelSingle, r)
		multipleCmd, multipleDemand := decision.Decode(model.LevelMultiple, r)
		criticalCmd, criticalDemand := decision.Decode(model.LevelCritical, r)

		assert.Equal(t, singleCmd, multipleCmd, "mask %06b", mask)
		assert.Equal(t, singleCmd, criticalCmd, "mask %06b", mask)
		assert.Equal(t, singleDemand, multipleDemand, "mask %06b", mask)
		assert.Equal(t, singleDemand, criticalDemand, "mask %06b", mask)
	}
}

func TestDecode_OutOfRangeLevelActsAsIdle(t *testing.T) {
	r := readingFromMask(63)
	for _, raw := range []model.SeverityLevel{5, 6, 7} {
		cmd, demand := decision.Decode(raw, r)
		assert.Equal(t, model.ActuatorCommand{}, cmd, "raw level %d", raw)
		assert.Equal(t, model.ActuatorCommand{}, demand, "raw level %d", raw)
	}
}
