// Package decision holds the combinational half of the monitor core: the
// abnormality aggregator and the actuator decoder. Both are pure functions
// over the current sensor sample and carry no state between ticks.
package decision

import (
	"github.com/greenstack-labs/envmon-controller/internal/model"
)

// CountAbnormal returns how many of the six channels report abnormal.
func CountAbnormal(r model.SensorReading) int {
	count := 0
	for _, c := range model.Channels {
		if !r.Flag(c) {
			count++
		}
	}
	return count
}

// Decode maps the stored severity level and the current-tick reading to
// actuator commands. Every output defaults off and is only raised by an
// explicit rule.
//
// demand is the raw rule output and is kept for audit; cmd is what reaches
// the pins after the inline duct fan override. The inline duct fan channel
// is hard-pinned off in every reachable state, so the override is applied
// after rule evaluation rather than by dropping the airflow rule.
//
// Single, Multiple and Critical share one per-sensor table: escalation
// changes how many channels are likely abnormal, not the response to any
// individual abnormal channel. Emergency forces every controllable output
// on regardless of which sensors triggered it. An out-of-range stored level
// behaves like Idle.
func Decode(level model.SeverityLevel, r model.SensorReading) (cmd, demand model.ActuatorCommand) {
	switch level {
	case model.LevelSingle, model.LevelMultiple, model.LevelCritical:
		if !r.Temperature {
			demand.CoolingSystem = true
		}
		if !r.Humidity {
			demand.Dehumidifier = true
		}
		if !r.VOC {
			demand.ExhaustFan = true
		}
		if !r.Dust {
			// shared target with VOC; the output is binary, not additive
			demand.ExhaustFan = true
		}
		if !r.Airflow {
			demand.InlineDuctFan = true
		}
		if !r.Light {
			demand.LEDLight = true
		}
	case model.LevelEmergency:
		demand = model.ActuatorCommand{
			ExhaustFan:    true,
			InlineDuctFan: true,
			Humidifier:    true,
			Dehumidifier:  true,
			CoolingSystem: true,
			LEDLight:      true,
		}
	default:
		// Idle and defensively-decoded levels: everything stays off.
	}

	cmd = demand
	cmd.InlineDuctFan = false
	return cmd, demand
}
