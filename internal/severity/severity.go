// Package severity holds the sequential half of the monitor core: the
// threshold classification and the stored severity level that persists
// across ticks.
package severity

import (
	"github.com/anggasct/fluo"
	"github.com/rs/zerolog/log"

	"github.com/greenstack-labs/envmon-controller/internal/model"
)

const (
	eventSample = "sample"
	eventReset  = "reset"
)

// Classify maps an abnormal-channel count to its severity level. The
// mapping is a monotonic step function and depends only on the current
// count, never on the previous level. Counts outside 0-6 are unreachable
// from six flags and clamp into range.
func Classify(count int) model.SeverityLevel {
	switch {
	case count <= 0:
		return model.LevelIdle
	case count == 1:
		return model.LevelSingle
	case count <= 3:
		return model.LevelMultiple
	case count <= 5:
		return model.LevelCritical
	default:
		return model.LevelEmergency
	}
}

// Register owns the single stored severity level. It is the only piece of
// state that survives between ticks: created at Idle, advanced once per
// tick from that tick's abnormal count, and forced back to Idle by reset.
//
// The register is modeled as a flat five-state machine. Every level is
// reachable from every other in one transition, guarded solely by the
// classification of the sampled count.
type Register struct {
	machine fluo.Machine
}

// NewRegister builds the severity state machine and starts it at Idle.
func NewRegister() (*Register, error) {
	builder := fluo.NewMachine()

	for i, level := range model.Levels {
		state := builder.State(level.String())
		if i == 0 {
			state = state.Initial()
		}

		tb := state.ToSelf().On(eventSample).When(sampleClassifiesAs(level))
		for _, target := range model.Levels {
			if target == level {
				continue
			}
			tb = tb.To(target.String()).On(eventSample).When(sampleClassifiesAs(target))
		}

		if level == model.LevelIdle {
			tb.ToSelf().On(eventReset)
		} else {
			tb.To(model.LevelIdle.String()).On(eventReset)
		}
	}

	machine := builder.Build().CreateInstance()
	if err := machine.Start(); err != nil {
		return nil, err
	}

	return &Register{machine: machine}, nil
}

// sampleClassifiesAs guards a sample transition on the count carried by the
// event.
func sampleClassifiesAs(level model.SeverityLevel) fluo.GuardFunc {
	return func(ctx fluo.Context) bool {
		count, ok := ctx.GetEventData().(int)
		if !ok {
			return false
		}
		return Classify(count) == level
	}
}

// Advance latches the level classified from count and returns it.
func (r *Register) Advance(count int) model.SeverityLevel {
	result := r.machine.HandleEvent(eventSample, count)
	if result != nil && result.Error != nil {
		log.Error().
			Err(result.Error).
			Int("abnormal_count", count).
			Str("level", r.machine.CurrentState()).
			Msg("Severity advance rejected")
	}
	return r.Current()
}

// Reset forces the stored level back to Idle immediately and
// unconditionally.
func (r *Register) Reset() {
	result := r.machine.HandleEvent(eventReset, nil)
	if result != nil && result.Error != nil {
		log.Error().Err(result.Error).Msg("Severity reset rejected")
	}
}

// Current returns the stored severity level. A state name that does not map
// to a known level decodes to Idle.
func (r *Register) Current() model.SeverityLevel {
	level, ok := model.LevelFromName(r.machine.CurrentState())
	if !ok {
		log.Warn().
			Str("state", r.machine.CurrentState()).
			Msg("Unknown severity state, decoding as idle")
		return model.LevelIdle
	}
	return level
}
