// Package envcontroller ties the decision core together: one synchronous
// evaluation step per tick, advanced by an external time source.
package envcontroller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/greenstack-labs/envmon-controller/internal/datadog"
	"github.com/greenstack-labs/envmon-controller/internal/decision"
	"github.com/greenstack-labs/envmon-controller/internal/model"
	"github.com/greenstack-labs/envmon-controller/internal/notifications"
	"github.com/greenstack-labs/envmon-controller/internal/severity"
)

// TickResult is the outcome of one evaluation step.
type TickResult struct {
	Reading       model.SensorReading
	AbnormalCount int
	// Level is the stored level the decoder ran with, i.e. the value latched
	// at the previous tick.
	Level model.SeverityLevel
	// NextLevel is the value latched for the next tick.
	NextLevel model.SeverityLevel
	WasReset  bool
	Command   model.ActuatorCommand
	Demand    model.ActuatorCommand
}

// Controller owns the severity register and evaluates one tick at a time.
type Controller struct {
	register *severity.Register
}

func New() (*Controller, error) {
	register, err := severity.NewRegister()
	if err != nil {
		return nil, err
	}
	return &Controller{register: register}, nil
}

// Tick runs one evaluation step. The decoder sees the level stored at the
// previous tick; the level classified from this tick's count only becomes
// visible at the next tick. Reset wins over the computed next level.
func (c *Controller) Tick(r model.SensorReading, reset bool) TickResult {
	level := c.register.Current()
	cmd, demand := decision.Decode(level, r)
	count := decision.CountAbnormal(r)

	var next model.SeverityLevel
	if reset {
		c.register.Reset()
		next = c.register.Current()
	} else {
		next = c.register.Advance(count)
	}

	return TickResult{
		Reading:       r,
		AbnormalCount: count,
		Level:         level,
		NextLevel:     next,
		WasReset:      reset,
		Command:       cmd,
		Demand:        demand,
	}
}

// CurrentLevel exposes the stored severity level for monitoring.
func (c *Controller) CurrentLevel() model.SeverityLevel {
	return c.register.Current()
}

// SignalSource supplies the six sensor flags for a tick.
type SignalSource interface {
	Read() model.SensorReading
}

// ActuatorSink receives the command produced by a tick.
type ActuatorSink interface {
	Apply(cmd model.ActuatorCommand)
}

// TickObserver is notified after each completed tick.
type TickObserver func(TickResult)

// Runner drives the controller from an external tick source and fans the
// results out to the actuator sink and observers.
type Runner struct {
	controller *Controller
	source     SignalSource
	sink       ActuatorSink

	mu           sync.Mutex
	resetPending bool
	observers    []TickObserver
}

func NewRunner(controller *Controller, source SignalSource, sink ActuatorSink) *Runner {
	return &Runner{
		controller: controller,
		source:     source,
		sink:       sink,
	}
}

// AddObserver registers a per-tick observer. Not safe to call once Run has
// started.
func (r *Runner) AddObserver(obs TickObserver) {
	r.observers = append(r.observers, obs)
}

// RequestReset asserts the reset signal for the next tick. Reset is an edge:
// it is consumed by exactly one tick.
func (r *Runner) RequestReset() {
	r.mu.Lock()
	r.resetPending = true
	r.mu.Unlock()
}

// CurrentLevel exposes the stored severity level for monitoring.
func (r *Runner) CurrentLevel() model.SeverityLevel {
	return r.controller.CurrentLevel()
}

func (r *Runner) consumeReset() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	reset := r.resetPending
	r.resetPending = false
	return reset
}

// RunOnce performs a single tick: sample, evaluate, drive outputs, notify.
func (r *Runner) RunOnce() TickResult {
	reading := r.source.Read()
	reset := r.consumeReset()

	res := r.controller.Tick(reading, reset)
	r.sink.Apply(res.Command)

	log.Debug().
		Int("abnormal_count", res.AbnormalCount).
		Str("level", res.Level.String()).
		Str("next_level", res.NextLevel.String()).
		Bool("reset", res.WasReset).
		Msg("Tick evaluated")

	datadog.Gauge("controller.severity_level", float64(res.NextLevel.Raw()))
	datadog.Gauge("controller.abnormal_count", float64(res.AbnormalCount))
	if res.WasReset {
		datadog.Count("controller.resets", 1)
	}
	if res.Demand.InlineDuctFan {
		datadog.Count("controller.inline_duct_fan_suppressed", 1)
	}

	if res.NextLevel == model.LevelEmergency && res.Level != model.LevelEmergency {
		datadog.Count("controller.emergency_entries", 1)
		log.Warn().Int("abnormal_count", res.AbnormalCount).Msg("Entering emergency severity")
		if err := notifications.SendWithPriority("Environmental emergency", "All six sensor channels report abnormal", notifications.PriorityUrgent); err != nil {
			log.Warn().Err(err).Msg("Failed to send emergency notification")
		}
	}
	if res.Level == model.LevelEmergency && res.NextLevel != model.LevelEmergency {
		log.Info().Str("next_level", res.NextLevel.String()).Msg("Leaving emergency severity")
		if err := notifications.Send("Environmental emergency cleared", "Severity dropped to "+res.NextLevel.String()); err != nil {
			log.Warn().Err(err).Msg("Failed to send emergency-clear notification")
		}
	}

	for _, obs := range r.observers {
		obs(res)
	}

	return res
}

// Run ticks the controller until the context is cancelled.
func (r *Runner) Run(ctx context.Context, interval time.Duration) {
	log.Info().Dur("interval", interval).Msg("Starting controller loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Controller loop stopped")
			return
		case <-ticker.C:
			r.RunOnce()
		}
	}
}
