package gpio

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/greenstack-labs/envmon-controller/internal/config"
	"github.com/greenstack-labs/envmon-controller/internal/model"
	"github.com/greenstack-labs/envmon-controller/internal/pinctrl"
	"github.com/greenstack-labs/envmon-controller/system/shutdown"
)

var safeMode bool

// injectable for tests
var (
	readLevel = pinctrl.ReadLevel
	setPin    = pinctrl.SetPin
)

// SetSafeMode disables physical pin writes system-wide.
func SetSafeMode(enabled bool) {
	safeMode = enabled
}

// Read returns the logic level of a pin. Pin reads are load-bearing for the
// decision core, so a failed read shuts the system down.
func Read(pin model.GPIOPin) bool {
	level, err := readLevel(pin.Number)
	if err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to read pin level for pin %d", pin.Number))
	}
	return level
}

var Activate = func(pin model.GPIOPin) {
	if safeMode {
		return
	}

	drive := "dh"
	if !pin.ActiveHigh {
		drive = "dl"
	}
	if err := setPin(pin.Number, "op", "pn", drive); err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to activate pin %d", pin.Number))
	}
}

var Deactivate = func(pin model.GPIOPin) {
	if safeMode {
		return
	}

	drive := "dl"
	if !pin.ActiveHigh {
		drive = "dh"
	}
	if err := setPin(pin.Number, "op", "pn", drive); err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to deactivate pin %d", pin.Number))
	}
}

var CurrentlyActive = func(pin model.GPIOPin) bool {
	level := Read(pin)
	return pin.ActiveHigh == level
}

// ValidateStartupPins refuses to start with any actuator relay or the main
// power relay already energized.
func ValidateStartupPins(cfg *config.Config) error {
	type pinWithMeta struct {
		Name string
		Pin  model.GPIOPin
	}

	checks := make([]pinWithMeta, 0, len(model.Actuators)+1)
	for _, a := range model.Actuators {
		checks = append(checks, pinWithMeta{a.String(), cfg.ActuatorPin(a)})
	}
	checks = append(checks, pinWithMeta{"main_power", cfg.MainPowerPin()})

	for _, check := range checks {
		level, err := readLevel(check.Pin.Number)
		if err != nil {
			return fmt.Errorf("failed to read pin level for %s (GPIO %d): %w", check.Name, check.Pin.Number, err)
		}
		if check.Pin.ActiveHigh == level {
			return fmt.Errorf("pin %d (%s) is active at startup", check.Pin.Number, check.Name)
		}
	}

	return nil
}

// Source samples the six sensor fault inputs. An asserted input means the
// channel reports a fault, so the health flag is the inverse of the pin's
// active state.
type Source struct {
	cfg *config.Config
}

func NewSource(cfg *config.Config) *Source {
	return &Source{cfg: cfg}
}

func (s *Source) Read() model.SensorReading {
	var r model.SensorReading
	for _, c := range model.Channels {
		r.SetFlag(c, !CurrentlyActive(s.cfg.SensorPin(c)))
	}
	return r
}

// Sink drives the six actuator relays to match a command.
type Sink struct {
	cfg *config.Config
}

func NewSink(cfg *config.Config) *Sink {
	return &Sink{cfg: cfg}
}

func (s *Sink) Apply(cmd model.ActuatorCommand) {
	for _, a := range model.Actuators {
		pin := s.cfg.ActuatorPin(a)
		if cmd.Get(a) {
			Activate(pin)
		} else {
			Deactivate(pin)
		}
	}

	log.Debug().
		Bool("exhaust_fan", cmd.ExhaustFan).
		Bool("inline_duct_fan", cmd.InlineDuctFan).
		Bool("humidifier", cmd.Humidifier).
		Bool("dehumidifier", cmd.Dehumidifier).
		Bool("cooling_system", cmd.CoolingSystem).
		Bool("led_light", cmd.LEDLight).
		Msg("Applied actuator command")
}
