package shutdown

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/greenstack-labs/envmon-controller/internal/env"
	"github.com/greenstack-labs/envmon-controller/internal/model"
	"github.com/greenstack-labs/envmon-controller/internal/pinctrl"
)

// Shutdown drives every actuator relay and the main power relay to its
// inactive state before exiting. Remediation devices must never be left
// running without the controller.
func Shutdown() {
	if env.Cfg != nil && !env.Cfg.SafeMode {
		for _, a := range model.Actuators {
			deactivate(env.Cfg.ActuatorPin(a))
		}
		deactivate(env.Cfg.MainPowerPin())
		log.Info().Msg("Actuator relays and main power deactivated")
	}
	os.Exit(1)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Shutdown()
}

func deactivate(pin model.GPIOPin) {
	drive := "dl"
	if !pin.ActiveHigh {
		drive = "dh"
	}
	if err := pinctrl.SetPin(pin.Number, "op", "pn", drive); err != nil {
		log.Error().Err(err).Int("pin", pin.Number).Msg("Failed to deactivate pin during shutdown")
	}
}
