// Package startup wires the subsystems together and runs the controller
// loop until the context is cancelled.
package startup

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/greenstack-labs/envmon-controller/db"
	"github.com/greenstack-labs/envmon-controller/internal/api"
	"github.com/greenstack-labs/envmon-controller/internal/config"
	"github.com/greenstack-labs/envmon-controller/internal/controllers/envcontroller"
	"github.com/greenstack-labs/envmon-controller/internal/datadog"
	"github.com/greenstack-labs/envmon-controller/internal/gpio"
	"github.com/greenstack-labs/envmon-controller/internal/mqtt"
	"github.com/greenstack-labs/envmon-controller/internal/notifications"
	"github.com/greenstack-labs/envmon-controller/system/shutdown"
)

// Run starts the monitor with the loaded configuration and blocks until ctx
// is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	gpio.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED: GPIO writes are disabled system-wide")
	}

	if cfg.EnableDatadog {
		datadog.InitMetrics()
	}
	notifications.Init()

	dbConn, err := db.Open(cfg.DBFile)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	controller, err := envcontroller.New()
	if err != nil {
		return err
	}

	var (
		runner     *envcontroller.Runner
		mqttClient *mqtt.Client
	)

	switch cfg.SignalSource {
	case config.SourceMQTT:
		mqttClient, err = mqtt.New(cfg.MQTT)
		if err != nil {
			return err
		}
		runner = envcontroller.NewRunner(controller, mqttClient, mqttClient)
		mqttClient.SetResetHandler(runner.RequestReset)
		if err := mqttClient.Connect(); err != nil {
			return err
		}
		defer mqttClient.Disconnect()

	default:
		if err := gpio.ValidateStartupPins(cfg); err != nil {
			log.Error().Err(err).Msg("Refusing to enable relay board due to unsafe pin states")
			return err
		}
		runner = envcontroller.NewRunner(controller, gpio.NewSource(cfg), gpio.NewSink(cfg))
	}

	hub := api.NewHub()

	runner.AddObserver(func(res envcontroller.TickResult) {
		rec := tickRecord(res)
		if err := db.InsertTick(dbConn, rec); err != nil {
			log.Error().Err(err).Msg("Failed to persist tick record")
		}
		hub.Broadcast(rec)
		if mqttClient != nil {
			mqttClient.PublishSeverity(res.NextLevel)
		}
	})

	server := api.NewServer(dbConn, runner, hub)
	go func() {
		if err := server.Start(cfg.HTTPPort); err != nil {
			shutdown.ShutdownWithError(err, "REST API server failed")
		}
	}()

	log.Info().
		Str("signal_source", cfg.SignalSource).
		Int("tick_interval_seconds", cfg.TickIntervalSeconds).
		Msg("Environmental monitor started")

	runner.Run(ctx, time.Duration(cfg.TickIntervalSeconds)*time.Second)
	return nil
}

func tickRecord(res envcontroller.TickResult) db.TickRecord {
	return db.TickRecord{
		ID:                  db.NewTickID(),
		CreatedAt:           time.Now(),
		Reading:             res.Reading,
		AbnormalCount:       res.AbnormalCount,
		Level:               res.Level,
		NextLevel:           res.NextLevel,
		LevelName:           res.Level.String(),
		NextLevelName:       res.NextLevel.String(),
		WasReset:            res.WasReset,
		Command:             res.Command,
		InlineDuctFanDemand: res.Demand.InlineDuctFan,
	}
}
