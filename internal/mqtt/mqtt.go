// Package mqtt provides the MQTT signal source and telemetry sink used for
// bench deployments where the sensor flags arrive over a broker instead of
// GPIO.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/greenstack-labs/envmon-controller/internal/config"
	"github.com/greenstack-labs/envmon-controller/internal/model"
)

const defaultPrefix = "envmon"

// Client wraps the paho client. It retains the latest flag published per
// sensor topic between ticks, so the controller always samples a complete
// reading. Channels that have never published read as normal.
type Client struct {
	client mqtt.Client
	cfg    config.MQTT
	prefix string

	mu      sync.RWMutex
	reading model.SensorReading
	onReset func()
}

// New creates an MQTT client for the configured broker.
func New(cfg config.MQTT) (*Client, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required")
	}

	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("envmon-%d", time.Now().Unix())
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	c := &Client{
		cfg:     cfg,
		prefix:  prefix,
		reading: model.AllNormal(),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("MQTT connected")
		c.subscribe(client)
	})
	opts.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		log.Info().Msg("MQTT reconnecting")
	})

	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// SetResetHandler registers the callback invoked when a message arrives on
// the reset topic. Must be called before Connect.
func (c *Client) SetResetHandler(fn func()) {
	c.onReset = fn
}

// Connect establishes the broker connection and subscribes to the sensor
// and reset topics.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

// Disconnect closes the broker connection.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

func (c *Client) topic(parts ...string) string {
	return c.prefix + "/" + strings.Join(parts, "/")
}

// subscribe runs on every (re)connect so subscriptions survive broker
// restarts.
func (c *Client) subscribe(client mqtt.Client) {
	sensorTopic := c.topic("sensors", "+")
	if token := client.Subscribe(sensorTopic, 1, c.handleSensor); token.Wait() && token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", sensorTopic).Msg("Failed to subscribe to sensor topic")
	}

	resetTopic := c.topic("reset")
	if token := client.Subscribe(resetTopic, 1, c.handleReset); token.Wait() && token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", resetTopic).Msg("Failed to subscribe to reset topic")
	}
}

// handleSensor updates the retained flag for one channel. Payload "1" means
// the channel reports normal, "0" abnormal.
func (c *Client) handleSensor(_ mqtt.Client, msg mqtt.Message) {
	parts := strings.Split(msg.Topic(), "/")
	name := parts[len(parts)-1]

	var channel model.Channel
	found := false
	for _, ch := range model.Channels {
		if ch.String() == name {
			channel = ch
			found = true
			break
		}
	}
	if !found {
		log.Warn().Str("topic", msg.Topic()).Msg("Sensor message for unknown channel")
		return
	}

	payload := strings.TrimSpace(string(msg.Payload()))
	var normal bool
	switch payload {
	case "1":
		normal = true
	case "0":
		normal = false
	default:
		log.Warn().
			Str("channel", name).
			Str("payload", payload).
			Msg("Sensor payload is not a binary flag")
		return
	}

	c.mu.Lock()
	c.reading.SetFlag(channel, normal)
	c.mu.Unlock()
}

func (c *Client) handleReset(_ mqtt.Client, _ mqtt.Message) {
	log.Info().Msg("Reset requested via MQTT")
	if c.onReset != nil {
		c.onReset()
	}
}

// Read returns the latest complete reading. Implements the controller's
// signal source.
func (c *Client) Read() model.SensorReading {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reading
}

// Apply publishes the per-tick actuator states. Implements the controller's
// actuator sink for broker-only deployments.
func (c *Client) Apply(cmd model.ActuatorCommand) {
	for _, a := range model.Actuators {
		payload := "0"
		if cmd.Get(a) {
			payload = "1"
		}
		c.publish(c.topic("actuators", a.String()), payload)
	}
}

// PublishSeverity publishes the stored severity level after a tick.
func (c *Client) PublishSeverity(level model.SeverityLevel) {
	body, err := json.Marshal(map[string]any{
		"level": level.String(),
		"raw":   level.Raw(),
	})
	if err != nil {
		return
	}
	c.publish(c.topic("severity"), string(body))
}

func (c *Client) publish(topic, payload string) {
	token := c.client.Publish(topic, 0, true, payload)
	if token.Wait() && token.Error() != nil {
		log.Warn().Err(token.Error()).Str("topic", topic).Msg("Failed to publish")
	}
}
