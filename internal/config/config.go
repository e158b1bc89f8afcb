package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/greenstack-labs/envmon-controller/internal/model"
)

// Signal source selection.
const (
	SourceGPIO = "gpio"
	SourceMQTT = "mqtt"
)

// GPIO holds every pin assignment. Sensor pins are inputs; an asserted
// input means the channel reports a fault. Relay pins are outputs.
type GPIO struct {
	// sensor fault inputs
	TemperatureSensor *int `json:"temperature_sensor"`
	HumiditySensor    *int `json:"humidity_sensor"`
	VOCSensor         *int `json:"voc_sensor"`
	DustSensor        *int `json:"dust_sensor"`
	AirflowSensor     *int `json:"airflow_sensor"`
	LightSensor       *int `json:"light_sensor"`

	// actuator relays
	ExhaustFanRelay    *int `json:"exhaust_fan_relay"`
	InlineDuctFanRelay *int `json:"inline_duct_fan_relay"`
	HumidifierRelay    *int `json:"humidifier_relay"`
	DehumidifierRelay  *int `json:"dehumidifier_relay"`
	CoolingRelay       *int `json:"cooling_relay"`
	LEDLightRelay      *int `json:"led_light_relay"`

	// misc
	MainPowerRelay *int `json:"main_power_relay"`
}

// MQTT holds broker settings for the MQTT signal source/sink.
type MQTT struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
}

type Config struct {
	DBFile     string
	ConfigFile string
	LogLevel   zerolog.Level
	LogFile    string
	SafeMode   bool

	SignalSource        string `json:"signal_source"`
	TickIntervalSeconds int    `json:"tick_interval_seconds"`
	HTTPPort            int    `json:"http_port"`

	RelayBoardActiveHigh bool `json:"relay_board_active_high"`
	SensorsActiveHigh    bool `json:"sensors_active_high"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	NtfyTopic string `json:"ntfy_topic"`

	MQTT MQTT `json:"mqtt"`
	GPIO GPIO `json:"gpio"`
}

// Options carries the command-line values into Load.
type Options struct {
	ConfigFile string
	DBFile     string
	LogLevel   string
	LogFile    string
	SafeMode   bool
}

// Load reads the JSON config file, applies defaults and validates pin
// assignments. A .env file in the working directory is loaded first so
// deployments can keep broker credentials out of the config file.
func Load(opts Options) *Config {
	// missing .env is the normal case
	_ = godotenv.Load()

	var cfg Config
	cfg.ConfigFile = opts.ConfigFile
	cfg.DBFile = opts.DBFile
	cfg.LogFile = opts.LogFile
	cfg.SafeMode = opts.SafeMode
	cfg.LogLevel = parseLogLevel(opts.LogLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	if cfg.SignalSource == "" {
		cfg.SignalSource = SourceGPIO
	}
	if cfg.TickIntervalSeconds == 0 {
		cfg.TickIntervalSeconds = 5
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
	if broker := os.Getenv("ENVMON_MQTT_BROKER"); broker != "" {
		cfg.MQTT.Broker = broker
	}
	if user := os.Getenv("ENVMON_MQTT_USERNAME"); user != "" {
		cfg.MQTT.Username = user
	}
	if pass := os.Getenv("ENVMON_MQTT_PASSWORD"); pass != "" {
		cfg.MQTT.Password = pass
	}

	cfg.validate()
	return &cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) validate() {
	if cfg.SignalSource != SourceGPIO && cfg.SignalSource != SourceMQTT {
		panic("Invalid signal_source: " + cfg.SignalSource)
	}
	if cfg.SignalSource == SourceMQTT && cfg.MQTT.Broker == "" {
		panic("signal_source is mqtt but no broker is configured")
	}

	var (
		missingFields []string
		usedPins      = map[int]string{}
		conflicts     []string
	)

	v := reflect.ValueOf(cfg.GPIO)
	t := reflect.TypeOf(cfg.GPIO)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("json")

		if field.IsNil() {
			missingFields = append(missingFields, "gpio."+fieldName)
			continue
		}

		pin := field.Elem().Int()
		if other, exists := usedPins[int(pin)]; exists {
			conflicts = append(conflicts, fmt.Sprintf("gpio.%s and gpio.%s both use pin %d", fieldName, other, pin))
		} else {
			usedPins[int(pin)] = fieldName
		}
	}

	if len(missingFields) > 0 {
		panic("Missing required GPIO config fields: " + strings.Join(missingFields, ", "))
	}
	if len(conflicts) > 0 {
		panic("Conflicting GPIO pins: " + strings.Join(conflicts, ", "))
	}
}

// SensorPin returns the input pin assignment for a channel.
func (cfg *Config) SensorPin(c model.Channel) model.GPIOPin {
	var number *int
	switch c {
	case model.ChannelTemperature:
		number = cfg.GPIO.TemperatureSensor
	case model.ChannelHumidity:
		number = cfg.GPIO.HumiditySensor
	case model.ChannelVOC:
		number = cfg.GPIO.VOCSensor
	case model.ChannelDust:
		number = cfg.GPIO.DustSensor
	case model.ChannelAirflow:
		number = cfg.GPIO.AirflowSensor
	case model.ChannelLight:
		number = cfg.GPIO.LightSensor
	}
	if number == nil {
		panic("No pin assignment for sensor channel " + c.String())
	}
	return model.GPIOPin{Number: *number, ActiveHigh: cfg.SensorsActiveHigh}
}

// ActuatorPin returns the relay pin assignment for an actuator.
func (cfg *Config) ActuatorPin(a model.Actuator) model.GPIOPin {
	var number *int
	switch a {
	case model.ActuatorExhaustFan:
		number = cfg.GPIO.ExhaustFanRelay
	case model.ActuatorInlineDuctFan:
		number = cfg.GPIO.InlineDuctFanRelay
	case model.ActuatorHumidifier:
		number = cfg.GPIO.HumidifierRelay
	case model.ActuatorDehumidifier:
		number = cfg.GPIO.DehumidifierRelay
	case model.ActuatorCoolingSystem:
		number = cfg.GPIO.CoolingRelay
	case model.ActuatorLEDLight:
		number = cfg.GPIO.LEDLightRelay
	}
	if number == nil {
		panic("No pin assignment for actuator " + a.String())
	}
	return model.GPIOPin{Number: *number, ActiveHigh: cfg.RelayBoardActiveHigh}
}

// MainPowerPin returns the relay pin that powers the relay board.
func (cfg *Config) MainPowerPin() model.GPIOPin {
	if cfg.GPIO.MainPowerRelay == nil {
		panic("No pin assignment for main power relay")
	}
	return model.GPIOPin{Number: *cfg.GPIO.MainPowerRelay, ActiveHigh: cfg.RelayBoardActiveHigh}
}
