package model

// Channel identifies one of the six monitored environmental channels.
type Channel int

const (
	ChannelTemperature Channel = iota
	ChannelHumidity
	ChannelVOC
	ChannelDust
	ChannelAirflow
	ChannelLight
)

// Channels lists every monitored channel in a stable order.
var Channels = [...]Channel{
	ChannelTemperature,
	ChannelHumidity,
	ChannelVOC,
	ChannelDust,
	ChannelAirflow,
	ChannelLight,
}

func (c Channel) String() string {
	switch c {
	case ChannelTemperature:
		return "temperature"
	case ChannelHumidity:
		return "humidity"
	case ChannelVOC:
		return "voc"
	case ChannelDust:
		return "dust"
	case ChannelAirflow:
		return "airflow"
	case ChannelLight:
		return "light"
	default:
		return "unknown"
	}
}

// SensorReading holds one binary health flag per channel, sampled
// simultaneously each tick. True means the channel reports normal,
// false means abnormal.
type SensorReading struct {
	Temperature bool `json:"temperature"`
	Humidity    bool `json:"humidity"`
	VOC         bool `json:"voc"`
	Dust        bool `json:"dust"`
	Airflow     bool `json:"airflow"`
	Light       bool `json:"light"`
}

// AllNormal returns a reading with every channel healthy.
func AllNormal() SensorReading {
	return SensorReading{
		Temperature: true,
		Humidity:    true,
		VOC:         true,
		Dust:        true,
		Airflow:     true,
		Light:       true,
	}
}

// Flag returns the health flag for a single channel.
func (r SensorReading) Flag(c Channel) bool {
	switch c {
	case ChannelTemperature:
		return r.Temperature
	case ChannelHumidity:
		return r.Humidity
	case ChannelVOC:
		return r.VOC
	case ChannelDust:
		return r.Dust
	case ChannelAirflow:
		return r.Airflow
	case ChannelLight:
		return r.Light
	default:
		return true
	}
}

// SetFlag sets the health flag for a single channel.
func (r *SensorReading) SetFlag(c Channel, normal bool) {
	switch c {
	case ChannelTemperature:
		r.Temperature = normal
	case ChannelHumidity:
		r.Humidity = normal
	case ChannelVOC:
		r.VOC = normal
	case ChannelDust:
		r.Dust = normal
	case ChannelAirflow:
		r.Airflow = normal
	case ChannelLight:
		r.Light = normal
	}
}

// SeverityLevel is the five-way escalation classification driving response
// intensity. Levels are totally ordered from Idle up to Emergency.
type SeverityLevel int

const (
	LevelIdle SeverityLevel = iota
	LevelSingle
	LevelMultiple
	LevelCritical
	LevelEmergency
)

// Levels lists every severity level in escalation order.
var Levels = [...]SeverityLevel{
	LevelIdle,
	LevelSingle,
	LevelMultiple,
	LevelCritical,
	LevelEmergency,
}

func (l SeverityLevel) String() string {
	switch l {
	case LevelIdle:
		return "idle"
	case LevelSingle:
		return "single"
	case LevelMultiple:
		return "multiple"
	case LevelCritical:
		return "critical"
	case LevelEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Raw returns the 3-bit telemetry encoding of the level.
func (l SeverityLevel) Raw() uint8 {
	if l < LevelIdle || l > LevelEmergency {
		return 0
	}
	return uint8(l)
}

// LevelFromRaw decodes a 3-bit telemetry encoding. The encodings above
// Emergency are unreachable under correct transition logic and decode to
// Idle rather than propagate an undefined level.
func LevelFromRaw(raw uint8) SeverityLevel {
	if raw > uint8(LevelEmergency) {
		return LevelIdle
	}
	return SeverityLevel(raw)
}

// LevelFromName maps a level name back to its value. Unknown names report
// ok=false.
func LevelFromName(name string) (SeverityLevel, bool) {
	for _, l := range Levels {
		if l.String() == name {
			return l, true
		}
	}
	return LevelIdle, false
}

// Actuator identifies one of the six actuator output channels.
type Actuator int

const (
	ActuatorExhaustFan Actuator = iota
	ActuatorInlineDuctFan
	ActuatorHumidifier
	ActuatorDehumidifier
	ActuatorCoolingSystem
	ActuatorLEDLight
)

// Actuators lists every actuator output in a stable order.
var Actuators = [...]Actuator{
	ActuatorExhaustFan,
	ActuatorInlineDuctFan,
	ActuatorHumidifier,
	ActuatorDehumidifier,
	ActuatorCoolingSystem,
	ActuatorLEDLight,
}

func (a Actuator) String() string {
	switch a {
	case ActuatorExhaustFan:
		return "exhaust_fan"
	case ActuatorInlineDuctFan:
		return "inline_duct_fan"
	case ActuatorHumidifier:
		return "humidifier"
	case ActuatorDehumidifier:
		return "dehumidifier"
	case ActuatorCoolingSystem:
		return "cooling_system"
	case ActuatorLEDLight:
		return "led_light"
	default:
		return "unknown"
	}
}

// ActuatorCommand holds one binary on/off instruction per actuator output.
// The inline duct fan channel is hard-pinned off at the output stage; its
// rule demand is carried separately for audit.
type ActuatorCommand struct {
	ExhaustFan    bool `json:"exhaust_fan"`
	InlineDuctFan bool `json:"inline_duct_fan"`
	Humidifier    bool `json:"humidifier"`
	Dehumidifier  bool `json:"dehumidifier"`
	CoolingSystem bool `json:"cooling_system"`
	LEDLight      bool `json:"led_light"`
}

// Get returns the command bit for a single actuator.
func (c ActuatorCommand) Get(a Actuator) bool {
	switch a {
	case ActuatorExhaustFan:
		return c.ExhaustFan
	case ActuatorInlineDuctFan:
		return c.InlineDuctFan
	case ActuatorHumidifier:
		return c.Humidifier
	case ActuatorDehumidifier:
		return c.Dehumidifier
	case ActuatorCoolingSystem:
		return c.CoolingSystem
	case ActuatorLEDLight:
		return c.LEDLight
	default:
		return false
	}
}

// Set sets the command bit for a single actuator.
func (c *ActuatorCommand) Set(a Actuator, on bool) {
	switch a {
	case ActuatorExhaustFan:
		c.ExhaustFan = on
	case ActuatorInlineDuctFan:
		c.InlineDuctFan = on
	case ActuatorHumidifier:
		c.Humidifier = on
	case ActuatorDehumidifier:
		c.Dehumidifier = on
	case ActuatorCoolingSystem:
		c.CoolingSystem = on
	case ActuatorLEDLight:
		c.LEDLight = on
	}
}

// GPIOPin describes a physical pin assignment.
type GPIOPin struct {
	Number     int
	ActiveHigh bool
}
