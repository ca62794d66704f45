package env

import "time"

const (
	GPIO20 = "GPIO20" // heartbeat LED

	HeartbeatLed = GPIO20

	// I²C addresses
	AtmosphereAddr  uint16 = 0x76 // BME280, SDO to GND
	IlluminanceAddr uint16 = 0x23 // BH1750, ADDR to GND
	RainADCAddr     uint16 = 0x48 // ADS1115, ADDR to GND

	BusTimeout = time.Second

	// BH1750 needs up to 180ms in H-res mode, 120ms is typical
	IlluminanceSettle = time.Millisecond * 120
	LuxSensitivity    = 1.2

	RainSamples = 64
	// rain module output is scaled so 3250mV reads as the top of a 10 bit range
	RainFullScaleMV = 3250
	RainScaleMax    = 1023

	SampleInterval  = time.Second * 60
	WatchdogTimeout = time.Second * 180
	NetworkPoll     = time.Second * 5
	PublishTimeout  = time.Second * 10

	// Met Office WOW uploads go out on the quarter hour
	ReportFreqMin = 15
	HPaToInHg     = 0.02953

	LEDFlashDuration = time.Millisecond * 50
)

// Topics, one per published metric.
const (
	TopicRain        = "topic/rain"
	TopicTemperature = "topic/temperature"
	TopicHumidity    = "topic/humidity"
	TopicPressure    = "topic/pressure"
	TopicIlluminance = "topic/illuminance"
)
