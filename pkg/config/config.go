package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Board kinds understood by the agent.
const (
	BoardMock   = "mock"
	BoardSerial = "serial"
	BoardGPIO   = "gpio"
)

// BoardWidth is the bit width of the ADC codes every board returns.
const BoardWidth = 12

// Config represents the agent configuration.
type Config struct {
	Collector   CollectorConfig   `yaml:"collector"`
	Identity    IdentityConfig    `yaml:"identity"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Board       BoardConfig       `yaml:"board"`
	Mock        MockConfig        `yaml:"mock"`
	Log         LogConfig         `yaml:"log"`
}

// CollectorConfig describes the remote HTTP collector.
type CollectorConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Path        string        `yaml:"path"`  // Listing resource, the device resource is Path/<fleet>
	Query       string        `yaml:"query"` // Query sent with the startup listing request
	Timeout     time.Duration `yaml:"timeout"`
	KeepAlive   time.Duration `yaml:"keep_alive"`
	Interval    time.Duration `yaml:"interval"` // Publish period
	SkipListing bool          `yaml:"skip_listing"`
}

// IdentityConfig holds the constant device identity fields sent with every status.
type IdentityConfig struct {
	Fleet int    `yaml:"fleet"`
	Model string `yaml:"model"`
	Op    int    `yaml:"op"`
	Group int    `yaml:"group"`
}

// SamplingConfig contains the sampler periods.
type SamplingConfig struct {
	RPMInterval    time.Duration `yaml:"rpm_interval"`
	AnalogInterval time.Duration `yaml:"analog_interval"`
	AnalogSamples  int           `yaml:"analog_samples"`
	AnalogChannel  int           `yaml:"analog_channel"`
}

// CalibrationConfig contains ADC characterization parameters.
type CalibrationConfig struct {
	Unit        int `yaml:"unit"`
	Attenuation int `yaml:"attenuation"` // dB: 0, 2 (2.5), 6 or 11
	Width       int `yaml:"width"`       // Bit width, must match BoardWidth
	VRef        int `yaml:"vref"`        // Reference voltage in mV
}

// BoardConfig selects and configures the sensor backend.
type BoardConfig struct {
	Kind   string       `yaml:"kind"`
	Serial SerialConfig `yaml:"serial"`
	GPIO   GPIOConfig   `yaml:"gpio"`
}

// SerialConfig contains serial port configuration of the MCU bridge.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// GPIOConfig contains Linux GPIO character device and I2C ADC configuration.
type GPIOConfig struct {
	Chip       string `yaml:"chip"`
	Rotation   int    `yaml:"rotation"` // Line offsets
	Endstop    int    `yaml:"endstop"`
	Aux        int    `yaml:"aux"`
	I2CBus     string `yaml:"i2c_bus"`
	ADCAddress uint16 `yaml:"adc_address"`
}

// MockConfig contains mock board configuration.
type MockConfig struct {
	RPM            float64       `yaml:"rpm"`             // Simulated wheel speed
	PressureRaw    int           `yaml:"pressure_raw"`    // Center of the simulated raw ADC reading
	PressureSwing  int           `yaml:"pressure_swing"`  // Amplitude of the raw reading oscillation
	PressurePeriod time.Duration `yaml:"pressure_period"` // Oscillation period
	EndstopPeriod  time.Duration `yaml:"endstop_period"`  // Endstop toggles every half period
}

// LogConfig contains logging options.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Collector: CollectorConfig{
			Host:      "192.168.2.9",
			Port:      5000,
			Path:      "/api/equipments",
			Query:     "esp",
			Timeout:   5 * time.Second,
			KeepAlive: 90 * time.Second,
			Interval:  3000 * time.Millisecond,
		},
		Identity: IdentityConfig{
			Fleet: 4200,
			Model: "HidroROLL",
			Op:    6656,
			Group: 1,
		},
		Sampling: SamplingConfig{
			RPMInterval:    10 * time.Millisecond,
			AnalogInterval: 1000 * time.Millisecond,
			AnalogSamples:  64,
			AnalogChannel:  0,
		},
		Calibration: CalibrationConfig{
			Unit:        1,
			Attenuation: 11,
			Width:       BoardWidth,
			VRef:        1100,
		},
		Board: BoardConfig{
			Kind: BoardMock,
			Serial: SerialConfig{
				Port:     "/dev/ttyUSB0",
				BaudRate: 115200,
			},
			GPIO: GPIOConfig{
				Chip:       "gpiochip0",
				Rotation:   35,
				Endstop:    39,
				Aux:        36,
				I2CBus:     "",
				ADCAddress: 0x48,
			},
		},
		Mock: MockConfig{
			RPM:            120,
			PressureRaw:    2048,
			PressureSwing:  512,
			PressurePeriod: 20 * time.Second,
			EndstopPeriod:  30 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports settings that would make the agent meaningless.
func (c *Config) Validate() error {
	switch c.Board.Kind {
	case BoardMock, BoardSerial, BoardGPIO:
	default:
		return fmt.Errorf("unknown board kind %q", c.Board.Kind)
	}
	if c.Collector.Port <= 0 || c.Collector.Port > 65535 {
		return fmt.Errorf("collector port out of range: %d", c.Collector.Port)
	}
	if c.Sampling.AnalogChannel < 0 {
		return errors.New("analog channel must not be negative")
	}
	// Every board delivers 12-bit codes.
	if c.Calibration.Width != BoardWidth {
		return fmt.Errorf("calibration width must be %d bits, got %d", BoardWidth, c.Calibration.Width)
	}
	if c.Calibration.Unit != 1 {
		return fmt.Errorf("unsupported ADC unit %d", c.Calibration.Unit)
	}
	return nil
}

// BaseURL returns the collector scheme, host and port.
func (c CollectorConfig) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Collector.Host == "" {
		c.Collector.Host = def.Collector.Host
	}
	if c.Collector.Port == 0 {
		c.Collector.Port = def.Collector.Port
	}
	if c.Collector.Path == "" {
		c.Collector.Path = def.Collector.Path
	}
	if c.Collector.Timeout == 0 {
		c.Collector.Timeout = def.Collector.Timeout
	}
	if c.Collector.KeepAlive == 0 {
		c.Collector.KeepAlive = def.Collector.KeepAlive
	}
	if c.Collector.Interval == 0 {
		c.Collector.Interval = def.Collector.Interval
	}

	if c.Identity.Model == "" {
		c.Identity.Model = def.Identity.Model
	}

	if c.Sampling.RPMInterval == 0 {
		c.Sampling.RPMInterval = def.Sampling.RPMInterval
	}
	if c.Sampling.AnalogInterval == 0 {
		c.Sampling.AnalogInterval = def.Sampling.AnalogInterval
	}
	if c.Sampling.AnalogSamples <= 0 {
		c.Sampling.AnalogSamples = def.Sampling.AnalogSamples
	}

	if c.Calibration.Unit == 0 {
		c.Calibration.Unit = def.Calibration.Unit
	}
	if c.Calibration.Width == 0 {
		c.Calibration.Width = def.Calibration.Width
	}
	if c.Calibration.VRef == 0 {
		c.Calibration.VRef = def.Calibration.VRef
	}

	if c.Board.Kind == "" {
		c.Board.Kind = def.Board.Kind
	}
	if c.Board.Serial.Port == "" {
		c.Board.Serial.Port = def.Board.Serial.Port
	}
	if c.Board.Serial.BaudRate == 0 {
		c.Board.Serial.BaudRate = def.Board.Serial.BaudRate
	}
	if c.Board.GPIO.Chip == "" {
		c.Board.GPIO.Chip = def.Board.GPIO.Chip
	}
	if c.Board.GPIO.ADCAddress == 0 {
		c.Board.GPIO.ADCAddress = def.Board.GPIO.ADCAddress
	}

	if c.Mock.PressurePeriod == 0 {
		c.Mock.PressurePeriod = def.Mock.PressurePeriod
	}
	if c.Mock.EndstopPeriod == 0 {
		c.Mock.EndstopPeriod = def.Mock.EndstopPeriod
	}
}
