package joystick

import (
	"flag"
	"time"
)

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int `yaml:"device"`
	// SpeedAxis drives forward when pushed up, TurnAxis turns right when
	// pushed right.
	SpeedAxis int `yaml:"speed_axis"`
	TurnAxis  int `yaml:"turn_axis"`
	// Deadzone is the raw axis magnitude treated as centered.
	Deadzone int `yaml:"deadzone"`
	// MaxSpeed and MaxAngle are the drive command values at full deflection.
	MaxSpeed      int           `yaml:"max_speed"`
	MaxAngle      int           `yaml:"max_angle"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Verbose       bool          `yaml:"verbose"`
}

var defaultConfig = Config{
	DeviceIndex:   -1,
	SpeedAxis:     1,
	TurnAxis:      0,
	Deadzone:      2000,
	MaxSpeed:      100,
	MaxAngle:      100,
	RetryInterval: time.Second,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "joystick-device", defaultConfig.DeviceIndex, "Joystick device index, -1 for auto detection.")
	flag.IntVar(&defaultConfig.SpeedAxis, "joystick-speed-axis", defaultConfig.SpeedAxis, "Joystick axis for speed.")
	flag.IntVar(&defaultConfig.TurnAxis, "joystick-turn-axis", defaultConfig.TurnAxis, "Joystick axis for turning.")
	flag.IntVar(&defaultConfig.Deadzone, "joystick-deadzone", defaultConfig.Deadzone, "Joystick axis deadzone.")
	flag.BoolVar(&defaultConfig.Verbose, "joystick-verbose", defaultConfig.Verbose, "Print Joystick events.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller using the config.
func (c *Config) NewController() *Controller {
	return NewController(*c)
}
