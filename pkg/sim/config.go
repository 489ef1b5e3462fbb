package sim

import (
	"flag"
	"time"

	"github.com/robotalks/mrf.go/pkg/odometry"
)

// Defaults
const (
	DefaultFrameInterval = 20 * time.Millisecond
	DefaultMaxWheelSpeed = 0.5
	DefaultAcceleration  = 1.0
)

// Config defines the simulated robot.
type Config struct {
	// FrameInterval is the interval between sensor frames.
	FrameInterval time.Duration
	// MaxWheelSpeed (m/s) is reached at full motor command.
	MaxWheelSpeed float64
	// Acceleration (m/s²) of the wheels, 0 means instant.
	Acceleration float64
	// LeftEncoder and RightEncoder are the encoder counter indexes in
	// the sensor frame.
	LeftEncoder  int
	RightEncoder int
	// Noise is the amplitude of uniform noise added to raw IMU readings.
	Noise int
	// Seed of the noise generator.
	Seed int64
	// Geometry of the wheels and encoders.
	Geometry odometry.Config
}

var defaultConfig = Config{
	FrameInterval: DefaultFrameInterval,
	MaxWheelSpeed: DefaultMaxWheelSpeed,
	Acceleration:  DefaultAcceleration,
	LeftEncoder:   0,
	RightEncoder:  1,
	Geometry:      odometry.DefaultConfig(),
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.FrameInterval, "sim-frame-interval", defaultConfig.FrameInterval, "Interval of simulated sensor frames.")
	flag.Float64Var(&defaultConfig.MaxWheelSpeed, "sim-max-speed", defaultConfig.MaxWheelSpeed, "Wheel speed (m/s) of simulated robot at full command.")
	flag.Float64Var(&defaultConfig.Acceleration, "sim-accel", defaultConfig.Acceleration, "Wheel acceleration (m/s²) of simulated robot, 0 for instant.")
	flag.IntVar(&defaultConfig.Noise, "sim-noise", defaultConfig.Noise, "Amplitude of simulated IMU noise in raw units.")
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
