package odometry

import (
	"flag"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Defaults for a small two-wheel robot.
const (
	DefaultWheelBase         = 0.2
	DefaultWheelRadius       = 0.05
	DefaultEncoderResolution = 1024
	DefaultPathCapacity      = 1000
	DefaultMinInterval       = time.Millisecond
)

// Config defines the robot geometry and integrator settings.
type Config struct {
	// WheelBase is the distance between wheels in meters.
	WheelBase float64 `yaml:"wheel_base" json:"wheel_base"`
	// WheelRadius in meters.
	WheelRadius float64 `yaml:"wheel_radius" json:"wheel_radius"`
	// EncoderResolution is the number of pulses per wheel revolution.
	EncoderResolution int `yaml:"encoder_resolution" json:"encoder_resolution"`
	// PathCapacity is the max number of poses kept in the path.
	PathCapacity int `yaml:"path_capacity" json:"path_capacity"`
	// MinInterval is the minimum time between readings to be applied.
	MinInterval time.Duration `yaml:"min_interval" json:"min_interval"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		WheelBase:         DefaultWheelBase,
		WheelRadius:       DefaultWheelRadius,
		EncoderResolution: DefaultEncoderResolution,
		PathCapacity:      DefaultPathCapacity,
		MinInterval:       DefaultMinInterval,
	}
}

// SetupFlags registers the fields as command line flags, current values
// become flag defaults.
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	fs.Float64Var(&c.WheelBase, "wheel-base", c.WheelBase, "Distance (m) between the wheels.")
	fs.Float64Var(&c.WheelRadius, "wheel-radius", c.WheelRadius, "Wheel radius (m).")
	fs.IntVar(&c.EncoderResolution, "encoder-resolution", c.EncoderResolution, "Encoder pulses per wheel revolution.")
	fs.IntVar(&c.PathCapacity, "path-capacity", c.PathCapacity, "Max number of poses kept in path history.")
	fs.DurationVar(&c.MinInterval, "odometry-min-interval", c.MinInterval, "Readings closer than this are ignored.")
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !(c.WheelBase > 0) {
		return errors.Errorf("invalid wheel base %v", c.WheelBase)
	}
	if !(c.WheelRadius > 0) {
		return errors.Errorf("invalid wheel radius %v", c.WheelRadius)
	}
	if c.EncoderResolution <= 0 {
		return errors.Errorf("invalid encoder resolution %d", c.EncoderResolution)
	}
	if c.PathCapacity <= 0 {
		return errors.Errorf("invalid path capacity %d", c.PathCapacity)
	}
	if c.MinInterval < 0 {
		return errors.Errorf("invalid min interval %v", c.MinInterval)
	}
	return nil
}

// DistancePerPulse is the wheel travel in meters of one encoder pulse.
func (c Config) DistancePerPulse() float64 {
	return 2 * math.Pi * c.WheelRadius / float64(c.EncoderResolution)
}
