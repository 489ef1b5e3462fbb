package driver

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/mrf.go/pkg/l0/comm"
	"github.com/robotalks/mrf.go/pkg/l0/serial"
	"github.com/robotalks/mrf.go/pkg/odometry"
)

// Defaults
const (
	DefaultPort            = "/dev/ttyUSB0"
	DefaultSensorInterval  = 50 * time.Millisecond
	DefaultCommandInterval = 100 * time.Millisecond
)

// Config defines the configuration of a robot connection.
type Config struct {
	Port     string         `yaml:"port"`
	Serial   serial.Options `yaml:"serial"`
	Protocol string         `yaml:"protocol"`
	// IgnoreLength skips validating the length byte of sensor frames.
	IgnoreLength bool `yaml:"ignore_length"`
	// ReadTimeout bounds every single read from the port.
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	SensorInterval  time.Duration `yaml:"sensor_interval"`
	CommandInterval time.Duration `yaml:"command_interval"`
	// LeftEncoder and RightEncoder select the encoder counters of the
	// wheels in the sensor frame.
	LeftEncoder  int    `yaml:"left_encoder"`
	RightEncoder int    `yaml:"right_encoder"`
	RobotID      string `yaml:"robot_id"`

	Odometry odometry.Config `yaml:"odometry"`
}

func builtinConfig() Config {
	return Config{
		Port:            DefaultPort,
		Serial:          serial.Options{BaudRate: serial.DefaultBaudRate},
		Protocol:        comm.DefaultVariant,
		ReadTimeout:     comm.DefaultTimeout,
		SensorInterval:  DefaultSensorInterval,
		CommandInterval: DefaultCommandInterval,
		LeftEncoder:     0,
		RightEncoder:    1,
		Odometry:        odometry.DefaultConfig(),
	}
}

var defaultConfig = builtinConfig()

// SetupFlags sets command line flags.
func SetupFlags() {
	defaultConfig.BindFlags(flag.CommandLine)
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

// BindFlags registers the fields as flags in fs.
func (c *Config) BindFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Port, "port", c.Port, "Serial port connected to the robot.")
	fs.IntVar(&c.Serial.BaudRate, "baud", c.Serial.BaudRate, "Serial baud rate.")
	fs.StringVar(&c.Serial.Parity, "parity", c.Serial.Parity, "Serial parity: N, E or O.")
	fs.StringVar(&c.Protocol, "protocol", c.Protocol, "Firmware protocol variant, one of: "+strings.Join(comm.VariantNames(), ", ")+".")
	fs.BoolVar(&c.IgnoreLength, "ignore-length", c.IgnoreLength, "Don't validate the length byte of sensor frames.")
	fs.DurationVar(&c.ReadTimeout, "read-timeout", c.ReadTimeout, "Timeout of a single read.")
	fs.DurationVar(&c.SensorInterval, "sensor-interval", c.SensorInterval, "Interval of reading sensor frames.")
	fs.DurationVar(&c.CommandInterval, "command-interval", c.CommandInterval, "Interval of sending motor commands.")
	fs.IntVar(&c.LeftEncoder, "left-encoder", c.LeftEncoder, "Index of left wheel encoder.")
	fs.IntVar(&c.RightEncoder, "right-encoder", c.RightEncoder, "Index of right wheel encoder.")
	fs.StringVar(&c.RobotID, "robot-id", c.RobotID, "Robot ID in reports, default is the machine ID.")
	c.Odometry.SetupFlags(fs)
}

// LoadConfigFile loads the YAML file over the built-in defaults. Flags
// explicitly set in overrides (usually flag.CommandLine) are applied last.
func LoadConfigFile(path string, overrides *flag.FlagSet) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	conf := builtinConfig()
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if overrides != nil {
		fs := flag.NewFlagSet(path, flag.ContinueOnError)
		conf.BindFlags(fs)
		overrides.Visit(func(f *flag.Flag) {
			if fs.Lookup(f.Name) == nil {
				return
			}
			if e := fs.Set(f.Name, f.Value.String()); e != nil && err == nil {
				err = errors.Wrapf(e, "flag %s", f.Name)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	glog.V(2).Infof("config loaded from %s", path)
	return &conf, nil
}

// Variant looks up the protocol variant.
func (c *Config) Variant() (*comm.Variant, error) {
	v, err := comm.LookupVariant(c.Protocol)
	if err != nil {
		return nil, err
	}
	if c.IgnoreLength {
		v.Sensor.IgnoreLength = true
	}
	return v, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := c.Variant(); err != nil {
		return err
	}
	if _, err := c.Serial.Normalize(); err != nil {
		return errors.Wrap(err, "serial")
	}
	if c.ReadTimeout <= 0 {
		return errors.Errorf("invalid read timeout %v", c.ReadTimeout)
	}
	if c.SensorInterval <= 0 || c.CommandInterval <= 0 {
		return errors.Errorf("invalid intervals: sensor %v, command %v", c.SensorInterval, c.CommandInterval)
	}
	for _, index := range []int{c.LeftEncoder, c.RightEncoder} {
		if index < 0 || index >= comm.EncoderCount {
			return errors.Errorf("invalid encoder index %d", index)
		}
	}
	if c.LeftEncoder == c.RightEncoder {
		return errors.Errorf("left and right encoder are both %d", c.LeftEncoder)
	}
	return errors.Wrap(c.Odometry.Validate(), "odometry")
}

// ID returns RobotID, or the machine ID if it's not set.
func (c *Config) ID() string {
	if c.RobotID != "" {
		return c.RobotID
	}
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return "unknown"
	}
	return id
}
