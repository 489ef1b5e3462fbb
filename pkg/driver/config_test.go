package driver

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mrf.go/pkg/l0/comm"
)

const testConfigYAML = `
port: /dev/ttyACM0
serial:
  baud_rate: 57600
protocol: v3
sensor_interval: 20ms
left_encoder: 2
right_encoder: 3
robot_id: bot-1
odometry:
  wheel_base: 0.15
  path_capacity: 50
  min_interval: 2ms
`

func writeConfigFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	conf, err := LoadConfigFile(writeConfigFile(t, testConfigYAML), nil)
	require.NoError(t, err)
	require.NoError(t, conf.Validate())
	require.Equal(t, "/dev/ttyACM0", conf.Port)
	require.Equal(t, 57600, conf.Serial.BaudRate)
	require.Equal(t, "v3", conf.Protocol)
	require.Equal(t, 20*time.Millisecond, conf.SensorInterval)
	require.Equal(t, DefaultCommandInterval, conf.CommandInterval)
	require.Equal(t, comm.DefaultTimeout, conf.ReadTimeout)
	require.Equal(t, 2, conf.LeftEncoder)
	require.Equal(t, 3, conf.RightEncoder)
	require.Equal(t, "bot-1", conf.ID())
	require.Equal(t, 0.15, conf.Odometry.WheelBase)
	require.Equal(t, 0.05, conf.Odometry.WheelRadius)
	require.Equal(t, 50, conf.Odometry.PathCapacity)
	require.Equal(t, 2*time.Millisecond, conf.Odometry.MinInterval)

	v, err := conf.Variant()
	require.NoError(t, err)
	require.Equal(t, "v3", v.Name)
}

func TestLoadConfigFileOverrides(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Bool("sim", false, "")
	NewConfig().BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"-protocol", "v2", "-wheel-base", "0.3", "-sim"}))

	conf, err := LoadConfigFile(writeConfigFile(t, testConfigYAML), fs)
	require.NoError(t, err)
	require.Equal(t, "v2", conf.Protocol)
	require.Equal(t, 0.3, conf.Odometry.WheelBase)
	require.Equal(t, "/dev/ttyACM0", conf.Port)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	_, err = LoadConfigFile(writeConfigFile(t, "port: [\n"), nil)
	require.Error(t, err)
	_, err = LoadConfigFile(writeConfigFile(t, "sensor_interval: soon\n"), nil)
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"protocol", func(c *Config) { c.Protocol = "v0" }},
		{"parity", func(c *Config) { c.Serial.Parity = "X" }},
		{"read timeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"sensor interval", func(c *Config) { c.SensorInterval = 0 }},
		{"command interval", func(c *Config) { c.CommandInterval = -time.Second }},
		{"left encoder", func(c *Config) { c.LeftEncoder = 4 }},
		{"right encoder", func(c *Config) { c.RightEncoder = -1 }},
		{"same encoder", func(c *Config) { c.RightEncoder = c.LeftEncoder }},
		{"odometry", func(c *Config) { c.Odometry.WheelBase = 0 }},
	}
	require.NoError(t, NewConfig().Validate())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.modify(conf)
			require.Error(t, conf.Validate())
		})
	}
}

func TestNewConfigCopies(t *testing.T) {
	conf := NewConfig()
	conf.Port = "/dev/null"
	require.Equal(t, DefaultPort, Default().Port)
}

func TestConfigIgnoreLength(t *testing.T) {
	conf, err := LoadConfigFile(writeConfigFile(t, "protocol: attitude\nignore_length: true\n"), nil)
	require.NoError(t, err)
	v, err := conf.Variant()
	require.NoError(t, err)
	require.True(t, v.Sensor.IgnoreLength)

	frame := v.Sensor.Encode(comm.SensorSample{Encoders: [comm.EncoderCount]uint16{1, 2, 3, 4}})
	frame[1] = 0
	sample, err := v.Sensor.Decode(frame, time.Time{})
	require.NoError(t, err)
	require.Equal(t, uint16(4), sample.Encoders[3])

	v, err = NewConfig().Variant()
	require.NoError(t, err)
	require.False(t, v.Sensor.IgnoreLength)
}

func TestBindFlagsUsage(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	NewConfig().BindFlags(fs)
	usage := fs.Lookup("protocol").Usage
	for _, name := range comm.VariantNames() {
		require.Contains(t, usage, name)
	}
	require.NoError(t, fs.Parse([]string{"-ignore-length"}))
}
