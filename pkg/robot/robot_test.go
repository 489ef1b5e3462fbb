package robot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mrf.go/pkg/driver"
	"github.com/robotalks/mrf.go/pkg/l0/comm"
	"github.com/robotalks/mrf.go/pkg/sim"
)

type forward struct{}

func (forward) DriveCommand() (comm.MotorCommand, bool) {
	return comm.MotorCommand{Speed: 100}, true
}

func newSimRobot(t *testing.T, protocol string) *Robot {
	conf := driver.NewConfig()
	conf.Protocol = protocol
	conf.RobotID = "test-robot"
	conf.SensorInterval = time.Millisecond
	conf.CommandInterval = 5 * time.Millisecond
	simConf := sim.NewConfig()
	simConf.FrameInterval = 2 * time.Millisecond
	simConf.Acceleration = 0
	r, err := Open(conf, simConf)
	require.NoError(t, err)
	require.Equal(t, SimPort, r.Port)
	require.NotNil(t, r.Device)
	return r
}

func runFor(t *testing.T, r *Robot, d time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(d, cancel)
	defer timer.Stop()
	require.NoError(t, r.Run(ctx))
}

func TestSimRobot(t *testing.T) {
	r := newSimRobot(t, "v4")
	require.True(t, r.SetCommandSource(forward{}))
	runFor(t, r, 300*time.Millisecond)

	require.Greater(t, r.Odometry.Stats().Updates, 0)
	require.Greater(t, r.Odometry.Pose().X, 0.0)
	require.Greater(t, r.Device.Pose().X, 0.0)

	report := r.Report(false)
	require.Equal(t, "test-robot", report.RobotID)
	require.Equal(t, "v4", report.Protocol)
	require.NotZero(t, report.Received)
	require.NotZero(t, report.Sent)
	require.Empty(t, report.Odometry.Path)
	require.Contains(t, r.Status(), "received=")

	require.NoError(t, r.Close())
	require.False(t, r.Session.IsConnected())
	_, commands, _ := r.Device.Stats()
	require.NotZero(t, commands)
}

func TestSimRobotSensorOnly(t *testing.T) {
	r := newSimRobot(t, "attitude")
	require.False(t, r.SetCommandSource(forward{}))
	runFor(t, r, 50*time.Millisecond)
	sample, ok := r.Session.Sample()
	require.True(t, ok)
	require.True(t, sample.HasAttitude)
	require.NoError(t, r.Close())
}

func TestSimRobotStopsWhenClosed(t *testing.T) {
	r := newSimRobot(t, "v3")
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, r.Device.Close())
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, comm.ErrTransportClosed)
	case <-time.After(time.Second):
		t.Fatal("robot not stopped")
	}
	require.False(t, r.Flows.Flag.Running())
}

func TestExportReport(t *testing.T) {
	r := newSimRobot(t, "v4")
	runFor(t, r, 50*time.Millisecond)
	fn := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.ExportReport(fn))
	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(data, &report))
	require.Equal(t, "test-robot", report.RobotID)
	require.Equal(t, SimPort, report.Port)
	require.Equal(t, report.Odometry.PathPoints, len(report.Odometry.Path))
	require.NoError(t, r.Close())
}

func TestOpenInvalidConfig(t *testing.T) {
	conf := driver.NewConfig()
	conf.Protocol = "v9"
	_, err := Open(conf, sim.NewConfig())
	require.Error(t, err)
}
