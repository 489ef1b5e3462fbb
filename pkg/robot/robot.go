// Package robot assembles a driver session, odometry and the flows into a
// running robot, on a real serial port or the simulated firmware.
package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/mrf.go/pkg/driver"
	fx "github.com/robotalks/mrf.go/pkg/framework"
	"github.com/robotalks/mrf.go/pkg/odometry"
	"github.com/robotalks/mrf.go/pkg/sim"
)

// SimPort is the port name shown for the simulated firmware.
const SimPort = "sim"

// Robot is a connected robot with its flows.
type Robot struct {
	ID       string
	Port     string
	Config   *driver.Config
	Session  *driver.Session
	Odometry *odometry.Odometry
	Flows    *driver.Flows
	// Device is the simulated firmware, nil on a real port.
	Device *sim.Device

	simInterval time.Duration
}

// Open connects the robot. When simConf is not nil, the simulated firmware
// is used instead of the serial port.
func Open(conf *driver.Config, simConf *sim.Config) (*Robot, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	odo, err := odometry.New(conf.Odometry)
	if err != nil {
		return nil, err
	}
	r := &Robot{ID: conf.ID(), Port: conf.Port, Config: conf, Odometry: odo}
	if simConf != nil {
		v, err := conf.Variant()
		if err != nil {
			return nil, err
		}
		devConf := *simConf
		devConf.Geometry = conf.Odometry
		devConf.LeftEncoder, devConf.RightEncoder = conf.LeftEncoder, conf.RightEncoder
		r.Device, r.Port, r.simInterval = sim.NewDevice(v, devConf), SimPort, devConf.FrameInterval
		r.Session, err = driver.Connect(r.Device, conf)
		if err != nil {
			return nil, err
		}
	} else if r.Session, err = driver.Open(conf); err != nil {
		return nil, err
	}
	r.Flows = driver.NewFlows(r.Session, odo, conf)
	return r, nil
}

// SetCommandSource attaches a teleop source to the command flow.
// It must be called before Run.
func (r *Robot) SetCommandSource(src driver.CommandSource) bool {
	if r.Flows.Sender == nil {
		return false
	}
	r.Flows.Sender.Source = src
	return true
}

// Run runs the flows, and the simulated firmware if any, until ctx is
// canceled or the flows stop.
func (r *Robot) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	if r.Device != nil {
		loop := fx.NewLoop("sim", r.simInterval, r.Device).WithFlag(r.Flows.Flag)
		runner.Go(loop)
	}
	runner.Go(fx.NamedRun("flows", fx.RunnableFunc(r.Flows.Run)))
	return runner.Wait()
}

// Stop stops the flows.
func (r *Robot) Stop() {
	r.Flows.Stop()
}

// Close stops the motors if possible and closes the session.
func (r *Robot) Close() error {
	if r.Session.IsConnected() && r.Session.CanCommand() {
		if err := r.Session.Stop(); err != nil {
			glog.Warningf("stop motors: %v", err)
		}
	}
	err := r.Session.Close()
	if r.Device != nil {
		r.Device.Close()
	}
	return err
}

// Status summarizes the robot state in one line.
func (r *Robot) Status() string {
	received, sent := r.Session.Counters()
	return fmt.Sprintf("%s received=%d sent=%d dropped=%d", r.Odometry.String(), received, sent, r.Flows.Reader.Dropped())
}

// Report is the exported state of a session.
type Report struct {
	RobotID   string          `json:"robot_id"`
	Port      string          `json:"port"`
	Protocol  string          `json:"protocol"`
	Timestamp time.Time       `json:"timestamp"`
	Received  uint64          `json:"frames_received"`
	Sent      uint64          `json:"commands_sent"`
	Dropped   uint64          `json:"frames_dropped"`
	Odometry  odometry.Report `json:"odometry"`
}

// Report takes a snapshot of the robot state.
func (r *Robot) Report(withPath bool) Report {
	received, sent := r.Session.Counters()
	return Report{
		RobotID:   r.ID,
		Port:      r.Port,
		Protocol:  r.Session.Variant().Name,
		Timestamp: time.Now(),
		Received:  received,
		Sent:      sent,
		Dropped:   r.Flows.Reader.Dropped(),
		Odometry:  r.Odometry.Report(withPath),
	}
}

// ExportReport writes the report with the path history as JSON.
func (r *Robot) ExportReport(path string) error {
	data, err := json.MarshalIndent(r.Report(true), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "export report to %s", path)
	}
	glog.Infof("report exported to %s", path)
	return nil
}
