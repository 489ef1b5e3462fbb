package motion

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mrf.go/pkg/cli/sh"
	"github.com/robotalks/mrf.go/pkg/l0/comm"
)

// SensorsReport is the printed form of the latest sensor sample.
type SensorsReport struct {
	Accel    comm.Vector3              `json:"accel"`
	Gyro     comm.Vector3              `json:"gyro"`
	Attitude *comm.Attitude            `json:"attitude,omitempty"`
	Encoders [comm.EncoderCount]uint16 `json:"encoders"`
	Received uint64                    `json:"frames_received"`
	Sent     uint64                    `json:"commands_sent"`
	Dropped  uint64                    `json:"frames_dropped"`
}

func parseInts(c *ishell.Context, names ...string) ([]int, bool) {
	if len(c.Args) < len(names) {
		c.Err(fmt.Errorf("%v required", names))
		return nil, false
	}
	vals := make([]int, len(names))
	for n, name := range names {
		val, err := strconv.Atoi(c.Args[n])
		if err != nil {
			c.Err(fmt.Errorf("Invalid %s: %v", name, err))
			return nil, false
		}
		vals[n] = val
	}
	return vals, true
}

var (
	// DriveCmd sets the drive command.
	DriveCmd = ishell.Cmd{
		Name:    "drive",
		Aliases: []string{"dr"},
		Help:    "SPEED ANGLE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, ok := parseInts(c, "SPEED", "ANGLE")
			if !ok {
				return
			}
			sh.OK(c, sh.RobotFrom(c).Session.SendCommand(comm.MotorCommand{Speed: vals[0], Angle: vals[1]}))
		}),
	}

	// WheelsCmd sets the wheel speeds.
	WheelsCmd = ishell.Cmd{
		Name:    "wheels",
		Aliases: []string{"wh"},
		Help:    "LEFT RIGHT",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, ok := parseInts(c, "LEFT", "RIGHT")
			if !ok {
				return
			}
			sh.OK(c, sh.RobotFrom(c).Session.SendWheels(comm.WheelCommand{Left: vals[0], Right: vals[1]}))
		}),
	}

	// StopCmd stops the motors.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.OK(c, sh.RobotFrom(c).Session.Stop())
		}),
	}

	// SensorsCmd prints the latest sensor sample.
	SensorsCmd = ishell.Cmd{
		Name:    "sensors",
		Aliases: []string{"sn"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			r := sh.RobotFrom(c)
			sample, ok := r.Session.Sample()
			if !ok {
				c.Err(fmt.Errorf("no sensor data yet"))
				return
			}
			report := SensorsReport{
				Accel:    sample.Accel,
				Gyro:     sample.Gyro,
				Encoders: sample.Encoders,
				Dropped:  r.Flows.Reader.Dropped(),
			}
			report.Received, report.Sent = r.Session.Counters()
			text := fmt.Sprintf("accel=%v gyro=%v encoders=%v", sample.Accel, sample.Gyro, sample.Encoders)
			if sample.HasAttitude {
				report.Attitude = &sample.Attitude
				text += fmt.Sprintf(" attitude=%v", sample.Attitude)
			}
			sh.Output(c, &report, text)
		}),
	}
)

func init() {
	sh.AddCmds(
		&DriveCmd,
		&WheelsCmd,
		&StopCmd,
		&SensorsCmd,
	)
}
