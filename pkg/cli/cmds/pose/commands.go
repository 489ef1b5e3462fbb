package pose

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mrf.go/pkg/cli/sh"
	"github.com/robotalks/mrf.go/pkg/odometry"
)

var (
	// PoseCmd prints the estimated pose and velocity.
	PoseCmd = ishell.Cmd{
		Name:    "pose",
		Aliases: []string{"p"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			odo := sh.RobotFrom(c).Odometry
			sh.Output(c, odo.Report(false), odo.String())
		}),
	}

	// ResetCmd resets the odometry.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.RobotFrom(c).Odometry.Reset()
			sh.OK(c, nil)
		}),
	}

	// SetPoseCmd overrides the estimated pose.
	SetPoseCmd = ishell.Cmd{
		Name: "setpose",
		Help: "X(m) Y(m) THETA(degrees)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("X Y THETA required"))
				return
			}
			var vals [3]float64
			for n := range vals {
				val, err := strconv.ParseFloat(c.Args[n], 64)
				if err != nil {
					c.Err(fmt.Errorf("Invalid value %q: %v", c.Args[n], err))
					return
				}
				vals[n] = val
			}
			theta := odometry.AngleFromDegrees(vals[2]).Radians()
			sh.RobotFrom(c).Odometry.SetPose(vals[0], vals[1], theta)
			sh.OK(c, nil)
		}),
	}

	// PathCmd prints the path history.
	PathCmd = ishell.Cmd{
		Name: "path",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			poses := sh.RobotFrom(c).Odometry.Path()
			reports := make([]odometry.PoseReport, len(poses))
			var text string
			for n, p := range poses {
				reports[n] = odometry.NewPoseReport(p)
				text += fmt.Sprintf("%s (%.3f, %.3f, %.1f°)\n", p.Time.Format("15:04:05.000"), p.X, p.Y, p.Orientation.Degrees())
			}
			text += fmt.Sprintf("%d points", len(poses))
			sh.Output(c, reports, text)
		}),
	}

	// ExportCmd writes the report with path history to a file.
	ExportCmd = ishell.Cmd{
		Name: "export",
		Help: "FILE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("FILE required"))
				return
			}
			sh.OK(c, sh.RobotFrom(c).ExportReport(c.Args[0]))
		}),
	}
)

func init() {
	sh.AddCmds(
		&PoseCmd,
		&ResetCmd,
		&SetPoseCmd,
		&PathCmd,
		&ExportCmd,
	)
}
