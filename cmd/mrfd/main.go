package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/robotalks/mrf.go/pkg/driver"
	fx "github.com/robotalks/mrf.go/pkg/framework"
	"github.com/robotalks/mrf.go/pkg/joystick"
	"github.com/robotalks/mrf.go/pkg/l0/comm"
	"github.com/robotalks/mrf.go/pkg/robot"
	"github.com/robotalks/mrf.go/pkg/sim"
)

var (
	configFile     string
	simulate       bool
	useJoystick    bool
	program        string
	logFile        string
	statusInterval = 5 * time.Second
)

func init() {
	driver.SetupFlags()
	sim.SetupFlags()
	joystick.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "Robot config file in YAML.")
	flag.BoolVar(&simulate, "sim", simulate, "Use the simulated robot instead of the serial port.")
	flag.BoolVar(&useJoystick, "joystick", useJoystick, "Drive the robot with a joystick.")
	flag.StringVar(&program, "program", program, "Run a movement program and exit, one of: "+strings.Join(driver.ProgramNames(), ", ")+".")
	flag.StringVar(&logFile, "log-file", logFile, "Export the report with path history to the file on exit.")
	flag.DurationVar(&statusInterval, "status-interval", statusInterval, "Interval of status logs.")
}

// joystickRanges scales the joystick to the drive command ranges of the variant.
func joystickRanges(conf *joystick.Config, m *comm.MotorFormat) {
	if m.Fields == comm.FieldsWheels {
		conf.MaxSpeed, conf.MaxAngle = m.Drive.Max, m.Drive.Max
		return
	}
	conf.MaxSpeed, conf.MaxAngle = m.First.Max, m.Second.Max
}

func main() {
	flag.Parse()

	conf := driver.Default()
	if configFile != "" {
		loaded, err := driver.LoadConfigFile(configFile, flag.CommandLine)
		if err != nil {
			log.Fatalln(err)
		}
		conf = loaded
	}
	var simConf *sim.Config
	if simulate {
		simConf = sim.Default()
	}
	r, err := robot.Open(conf, simConf)
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("robot %s connected on %s (%s)", r.ID, r.Port, r.Session.Variant().Name)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("robot", fx.RunnableFunc(func(ctx context.Context) error {
		defer runner.Stop()
		return r.Run(ctx)
	})))
	runner.Go(fx.NewLoop("status", statusInterval, fx.StepFunc(func(ctx context.Context, now time.Time) error {
		glog.Info(r.Status())
		return nil
	})).WithFlag(r.Flows.Flag))

	if useJoystick {
		jsConf := joystick.NewConfig()
		if m := r.Session.Variant().Motor; m != nil {
			joystickRanges(jsConf, m)
		}
		js := jsConf.NewController()
		js.OnChange = r.Flows.TriggerCommand
		if r.SetCommandSource(js) {
			runner.Go(fx.NamedRun("joystick", js))
		} else {
			glog.Warningf("protocol %s doesn't accept motor commands, joystick ignored", r.Session.Variant().Name)
		}
	}

	if program != "" {
		moves, err := driver.LookupProgram(program)
		if err != nil {
			log.Fatalln(err)
		}
		runner.Go(fx.NamedRun("program", fx.RunnableFunc(func(ctx context.Context) error {
			defer runner.Stop()
			if err := driver.RunProgram(ctx, r.Session, clock.New(), moves); err != nil {
				return err
			}
			glog.Infof("program %s completed", program)
			return nil
		})))
	}

	err = runner.Wait()
	glog.Infof("final: %s", r.Status())
	if logFile != "" {
		if exportErr := r.ExportReport(logFile); exportErr != nil {
			glog.Errorf("%v", exportErr)
		}
	}
	if closeErr := r.Close(); closeErr != nil {
		glog.Warningf("close: %v", closeErr)
	}
	glog.Flush()
	if err != nil {
		log.Fatalln(err)
	}
}
