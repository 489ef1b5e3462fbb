package driver

import (
	"context"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/mrf.go/pkg/l0/comm"
)

// Move is one step of a scripted program: hold Command for Duration.
type Move struct {
	Name     string
	Command  comm.MotorCommand
	Duration time.Duration
}

// BasicMovements drives forward, right, backward and left, stopping in between.
func BasicMovements() []Move {
	stop := Move{Name: "stop", Duration: time.Second}
	return []Move{
		{Name: "forward", Command: comm.MotorCommand{Speed: 50}, Duration: 2 * time.Second},
		stop,
		{Name: "turn right", Command: comm.MotorCommand{Speed: 40, Angle: 60}, Duration: 2 * time.Second},
		stop,
		{Name: "backward", Command: comm.MotorCommand{Speed: -50}, Duration: 2 * time.Second},
		stop,
		{Name: "turn left", Command: comm.MotorCommand{Speed: 40, Angle: -60}, Duration: 2 * time.Second},
		stop,
	}
}

// SquarePattern drives the four sides of a square turning right at corners.
func SquarePattern() []Move {
	var moves []Move
	for n := 0; n < 4; n++ {
		moves = append(moves,
			Move{Name: "side", Command: comm.MotorCommand{Speed: 60}, Duration: 3 * time.Second},
			Move{Name: "corner", Command: comm.MotorCommand{Speed: 50, Angle: 80}, Duration: 1500 * time.Millisecond})
	}
	return moves
}

var programs = map[string]func() []Move{
	"basic":  BasicMovements,
	"square": SquarePattern,
}

// ProgramNames lists the built-in programs.
func ProgramNames() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupProgram finds a built-in program by name.
func LookupProgram(name string) ([]Move, error) {
	if fn := programs[name]; fn != nil {
		return fn(), nil
	}
	return nil, errors.Errorf("unknown program %q", name)
}

// RunProgram sends the commands of the moves one after another, holding
// each for its duration, and stops the motors at the end, or when ctx is
// canceled.
func RunProgram(ctx context.Context, s *Session, clk clock.Clock, moves []Move) error {
	defer func() {
		if err := s.Stop(); err != nil {
			glog.Warningf("stop motors: %v", err)
		}
	}()
	for n, m := range moves {
		glog.Infof("program %d/%d: %s %+v", n+1, len(moves), m.Name, m.Command)
		if err := s.SendCommand(m.Command); err != nil {
			return errors.Wrap(err, m.Name)
		}
		timer := clk.Timer(m.Duration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}
