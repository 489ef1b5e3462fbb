package odometry

import (
	"math"
	"time"
)

// Pos2D defines the position in 2D, in meters.
type Pos2D struct {
	X, Y float64
}

// Add is a helper to add Pos2D.
func (p Pos2D) Add(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X + p1.X, Y: p.Y + p1.Y}
}

// DistanceTo calculates the Euclidean distance to p1.
func (p Pos2D) DistanceTo(p1 Pos2D) float64 {
	return math.Hypot(p1.X-p.X, p1.Y-p.Y)
}

// Pose is the estimated position and orientation of the robot.
type Pose struct {
	Pos2D
	Orientation Angle
	// Time is the timestamp of the encoder reading which produced the pose.
	Time time.Time
}

// Velocity is derived from the last applied update.
type Velocity struct {
	// Linear in m/s.
	Linear float64
	// Angular in rad/s.
	Angular float64
	// LeftWheel and RightWheel are wheel surface speeds in m/s.
	LeftWheel  float64
	RightWheel float64
}

// Stats accumulates the motion since the last reset.
type Stats struct {
	// TotalDistance is the sum of |distance| travelled by the robot center.
	TotalDistance float64
	// TotalRotation is the sum of |rotation| in radians.
	TotalRotation float64
	// Updates counts applied updates.
	Updates int
}

// Outcome tells what Update did with the reading.
type Outcome int

const (
	// OutcomeBaseline means the reading became the baseline, pose unchanged.
	OutcomeBaseline Outcome = iota
	// OutcomeSkipped means the reading came too soon after the baseline
	// and was ignored.
	OutcomeSkipped
	// OutcomeApplied means pose, velocity, stats and path were updated.
	OutcomeApplied
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeBaseline:
		return "baseline"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeApplied:
		return "applied"
	}
	return "unknown"
}
