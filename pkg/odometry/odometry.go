// Package odometry estimates the pose of a differential-drive robot from
// wheel encoder counters.
package odometry

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

const straightThreshold = 1e-6

// Odometry integrates encoder readings into pose, velocity and path.
// It starts uninitialized: the first reading only becomes the baseline.
// All methods are safe for concurrent use.
type Odometry struct {
	// Clock stamps poses set by SetPose.
	Clock clock.Clock

	config           Config
	distancePerPulse float64

	lock      sync.RWMutex
	tracking  bool
	prevLeft  uint16
	prevRight uint16
	prevTime  time.Time
	pose      Pose
	velocity  Velocity
	stats     Stats
	path      *PathHistory
}

// New creates an Odometry.
func New(conf Config) (*Odometry, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &Odometry{
		Clock:            clock.New(),
		config:           conf,
		distancePerPulse: conf.DistancePerPulse(),
		path:             NewPathHistory(conf.PathCapacity),
	}, nil
}

// Config returns the configuration.
func (o *Odometry) Config() Config {
	return o.config
}

// Tracking tells whether a baseline reading exists.
func (o *Odometry) Tracking() bool {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.tracking
}

// Update feeds the left/right encoder counters read at now.
func (o *Odometry) Update(left, right uint16, now time.Time) Outcome {
	o.lock.Lock()
	defer o.lock.Unlock()
	if !o.tracking {
		o.tracking = true
		o.prevLeft, o.prevRight, o.prevTime = left, right, now
		return OutcomeBaseline
	}
	dt := now.Sub(o.prevTime)
	if dt < o.config.MinInterval || dt <= 0 {
		glog.V(4).Infof("odometry: skip reading after %v", dt)
		return OutcomeSkipped
	}

	distLeft := float64(encoderDelta(o.prevLeft, left)) * o.distancePerPulse
	distRight := float64(encoderDelta(o.prevRight, right)) * o.distancePerPulse
	distCenter := (distLeft + distRight) / 2
	deltaTheta := (distRight - distLeft) / o.config.WheelBase

	theta := o.pose.Orientation.Radians()
	var delta Pos2D
	if math.Abs(deltaTheta) < straightThreshold {
		delta = o.pose.Orientation.Project(distCenter)
	} else {
		radius := distCenter / deltaTheta
		delta.X = radius * (math.Sin(theta+deltaTheta) - math.Sin(theta))
		delta.Y = radius * (math.Cos(theta) - math.Cos(theta+deltaTheta))
	}
	o.pose.Pos2D = o.pose.Add(delta)
	o.pose.Orientation = AngleFromRadians(theta + deltaTheta)
	o.pose.Time = now

	secs := dt.Seconds()
	o.velocity = Velocity{
		Linear:     distCenter / secs,
		Angular:    deltaTheta / secs,
		LeftWheel:  distLeft / secs,
		RightWheel: distRight / secs,
	}
	o.stats.TotalDistance += math.Abs(distCenter)
	o.stats.TotalRotation += math.Abs(deltaTheta)
	o.stats.Updates++
	o.path.Append(o.pose)

	o.prevLeft, o.prevRight, o.prevTime = left, right, now
	return OutcomeApplied
}

// encoderDelta corrects for a single wrap of 16-bit counters.
func encoderDelta(prev, cur uint16) int {
	delta := int(cur) - int(prev)
	if delta > 32768 {
		delta -= 65536
	} else if delta < -32768 {
		delta += 65536
	}
	return delta
}

// Pose returns the current pose.
func (o *Odometry) Pose() Pose {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.pose
}

// Velocity returns the velocity computed by the last applied update.
func (o *Odometry) Velocity() Velocity {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.velocity
}

// Stats returns the accumulated statistics.
func (o *Odometry) Stats() Stats {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.stats
}

// Path returns a copy of the path history, oldest first.
func (o *Odometry) Path() []Pose {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.path.Poses()
}

// PathLength sums the distances between consecutive recorded poses.
// Unlike Stats.TotalDistance, it only covers the retained history.
func (o *Odometry) PathLength() float64 {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.path.Length()
}

// DistanceTo returns the distance from current position to (x, y).
func (o *Odometry) DistanceTo(x, y float64) float64 {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return o.pose.DistanceTo(Pos2D{X: x, Y: y})
}

// BearingTo returns the direction from current position to (x, y)
// in the world frame.
func (o *Odometry) BearingTo(x, y float64) Angle {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return AngleFromRadians(math.Atan2(y-o.pose.Y, x-o.pose.X))
}

// SetPose overrides current position and orientation, stamped with the
// current time. The encoder baseline is kept so tracking continues from
// the new pose.
func (o *Odometry) SetPose(x, y, theta float64) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.pose.X, o.pose.Y = x, y
	o.pose.Orientation = AngleFromRadians(theta)
	o.pose.Time = o.Clock.Now()
	glog.V(2).Infof("odometry: pose set to (%.3f, %.3f, %.1f°)", x, y, o.pose.Orientation.Degrees())
}

// Reset clears pose, velocity, stats and path. The next reading becomes
// a new baseline.
func (o *Odometry) Reset() {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.tracking = false
	o.pose = Pose{}
	o.velocity = Velocity{}
	o.stats = Stats{}
	o.path.Clear()
	glog.V(2).Info("odometry: reset")
}

// String implements fmt.Stringer.
func (o *Odometry) String() string {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return fmt.Sprintf("Pos=(%.3f, %.3f, %.1f°), Vel=(%.3fm/s, %.1f°/s)",
		o.pose.X, o.pose.Y, o.pose.Orientation.Degrees(),
		o.velocity.Linear, Angle(o.velocity.Angular).Degrees())
}
