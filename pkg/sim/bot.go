package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/robotalks/mrf.go/pkg/odometry"
)

// Bot simulates the motion of a differential-drive robot.
// It's not safe for concurrent use.
type Bot struct {
	config Config

	left, right  wheel
	pose         odometry.Pose
	linearAccel  float64
	angularSpeed float64
	lastStep     time.Time
	rng          *rand.Rand
}

// NewBot creates a Bot at the origin.
func NewBot(conf Config) *Bot {
	b := &Bot{config: conf}
	if conf.Noise > 0 {
		b.rng = rand.New(rand.NewSource(conf.Seed))
	}
	return b
}

// SetWheelSpeeds sets the target speeds as fractions of MaxWheelSpeed,
// clamped to [-1, 1].
func (b *Bot) SetWheelSpeeds(left, right float64) {
	b.left.target = clampUnit(left) * b.config.MaxWheelSpeed
	b.right.target = clampUnit(right) * b.config.MaxWheelSpeed
}

// Step advances the simulation to now. The first call only sets the
// start time.
func (b *Bot) Step(now time.Time) {
	if b.lastStep.IsZero() {
		b.lastStep, b.pose.Time = now, now
		return
	}
	dt := now.Sub(b.lastStep).Seconds()
	if dt <= 0 {
		return
	}
	prevSpeed := (b.left.speed + b.right.speed) / 2
	distLeft := b.left.advance(dt, b.config.Acceleration)
	distRight := b.right.advance(dt, b.config.Acceleration)
	distCenter := (distLeft + distRight) / 2
	deltaTheta := (distRight - distLeft) / b.config.Geometry.WheelBase

	theta := b.pose.Orientation.Radians()
	if math.Abs(deltaTheta) < 1e-9 {
		b.pose.Pos2D = b.pose.Add(b.pose.Orientation.Project(distCenter))
	} else {
		radius := distCenter / deltaTheta
		b.pose.X += radius * (math.Sin(theta+deltaTheta) - math.Sin(theta))
		b.pose.Y += radius * (math.Cos(theta) - math.Cos(theta+deltaTheta))
	}
	b.pose.Orientation = b.pose.Orientation.AddRadians(deltaTheta)
	b.pose.Time = now
	b.linearAccel = ((b.left.speed+b.right.speed)/2 - prevSpeed) / dt
	b.angularSpeed = deltaTheta / dt
	b.lastStep = now
}

// Pose returns the true pose.
func (b *Bot) Pose() odometry.Pose {
	return b.pose
}

// Encoders returns the encoder counters of left and right wheels.
func (b *Bot) Encoders() (left, right uint16) {
	dpp := b.config.Geometry.DistancePerPulse()
	return b.left.counter(dpp), b.right.counter(dpp)
}

// IMU synthesizes raw accelerometer and gyroscope readings using common
// MEMS scales: 16384 LSB/g and 131 LSB/(°/s).
func (b *Bot) IMU() (accel, gyro [3]int16) {
	const (
		accelScale = 16384 / 9.80665
		gyroScale  = 131.0
	)
	accel[0] = clampInt16(b.linearAccel * accelScale)
	accel[2] = 16384
	gyro[2] = clampInt16(b.angularSpeed * 180 / math.Pi * gyroScale)
	if b.rng != nil {
		for n := range accel {
			accel[n] = clampInt16(float64(accel[n]) + b.noise())
			gyro[n] = clampInt16(float64(gyro[n]) + b.noise())
		}
	}
	return
}

func (b *Bot) noise() float64 {
	return float64(b.rng.Intn(2*b.config.Noise+1) - b.config.Noise)
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func clampInt16(v float64) int16 {
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v))))
}
