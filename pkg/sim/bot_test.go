package sim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func testConfig() Config {
	conf := *NewConfig()
	conf.Acceleration = 0
	return conf
}

func TestBotStraight(t *testing.T) {
	b := NewBot(testConfig())
	b.Step(at(0))
	b.SetWheelSpeeds(1, 1)
	b.Step(at(1000))
	pose := b.Pose()
	require.InDelta(t, 0.5, pose.X, 1e-9)
	require.InDelta(t, 0, pose.Y, 1e-9)
	require.Equal(t, at(1000), pose.Time)

	left, right := b.Encoders()
	dpp := b.config.Geometry.DistancePerPulse()
	expect := uint16(math.Floor(0.5 / dpp))
	require.Equal(t, expect, left)
	require.Equal(t, expect, right)

	_, gyro := b.IMU()
	require.Zero(t, gyro[2])
}

func TestBotRotateInPlace(t *testing.T) {
	b := NewBot(testConfig())
	b.Step(at(0))
	// 0.1 m/s each wheel in opposite directions on 0.2 m base: 1 rad/s.
	b.SetWheelSpeeds(-0.2, 0.2)
	b.Step(at(500))
	pose := b.Pose()
	require.InDelta(t, 0, pose.X, 1e-9)
	require.InDelta(t, 0, pose.Y, 1e-9)
	require.InDelta(t, 0.5, pose.Orientation.Radians(), 1e-9)

	_, gyro := b.IMU()
	require.Equal(t, clampInt16(180/math.Pi*131), gyro[2])

	left, _ := b.Encoders()
	require.Greater(t, left, uint16(0xF000))
}

func TestBotArc(t *testing.T) {
	b := NewBot(testConfig())
	b.Step(at(0))
	// right wheel travels quarter circle of radius 0.2, left stays.
	b.SetWheelSpeeds(0, 1)
	dist := math.Pi * 0.2 / 2
	b.Step(t0.Add(time.Duration(dist / 0.5 * float64(time.Second))))
	pose := b.Pose()
	require.InDelta(t, 0.1, pose.X, 1e-6)
	require.InDelta(t, 0.1, pose.Y, 1e-6)
	require.InDelta(t, math.Pi/2, pose.Orientation.Radians(), 1e-6)
}

func TestBotAcceleration(t *testing.T) {
	conf := testConfig()
	conf.Acceleration = 1
	b := NewBot(conf)
	b.Step(at(0))
	b.SetWheelSpeeds(1, 1)
	b.Step(at(250))
	require.InDelta(t, 0.03125, b.Pose().X, 1e-9)
	accel, _ := b.IMU()
	require.Equal(t, clampInt16(16384/9.80665), accel[0])
	require.Equal(t, int16(16384), accel[2])

	b.Step(at(1250))
	// ramps from 0.25 to 0.5 m/s in 0.25s, then cruises.
	require.InDelta(t, 0.5, b.Pose().X, 1e-9)
}

func TestBotClampsSpeeds(t *testing.T) {
	b := NewBot(testConfig())
	b.Step(at(0))
	b.SetWheelSpeeds(3, -3)
	require.Equal(t, 0.5, b.left.target)
	require.Equal(t, -0.5, b.right.target)
}

func TestBotNoise(t *testing.T) {
	conf := testConfig()
	conf.Noise = 10
	b := NewBot(conf)
	b.Step(at(0))
	var differs bool
	for n := 0; n < 20; n++ {
		b.Step(at(20 * (n + 1)))
		accel, gyro := b.IMU()
		require.InDelta(t, 16384, accel[2], 10)
		require.InDelta(t, 0, gyro[2], 10)
		differs = differs || accel[2] != 16384
	}
	require.True(t, differs)
}
