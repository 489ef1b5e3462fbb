package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWheelAdvance(t *testing.T) {
	testCases := []struct {
		name   string
		from   wheel
		target float64
		accel  float64
		dt     float64
		dist   float64
		speed  float64
	}{
		{name: "no accel", target: 1, dt: 1, dist: 1, speed: 1},
		{name: "no accel reverse", target: -1, dt: 1, dist: -1, speed: -1},
		{name: "before accel ends", target: 2, accel: 1, dt: 1, dist: 0.5, speed: 1},
		{name: "at accel ends", target: 2, accel: 1, dt: 2, dist: 2, speed: 2},
		{name: "after accel ends", target: 2, accel: 1, dt: 3, dist: 4, speed: 2},
		{
			name:   "reduce speed before accel ends",
			from:   wheel{speed: 2},
			target: 0, accel: 1, dt: 1, dist: 1.5, speed: 1,
		},
		{
			name:   "reduce speed after accel ends",
			from:   wheel{speed: 2},
			target: 0, accel: 1, dt: 3, dist: 2, speed: 0,
		},
		{
			name:   "reverse direction",
			from:   wheel{speed: 1},
			target: -1, accel: 1, dt: 2, dist: 0, speed: -1,
		},
		{
			name:   "cruise",
			from:   wheel{speed: 0.5, travel: 1},
			target: 0.5, accel: 1, dt: 2, dist: 1, speed: 0.5,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := tc.from
			w.target = tc.target
			travel := w.travel
			require.InDelta(t, tc.dist, w.advance(tc.dt, tc.accel), 1e-9)
			require.InDelta(t, tc.speed, w.speed, 1e-9)
			require.InDelta(t, travel+tc.dist, w.travel, 1e-9)
		})
	}
}

func TestWheelCounter(t *testing.T) {
	w := wheel{travel: 10.5}
	require.Equal(t, uint16(10), w.counter(1))
	w.travel = -0.5
	require.Equal(t, uint16(0xFFFF), w.counter(1))
	w.travel = 65537
	require.Equal(t, uint16(1), w.counter(1))
}
