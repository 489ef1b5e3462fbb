package sim

import "math"

// wheel ramps its surface speed toward the target with a constant
// acceleration and accumulates the distance travelled.
type wheel struct {
	speed  float64
	target float64
	travel float64
}

// advance moves the wheel for dt seconds and returns the distance.
// accel <= 0 changes speed instantly.
func (w *wheel) advance(dt, accel float64) float64 {
	var dist float64
	switch diff := w.target - w.speed; {
	case accel <= 0 || diff == 0:
		w.speed = w.target
		dist = w.speed * dt
	default:
		a := math.Copysign(accel, diff)
		rampTime := math.Abs(diff) / accel
		if dt < rampTime {
			dist = w.speed*dt + a*dt*dt/2
			w.speed += a * dt
		} else {
			dist = w.speed*rampTime + a*rampTime*rampTime/2 + w.target*(dt-rampTime)
			w.speed = w.target
		}
	}
	w.travel += dist
	return dist
}

// counter converts the travel into a 16-bit encoder counter.
func (w *wheel) counter(distancePerPulse float64) uint16 {
	return uint16(int64(math.Floor(w.travel / distancePerPulse)))
}
