package driver

import (
	"sync"

	"github.com/robotalks/mrf.go/pkg/l0/comm"
)

// SensorState holds the latest sensor sample. A sample is replaced as a
// whole, readers never see a partially updated one.
type SensorState struct {
	lock    sync.RWMutex
	sample  comm.SensorSample
	valid   bool
	samples uint64
}

// Update replaces the current sample.
func (s *SensorState) Update(sample comm.SensorSample) {
	s.lock.Lock()
	s.sample, s.valid = sample, true
	s.samples++
	s.lock.Unlock()
}

// Sample returns the latest sample and whether one was ever received.
func (s *SensorState) Sample() (comm.SensorSample, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.sample, s.valid
}

// Samples counts the samples received.
func (s *SensorState) Samples() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.samples
}

// Accel returns the latest accelerometer reading.
func (s *SensorState) Accel() comm.Vector3 {
	sample, _ := s.Sample()
	return sample.Accel
}

// Gyro returns the latest gyroscope reading.
func (s *SensorState) Gyro() comm.Vector3 {
	sample, _ := s.Sample()
	return sample.Gyro
}

// Encoders returns the latest encoder counters.
func (s *SensorState) Encoders() [comm.EncoderCount]uint16 {
	sample, _ := s.Sample()
	return sample.Encoders
}
