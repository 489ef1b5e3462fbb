package odometry

import "time"

// PoseReport is the exported form of Pose.
type PoseReport struct {
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Theta        float64   `json:"theta"`
	ThetaDegrees float64   `json:"theta_degrees"`
	Timestamp    time.Time `json:"timestamp"`
}

// VelocityReport is the exported form of Velocity.
type VelocityReport struct {
	Linear         float64 `json:"linear"`
	Angular        float64 `json:"angular"`
	AngularDegrees float64 `json:"angular_degrees"`
	LeftWheel      float64 `json:"left_wheel"`
	RightWheel     float64 `json:"right_wheel"`
}

// Report is a snapshot of the odometry state for export.
type Report struct {
	TotalDistance        float64        `json:"total_distance"`
	TotalRotation        float64        `json:"total_rotation"`
	TotalRotationDegrees float64        `json:"total_rotation_degrees"`
	Updates              int            `json:"updates"`
	PathPoints           int            `json:"path_points"`
	PathLength           float64        `json:"path_length"`
	Position             PoseReport     `json:"current_position"`
	Velocity             VelocityReport `json:"current_velocity"`
	Path                 []PoseReport   `json:"path,omitempty"`
}

// NewPoseReport converts a Pose.
func NewPoseReport(p Pose) PoseReport {
	return PoseReport{
		X:            p.X,
		Y:            p.Y,
		Theta:        p.Orientation.Radians(),
		ThetaDegrees: p.Orientation.Degrees(),
		Timestamp:    p.Time,
	}
}

// NewVelocityReport converts a Velocity.
func NewVelocityReport(v Velocity) VelocityReport {
	return VelocityReport{
		Linear:         v.Linear,
		Angular:        v.Angular,
		AngularDegrees: Angle(v.Angular).Degrees(),
		LeftWheel:      v.LeftWheel,
		RightWheel:     v.RightWheel,
	}
}

// Report takes a consistent snapshot. The path is included when withPath is set.
func (o *Odometry) Report(withPath bool) Report {
	o.lock.RLock()
	defer o.lock.RUnlock()
	r := Report{
		TotalDistance:        o.stats.TotalDistance,
		TotalRotation:        o.stats.TotalRotation,
		TotalRotationDegrees: Angle(o.stats.TotalRotation).Degrees(),
		Updates:              o.stats.Updates,
		PathPoints:           o.path.Len(),
		PathLength:           o.path.Length(),
		Position:             NewPoseReport(o.pose),
		Velocity:             NewVelocityReport(o.velocity),
	}
	if withPath {
		poses := o.path.Poses()
		r.Path = make([]PoseReport, len(poses))
		for n, p := range poses {
			r.Path[n] = NewPoseReport(p)
		}
	}
	return r
}
