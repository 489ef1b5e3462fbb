package odometry

// PathHistory keeps the most recent poses up to a fixed capacity.
// The oldest pose is evicted first. It's not safe for concurrent use,
// Odometry guards it.
type PathHistory struct {
	poses []Pose
	start int
	count int
}

// NewPathHistory creates a PathHistory. capacity less than 1 means
// DefaultPathCapacity.
func NewPathHistory(capacity int) *PathHistory {
	if capacity < 1 {
		capacity = DefaultPathCapacity
	}
	return &PathHistory{poses: make([]Pose, capacity)}
}

// Cap returns the capacity.
func (h *PathHistory) Cap() int {
	return len(h.poses)
}

// Len returns the number of poses recorded.
func (h *PathHistory) Len() int {
	return h.count
}

// Append records a pose, evicting the oldest when full.
func (h *PathHistory) Append(p Pose) {
	if h.count < len(h.poses) {
		h.poses[(h.start+h.count)%len(h.poses)] = p
		h.count++
		return
	}
	h.poses[h.start] = p
	h.start = (h.start + 1) % len(h.poses)
}

// Poses returns a copy of the recorded poses, oldest first.
func (h *PathHistory) Poses() []Pose {
	poses := make([]Pose, h.count)
	for n := range poses {
		poses[n] = h.poses[(h.start+n)%len(h.poses)]
	}
	return poses
}

// Length sums the distances between consecutive poses.
func (h *PathHistory) Length() (length float64) {
	for n := 1; n < h.count; n++ {
		prev := h.poses[(h.start+n-1)%len(h.poses)]
		length += prev.DistanceTo(h.poses[(h.start+n)%len(h.poses)].Pos2D)
	}
	return
}

// Clear removes all poses.
func (h *PathHistory) Clear() {
	h.start, h.count = 0, 0
}
