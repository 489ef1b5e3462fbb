package comm

// Checksum selects the algorithm of the trailing checksum byte.
// The checksum covers every byte of the frame preceding it, header included.
type Checksum int

const (
	// ChecksumNone means the frame carries no checksum.
	ChecksumNone Checksum = iota
	// ChecksumSum is the additive sum modulo 256.
	ChecksumSum
	// ChecksumXOR is the running XOR.
	ChecksumXOR
)

// Size returns the number of bytes the checksum occupies.
func (c Checksum) Size() int {
	if c == ChecksumNone {
		return 0
	}
	return 1
}

// Compute calculates the checksum over data.
func (c Checksum) Compute(data []byte) (sum byte) {
	switch c {
	case ChecksumSum:
		for _, b := range data {
			sum += b
		}
	case ChecksumXOR:
		for _, b := range data {
			sum ^= b
		}
	}
	return
}

// String implements fmt.Stringer.
func (c Checksum) String() string {
	switch c {
	case ChecksumNone:
		return "none"
	case ChecksumSum:
		return "sum"
	case ChecksumXOR:
		return "xor"
	}
	return "unknown"
}
