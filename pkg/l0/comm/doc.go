// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated between the robot firmware (microcontroller)
// and the host driver over a peer-to-peer byte stream (e.g. serial port).
//
// Frames are fixed size. A sensor frame starts with a header byte, optionally
// followed by a length byte, a fixed payload of IMU and encoder readings and
// optionally a checksum byte. Motor command frames use the same shape with a
// smaller payload. There is no sequence or acknowledgement: the receiver
// resynchronizes by scanning for the next header byte.
//
// Several firmware generations exist which disagree on header values, byte
// order, checksum algorithm and payload width. Each generation is described by
// a Variant value rather than by its own code path.
//
// Producer: firmware (sensor frames), host (motor frames)
// Consumer: host (sensor frames), firmware (motor frames)
