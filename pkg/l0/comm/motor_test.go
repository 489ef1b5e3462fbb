package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMotorEncode(t *testing.T) {
	testCases := []struct {
		name    string
		variant *Variant
		cmd     MotorCommand
		frame   []byte
	}{
		{"v2", V2(), MotorCommand{Speed: 100, Angle: -30}, []byte{0xFA, 0x64, 0x00, 0xE2, 0xFF}},
		{"v2 clamped", V2(), MotorCommand{Speed: 300, Angle: 200}, []byte{0xFA, 0xFF, 0x00, 0xB4, 0x00}},
		{"v3", V3(), MotorCommand{Speed: 90, Angle: 100}, []byte{0xAA, 0x03, 0x5A, 0x64, 0x97}},
		{"v3 negative angle", V3(), MotorCommand{Speed: 200, Angle: -1}, []byte{0xAA, 0x03, 0xC8, 0xFF, 0x9E}},
		{"v3 clamped", V3(), MotorCommand{Speed: -5, Angle: 300}, []byte{0xAA, 0x03, 0x00, 0x7F, 0xD6}},
		{"v4 right turn", V4(), MotorCommand{Speed: 50, Angle: 50}, []byte{0xFA, 0x32, 0x00, 0x19, 0x00}},
		{"v4 reverse left", V4(), MotorCommand{Speed: -60, Angle: -50}, []byte{0xFA, 0xE2, 0xFF, 0xC4, 0xFF}},
		{"v4 clamped", V4(), MotorCommand{Speed: 150}, []byte{0xFA, 0x64, 0x00, 0x64, 0x00}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame := tc.variant.Motor.Encode(tc.cmd)
			require.Equal(t, tc.frame, frame)
			require.Len(t, frame, tc.variant.Motor.FrameSize())
		})
	}
}

func TestMotorClampIdempotent(t *testing.T) {
	values := []int{-1000, -256, -255, -181, -128, -127, -101, -100, -1, 0, 1, 99, 100, 101, 127, 128, 180, 181, 255, 256, 1000}
	for _, v := range []*Variant{V2(), V3(), V4()} {
		t.Run(v.Name, func(t *testing.T) {
			f := v.Motor
			for _, speed := range values {
				for _, angle := range values {
					cmd := MotorCommand{Speed: speed, Angle: angle}
					clamped := f.Clamp(cmd)
					require.Equal(t, clamped, f.Clamp(clamped))
					require.Equal(t, f.Encode(clamped), f.Encode(cmd))

					first, second, err := f.Decode(f.Encode(cmd))
					require.NoError(t, err)
					require.True(t, f.First.Contains(first), "first %d", first)
					require.True(t, f.Second.Contains(second), "second %d", second)
				}
			}
		})
	}
}

func TestMotorDecode(t *testing.T) {
	v3 := V3().Motor
	first, second, err := v3.Decode(v3.Encode(MotorCommand{Speed: 90, Angle: -100}))
	require.NoError(t, err)
	require.Equal(t, 90, first)
	require.Equal(t, -100, second)

	v4 := V4().Motor
	frame, err := v4.EncodeWheels(WheelCommand{Left: -100, Right: 37})
	require.NoError(t, err)
	first, second, err = v4.Decode(frame)
	require.NoError(t, err)
	require.Equal(t, -100, first)
	require.Equal(t, 37, second)

	frame, err = v4.EncodeWheels(WheelCommand{Left: 500, Right: -500})
	require.NoError(t, err)
	first, second, err = v4.Decode(frame)
	require.NoError(t, err)
	require.Equal(t, 100, first)
	require.Equal(t, -100, second)

	bad := v3.Encode(MotorCommand{Speed: 1})
	bad[4] ^= 0xFF
	_, _, err = v3.Decode(bad)
	require.ErrorIs(t, err, ErrChecksumMismatch)

	bad = v3.Encode(MotorCommand{Speed: 1})
	bad[1] = 4
	_, _, err = v3.Decode(bad)
	require.ErrorIs(t, err, ErrLengthMismatch)

	_, _, err = v3.Decode(bad[:3])
	require.ErrorIs(t, err, ErrIncompletePacket)

	_, _, err = v4.Decode([]byte{0xF5, 0, 0, 0, 0})
	require.Error(t, err)
}

func TestEncodeWheelsUnsupported(t *testing.T) {
	for _, v := range []*Variant{V2(), V3()} {
		_, err := v.Motor.EncodeWheels(WheelCommand{Left: 1, Right: 1})
		require.ErrorIs(t, err, ErrUnsupportedCommand)
	}
}

func TestMix(t *testing.T) {
	testCases := []struct {
		cmd      MotorCommand
		angleMax int
		wheels   WheelCommand
	}{
		{MotorCommand{Speed: 100}, 100, WheelCommand{Left: 100, Right: 100}},
		{MotorCommand{Speed: 100, Angle: 50}, 100, WheelCommand{Left: 100, Right: 50}},
		{MotorCommand{Speed: 100, Angle: -50}, 100, WheelCommand{Left: 50, Right: 100}},
		{MotorCommand{Speed: 100, Angle: 100}, 100, WheelCommand{Left: 100, Right: 0}},
		{MotorCommand{Speed: -80, Angle: 25}, 100, WheelCommand{Left: -80, Right: -60}},
		{MotorCommand{Speed: 0, Angle: 70}, 100, WheelCommand{}},
		{MotorCommand{Speed: 33, Angle: 70}, 0, WheelCommand{Left: 33, Right: 33}},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.wheels, Mix(tc.cmd, tc.angleMax), "%+v", tc.cmd)
	}
}

func TestChecksum(t *testing.T) {
	data := []byte{0xAA, 0x03, 0x5A, 0x64}
	require.Equal(t, byte(0x97), ChecksumXOR.Compute(data))
	require.Equal(t, byte(0x6B), ChecksumSum.Compute(data))
	require.Equal(t, byte(0x01), ChecksumSum.Compute([]byte{0xFF, 0x02}))
	require.Equal(t, byte(0), ChecksumNone.Compute(data))
	require.Equal(t, 0, ChecksumNone.Size())
	require.Equal(t, 1, ChecksumXOR.Size())
	require.Equal(t, "xor", ChecksumXOR.String())
}

func TestLookupVariant(t *testing.T) {
	require.Equal(t, []string{"attitude", "v1", "v2", "v3", "v4"}, VariantNames())
	v, err := LookupVariant(DefaultVariant)
	require.NoError(t, err)
	require.Equal(t, "v4", v.Name)
	require.NotNil(t, v.Motor)

	_, err = LookupVariant("v9")
	require.ErrorIs(t, err, ErrUnknownVariant)
}
