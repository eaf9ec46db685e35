package ymf278b

import "math"

// Envelope and loudness lookup tables shared by all 24 slots. They depend
// only on the chip design, not on the clock, so they are computed once at
// package init and never written again.

// lutDR maps an envelope rate (0-63) to the cycle count of one full decay.
// Rates 0-3 read as 0 and are treated as frozen by the step computation.
var lutDR [64]uint32

// lutAR is the attack equivalent of lutDR. Rate 63 reads as 0 because the
// attack stage handles it as an immediate transition instead.
var lutAR [64]uint32

// volume maps total attenuation to a linear multiplier anchored at 65536.
// One step is -0.375dB, 8 steps are -3dB, 256 steps are -96dB. Entries
// 256-1023 are zero so the mixer can sum TL, pan and envelope attenuation
// without a range check: anything past the floor lands in the zero pad.
var volume [1024]int32

// panLeft/panRight map the 4-bit pan code to attenuation offsets in -3dB
// units (value 8 per step). Codes 7-9 hit 256 on the far channel, which is
// the silence floor of the volume table.
var (
	panLeft  [16]int32
	panRight [16]int32
)

// mixLevel maps the 3-bit output bus gain selects to linear multipliers.
// Sampled from the volume table with a small offset as margin against
// clipping when all sources are summed; select 7 is mute.
var mixLevel [8]int32

func init() {
	for i := range lutDR {
		switch {
		case i <= 3:
			lutDR[i] = 0
		case i >= 60:
			lutDR[i] = 15 << 4
		default:
			lutDR[i] = uint32((15 << (21 - i/4)) / (4 + i%4))
		}
	}

	// The datasheet shows a curved attack, so these linear constants are
	// not entirely accurate.
	for i := range lutAR {
		switch {
		case i <= 3 || i == 63:
			lutAR[i] = 0
		case i >= 60:
			lutAR[i] = 17
		default:
			lutAR[i] = uint32((67 << (15 - i/4)) / (4 + i%4))
		}
	}

	for i := 0; i < 256; i++ {
		volume[i] = int32(65536 * math.Pow(2.0, (-0.375/6)*float64(i)))
	}

	for i := 0; i < 16; i++ {
		switch {
		case i < 7:
			panLeft[i] = int32(i) * 8
		case i < 9:
			panLeft[i] = 256
		default:
			panLeft[i] = 0
		}
		switch {
		case i < 8:
			panRight[i] = 0
		case i < 10:
			panRight[i] = 256
		default:
			panRight[i] = int32(16-i) * 8
		}
	}

	for i := 0; i < 7; i++ {
		mixLevel[i] = volume[8*i+13]
	}
	mixLevel[7] = 0
}
