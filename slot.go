package ymf278b

// Envelope states. A retrigger enters egAttack; a key-off forces egRelease
// regardless of how far the attack/decay chain has run.
const (
	egAttack      = 0
	egDecay1      = 1
	egDecay2      = 2
	egDecay2Done  = 3
	egRelease     = 4
	egReleaseDone = 5
)

// maxAttenuation is the envelope volume representing -96dB. Envelope
// volume counts attenuation upward: 0 is full loudness.
const maxAttenuation = uint32(256) << 23

// preverbThreshold is the -18dB point where pseudo reverb takes over the
// decay slope (6 steps of -3dB on the 23-bit fixed scale).
const preverbThreshold = uint32(6*8) << 23

// slot holds the decoded register state for one of the 24 wavetable
// voices. All mutation happens through the register interface and the
// per-sample mixer tick; slots never interact with each other.
type slot struct {
	num int

	// Wave addressing, loaded from the 12-byte wavetable header.
	// loopAddr and endAddr are in phase-accumulator units (sample index
	// shifted left 16) so they compare directly against stepPtr.
	wave      uint16 // 9-bit wave table number
	bits      uint8  // word length: 0=8-bit, 1=12-bit, 2=16-bit, 3=prohibited
	startAddr uint32 // byte offset of the first sample word
	loopAddr  uint32
	endAddr   uint32

	// Pitch
	fNumber uint16 // 10-bit frequency number
	octave  uint8  // 4-bit, sign-extended from bit 3; 8 (-8) turns the voice off
	step    uint32 // phase increment per output sample, 16 fractional bits
	stepPtr uint32 // phase accumulator / sample read position

	// Envelope rate registers (4-bit each)
	ar  uint8 // attack rate
	d1r uint8 // decay 1 rate
	dl  uint8 // decay level: attack/decay1 boundary
	d2r uint8 // decay 2 rate
	rc  uint8 // rate correction
	rr  uint8 // release rate

	// Envelope generator state
	egState    uint8
	envVol     uint32 // attenuation, 0 .. 256<<23 (0dB .. -96dB)
	envVolStep uint32 // per-sample delta (two's complement for attack)
	envVolLim  uint32 // state advances once envVol reaches or passes this
	preverb    bool   // pseudo reverb enable
	envPreverb bool   // reverb rate latched for the current envelope
	damp       bool

	// Modulation depth registers. Carried as state only: the LFO is not
	// hooked up on this engine revision, so vibrato and tremolo have no
	// effect on the output.
	lfo uint8
	vib uint8
	am  uint8

	// Output routing
	tl     uint8 // total level, 7-bit attenuation
	ld     uint8 // level direct bit
	pan    uint8 // 4-bit pan code
	ch     bool  // output pin select: false = DO2 pair, true = DO1 pair
	keyOn  bool
	active bool
}

// computeFreqStep derives the per-sample phase increment from the
// frequency number and octave. The octave sign-extends from bit 3, and
// the 11-bit mantissa (F-number with the implicit leading 1) is shifted
// into the 16-fraction-bit phase width.
func (sl *slot) computeFreqStep() {
	oct := int(sl.octave)
	if oct&8 != 0 {
		oct |= -8
	}

	step := (uint32(sl.fNumber) | 1024) << uint(oct+8)
	sl.step = step >> 3
}

// wrapPhase folds the phase accumulator back to the loop point once it
// reaches the end address. The subtraction is modulo, not a clamp: with a
// step large relative to the loop length the result can still sit past
// the end address, and the next sample reads out of sequence. Real chips
// do the same, and the resulting noise is used deliberately by software,
// so only one fold happens per sample.
func (sl *slot) wrapPhase() {
	if sl.stepPtr >= sl.endAddr {
		sl.stepPtr = sl.stepPtr - sl.endAddr + sl.loopAddr
	}
}

// readSample decodes the signed 16-bit sample at the slot's current read
// position. The three word lengths are left-justified into 16 bits; the
// prohibited fourth encoding decodes as silence.
func (y *YMF278B) readSample(sl *slot) int16 {
	switch sl.bits {
	case 0:
		// 8 bit
		return int16(uint16(y.readMem(sl.startAddr+(sl.stepPtr>>16))) << 8)

	case 1:
		// 12 bit, packed three bytes per two samples. The middle byte
		// carries the low nibbles: its low nibble belongs to the even
		// sample, its high nibble to the odd one.
		base := sl.startAddr + (sl.stepPtr>>17)*3
		if sl.stepPtr&0x10000 != 0 {
			return int16(uint16(y.readMem(base+2))<<8 |
				uint16(y.readMem(base+1)&0xf0))
		}
		return int16(uint16(y.readMem(base))<<8 |
			uint16(y.readMem(base+1)<<4)&0xf0)

	case 2:
		// 16 bit, big endian
		base := sl.startAddr + (sl.stepPtr>>16)*2
		return int16(uint16(y.readMem(base))<<8 | uint16(y.readMem(base+1)))
	}

	// Word length 3 is prohibited by the datasheet; its effect on real
	// hardware is unknown.
	return 0
}
