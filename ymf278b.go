package ymf278b

// Status register bits owned by this engine. The remaining bits come from
// the FM core's status byte.
const (
	StatusBusy = 0x01
	StatusLD   = 0x02
)

// Busy and load-delay durations in output samples. On hardware BUSY holds
// for 88 chip cycles after a PCM write (56 for FM), well under one output
// sample, so one sample is the shortest representable hold. LD holds for
// roughly 300us after a wavetable header load, about 13 samples at the
// nominal 44.1kHz rate.
const (
	busyDuration = 1
	ldDuration   = 13
)

// YMF278B implements the wavetable (PCM) half of the Yamaha YMF278B
// "OPL4" FM + wavetable synthesizer: 24 voices reading 8/12/16-bit
// sample data from external wave memory through per-voice envelope,
// pitch and pan state, mixed with a companion FM core onto three stereo
// output pairs. The FM core itself and the wave memory are collaborators
// supplied by the host.
//
// The chip is not safe for concurrent use; register writes and frame
// generation must come from one goroutine, and their interleaving defines
// the emulated timing.
type YMF278B struct {
	clockHz int
	rate    int // output sample rate, clockHz/768

	slots   [24]slot
	pcmRegs [256]uint8 // raw register mirror, used for write-delta checks

	// Global wave memory state
	wavetblHdr uint8  // wavetable header bank for waves 384-511
	memMode    uint8  // memory access mode bits (stored, board-specific)
	memAdr     uint32 // 22-bit address latch for direct memory access

	// Output bus gain selects, 3-bit indexes into mixLevel
	fmL, fmR   uint8
	pcmL, pcmR uint8

	// Port state
	portAB       uint8 // FM register address latch
	portC        uint8 // PCM register index latch
	lastPort     uint8 // FM bank of the last address latch write (0 or 1)
	nextStatusID bool  // next status read reports the one-shot ID bit

	// FM resampling: 0.24 fixed-point fraction of extra FM samples to
	// consume per output sample.
	fmPos uint32

	// Status flag timing, measured in generated output samples
	sampleCount uint64
	busyUntil   uint64
	ldUntil     uint64
	statusForce uint8 // bits held on by SetStatus until ResetStatus

	mem Memory
	fm  FMEngine

	// Output buffers, refilled by each GenerateFrames call
	chanBuf [6][]int32
	buffer  []int16
}

// New creates a YMF278B with the given master clock in Hz (nominally
// 33.8688MHz, giving 44.1kHz output). The chip starts with a silent FM
// core and no wave memory attached.
func New(clockHz int) *YMF278B {
	y := &YMF278B{
		clockHz: clockHz,
		rate:    clockHz / 768,
		fm:      &NullFM{},
	}
	for i := range y.slots {
		y.slots[i].num = i
	}
	return y
}

// SetMemory attaches the wave data store. With no memory attached, reads
// decode as zero and writes are dropped.
func (y *YMF278B) SetMemory(mem Memory) {
	y.mem = mem
}

// SetFM attaches the companion FM core. Passing nil restores the silent
// default.
func (y *YMF278B) SetFM(fm FMEngine) {
	if fm == nil {
		fm = &NullFM{}
	}
	y.fm = fm
}

// SampleRate returns the current output rate in Hz (clock/768).
func (y *YMF278B) SampleRate() int {
	return y.rate
}

// SetClock changes the master clock. The output rate and the FM resample
// position follow; the lookup tables are clock-independent and keep their
// values.
func (y *YMF278B) SetClock(clockHz int) {
	y.clockHz = clockHz
	y.rate = clockHz / 768
	y.fmPos = 0
}

func (y *YMF278B) readMem(addr uint32) uint8 {
	if y.mem == nil {
		return 0
	}
	return y.mem.ReadByte(addr & memMask)
}

func (y *YMF278B) writeMem(addr uint32, val uint8) {
	if y.mem != nil {
		y.mem.WriteByte(addr&memMask, val)
	}
}

// Reset restores power-on state: every PCM register is written to zero
// (ascending through the globals, then descending through the voice
// registers, matching the device), the FM gain select gets its 0x1B
// default, the port latches clear and all voices are silenced.
func (y *YMF278B) Reset() {
	for reg := 0; reg < 8; reg++ {
		y.writePCM(uint8(reg), 0)
	}
	for reg := 0xff; reg >= 8; reg-- {
		y.writePCM(uint8(reg), 0)
	}
	y.writePCM(0xf8, 0x1b)

	y.portAB = 0
	y.portC = 0
	y.lastPort = 0
	y.nextStatusID = false
	y.memAdr = 0
	y.fmPos = 0
	y.busyUntil = 0
	y.ldUntil = 0
	y.statusForce = 0

	for i := range y.slots {
		sl := &y.slots[i]

		sl.lfo = 0
		sl.vib = 0
		sl.ar = 0
		sl.d1r = 0
		sl.dl = 0
		sl.d2r = 0
		sl.rc = 0
		sl.rr = 0
		sl.am = 0

		sl.startAddr = 0
		sl.loopAddr = 0
		sl.endAddr = 0

		sl.egState = egReleaseDone
		sl.computeEnvelope()
	}

	y.fm.Reset()
}

// retriggerSample restarts a voice: phase back to the sample start,
// envelope into attack. A voice whose octave field holds the prohibited
// -8 encoding stays off.
func (y *YMF278B) retriggerSample(sl *slot) {
	if sl.octave != 8 {
		sl.active = true
	}

	sl.stepPtr = 0
	sl.egState = egAttack
	sl.envPreverb = false

	sl.computeFreqStep()
	sl.computeEnvelope()
}

// loadWaveHeader reads the 12-byte wavetable header for the slot's wave
// number and fills the addressing fields. Waves 384-511 come from the
// selected header bank when one is set. Header bytes 7-11 hold initial
// values for the slot's envelope and routing registers and are
// re-dispatched through the register interface.
func (y *YMF278B) loadWaveHeader(sl *slot, snum int) {
	var offset uint32
	if sl.wave < 384 || y.wavetblHdr == 0 {
		offset = uint32(sl.wave) * 12
	} else {
		offset = uint32(y.wavetblHdr)*0x80000 + uint32(sl.wave-384)*12
	}

	var p [12]uint8
	for i := range p {
		p[i] = y.readMem(offset + uint32(i))
	}

	sl.bits = (p[0] & 0xc0) >> 6
	sl.startAddr = uint32(p[2]) | uint32(p[1])<<8 | uint32(p[0]&0x3f)<<16
	sl.loopAddr = uint32(p[4])<<16 | uint32(p[3])<<24
	// The header stores the end address negated; converting it here
	// leaves endAddr directly comparable with the phase accumulator.
	sl.endAddr = uint32(p[6])<<16 | uint32(p[5])<<24
	sl.endAddr -= 0x00010000
	sl.endAddr ^= 0xffff0000

	for i := 7; i < 12; i++ {
		y.writePCM(uint8(8+snum+(i-2)*24), p[i])
	}

	// Status LD bit holds for about 300us after a header load.
	y.ldUntil = y.sampleCount + ldDuration

	if sl.keyOn {
		y.retriggerSample(sl)
	} else if sl.active {
		sl.egState = egReleaseDone
		sl.computeEnvelope()
	}
}

// writePCM decodes a PCM register write. Registers 0x08-0xF7 split into
// ten groups of 24 voice registers; the remainder are globals.
func (y *YMF278B) writePCM(reg, data uint8) {
	if reg >= 0x08 && reg <= 0xf7 {
		snum := int(reg-8) % 24
		sl := &y.slots[snum]

		switch int(reg-8) / 24 {
		case 0:
			// Wave select low bits + header reload
			sl.wave = sl.wave&0x100 | uint16(data)
			y.loadWaveHeader(sl, snum)

		case 1:
			// Wave select bit 8, F-number low bits
			sl.wave = sl.wave&0xff | uint16(data&0x1)<<8
			sl.fNumber = sl.fNumber&0x380 | uint16(data)>>1
			if sl.active && (data^y.pcmRegs[reg])&0xfe != 0 {
				sl.computeFreqStep()
				sl.computeEnvelope()
			}

		case 2:
			// F-number high bits, pseudo reverb, octave
			sl.fNumber = sl.fNumber&0x07f | uint16(data&0x07)<<7
			sl.preverb = data&0x8 != 0
			sl.octave = (data & 0xf0) >> 4
			if data != y.pcmRegs[reg] {
				// The voice goes off when the octave is set to the
				// prohibited -8 value. Activating an off voice here is
				// fine: computeEnvelope deactivates it again if its
				// envelope has run out.
				sl.active = sl.octave != 8

				if sl.active {
					sl.envPreverb = false
					sl.computeFreqStep()
					sl.computeEnvelope()
				}
			}

		case 3:
			sl.tl = data >> 1
			sl.ld = data & 0x1

		case 4:
			// Routing and key-on
			sl.ch = data&0x10 != 0
			sl.pan = data & 0xf
			sl.damp = data&0x40 != 0
			if data&0x80 != 0 {
				if sl.keyOn {
					// Already keyed on: no retrigger, but a damp change
					// alters the current decay slope.
					if (data^y.pcmRegs[reg])&0x40 != 0 {
						sl.computeEnvelope()
					}
				} else {
					y.retriggerSample(sl)
				}
			} else if sl.active {
				sl.egState = egRelease
				sl.computeEnvelope()
			}
			sl.keyOn = data&0x80 != 0

		case 5:
			// Vibrato depth; carried but not applied (no LFO yet)
			sl.lfo = (data >> 3) & 0x7
			sl.vib = data & 0x7

		case 6:
			sl.ar = data >> 4
			sl.d1r = data & 0xf
			if sl.active && data != y.pcmRegs[reg] {
				sl.computeEnvelope()
			}

		case 7:
			sl.dl = data >> 4
			sl.d2r = data & 0xf
			if sl.active && data != y.pcmRegs[reg] {
				sl.computeEnvelope()
			}

		case 8:
			sl.rc = data >> 4
			sl.rr = data & 0xf
			if sl.active && data != y.pcmRegs[reg] {
				sl.computeEnvelope()
			}

		case 9:
			// Tremolo depth; carried but not applied (no LFO yet)
			sl.am = data & 0x7
		}
	} else {
		switch reg {
		case 0x00, 0x01:
			// LSI test

		case 0x02:
			y.wavetblHdr = (data >> 2) & 0x7
			y.memMode = data & 3

		case 0x03:
			// Memory address high bits; the top two bits never latch
			data &= 0x3f

		case 0x04:
			// Memory address mid bits, latched on the reg 5 write

		case 0x05:
			y.memAdr = uint32(y.pcmRegs[3])<<16 | uint32(y.pcmRegs[4])<<8 | uint32(data)

		case 0x06:
			// Direct memory data port, post-incrementing
			y.writeMem(y.memAdr, data)
			y.memAdr = (y.memAdr + 1) & memMask

		case 0x07:
			// unused

		case 0xf8:
			y.fmL = data & 0x7
			y.fmR = (data >> 3) & 0x7

		case 0xf9:
			y.pcmL = data & 0x7
			y.pcmR = (data >> 3) & 0x7

		default:
			// Unknown registers are accepted and mirrored; reporting
			// them is the host's concern.
		}
	}

	y.pcmRegs[reg] = data
}

// timerBusyStart raises the BUSY status bit. Hardware holds it for 88
// chip cycles after a PCM access and 56 after an FM access; both are
// shorter than one output sample, so the distinction collapses here.
func (y *YMF278B) timerBusyStart(isPCM bool) {
	_ = isPCM
	y.busyUntil = y.sampleCount + busyDuration
}

// Write performs a host bus write to one of the chip's eight port
// offsets. Offsets 0/2 latch an FM register address for bank A/B, 1/3
// write FM data through the attached core, 4 latches a PCM register
// index and 5 writes it. PCM access requires the FM core's NEW2 mode bit.
func (y *YMF278B) Write(offset, data uint8) {
	switch offset & 7 {
	case 0, 2:
		y.timerBusyStart(false)
		y.portAB = data
		y.lastPort = (offset >> 1) & 1

	case 1, 3:
		y.timerBusyStart(false)
		old := y.fm.New2()
		y.fm.WriteRegister(uint16(y.portAB)|uint16(y.lastPort)<<8, data)

		// Turning NEW2 on makes the next status read report the ID bit,
		// once.
		if !old && y.fm.New2() {
			y.nextStatusID = true
		}

	case 4:
		y.timerBusyStart(true)
		y.portC = data

	case 5:
		if !y.fm.New2() {
			break
		}
		y.timerBusyStart(true)
		y.writePCM(y.portC, data)
	}
}

// Read performs a host bus read. Offset 0 is the status register, 1/3
// read back FM registers, 5 reads PCM registers (NEW2 gated) with the
// device ID folded into register 2 and post-incrementing memory access
// through register 6.
func (y *YMF278B) Read(offset uint8) uint8 {
	switch offset & 7 {
	case 0:
		ret := y.fm.Status() | y.Status()

		if !y.fm.New2() {
			// BUSY and LD are not reported in OPL2/OPL3 mode
			ret &^= StatusBusy | StatusLD

			// OPL2 mode returns bits 1 and 2 on
			if !y.fm.New() {
				ret |= 0x06
			}
		} else if y.nextStatusID {
			ret |= 0x02
			y.nextStatusID = false
		}
		return ret

	case 1, 3:
		return y.fm.ReadRegister(uint16(y.portAB) | uint16(y.lastPort)<<8)

	case 5:
		if !y.fm.New2() {
			break
		}
		switch y.portC {
		case 2:
			// Device ID in the upper bits
			return y.pcmRegs[2]&0x1f | 0x20
		case 6:
			ret := y.readMem(y.memAdr)
			y.memAdr = (y.memAdr + 1) & memMask
			return ret
		default:
			return y.pcmRegs[y.portC]
		}
	}

	return 0
}

// ActiveVoices returns how many of the 24 voices are currently sounding.
func (y *YMF278B) ActiveVoices() int {
	n := 0
	for i := range y.slots {
		if y.slots[i].active {
			n++
		}
	}
	return n
}

// Status returns the engine-owned status bits: BUSY and LD from their
// sample-counted hold windows plus anything forced on via SetStatus.
// Callers wanting the full bus-visible status byte should use Read(0).
func (y *YMF278B) Status() uint8 {
	st := y.statusForce
	if y.sampleCount < y.busyUntil {
		st |= StatusBusy
	}
	if y.sampleCount < y.ldUntil {
		st |= StatusLD
	}
	return st
}

// SetStatus forces status bits on until ResetStatus clears them. Hosts
// that model the busy/load-delay windows with their own timing can drive
// the flags directly through these.
func (y *YMF278B) SetStatus(mask uint8) {
	y.statusForce |= mask
}

// ResetStatus clears forced status bits and expires any pending
// sample-counted hold windows for the given bits.
func (y *YMF278B) ResetStatus(mask uint8) {
	y.statusForce &^= mask
	if mask&StatusBusy != 0 {
		y.busyUntil = 0
	}
	if mask&StatusLD != 0 {
		y.ldUntil = 0
	}
}
