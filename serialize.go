package ymf278b

import (
	"encoding/binary"
	"errors"
)

const (
	serializeVersion = 1
	// Per-slot serialization size:
	// wave(2) + bits(1) + startAddr(4) + loopAddr(4) + endAddr(4) +
	// fNumber(2) + octave(1) + step(4) + stepPtr(4) +
	// ar/d1r/dl/d2r/rc/rr(6) + egState(1) + envVol(4) + envVolStep(4) +
	// envVolLim(4) + preverb(1) + envPreverb(1) + damp(1) +
	// lfo/vib/am(3) + tl/ld/pan(3) + ch/keyOn/active(3) = 57
	slotSerializeSize = 57
	// Global state:
	// pcmRegs(256) + wavetblHdr(1) + memMode(1) + memAdr(4) +
	// fmL/fmR/pcmL/pcmR(4) + portAB(1) + portC(1) + lastPort(1) +
	// nextStatusID(1) + fmPos(4) + sampleCount(8) + busyUntil(8) +
	// ldUntil(8) + statusForce(1) = 299
	globalSerializeSize = 299
	// SerializeSize is the total bytes needed for YMF278B serialization.
	// version(1) + 24 slots * 57 + global(299) = 1668
	SerializeSize = 1 + 24*slotSerializeSize + globalSerializeSize
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Serialize writes the chip state to buf. buf must be at least
// SerializeSize bytes. Wave memory contents are the store's concern and
// are not included.
func (y *YMF278B) Serialize(buf []byte) error {
	if len(buf) < SerializeSize {
		return errors.New("YMF278B serialize buffer too small")
	}

	offset := 0

	buf[offset] = serializeVersion
	offset++

	for i := range y.slots {
		offset = serializeSlot(&y.slots[i], buf, offset)
	}

	copy(buf[offset:], y.pcmRegs[:])
	offset += len(y.pcmRegs)

	buf[offset] = y.wavetblHdr
	offset++
	buf[offset] = y.memMode
	offset++
	binary.LittleEndian.PutUint32(buf[offset:], y.memAdr)
	offset += 4

	buf[offset] = y.fmL
	offset++
	buf[offset] = y.fmR
	offset++
	buf[offset] = y.pcmL
	offset++
	buf[offset] = y.pcmR
	offset++

	buf[offset] = y.portAB
	offset++
	buf[offset] = y.portC
	offset++
	buf[offset] = y.lastPort
	offset++
	buf[offset] = boolByte(y.nextStatusID)
	offset++

	binary.LittleEndian.PutUint32(buf[offset:], y.fmPos)
	offset += 4
	binary.LittleEndian.PutUint64(buf[offset:], y.sampleCount)
	offset += 8
	binary.LittleEndian.PutUint64(buf[offset:], y.busyUntil)
	offset += 8
	binary.LittleEndian.PutUint64(buf[offset:], y.ldUntil)
	offset += 8
	buf[offset] = y.statusForce
	offset++

	return nil
}

// Deserialize reads chip state from buf. buf must be at least
// SerializeSize bytes.
func (y *YMF278B) Deserialize(buf []byte) error {
	if len(buf) < SerializeSize {
		return errors.New("YMF278B deserialize buffer too small")
	}

	offset := 0

	version := buf[offset]
	offset++
	if version > serializeVersion {
		return errors.New("unsupported YMF278B state version")
	}

	for i := range y.slots {
		offset = deserializeSlot(&y.slots[i], buf, offset)
	}

	copy(y.pcmRegs[:], buf[offset:])
	offset += len(y.pcmRegs)

	y.wavetblHdr = buf[offset]
	offset++
	y.memMode = buf[offset]
	offset++
	y.memAdr = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	y.fmL = buf[offset]
	offset++
	y.fmR = buf[offset]
	offset++
	y.pcmL = buf[offset]
	offset++
	y.pcmR = buf[offset]
	offset++

	y.portAB = buf[offset]
	offset++
	y.portC = buf[offset]
	offset++
	y.lastPort = buf[offset]
	offset++
	y.nextStatusID = buf[offset] != 0
	offset++

	y.fmPos = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	y.sampleCount = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	y.busyUntil = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	y.ldUntil = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	y.statusForce = buf[offset]
	offset++

	return nil
}

// serializeSlot writes a single slot to buf at the given offset.
func serializeSlot(sl *slot, buf []byte, offset int) int {
	binary.LittleEndian.PutUint16(buf[offset:], sl.wave)
	offset += 2
	buf[offset] = sl.bits
	offset++
	binary.LittleEndian.PutUint32(buf[offset:], sl.startAddr)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], sl.loopAddr)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], sl.endAddr)
	offset += 4

	binary.LittleEndian.PutUint16(buf[offset:], sl.fNumber)
	offset += 2
	buf[offset] = sl.octave
	offset++
	binary.LittleEndian.PutUint32(buf[offset:], sl.step)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], sl.stepPtr)
	offset += 4

	buf[offset] = sl.ar
	offset++
	buf[offset] = sl.d1r
	offset++
	buf[offset] = sl.dl
	offset++
	buf[offset] = sl.d2r
	offset++
	buf[offset] = sl.rc
	offset++
	buf[offset] = sl.rr
	offset++

	buf[offset] = sl.egState
	offset++
	binary.LittleEndian.PutUint32(buf[offset:], sl.envVol)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], sl.envVolStep)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], sl.envVolLim)
	offset += 4
	buf[offset] = boolByte(sl.preverb)
	offset++
	buf[offset] = boolByte(sl.envPreverb)
	offset++
	buf[offset] = boolByte(sl.damp)
	offset++

	buf[offset] = sl.lfo
	offset++
	buf[offset] = sl.vib
	offset++
	buf[offset] = sl.am
	offset++

	buf[offset] = sl.tl
	offset++
	buf[offset] = sl.ld
	offset++
	buf[offset] = sl.pan
	offset++

	buf[offset] = boolByte(sl.ch)
	offset++
	buf[offset] = boolByte(sl.keyOn)
	offset++
	buf[offset] = boolByte(sl.active)
	offset++

	return offset
}

// deserializeSlot reads a single slot from buf at the given offset.
func deserializeSlot(sl *slot, buf []byte, offset int) int {
	sl.wave = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2
	sl.bits = buf[offset]
	offset++
	sl.startAddr = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	sl.loopAddr = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	sl.endAddr = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	sl.fNumber = binary.LittleEndian.Uint16(buf[offset:])
	offset += 2
	sl.octave = buf[offset]
	offset++
	sl.step = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	sl.stepPtr = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	sl.ar = buf[offset]
	offset++
	sl.d1r = buf[offset]
	offset++
	sl.dl = buf[offset]
	offset++
	sl.d2r = buf[offset]
	offset++
	sl.rc = buf[offset]
	offset++
	sl.rr = buf[offset]
	offset++

	sl.egState = buf[offset]
	offset++
	sl.envVol = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	sl.envVolStep = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	sl.envVolLim = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	sl.preverb = buf[offset] != 0
	offset++
	sl.envPreverb = buf[offset] != 0
	offset++
	sl.damp = buf[offset] != 0
	offset++

	sl.lfo = buf[offset]
	offset++
	sl.vib = buf[offset]
	offset++
	sl.am = buf[offset]
	offset++

	sl.tl = buf[offset]
	offset++
	sl.ld = buf[offset]
	offset++
	sl.pan = buf[offset]
	offset++

	sl.ch = buf[offset] != 0
	offset++
	sl.keyOn = buf[offset] != 0
	offset++
	sl.active = buf[offset] != 0
	offset++

	return offset
}
