package ymf278b

// memMask limits addresses to the chip's 4MB wave memory window.
const memMask = 0x3fffff

// Memory is the byte-addressable wave data store the chip reads headers
// and sample words from. Implementations own address decoding; the chip
// masks addresses to the 22-bit window before calling. Reads and writes
// must return immediately.
type Memory interface {
	ReadByte(addr uint32) uint8
	WriteByte(addr uint32, val uint8)
}

// WaveMemory is the common board wiring: a wave ROM at address 0 with
// optional SRAM mapped directly after it. Writes land in the SRAM region
// only; ROM and unmapped writes are dropped, unmapped reads return 0.
type WaveMemory struct {
	rom []byte
	ram []byte
}

// NewWaveMemory builds a WaveMemory from a ROM image and an SRAM size in
// bytes. Either may be empty.
func NewWaveMemory(rom []byte, ramSize int) *WaveMemory {
	return &WaveMemory{
		rom: rom,
		ram: make([]byte, ramSize),
	}
}

func (m *WaveMemory) ReadByte(addr uint32) uint8 {
	addr &= memMask
	if int(addr) < len(m.rom) {
		return m.rom[addr]
	}
	off := int(addr) - len(m.rom)
	if off < len(m.ram) {
		return m.ram[off]
	}
	return 0
}

func (m *WaveMemory) WriteByte(addr uint32, val uint8) {
	addr &= memMask
	off := int(addr) - len(m.rom)
	if off >= 0 && off < len(m.ram) {
		m.ram[off] = val
	}
}
