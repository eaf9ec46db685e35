package main

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// VGM command stream support, limited to what a YMF278B rip needs:
// OPL4 register writes (command 0xD0), the wait commands, data blocks
// carrying the wave ROM/RAM images, and the loop marker. Writes for
// other chips in the file are skipped by command length.

// vgmEvent is one register write, timestamped in output samples. port is
// the chip's register-space index from the stream: 0/1 select the two FM
// banks, 2 the PCM register file.
type vgmEvent struct {
	sample uint64
	port   uint8
	reg    uint8
	val    uint8
}

type vgmFile struct {
	clockHz      int
	totalSamples uint64
	loopSample   uint64
	hasLoop      bool
	events       []vgmEvent

	// Wave memory image assembled from the file's data blocks. RAM
	// blocks are applied in stream order on top of the ROM image; rips
	// place them before the affected notes, so pre-applying them here
	// keeps playback correct without modeling RAM separately.
	waveImage []byte
}

// clock offset of the YMF278B entry in the VGM header (version 1.51 up).
const vgmOPL4ClockOffset = 0x60

func parseVGMFile(path string) (*vgmFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseVGM(data)
}

func parseVGM(data []byte) (*vgmFile, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		data, err = io.ReadAll(gz)
		if err != nil {
			return nil, err
		}
	}
	if len(data) < 0x40 || !bytes.Equal(data[0:4], []byte("Vgm ")) {
		return nil, fmt.Errorf("not a vgm file")
	}

	if len(data) < vgmOPL4ClockOffset+4 {
		return nil, fmt.Errorf("vgm header predates YMF278B support")
	}
	clockHz := binary.LittleEndian.Uint32(data[vgmOPL4ClockOffset:]) &^ 0xc0000000
	if clockHz == 0 {
		return nil, fmt.Errorf("vgm has no YMF278B")
	}

	f := &vgmFile{
		clockHz:      int(clockHz),
		totalSamples: uint64(binary.LittleEndian.Uint32(data[0x18:])),
	}

	dataStart := uint32(0x40)
	if off := binary.LittleEndian.Uint32(data[0x34:]); off != 0 {
		dataStart = 0x34 + off
	}
	if int(dataStart) >= len(data) {
		return nil, fmt.Errorf("vgm data offset out of range")
	}

	loopStart := uint32(0)
	if off := binary.LittleEndian.Uint32(data[0x1c:]); off != 0 {
		loopStart = 0x1c + off
	}

	samplePos := uint64(0)
	for i := int(dataStart); i < len(data); {
		if loopStart != 0 && !f.hasLoop && uint32(i) == loopStart {
			f.loopSample = samplePos
			f.hasLoop = true
		}

		cmd := data[i]
		switch {
		case cmd == 0x66:
			i = len(data)

		case cmd == 0xd0:
			if i+3 >= len(data) {
				return nil, fmt.Errorf("vgm truncated YMF278B write")
			}
			// Bit 7 of the port byte addresses a second chip.
			if data[i+1]&0x80 == 0 {
				f.events = append(f.events, vgmEvent{
					sample: samplePos,
					port:   data[i+1] & 0x7f,
					reg:    data[i+2],
					val:    data[i+3],
				})
			}
			i += 4

		case cmd == 0x61:
			if i+2 >= len(data) {
				return nil, fmt.Errorf("vgm truncated wait")
			}
			samplePos += uint64(binary.LittleEndian.Uint16(data[i+1:]))
			i += 3

		case cmd == 0x62:
			samplePos += 735
			i++

		case cmd == 0x63:
			samplePos += 882
			i++

		case cmd >= 0x70 && cmd <= 0x7f:
			samplePos += uint64(cmd&0x0f) + 1
			i++

		case cmd == 0x67:
			n, err := f.applyDataBlock(data, i)
			if err != nil {
				return nil, err
			}
			i += n

		default:
			n, err := skipLength(cmd)
			if err != nil {
				return nil, fmt.Errorf("%w at offset %d", err, i)
			}
			if i+n > len(data) {
				return nil, fmt.Errorf("vgm truncated command 0x%02X at offset %d", cmd, i)
			}
			i += n
		}
	}

	if samplePos > f.totalSamples {
		f.totalSamples = samplePos
	}
	return f, nil
}

// applyDataBlock handles a 0x67 data block at offset i and returns the
// block's total byte length. YMF278B ROM (0x84) and RAM (0x87) images
// land in the wave image; other block types are skipped.
func (f *vgmFile) applyDataBlock(data []byte, i int) (int, error) {
	if i+6 >= len(data) || data[i+1] != 0x66 {
		return 0, fmt.Errorf("vgm invalid data block at offset %d", i)
	}
	blockType := data[i+2]
	blockLen := int(binary.LittleEndian.Uint32(data[i+3:]) &^ 0x80000000)
	if i+7+blockLen > len(data) {
		return 0, fmt.Errorf("vgm truncated data block at offset %d", i)
	}

	if blockType == 0x84 || blockType == 0x87 {
		if blockLen < 8 {
			return 0, fmt.Errorf("vgm short YMF278B data block at offset %d", i)
		}
		total := int(binary.LittleEndian.Uint32(data[i+7:]))
		start := int(binary.LittleEndian.Uint32(data[i+11:]))
		payload := data[i+15 : i+7+blockLen]

		if total > len(f.waveImage) {
			grown := make([]byte, total)
			copy(grown, f.waveImage)
			f.waveImage = grown
		}
		if start+len(payload) <= len(f.waveImage) {
			copy(f.waveImage[start:], payload)
		}
	}

	return 7 + blockLen, nil
}

// skipLength returns the total byte length of commands this player does
// not act on.
func skipLength(cmd byte) (int, error) {
	switch {
	case cmd >= 0x30 && cmd <= 0x3f:
		return 2, nil
	case cmd >= 0x40 && cmd <= 0x4e:
		return 3, nil
	case cmd == 0x4f || cmd == 0x50:
		return 2, nil
	case cmd >= 0x51 && cmd <= 0x5f:
		return 3, nil
	case cmd == 0x68:
		return 12, nil
	case cmd >= 0x80 && cmd <= 0x8f:
		return 1, nil
	case cmd >= 0x90 && cmd <= 0x91 || cmd == 0x95:
		return 5, nil
	case cmd == 0x92:
		return 6, nil
	case cmd == 0x93:
		return 11, nil
	case cmd == 0x94:
		return 2, nil
	case cmd >= 0xa0 && cmd <= 0xbf:
		return 3, nil
	case cmd >= 0xc0 && cmd <= 0xdf:
		return 4, nil
	case cmd >= 0xe0:
		return 5, nil
	}
	return 0, fmt.Errorf("vgm unknown command 0x%02X", cmd)
}
