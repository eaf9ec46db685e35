package ymf278b

// FMEngine is the companion FM synthesis core (YMF262-compatible) whose
// output the mixer blends with the wavetable buses. The FM core runs at
// clock/684 while the wavetable engine outputs at clock/768; the mixer
// owns the resampling and calls Clock at the required cadence. Register
// traffic on the chip's FM ports is passed through unchanged.
type FMEngine interface {
	// Clock advances the FM core by one of its own samples.
	Clock()
	// Output returns the four FM channel outputs for the current sample,
	// roughly within int16 range per channel. Channels 0+1 feed the mixed
	// stereo pair, channels 2+3 the FM-only pair.
	Output() [4]int32
	// WriteRegister and ReadRegister access the FM register file. The
	// register index carries the bank in bit 8.
	WriteRegister(reg uint16, val uint8)
	ReadRegister(reg uint16) uint8
	// Status returns the FM core's status bits (timer flags).
	Status() uint8
	// New reports the OPL3 mode bit, New2 the OPL4 mode bit. PCM register
	// access and the extended status bits are gated on New2.
	New() bool
	New2() bool
	Reset()
}

// NullFM is a silent FMEngine. It still tracks the NEW/NEW2 mode bits
// from register 0x105 so the PCM register file stays reachable without a
// real FM core attached.
type NullFM struct {
	newFlag  bool
	new2Flag bool
}

func (f *NullFM) Clock() {}

func (f *NullFM) Output() [4]int32 { return [4]int32{} }

func (f *NullFM) WriteRegister(reg uint16, val uint8) {
	if reg == 0x105 {
		f.newFlag = val&0x01 != 0
		f.new2Flag = val&0x02 != 0
	}
}

func (f *NullFM) ReadRegister(reg uint16) uint8 { return 0 }

func (f *NullFM) Status() uint8 { return 0 }

func (f *NullFM) New() bool { return f.newFlag }

func (f *NullFM) New2() bool { return f.new2Flag }

func (f *NullFM) Reset() {
	f.newFlag = false
	f.new2Flag = false
}
