package ymf278b

import "testing"

// countingFM counts Clock calls to observe the resample cadence.
type countingFM struct {
	NullFM
	clocks int
}

func (f *countingFM) Clock() { f.clocks++ }

// constFM produces a fixed output on every sample.
type constFM struct {
	NullFM
	out [4]int32
}

func (f *constFM) Output() [4]int32 { return f.out }

// frameLevel is the per-frame wavetable bus contribution of a wave 0
// voice: constant sample 0x1000 through the given attenuation index.
func frameLevel(attIdx int32) int32 {
	return (0x1000 * volume[attIdx]) >> 17
}

func TestMixer_SilentWhenIdle(t *testing.T) {
	y := newTestChip()
	y.GenerateFrames(16)

	bufs, n := y.GetChannelBuffers()
	if n != 16 {
		t.Fatalf("frame count = %d, want 16", n)
	}
	for c := range bufs {
		for i, v := range bufs[c] {
			if v != 0 {
				t.Fatalf("channel %d frame %d = %d, want silence", c, i, v)
			}
		}
	}
	if buf := y.GetBuffer(); len(buf) != 32 {
		t.Fatalf("interleaved buffer length = %d, want 32", len(buf))
	}
	for i, v := range y.GetBuffer() {
		if v != 0 {
			t.Fatalf("buffer sample %d = %d, want 0", i, v)
		}
	}
}

func TestMixer_VoiceOnMixedPair(t *testing.T) {
	y := newTestChip()
	keyVoice(y, 0)
	y.GenerateFrames(4)

	want := frameLevel(0)
	wantMix := int32((int64(want) * int64(mixLevel[0])) >> 16)

	bufs, _ := y.GetChannelBuffers()
	for i := 0; i < 4; i++ {
		if bufs[ChMixL][i] != wantMix || bufs[ChMixR][i] != wantMix {
			t.Fatalf("frame %d mix = %d/%d, want %d", i,
				bufs[ChMixL][i], bufs[ChMixR][i], wantMix)
		}
		if bufs[ChWTL][i] != 0 || bufs[ChWTR][i] != 0 {
			t.Fatalf("frame %d leaked onto the DO1 pair", i)
		}
	}

	buf := y.GetBuffer()
	if buf[0] != int16(wantMix) || buf[1] != int16(wantMix) {
		t.Fatalf("interleaved output = %d/%d, want %d", buf[0], buf[1], wantMix)
	}
}

func TestMixer_ChBitRoutesToDO1(t *testing.T) {
	y := newTestChip()
	pcmWrite(y, voiceReg(0, 0), 0)
	pcmWrite(y, voiceReg(4, 0), 0x90) // key on, CH set

	y.GenerateFrames(4)
	want := frameLevel(0)

	bufs, _ := y.GetChannelBuffers()
	for i := 0; i < 4; i++ {
		if bufs[ChWTL][i] != want || bufs[ChWTR][i] != want {
			t.Fatalf("frame %d DO1 = %d/%d, want %d", i,
				bufs[ChWTL][i], bufs[ChWTR][i], want)
		}
		if bufs[ChMixL][i] != 0 || bufs[ChMixR][i] != 0 {
			t.Fatalf("frame %d leaked onto the mixed pair", i)
		}
	}
}

func TestMixer_PanAttenuates(t *testing.T) {
	y := newTestChip()
	pcmWrite(y, voiceReg(0, 0), 0)
	pcmWrite(y, voiceReg(4, 0), 0x92) // key on, CH set, pan 2

	y.GenerateFrames(1)
	bufs, _ := y.GetChannelBuffers()

	wantL := frameLevel(panLeft[2])
	wantR := frameLevel(panRight[2])
	if bufs[ChWTL][0] != wantL || bufs[ChWTR][0] != wantR {
		t.Fatalf("panned output = %d/%d, want %d/%d",
			bufs[ChWTL][0], bufs[ChWTR][0], wantL, wantR)
	}
	if wantL >= wantR {
		t.Fatalf("pan 2 should attenuate left: %d/%d", wantL, wantR)
	}
}

func TestMixer_TotalLevelAttenuates(t *testing.T) {
	y := newTestChip()
	pcmWrite(y, voiceReg(0, 0), 0)
	pcmWrite(y, voiceReg(4, 0), 0x90)
	pcmWrite(y, voiceReg(3, 0), 0x50) // TL 40

	y.GenerateFrames(1)
	bufs, _ := y.GetChannelBuffers()

	want := frameLevel(40)
	if bufs[ChWTL][0] != want {
		t.Fatalf("attenuated output = %d, want %d", bufs[ChWTL][0], want)
	}
	if want >= frameLevel(0) {
		t.Fatal("total level had no effect")
	}
}

func TestMixer_LoopWrapBoundsPhase(t *testing.T) {
	y := newTestChip()
	keyVoice(y, 0)

	// Wave 0 is 64 samples at half a sample per frame, so the phase wraps
	// several times in 500 frames. The sample data is constant, so the
	// output must be too.
	y.GenerateFrames(500)

	sl := &y.slots[0]
	if sl.stepPtr >= sl.endAddr+sl.step {
		t.Fatalf("stepPtr = %#x ran away past end %#x", sl.stepPtr, sl.endAddr)
	}

	bufs, _ := y.GetChannelBuffers()
	for i, v := range bufs[ChMixL] {
		if v != bufs[ChMixL][0] {
			t.Fatalf("frame %d = %d, want constant %d", i, v, bufs[ChMixL][0])
		}
	}
}

func TestMixer_FMResampleCadence(t *testing.T) {
	y := New(testClock)
	fm := &countingFM{}
	y.SetFM(fm)

	const frames = 1000
	y.GenerateFrames(frames)

	// The FM core runs at clock/684 against clock/768 output frames, so
	// it has to be clocked a little more than once per frame.
	var pos uint32
	want := 0
	for i := 0; i < frames; i++ {
		pos += fmStep
		if pos&(1<<24) != 0 {
			pos &= 0xffffff
			want += 2
		} else {
			want++
		}
	}
	if fm.clocks != want {
		t.Fatalf("FM clocks = %d, want %d", fm.clocks, want)
	}
	if fm.clocks <= frames {
		t.Fatalf("FM clocks = %d, expected more than one per frame", fm.clocks)
	}
}

func TestMixer_FMBlend(t *testing.T) {
	y := New(testClock)
	y.SetFM(&constFM{out: [4]int32{1000, -1000, 500, -600}})

	y.GenerateFrames(3)
	bufs, _ := y.GetChannelBuffers()

	wantL := int32((int64(1000) * int64(mixLevel[0])) >> 16)
	wantR := int32((int64(-1000) * int64(mixLevel[0])) >> 16)
	for i := 0; i < 3; i++ {
		if bufs[ChMixL][i] != wantL || bufs[ChMixR][i] != wantR {
			t.Fatalf("frame %d mix = %d/%d, want %d/%d", i,
				bufs[ChMixL][i], bufs[ChMixR][i], wantL, wantR)
		}
		if bufs[ChFML][i] != 500 || bufs[ChFMR][i] != -600 {
			t.Fatalf("frame %d FM pair = %d/%d, want 500/-600", i,
				bufs[ChFML][i], bufs[ChFMR][i])
		}
	}
}

func TestMixer_Deterministic(t *testing.T) {
	run := func() *YMF278B {
		y := newTestChip()
		keyVoice(y, 0)
		pcmWrite(y, voiceReg(0, 5), 0)
		pcmWrite(y, voiceReg(4, 5), 0x93)
		pcmWrite(y, voiceReg(0, 11), 0)
		pcmWrite(y, voiceReg(4, 11), 0xd0) // damped
		y.GenerateFrames(500)
		return y
	}

	a := run()
	b := run()

	ab, an := a.GetChannelBuffers()
	bb, bn := b.GetChannelBuffers()
	if an != bn {
		t.Fatalf("frame counts differ: %d vs %d", an, bn)
	}
	for c := range ab {
		for i := range ab[c] {
			if ab[c][i] != bb[c][i] {
				t.Fatalf("channel %d frame %d differs: %d vs %d",
					c, i, ab[c][i], bb[c][i])
			}
		}
	}
	for i, v := range a.GetBuffer() {
		if v != b.GetBuffer()[i] {
			t.Fatalf("interleaved sample %d differs", i)
		}
	}
}
