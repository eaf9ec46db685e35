package ymf278b

import "testing"

func TestSerialize_RoundTrip(t *testing.T) {
	a := newTestChip()
	keyVoice(a, 0)
	pcmWrite(a, voiceReg(0, 5), 0)
	pcmWrite(a, voiceReg(4, 5), 0x92)
	pcmWrite(a, 0xf9, 0x09)
	a.GenerateFrames(50)

	// Key a voice off so the snapshot lands mid-release.
	pcmWrite(a, voiceReg(4, 0), 0x00)
	a.GenerateFrames(50)

	buf := make([]byte, SerializeSize)
	if err := a.Serialize(buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	b := New(testClock)
	b.SetMemory(NewWaveMemory(testROM(), 0))
	if err := b.Deserialize(buf); err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	if b.sampleCount != a.sampleCount {
		t.Fatalf("sampleCount = %d, want %d", b.sampleCount, a.sampleCount)
	}
	if b.pcmL != a.pcmL || b.pcmR != a.pcmR {
		t.Fatal("bus gains not restored")
	}
	if b.ActiveVoices() != a.ActiveVoices() {
		t.Fatalf("active voices = %d, want %d", b.ActiveVoices(), a.ActiveVoices())
	}

	// Both chips must continue from the snapshot identically.
	a.GenerateFrames(200)
	b.GenerateFrames(200)

	ab, _ := a.GetChannelBuffers()
	bb, _ := b.GetChannelBuffers()
	for c := range ab {
		for i := range ab[c] {
			if ab[c][i] != bb[c][i] {
				t.Fatalf("channel %d frame %d diverged: %d vs %d",
					c, i, ab[c][i], bb[c][i])
			}
		}
	}
	for i, v := range a.GetBuffer() {
		if v != b.GetBuffer()[i] {
			t.Fatalf("interleaved sample %d diverged", i)
		}
	}
}

func TestSerialize_BufferTooSmall(t *testing.T) {
	y := newTestChip()
	short := make([]byte, SerializeSize-1)

	if err := y.Serialize(short); err == nil {
		t.Fatal("serialize accepted a short buffer")
	}
	if err := y.Deserialize(short); err == nil {
		t.Fatal("deserialize accepted a short buffer")
	}
}

func TestSerialize_UnsupportedVersion(t *testing.T) {
	y := newTestChip()
	buf := make([]byte, SerializeSize)
	if err := y.Serialize(buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	buf[0] = serializeVersion + 1
	if err := y.Deserialize(buf); err == nil {
		t.Fatal("deserialize accepted an unknown state version")
	}
}
