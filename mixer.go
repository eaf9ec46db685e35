package ymf278b

// Output channel layout produced by GenerateFrames. DO2 carries the mixed
// wavetable+FM stereo pair with the programmed bus gains applied; DO0 and
// DO1 are the ungained FM-only and wavetable-only pairs.
const (
	ChMixL = 0 // DO2 left: wavetable buses 0+1 and FM channels 0+1
	ChMixR = 1 // DO2 right
	ChFML  = 2 // DO0 left: FM channels 2+3 only
	ChFMR  = 3 // DO0 right
	ChWTL  = 4 // DO1 left: wavetable buses 2+3 only
	ChWTR  = 5 // DO1 right
)

// At the nominal 33.8688MHz datasheet clock the chip outputs clock/768 =
// 44.1kHz, but the FM core runs internally at clock/(19*36) = 49.515kHz
// and has to be downsampled. fmStep is the fractional number of extra FM
// samples to consume per output sample, as a 0.24 fixed-point fraction.
const (
	nominalClock = 33868800.0
	fmPrescale   = 19
	fmOperators  = 36
)

var fmStep = func() uint32 {
	fmRate := nominalClock / float64(fmPrescale*fmOperators)
	outRate := nominalClock / 768.0
	return uint32((fmRate/outRate - 1.0) * float64(1<<24))
}()

// GenerateFrames produces the given number of output frames into the
// chip's six channel buffers, replacing the previous contents. Inactive
// voices are skipped entirely, so cost scales with the active voice
// count. Identical register-write and generation sequences produce
// identical output.
func (y *YMF278B) GenerateFrames(frames int) {
	for c := range y.chanBuf {
		y.chanBuf[c] = y.chanBuf[c][:0]
	}
	y.buffer = y.buffer[:0]

	for i := 0; i < frames; i++ {
		y.generateFrame()
	}
}

// generateFrame renders one output frame: every active voice is stepped,
// decoded, enveloped and panned onto one of the two wavetable bus pairs;
// the FM core is clocked (with the resample fraction deciding whether it
// is clocked twice) and its output blended in.
func (y *YMF278B) generateFrame() {
	// wt holds the two wavetable stereo pairs: 0/1 route to the DO2 mix,
	// 2/3 to the DO1 pin.
	var wt [4]int32

	for i := range y.slots {
		sl := &y.slots[i]
		if !sl.active {
			continue
		}

		sl.wrapPhase()
		sample := int32(y.readSample(sl))

		env := int32(sl.envVol >> 23)
		l := (sample * volume[int32(sl.tl)+panLeft[sl.pan]+env]) >> 17
		r := (sample * volume[int32(sl.tl)+panRight[sl.pan]+env]) >> 17
		if sl.ch {
			wt[2] += l
			wt[3] += r
		} else {
			wt[0] += l
			wt[1] += r
		}

		sl.stepPtr += sl.step
		sl.advanceEnvelope()
	}

	// Consume FM samples: one per frame, plus an extra one whenever the
	// fractional position overflows. The PCM side does no interpolation,
	// so neither does this resampling stage.
	y.fmPos += fmStep
	if y.fmPos&(1<<24) != 0 {
		y.fm.Clock()
		y.fmPos &= 0xffffff
	}
	y.fm.Clock()
	fm := y.fm.Output()

	wtl := int64(mixLevel[y.pcmL])
	wtr := int64(mixLevel[y.pcmR])
	fml := int64(mixLevel[y.fmL])
	fmr := int64(mixLevel[y.fmR])

	mixL := int32((int64(wt[0])*wtl + int64(fm[0])*fml) >> 16)
	mixR := int32((int64(wt[1])*wtr + int64(fm[1])*fmr) >> 16)

	y.chanBuf[ChMixL] = append(y.chanBuf[ChMixL], mixL)
	y.chanBuf[ChMixR] = append(y.chanBuf[ChMixR], mixR)
	y.chanBuf[ChFML] = append(y.chanBuf[ChFML], fm[2])
	y.chanBuf[ChFMR] = append(y.chanBuf[ChFMR], fm[3])
	y.chanBuf[ChWTL] = append(y.chanBuf[ChWTL], wt[2])
	y.chanBuf[ChWTR] = append(y.chanBuf[ChWTR], wt[3])

	y.buffer = append(y.buffer,
		int16(clampInt32(mixL, -32768, 32767)),
		int16(clampInt32(mixR, -32768, 32767)))

	y.sampleCount++
}

// GetChannelBuffers returns the six raw channel buffers filled by the
// last GenerateFrames call and the number of valid frames. The slices are
// reused by the next GenerateFrames call; copy them to retain the data.
func (y *YMF278B) GetChannelBuffers() ([6][]int32, int) {
	return y.chanBuf, len(y.chanBuf[ChMixL])
}

// GetBuffer returns the mixed DO2 stereo pair from the last
// GenerateFrames call as interleaved L/R int16 samples, clamped to int16
// range. The slice is reused by the next GenerateFrames call.
func (y *YMF278B) GetBuffer() []int16 {
	return y.buffer
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
