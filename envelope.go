package ymf278b

// computeRate resolves a 4-bit envelope rate register into the 0-63 rate
// index used by the timing tables. Parameter 0 never moves, parameter 15
// is always the fastest rate. In between, a rate correction other than 15
// scales the rate with octave and the top F-number bit, the way key
// scaling does on the FM side.
func (sl *slot) computeRate(val uint8) int {
	if val == 0 {
		return 0
	}
	if val == 15 {
		return 63
	}

	var res int
	if sl.rc != 15 {
		oct := int(sl.octave)
		if oct&8 != 0 {
			oct |= -8
		}

		fnum9 := 0
		if sl.fNumber&0x200 != 0 {
			fnum9 = 1
		}
		res = (oct+int(sl.rc))*2 + fnum9 + int(val)*4
	} else {
		res = int(val) * 4
	}

	if res < 0 {
		res = 0
	} else if res > 63 {
		res = 63
	}
	return res
}

// computeDecayEnvVolStep resolves the per-sample volume delta for the
// decay 1/2 and release stages. Damp and pseudo reverb override the
// programmed rate: damp forces rate 56 (the datasheet curve is slightly
// non-linear, this is an approximation), and pseudo reverb latches rate 5
// once the volume has fallen past -18dB, stretching the remaining decay
// into a long tail.
func (sl *slot) computeDecayEnvVolStep(val uint8) uint32 {
	var rate int
	switch {
	case sl.damp:
		rate = 56
	case sl.preverb && sl.envVol > preverbThreshold:
		sl.envPreverb = true
		rate = 5
	default:
		rate = sl.computeRate(val)
	}

	if rate < 4 {
		return 0
	}
	return maxAttenuation / lutDR[rate]
}

// computeEnvelope sets up the volume step and limit for the slot's
// current envelope state. States that complete instantly (rate 63 attack,
// decay 1 with no decay level) advance and recompute in the same call.
func (sl *slot) computeEnvelope() {
	switch sl.egState {
	case egAttack:
		// Volume starts at max attenuation and counts down to zero.
		// The rate tables are linear here; the datasheet shows a smooth
		// curve, and matching output depends on keeping the linear
		// approximation.
		rate := sl.computeRate(sl.ar)
		sl.envVol = maxAttenuation
		sl.envVolLim = maxAttenuation - 1

		switch {
		case rate == 63:
			sl.envVol = 0
			sl.egState++
			sl.computeEnvelope()
		case rate < 4:
			sl.envVolStep = 0
		default:
			sl.envVolStep = ^(maxAttenuation / lutAR[rate])
		}

	case egDecay1:
		if sl.dl != 0 {
			sl.envVolStep = sl.computeDecayEnvVolStep(sl.d1r)
			sl.envVolLim = uint32(sl.dl*8) << 23
		} else {
			sl.egState++
			sl.computeEnvelope()
		}

	case egDecay2:
		sl.envVolStep = sl.computeDecayEnvVolStep(sl.d2r)
		sl.envVolLim = maxAttenuation

	case egDecay2Done:
		sl.envVol = maxAttenuation
		sl.envVolStep = 0
		sl.envVolLim = 0
		sl.active = false

	case egRelease:
		sl.envVolStep = sl.computeDecayEnvVolStep(sl.rr)
		sl.envVolLim = maxAttenuation

	case egReleaseDone:
		sl.envVol = maxAttenuation
		sl.envVolStep = 0
		sl.envVolLim = 0
		sl.active = false
	}
}

// advanceEnvelope moves the envelope one sample forward. The reached-limit
// test subtracts in uint32 and inspects the sign bit, so a volume that
// wrapped past the limit still registers as complete. If pseudo reverb is
// armed but not yet latched and the volume crosses the -18dB threshold
// mid-state, the current state's step is recomputed in place to pick up
// the reverb tail rate without changing stage.
func (sl *slot) advanceEnvelope() {
	sl.envVol += sl.envVolStep
	if int32(sl.envVol-sl.envVolLim) >= 0 {
		sl.egState++
		sl.computeEnvelope()
	} else if sl.preverb && !sl.envPreverb && sl.egState != egAttack &&
		sl.envVol > preverbThreshold {
		sl.computeEnvelope()
	}
}
