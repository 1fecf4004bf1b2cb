package replacement

// updateSHiP trains the signature history counter table and inserts lines
// according to what the table has learned about their signature.
//
// A hit marks the line as reused and rewards the signature it was inserted
// with. A miss first penalizes the signature of the line being replaced if
// that line was never reused, then records the new signature and inserts the
// line at a distant RRPV when the new signature has no reuse history.
func (e *Engine) updateSHiP(setIndex, way int, pc uint64, hit bool) {
	line := &e.set(setIndex)[way]

	if hit {
		line.Outcome = true

		if e.shct[line.Signature] < shctCounterMax {
			e.shct[line.Signature]++
			e.stats.SHCTIncrements++
		}

		line.RRPV = rrpvNear

		return
	}

	if !line.Outcome && e.shct[line.Signature] > 0 {
		e.shct[line.Signature]--
		e.stats.SHCTDecrements++
	}

	signature := e.hasher.Signature(pc) & SignatureMask
	line.Signature = signature
	line.Outcome = false

	if e.shct[signature] == 0 {
		line.RRPV = rrpvDistant
	} else {
		line.RRPV = rrpvLong
	}
}
