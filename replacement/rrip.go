package replacement

// rripVictim returns the leftmost way with a distant RRPV, aging the whole set
// until one exists. Every RRPV is at most rrpvDistant, so each aging round
// brings the maximum one step closer and the loop ends within three rounds.
func (e *Engine) rripVictim(setIndex int) int {
	lines := e.set(setIndex)

	for {
		for way := range lines {
			if lines[way].RRPV == rrpvDistant {
				return way
			}
		}

		for way := range lines {
			lines[way].RRPV++
		}

		e.stats.AgingRounds++
	}
}

func (e *Engine) updateSRRIP(setIndex, way int, hit bool) {
	line := &e.set(setIndex)[way]

	if hit {
		line.RRPV = rrpvNear
		return
	}

	line.RRPV = rrpvLong
}

func (e *Engine) updateBRRIP(setIndex, way int, hit bool) {
	line := &e.set(setIndex)[way]

	switch {
	case hit:
		line.RRPV = rrpvNear
	case e.bimodalNear():
		line.RRPV = rrpvLong
	default:
		line.RRPV = rrpvDistant
	}
}

// duelingRole tells which of the competing policies a set is dedicated to.
type duelingRole int

const (
	follower duelingRole = iota
	srripLeader
	brripLeader
)

func (r duelingRole) String() string {
	switch r {
	case srripLeader:
		return "srrip-leader"
	case brripLeader:
		return "brrip-leader"
	default:
		return "follower"
	}
}

// roleOfSet splits the set index into bits [9:5] and [4:0]. Sets where the
// two halves are equal lead for SRRIP; sets where the low half equals the
// complement of the high half lead for BRRIP.
func roleOfSet(setIndex int) duelingRole {
	high := (setIndex >> 5) & 0x1f
	low := setIndex & 0x1f

	switch {
	case high == low:
		return srripLeader
	case ^high&0x1f == low:
		return brripLeader
	default:
		return follower
	}
}

// FollowersUseBRRIP reports whether DRRIP follower sets insert like BRRIP,
// which is the most significant bit of PSEL.
func (e *Engine) FollowersUseBRRIP() bool {
	return e.psel > pselMid
}

func (e *Engine) updateDRRIP(setIndex, way int, hit bool) {
	switch roleOfSet(setIndex) {
	case srripLeader:
		e.updateSRRIP(setIndex, way, hit)

		if !hit && e.psel < pselMax {
			e.psel++
			e.stats.PSELIncrements++
		}
	case brripLeader:
		e.updateBRRIP(setIndex, way, hit)

		if !hit && e.psel > 0 {
			e.psel--
			e.stats.PSELDecrements++
		}
	default:
		if e.FollowersUseBRRIP() {
			e.updateBRRIP(setIndex, way, hit)
		} else {
			e.updateSRRIP(setIndex, way, hit)
		}
	}
}
