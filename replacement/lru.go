package replacement

// lruVictim returns the way at the bottom of the recency stack.
func (e *Engine) lruVictim(setIndex int) int {
	lines := e.set(setIndex)
	bottom := e.assoc - 1

	for way := range lines {
		if lines[way].LRUStackPosition == bottom {
			return way
		}
	}

	return 0
}

// promoteLRU moves the way to the top of the stack. Ways that were above it
// sink by one.
func (e *Engine) promoteLRU(setIndex, way int) {
	lines := e.set(setIndex)
	old := lines[way].LRUStackPosition

	for w := range lines {
		if lines[w].LRUStackPosition < old {
			lines[w].LRUStackPosition++
		}
	}

	lines[way].LRUStackPosition = 0
}

// demoteLRU moves the way to the bottom of the stack. Ways that were below it
// rise by one.
func (e *Engine) demoteLRU(setIndex, way int) {
	lines := e.set(setIndex)
	old := lines[way].LRUStackPosition

	for w := range lines {
		if lines[w].LRUStackPosition > old {
			lines[w].LRUStackPosition--
		}
	}

	lines[way].LRUStackPosition = e.assoc - 1
}

// updateBIP promotes on hits. Misses are inserted at the MRU position once in
// bimodalThrottle times and at the LRU position otherwise.
func (e *Engine) updateBIP(setIndex, way int, hit bool) {
	if hit || e.bimodalNear() {
		e.promoteLRU(setIndex, way)
		return
	}

	e.demoteLRU(setIndex, way)
}
