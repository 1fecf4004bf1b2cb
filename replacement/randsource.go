package replacement

// RandSource provides the randomness used by Random victim selection and the
// bimodal insertion policies. *math/rand.Rand satisfies it.
type RandSource interface {
	// Intn returns a number in [0, n).
	Intn(n int) int
}

func (e *Engine) bimodalNear() bool {
	return e.rand.Intn(bimodalThrottle) == 0
}

func (e *Engine) randomVictim() int {
	return e.rand.Intn(e.assoc)
}
