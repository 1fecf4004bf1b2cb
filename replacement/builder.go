package replacement

import (
	"math/rand"

	"github.com/sirupsen/logrus"
)

// Builder can build replacement engines.
type Builder struct {
	numSets          int
	wayAssociativity int
	policy           Policy
	seed             int64
	randSource       RandSource
	hasher           SignatureHasher
	logger           *logrus.Logger
}

// MakeBuilder creates a builder with a 1024-set, 16-way LRU configuration.
func MakeBuilder() Builder {
	return Builder{
		numSets:          1024,
		wayAssociativity: 16,
		policy:           LRU,
		seed:             1,
		hasher:           MaskHasher{},
	}
}

// WithNumSets sets the number of sets.
func (b Builder) WithNumSets(numSets int) Builder {
	b.numSets = numSets
	return b
}

// WithWayAssociativity sets the number of ways per set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithPolicy sets the initial policy.
func (b Builder) WithPolicy(policy Policy) Builder {
	b.policy = policy
	return b
}

// WithSeed seeds the default random source. It is ignored when a random
// source is given with WithRandSource.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithRandSource sets the source used by Random victim selection and by the
// bimodal insertion draws.
func (b Builder) WithRandSource(r RandSource) Builder {
	b.randSource = r
	return b
}

// WithSignatureHasher sets how SHiP-PC turns a PC into a signature.
func (b Builder) WithSignatureHasher(h SignatureHasher) Builder {
	b.hasher = h
	return b
}

// WithLogger sets the logger of the engine.
func (b Builder) WithLogger(logger *logrus.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates the engine and allocates all of its state.
func (b Builder) Build(name string) *Engine {
	b.geometryMustBeValid()

	e := &Engine{
		name:    name,
		numSets: b.numSets,
		assoc:   b.wayAssociativity,
		rand:    b.randSource,
		hasher:  b.hasher,
		logger:  b.logger,
	}

	if e.rand == nil {
		e.rand = rand.New(rand.NewSource(b.seed))
	}

	if e.hasher == nil {
		e.hasher = MaskHasher{}
	}

	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}

	e.reset()
	e.SetPolicy(b.policy)

	if !b.policy.Implemented() {
		e.logger.WithFields(logrus.Fields{
			"engine": name,
			"policy": b.policy,
		}).Warn("engine built with a policy that has no algorithm")
	}

	return e
}

func (b Builder) geometryMustBeValid() {
	if b.numSets <= 0 {
		panic("number of sets must be positive")
	}

	if b.wayAssociativity <= 0 {
		panic("way associativity must be positive")
	}
}
