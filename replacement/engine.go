package replacement

import (
	"github.com/sarchlab/crcrepl/hooking"
	"github.com/sirupsen/logrus"
)

// HookPosVictimSelected is triggered after SelectVictim decides. The hook item
// is a Decision.
var HookPosVictimSelected = &hooking.HookPos{Name: "VictimSelected"}

// HookPosStateUpdated is triggered after UpdateState mutates a line. The hook
// item is an Update.
var HookPosStateUpdated = &hooking.HookPos{Name: "StateUpdated"}

// Decision describes one victim selection.
type Decision struct {
	Access Access
	Policy Policy
	Way    int
}

// Update describes one state update and the line state it left behind.
type Update struct {
	Access Access
	Policy Policy
	Way    int
	Hit    bool
	State  LineState
}

// Engine owns the replacement metadata of a set-associative cache and decides
// which way to evict on a miss.
//
// An Engine is not safe for concurrent use. Callers that share one across
// goroutines must serialize SelectVictim and UpdateState themselves, at least
// per set.
type Engine struct {
	hooking.HookableBase

	name    string
	numSets int
	assoc   int

	policy Policy
	active discipline

	lines []LineState
	shct  [shctSize]uint8
	psel  uint32
	plru  [][plruNodes]uint8

	rand   RandSource
	hasher SignatureHasher
	logger *logrus.Logger

	timer uint64
	stats Stats
}

// NewEngine creates an engine with the default random source and signature
// hasher.
func NewEngine(numSets, associativity int, policy Policy) *Engine {
	return MakeBuilder().
		WithNumSets(numSets).
		WithWayAssociativity(associativity).
		WithPolicy(policy).
		Build("ReplacementEngine")
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// NumSets returns the number of sets the engine tracks.
func (e *Engine) NumSets() int {
	return e.numSets
}

// Associativity returns the number of ways per set.
func (e *Engine) Associativity() int {
	return e.assoc
}

// Policy returns the active policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// SetPolicy switches the discipline used by subsequent calls. The per-line
// state is shared by all disciplines and is left as is. Switching to a policy
// without an algorithm is accepted here; the next entry point call panics.
func (e *Engine) SetPolicy(p Policy) {
	e.policy = p
	e.active = disciplineFor(p)

	e.logger.WithFields(logrus.Fields{
		"engine": e.name,
		"policy": p,
	}).Debug("replacement policy set")
}

// IncrementTimer counts one cache reference.
func (e *Engine) IncrementTimer() {
	e.timer++
}

// Timer returns the number of references counted by IncrementTimer.
func (e *Engine) Timer() uint64 {
	return e.timer
}

// SelectVictim returns the way to evict from the set named by a.SetIndex, or
// Bypass. The set view is passed through for extensions and may be nil.
func (e *Engine) SelectVictim(a Access, set []LineInfo) int {
	e.setMustBeInRange(a.SetIndex)
	d := e.mustHaveDiscipline("SelectVictim")

	way := d.victim(e, a, set)

	e.stats.VictimSelections++
	if way == Bypass {
		e.stats.Bypasses++
	}

	if e.logger.IsLevelEnabled(logrus.TraceLevel) {
		e.logger.WithFields(logrus.Fields{
			"set":    a.SetIndex,
			"way":    way,
			"policy": e.policy,
		}).Trace("victim selected")
	}

	if e.NumHooks() > 0 {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    HookPosVictimSelected,
			Item:   Decision{Access: a, Policy: e.policy, Way: way},
		})
	}

	return way
}

// UpdateState updates the metadata after an access to the given way, hit or
// miss. On a miss the way is the one the new line was installed in.
func (e *Engine) UpdateState(a Access, way int, line LineInfo, hit bool) {
	e.setMustBeInRange(a.SetIndex)
	e.wayMustBeInRange(way)
	d := e.mustHaveDiscipline("UpdateState")

	d.update(e, a, way, hit)

	if hit {
		e.stats.Hits++
	} else {
		e.stats.Misses++
	}

	if e.logger.IsLevelEnabled(logrus.TraceLevel) {
		e.logger.WithFields(logrus.Fields{
			"set":    a.SetIndex,
			"way":    way,
			"hit":    hit,
			"policy": e.policy,
		}).Trace("replacement state updated")
	}

	if e.NumHooks() > 0 {
		e.InvokeHook(hooking.HookCtx{
			Domain: e,
			Pos:    HookPosStateUpdated,
			Item: Update{
				Access: a,
				Policy: e.policy,
				Way:    way,
				Hit:    hit,
				State:  e.lineState(a.SetIndex, way),
			},
			Detail: line,
		})
	}
}

// Line returns a copy of the metadata of one slot.
func (e *Engine) Line(setIndex, way int) LineState {
	e.setMustBeInRange(setIndex)
	e.wayMustBeInRange(way)

	return e.lineState(setIndex, way)
}

// PSEL returns the set-dueling policy selection counter.
func (e *Engine) PSEL() uint32 {
	return e.psel
}

// SHCTCounter returns the signature history counter for a signature.
func (e *Engine) SHCTCounter(signature uint32) uint8 {
	return e.shct[signature&SignatureMask]
}

// PLRUBits returns a copy of the pseudo-LRU tree of a set.
func (e *Engine) PLRUBits(setIndex int) [plruNodes]uint8 {
	e.setMustBeInRange(setIndex)

	return e.plru[setIndex]
}

func (e *Engine) set(setIndex int) []LineState {
	base := setIndex * e.assoc
	return e.lines[base : base+e.assoc]
}

func (e *Engine) lineState(setIndex, way int) LineState {
	return e.lines[setIndex*e.assoc+way]
}

func (e *Engine) reset() {
	e.lines = make([]LineState, e.numSets*e.assoc)
	for s := 0; s < e.numSets; s++ {
		lines := e.set(s)
		for way := range lines {
			lines[way] = LineState{
				LRUStackPosition: way,
				RRPV:             rrpvDistant,
			}
		}
	}

	for i := range e.shct {
		e.shct[i] = 0
	}

	e.psel = pselInit

	e.plru = make([][plruNodes]uint8, e.numSets)
	for s := range e.plru {
		e.plru[s] = plruInitialBits
	}
}

func (e *Engine) mustHaveDiscipline(op string) discipline {
	if e.active != nil {
		return e.active
	}

	err := &UnsupportedPolicyError{Op: op, Policy: e.policy}
	e.logger.WithField("engine", e.name).Error(err.Error())
	panic(err)
}

func (e *Engine) setMustBeInRange(setIndex int) {
	if setIndex < 0 || setIndex >= e.numSets {
		panic(&IndexError{What: "set", Index: setIndex, Limit: e.numSets})
	}
}

func (e *Engine) wayMustBeInRange(way int) {
	if way < 0 || way >= e.assoc {
		panic(&IndexError{What: "way", Index: way, Limit: e.assoc})
	}
}
