package tracing

import (
	"sort"
	"sync"

	"github.com/sarchlab/crcrepl/hooking"
	"github.com/sarchlab/crcrepl/replacement"
)

// DecisionCounter counts victim choices per way and update outcomes.
type DecisionCounter struct {
	lock sync.Mutex

	victims  map[int]uint64
	bypasses uint64
	hits     uint64
	misses   uint64
}

// NewDecisionCounter creates a new DecisionCounter.
func NewDecisionCounter() *DecisionCounter {
	return &DecisionCounter{
		victims: make(map[int]uint64),
	}
}

// Func counts the decision or update carried by the hook context.
func (c *DecisionCounter) Func(ctx hooking.HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	switch ctx.Pos {
	case replacement.HookPosVictimSelected:
		d := ctx.Item.(replacement.Decision)
		if d.Way == replacement.Bypass {
			c.bypasses++
			return
		}

		c.victims[d.Way]++
	case replacement.HookPosStateUpdated:
		u := ctx.Item.(replacement.Update)
		if u.Hit {
			c.hits++
		} else {
			c.misses++
		}
	}
}

// VictimCount returns how many times a way was chosen as the victim.
func (c *DecisionCounter) VictimCount(way int) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.victims[way]
}

// VictimWays returns the ways that were chosen at least once, in order.
func (c *DecisionCounter) VictimWays() []int {
	c.lock.Lock()
	defer c.lock.Unlock()

	ways := make([]int, 0, len(c.victims))
	for w := range c.victims {
		ways = append(ways, w)
	}

	sort.Ints(ways)

	return ways
}

// Bypasses returns the number of bypass decisions.
func (c *DecisionCounter) Bypasses() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.bypasses
}

// Outcomes returns the number of hit and miss updates seen.
func (c *DecisionCounter) Outcomes() (hits, misses uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.hits, c.misses
}
