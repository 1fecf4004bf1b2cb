package tagging

import (
	"fmt"
	"io"

	"github.com/sarchlab/crcrepl/replacement"
	"github.com/sirupsen/logrus"
)

// Result describes what one access did to the cache.
type Result struct {
	Hit      bool
	Bypassed bool
	SetIndex int
	Way      int

	Evicted      bool
	EvictedTag   uint64
	EvictedDirty bool
}

// A ReplacementEngine picks victims and tracks per-line replacement state.
type ReplacementEngine interface {
	NumSets() int
	Associativity() int
	IncrementTimer()
	SelectVictim(a replacement.Access, set []replacement.LineInfo) int
	UpdateState(
		a replacement.Access,
		way int,
		line replacement.LineInfo,
		hit bool,
	)
}

// Cache drives a replacement engine with hit/miss decisions made against a
// tag array.
type Cache struct {
	tags   *TagArray
	engine ReplacementEngine
	logger *logrus.Logger
	stats  Stats
}

// NewCache connects a tag array and an engine of the same geometry.
func NewCache(
	tags *TagArray,
	engine ReplacementEngine,
	logger *logrus.Logger,
) *Cache {
	if tags.NumSets() != engine.NumSets() ||
		tags.NumWays() != engine.Associativity() {
		panic(fmt.Sprintf(
			"tag array is %dx%d but replacement engine is %dx%d",
			tags.NumSets(), tags.NumWays(),
			engine.NumSets(), engine.Associativity()))
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Cache{
		tags:   tags,
		engine: engine,
		logger: logger,
	}
}

// Engine returns the replacement engine of the cache.
func (c *Cache) Engine() ReplacementEngine {
	return c.engine
}

// Tags returns the tag array of the cache.
func (c *Cache) Tags() *TagArray {
	return c.tags
}

// Stats returns a copy of the access statistics.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Access looks addr up and, on a miss, installs it into an invalid way or
// into the way the engine selects. The engine is updated after every access
// that ends with the line in the cache.
func (c *Cache) Access(
	threadID int,
	pc, addr uint64,
	accessType replacement.AccessType,
) Result {
	c.engine.IncrementTimer()

	_, setID := c.tags.GetSet(addr)
	a := replacement.Access{
		ThreadID: threadID,
		SetIndex: setID,
		PC:       pc,
		Address:  addr,
		Type:     accessType,
	}

	writes := accessType == replacement.Store ||
		accessType == replacement.Writeback

	if way, hit := c.tags.Lookup(addr); hit {
		if writes {
			c.tags.MarkDirty(setID, way)
		}

		c.engine.UpdateState(a, way, c.tags.Line(setID, way), true)
		c.stats.record(accessType, true)

		return Result{Hit: true, SetIndex: setID, Way: way}
	}

	c.stats.record(accessType, false)

	way, ok := c.tags.InvalidWay(setID)
	if !ok {
		set, _ := c.tags.GetSet(addr)
		way = c.engine.SelectVictim(a, set.Lines)
	}

	if way == replacement.Bypass {
		c.stats.Bypasses++
		c.logger.WithFields(logrus.Fields{
			"set":  setID,
			"addr": fmt.Sprintf("%#x", addr),
		}).Debug("line bypassed")

		return Result{Bypassed: true, SetIndex: setID, Way: way}
	}

	replaced := c.tags.Install(setID, way, addr, writes)
	c.engine.UpdateState(a, way, c.tags.Line(setID, way), false)

	result := Result{SetIndex: setID, Way: way}
	if replaced.IsValid {
		result.Evicted = true
		result.EvictedTag = replaced.Tag
		result.EvictedDirty = replaced.IsDirty

		c.stats.Evictions++
		if replaced.IsDirty {
			c.stats.DirtyEvictions++
		}
	}

	return result
}

// Stats counts accesses by type and outcome.
type Stats struct {
	Accesses [replacement.NumAccessTypes]uint64
	Hits     [replacement.NumAccessTypes]uint64
	Misses   [replacement.NumAccessTypes]uint64

	Bypasses       uint64
	Evictions      uint64
	DirtyEvictions uint64
}

func (s *Stats) record(t replacement.AccessType, hit bool) {
	if t < 0 || int(t) >= replacement.NumAccessTypes {
		t = replacement.Load
	}

	s.Accesses[t]++
	if hit {
		s.Hits[t]++
	} else {
		s.Misses[t]++
	}
}

// TotalAccesses returns the number of accesses of all types.
func (s Stats) TotalAccesses() uint64 {
	return sum(s.Accesses[:])
}

// TotalHits returns the number of hits of all types.
func (s Stats) TotalHits() uint64 {
	return sum(s.Hits[:])
}

// TotalMisses returns the number of misses of all types.
func (s Stats) TotalMisses() uint64 {
	return sum(s.Misses[:])
}

// MissRate returns misses over accesses, or 0 with no accesses.
func (s Stats) MissRate() float64 {
	total := s.TotalAccesses()
	if total == 0 {
		return 0
	}

	return float64(s.TotalMisses()) / float64(total)
}

func sum(values []uint64) uint64 {
	var total uint64
	for _, v := range values {
		total += v
	}

	return total
}

// PrintStats writes the cache statistics, one access type per row.
func (c *Cache) PrintStats(w io.Writer) error {
	s := c.stats

	_, err := fmt.Fprintf(w, "%-10s %12s %12s %12s\n",
		"Type", "Accesses", "Hits", "Misses")
	if err != nil {
		return err
	}

	for i := 0; i < replacement.NumAccessTypes; i++ {
		_, err = fmt.Fprintf(w, "%-10s %12d %12d %12d\n",
			replacement.AccessType(i), s.Accesses[i], s.Hits[i], s.Misses[i])
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(w,
		"%-10s %12d %12d %12d\nMissRate   %.6f\nBypasses   %d\n"+
			"Evictions  %d\nDirtyEvictions %d\n",
		"Total", s.TotalAccesses(), s.TotalHits(), s.TotalMisses(),
		s.MissRate(), s.Bypasses, s.Evictions, s.DirtyEvictions)

	return err
}
