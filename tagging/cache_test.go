package tagging

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/crcrepl/replacement"
)

type bypassingEngine struct {
	ReplacementEngine
	updates int
}

func (e *bypassingEngine) SelectVictim(
	_ replacement.Access,
	_ []replacement.LineInfo,
) int {
	return replacement.Bypass
}

func (e *bypassingEngine) UpdateState(
	a replacement.Access,
	way int,
	line replacement.LineInfo,
	hit bool,
) {
	e.updates++
	e.ReplacementEngine.UpdateState(a, way, line, hit)
}

var _ = Describe("Cache", func() {
	var (
		tags   *TagArray
		engine *replacement.Engine
		cache  *Cache
	)

	build := func(policy replacement.Policy) {
		tags = NewTagArray(2, 2, 64)
		engine = replacement.MakeBuilder().
			WithNumSets(2).
			WithWayAssociativity(2).
			WithPolicy(policy).
			WithLogger(quietLogger()).
			Build("Cache")
		cache = NewCache(tags, engine, quietLogger())
	}

	BeforeEach(func() {
		build(replacement.LRU)
	})

	It("should refuse engines of a different geometry", func() {
		other := replacement.MakeBuilder().
			WithNumSets(4).
			WithWayAssociativity(2).
			WithLogger(quietLogger()).
			Build("Other")

		Expect(func() { NewCache(tags, other, nil) }).To(Panic())
	})

	It("should fill invalid ways before asking for a victim", func() {
		r1 := cache.Access(0, 0x400, 0x000, replacement.Load)
		r2 := cache.Access(0, 0x400, 0x080, replacement.Load)

		Expect(r1.Hit).To(BeFalse())
		Expect(r1.Way).To(Equal(0))
		Expect(r2.Way).To(Equal(1))
		Expect(engine.Stats().VictimSelections).To(Equal(uint64(0)))
	})

	It("should hit on a cached block", func() {
		cache.Access(0, 0x400, 0x000, replacement.Load)
		r := cache.Access(0, 0x400, 0x020, replacement.Load)

		Expect(r.Hit).To(BeTrue())
		Expect(r.Way).To(Equal(0))
		Expect(cache.Stats().Hits[replacement.Load]).To(Equal(uint64(1)))
		Expect(engine.Timer()).To(Equal(uint64(2)))
	})

	It("should evict the least recently used block", func() {
		cache.Access(0, 0x400, 0x000, replacement.Load)
		cache.Access(0, 0x400, 0x080, replacement.Store)
		cache.Access(0, 0x400, 0x000, replacement.Load)

		r := cache.Access(0, 0x400, 0x100, replacement.Load)

		Expect(r.Way).To(Equal(1))
		Expect(r.Evicted).To(BeTrue())
		Expect(r.EvictedTag).To(Equal(uint64(2)))
		Expect(r.EvictedDirty).To(BeTrue())
		Expect(cache.Stats().DirtyEvictions).To(Equal(uint64(1)))
	})

	It("should mark lines dirty on store hits", func() {
		cache.Access(0, 0x400, 0x000, replacement.Load)
		cache.Access(0, 0x400, 0x000, replacement.Store)

		Expect(tags.Line(0, 0).IsDirty).To(BeTrue())
	})

	It("should leave the set untouched on bypass", func() {
		bypassing := &bypassingEngine{ReplacementEngine: engine}
		cache = NewCache(tags, bypassing, quietLogger())

		cache.Access(0, 0x400, 0x000, replacement.Load)
		cache.Access(0, 0x400, 0x080, replacement.Load)
		before := make([]replacement.LineInfo, 2)
		copy(before, tags.sets[0].Lines)

		r := cache.Access(0, 0x400, 0x100, replacement.Load)

		Expect(r.Bypassed).To(BeTrue())
		Expect(r.Way).To(Equal(replacement.Bypass))
		Expect(tags.sets[0].Lines).To(Equal(before))
		Expect(bypassing.updates).To(Equal(2))
		Expect(cache.Stats().Bypasses).To(Equal(uint64(1)))
		Expect(cache.Stats().Misses[replacement.Load]).To(Equal(uint64(3)))
	})

	It("should count accesses by type", func() {
		cache.Access(0, 0x400, 0x000, replacement.IFetch)
		cache.Access(0, 0x400, 0x000, replacement.Prefetch)
		cache.Access(0, 0x400, 0x040, replacement.Writeback)

		s := cache.Stats()
		Expect(s.Accesses[replacement.IFetch]).To(Equal(uint64(1)))
		Expect(s.Hits[replacement.Prefetch]).To(Equal(uint64(1)))
		Expect(s.Misses[replacement.Writeback]).To(Equal(uint64(1)))
		Expect(s.TotalAccesses()).To(Equal(uint64(3)))
		Expect(s.MissRate()).To(BeNumerically("~", 2.0/3.0, 1e-9))
	})

	It("should print a row per access type", func() {
		cache.Access(0, 0x400, 0x000, replacement.Load)

		buf := new(bytes.Buffer)
		Expect(cache.PrintStats(buf)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("load"))
		Expect(buf.String()).To(ContainSubstring("MissRate"))
	})
})
