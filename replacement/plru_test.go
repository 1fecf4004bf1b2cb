package replacement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pseudo-LRU", func() {
	var e *Engine

	BeforeEach(func() {
		e = buildEngine(2, 16, PLRU)
	})

	It("should walk the initial tree to way 13", func() {
		Expect(e.SelectVictim(access(0), nil)).To(Equal(13))
	})

	It("should return the leaf way the walk ends on", func() {
		e.plru[0] = [plruNodes]uint8{}
		Expect(e.SelectVictim(access(0), nil)).To(Equal(0))

		for i := range e.plru[0] {
			e.plru[0][i] = 1
		}
		Expect(e.SelectVictim(access(0), nil)).To(Equal(15))
	})

	It("should point the path of a hit way away from it", func() {
		e.UpdateState(access(0), 13, LineInfo{}, true)

		bits := e.PLRUBits(0)
		Expect(bits[13]).To(Equal(uint8(0)))
		Expect(bits[6]).To(Equal(uint8(1)))
		Expect(bits[2]).To(Equal(uint8(0)))
		Expect(bits[0]).To(Equal(uint8(0)))
		Expect(e.SelectVictim(access(0), nil)).To(Equal(2))
	})

	It("should not update the tree on a miss", func() {
		e.UpdateState(access(0), 13, LineInfo{}, false)

		Expect(e.PLRUBits(0)).To(Equal(plruInitialBits))
		Expect(e.SelectVictim(access(0), nil)).To(Equal(13))
	})

	It("should keep sets independent", func() {
		e.UpdateState(access(1), 13, LineInfo{}, true)

		Expect(e.SelectVictim(access(0), nil)).To(Equal(13))
		Expect(e.SelectVictim(access(1), nil)).To(Equal(2))
	})

	It("should visit every other way before returning to a hit way", func() {
		for w := 0; w < 16; w++ {
			engine := buildEngine(1, 16, PLRU)
			engine.UpdateState(access(0), w, LineInfo{}, true)

			seen := map[int]bool{}
			for i := 0; i < 15; i++ {
				victim := engine.SelectVictim(access(0), nil)
				Expect(victim).NotTo(Equal(w))
				Expect(seen).NotTo(HaveKey(victim))
				seen[victim] = true

				engine.UpdateState(access(0), victim, LineInfo{}, true)
			}

			Expect(engine.SelectVictim(access(0), nil)).To(Equal(w))
		}
	})

	It("should only accept 16-way sets", func() {
		engine := buildEngine(1, 8, PLRU)

		Expect(func() { engine.SelectVictim(access(0), nil) }).To(Panic())
		Expect(func() {
			engine.UpdateState(access(0), 0, LineInfo{}, true)
		}).To(Panic())
	})
})
