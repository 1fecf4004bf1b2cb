package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/crcrepl/replacement"
)

var _ = Describe("DecisionCounter", func() {
	It("should count victims per way and update outcomes", func() {
		engine := newEngine(replacement.LRU)
		counter := NewDecisionCounter()
		engine.AcceptHook(counter)

		a := replacement.Access{SetIndex: 2}
		for i := 0; i < 4; i++ {
			way := engine.SelectVictim(a, nil)
			engine.UpdateState(a, way, replacement.LineInfo{}, false)
		}
		engine.UpdateState(a, 1, replacement.LineInfo{}, true)

		Expect(counter.VictimWays()).To(Equal([]int{0, 1, 2, 3}))
		Expect(counter.VictimCount(3)).To(Equal(uint64(1)))
		Expect(counter.Bypasses()).To(BeZero())

		hits, misses := counter.Outcomes()
		Expect(hits).To(Equal(uint64(1)))
		Expect(misses).To(Equal(uint64(4)))
	})
})
