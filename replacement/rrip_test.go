package replacement

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

func rrpvs(e *Engine, setIndex int) []uint8 {
	values := make([]uint8, e.Associativity())
	for w := range values {
		values[w] = e.Line(setIndex, w).RRPV
	}

	return values
}

var _ = Describe("SRRIP", func() {
	var e *Engine

	BeforeEach(func() {
		e = buildEngine(1, 4, SRRIP)
	})

	It("should pick the leftmost distant way without aging", func() {
		Expect(e.SelectVictim(access(0), nil)).To(Equal(0))
		Expect(e.Stats().AgingRounds).To(BeZero())
	})

	It("should age exactly once after four insertions", func() {
		for w := 0; w < 4; w++ {
			e.UpdateState(access(0), w, LineInfo{}, false)
		}
		Expect(rrpvs(e, 0)).To(Equal([]uint8{2, 2, 2, 2}))

		Expect(e.SelectVictim(access(0), nil)).To(Equal(0))
		Expect(e.Stats().AgingRounds).To(Equal(uint64(1)))
		Expect(rrpvs(e, 0)).To(Equal([]uint8{3, 3, 3, 3}))
	})

	It("should promote hits to near re-reference", func() {
		e.UpdateState(access(0), 0, LineInfo{}, true)

		Expect(e.Line(0, 0).RRPV).To(Equal(uint8(0)))
		Expect(e.SelectVictim(access(0), nil)).To(Equal(1))
	})

	It("should age until a way becomes distant", func() {
		for w := 0; w < 4; w++ {
			e.UpdateState(access(0), w, LineInfo{}, true)
		}

		Expect(e.SelectVictim(access(0), nil)).To(Equal(0))
		Expect(e.Stats().AgingRounds).To(Equal(uint64(3)))
	})

	It("should return the first way that reaches distant", func() {
		e.UpdateState(access(0), 0, LineInfo{}, true)
		for w := 1; w < 4; w++ {
			e.UpdateState(access(0), w, LineInfo{}, false)
		}

		Expect(e.SelectVictim(access(0), nil)).To(Equal(1))
		Expect(rrpvs(e, 0)).To(Equal([]uint8{1, 3, 3, 3}))
	})

	It("should keep RRPVs within range under random traffic", func() {
		engine := buildEngine(2, 8, SRRIP)
		r := rand.New(rand.NewSource(3))

		for i := 0; i < 2000; i++ {
			set := r.Intn(2)
			way := r.Intn(8)
			hit := r.Intn(3) == 0
			if !hit {
				way = engine.SelectVictim(access(set), nil)
				Expect(engine.Line(set, way).RRPV).To(Equal(uint8(3)))
			}

			engine.UpdateState(access(set), way, LineInfo{}, hit)

			for _, v := range rrpvs(engine, set) {
				Expect(v).To(BeNumerically("<=", 3))
			}
		}
	})
})

var _ = Describe("BRRIP", func() {
	var (
		mockCtrl   *gomock.Controller
		randSource *MockRandSource
		e          *Engine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		randSource = NewMockRandSource(mockCtrl)
		e = MakeBuilder().
			WithNumSets(1).
			WithWayAssociativity(4).
			WithPolicy(BRRIP).
			WithRandSource(randSource).
			WithLogger(quietLogger()).
			Build("Engine")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should insert at distant most of the time", func() {
		randSource.EXPECT().Intn(32).Return(17)

		e.UpdateState(access(0), 1, LineInfo{}, false)

		Expect(e.Line(0, 1).RRPV).To(Equal(uint8(3)))
	})

	It("should insert at long once in 32 times", func() {
		randSource.EXPECT().Intn(32).Return(0)

		e.UpdateState(access(0), 1, LineInfo{}, false)

		Expect(e.Line(0, 1).RRPV).To(Equal(uint8(2)))
	})

	It("should promote hits without drawing", func() {
		e.UpdateState(access(0), 2, LineInfo{}, true)

		Expect(e.Line(0, 2).RRPV).To(Equal(uint8(0)))
	})

	It("should select victims like SRRIP", func() {
		e.UpdateState(access(0), 0, LineInfo{}, true)

		Expect(e.SelectVictim(access(0), nil)).To(Equal(1))
	})
})

var _ = Describe("DRRIP", func() {
	var (
		mockCtrl   *gomock.Controller
		randSource *MockRandSource
		e          *Engine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		randSource = NewMockRandSource(mockCtrl)
		e = MakeBuilder().
			WithNumSets(1024).
			WithWayAssociativity(4).
			WithPolicy(DRRIP).
			WithRandSource(randSource).
			WithLogger(quietLogger()).
			Build("Engine")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should classify sets by their index bits", func() {
		Expect(roleOfSet(0)).To(Equal(srripLeader))
		Expect(roleOfSet(33)).To(Equal(srripLeader))
		Expect(roleOfSet(1023)).To(Equal(srripLeader))
		Expect(roleOfSet(31)).To(Equal(brripLeader))
		Expect(roleOfSet(62)).To(Equal(brripLeader))
		Expect(roleOfSet(992)).To(Equal(brripLeader))
		Expect(roleOfSet(1)).To(Equal(follower))
		Expect(roleOfSet(32)).To(Equal(follower))
	})

	It("should have 32 leaders of each kind in 1024 sets", func() {
		counts := map[duelingRole]int{}
		for s := 0; s < 1024; s++ {
			counts[roleOfSet(s)]++
		}

		Expect(counts[srripLeader]).To(Equal(32))
		Expect(counts[brripLeader]).To(Equal(32))
		Expect(counts[follower]).To(Equal(960))
	})

	It("should count SRRIP leader misses up", func() {
		e.UpdateState(access(0), 0, LineInfo{}, false)

		Expect(e.PSEL()).To(Equal(uint32(512)))
		Expect(e.Line(0, 0).RRPV).To(Equal(uint8(2)))
	})

	It("should not count hits", func() {
		e.UpdateState(access(0), 0, LineInfo{}, true)
		e.UpdateState(access(31), 0, LineInfo{}, true)

		Expect(e.PSEL()).To(Equal(uint32(511)))
	})

	It("should count BRRIP leader misses down", func() {
		randSource.EXPECT().Intn(32).Return(4)

		e.UpdateState(access(31), 0, LineInfo{}, false)

		Expect(e.PSEL()).To(Equal(uint32(510)))
		Expect(e.Line(31, 0).RRPV).To(Equal(uint8(3)))
	})

	It("should let followers run SRRIP while PSEL's MSB is clear", func() {
		e.UpdateState(access(1), 0, LineInfo{}, false)

		Expect(e.Line(1, 0).RRPV).To(Equal(uint8(2)))
		Expect(e.PSEL()).To(Equal(uint32(511)))
	})

	It("should let followers run BRRIP once PSEL's MSB is set", func() {
		e.UpdateState(access(0), 0, LineInfo{}, false)
		randSource.EXPECT().Intn(32).Return(4)

		e.UpdateState(access(1), 0, LineInfo{}, false)

		Expect(e.Line(1, 0).RRPV).To(Equal(uint8(3)))
	})

	It("should saturate PSEL at the top and keep SRRIP leaders on SRRIP", func() {
		for i := 0; i < 600; i++ {
			e.UpdateState(access(0), i%4, LineInfo{}, false)
		}
		Expect(e.PSEL()).To(Equal(uint32(1023)))

		e.UpdateState(access(33), 2, LineInfo{}, false)

		Expect(e.PSEL()).To(Equal(uint32(1023)))
		Expect(e.Line(33, 2).RRPV).To(Equal(uint8(2)))
	})

	It("should saturate PSEL at zero", func() {
		randSource.EXPECT().Intn(32).Return(1).AnyTimes()

		for i := 0; i < 600; i++ {
			e.UpdateState(access(62), i%4, LineInfo{}, false)
		}

		Expect(e.PSEL()).To(Equal(uint32(0)))
		Expect(e.Stats().PSELDecrements).To(Equal(uint64(511)))
	})

	It("should select victims with the shared RRIP routine", func() {
		e.UpdateState(access(5), 0, LineInfo{}, true)

		Expect(e.SelectVictim(access(5), nil)).To(Equal(1))
	})
})
