package replacement

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/crcrepl/hooking"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Engine", func() {
	var (
		mockCtrl *gomock.Controller
		e        *Engine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		e = buildEngine(8, 4, LRU)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should initialize every line", func() {
		for s := 0; s < e.NumSets(); s++ {
			for w := 0; w < e.Associativity(); w++ {
				Expect(e.Line(s, w)).To(Equal(LineState{
					LRUStackPosition: w,
					RRPV:             3,
				}))
			}
		}

		Expect(e.PSEL()).To(Equal(uint32(511)))
		Expect(e.SHCTCounter(0)).To(Equal(uint8(0)))
		Expect(e.PLRUBits(0)).To(Equal(plruInitialBits))
	})

	It("should refuse an empty geometry", func() {
		Expect(func() { NewEngine(0, 4, LRU) }).To(Panic())
		Expect(func() { NewEngine(4, 0, LRU) }).To(Panic())
	})

	It("should build with the fixed constructor", func() {
		engine := NewEngine(2, 4, SRRIP)

		Expect(engine.NumSets()).To(Equal(2))
		Expect(engine.Associativity()).To(Equal(4))
		Expect(engine.Policy()).To(Equal(SRRIP))
	})

	It("should panic when the policy has no algorithm", func() {
		e.SetPolicy(DIP)

		Expect(func() { e.SelectVictim(access(0), nil) }).To(
			PanicWith(BeAssignableToTypeOf(&UnsupportedPolicyError{})))
		Expect(func() { e.UpdateState(access(0), 0, LineInfo{}, false) }).To(
			PanicWith(BeAssignableToTypeOf(&UnsupportedPolicyError{})))
	})

	It("should panic when built with an unknown policy code", func() {
		engine := buildEngine(1, 4, Policy(99))

		Expect(func() { engine.SelectVictim(access(0), nil) }).To(Panic())
	})

	It("should bounds-check set and way indices", func() {
		Expect(func() { e.SelectVictim(access(8), nil) }).To(
			PanicWith(BeAssignableToTypeOf(&IndexError{})))
		Expect(func() { e.UpdateState(access(0), 4, LineInfo{}, true) }).To(
			PanicWith(BeAssignableToTypeOf(&IndexError{})))
		Expect(func() { e.UpdateState(access(-1), 0, LineInfo{}, true) }).To(
			PanicWith(BeAssignableToTypeOf(&IndexError{})))
	})

	It("should switch policy for subsequent calls only", func() {
		for w := 0; w < 4; w++ {
			e.UpdateState(access(0), w, LineInfo{}, false)
		}
		Expect(e.SelectVictim(access(0), nil)).To(Equal(0))

		e.SetPolicy(SRRIP)
		e.UpdateState(access(0), 0, LineInfo{}, true)

		Expect(e.Line(0, 0).RRPV).To(Equal(uint8(0)))
		Expect(e.SelectVictim(access(0), nil)).To(Equal(1))
		Expect(e.Line(0, 0).LRUStackPosition).To(Equal(3))
	})

	It("should count references and outcomes", func() {
		e.IncrementTimer()
		e.IncrementTimer()
		e.UpdateState(access(1), 2, LineInfo{}, true)
		e.UpdateState(access(1), 3, LineInfo{}, false)
		e.SelectVictim(access(1), nil)

		Expect(e.Timer()).To(Equal(uint64(2)))
		Expect(e.Stats().Hits).To(Equal(uint64(1)))
		Expect(e.Stats().Misses).To(Equal(uint64(1)))
		Expect(e.Stats().VictimSelections).To(Equal(uint64(1)))
		Expect(e.Stats().Bypasses).To(BeZero())
	})

	It("should invoke hooks with the decision and the update", func() {
		hook := NewMockHook(mockCtrl)
		e.AcceptHook(hook)

		var positions []*hooking.HookPos
		var decision Decision
		var update Update

		hook.EXPECT().Func(gomock.Any()).Do(func(ctx hooking.HookCtx) {
			positions = append(positions, ctx.Pos)
			switch item := ctx.Item.(type) {
			case Decision:
				decision = item
			case Update:
				update = item
			}
		}).Times(2)

		a := Access{SetIndex: 3, PC: 0x400, Address: 0x1000, Type: Store}
		way := e.SelectVictim(a, nil)
		e.UpdateState(a, way, LineInfo{Tag: 0x40, IsValid: true}, false)

		Expect(positions).To(Equal(
			[]*hooking.HookPos{HookPosVictimSelected, HookPosStateUpdated}))
		Expect(decision).To(Equal(Decision{Access: a, Policy: LRU, Way: 3}))
		Expect(update.Way).To(Equal(3))
		Expect(update.Hit).To(BeFalse())
		Expect(update.State.LRUStackPosition).To(Equal(0))
	})

	It("should print statistics", func() {
		e.SetPolicy(SRRIP)
		e.SelectVictim(access(0), nil)

		buf := new(bytes.Buffer)
		Expect(e.PrintStats(buf)).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("Replacement Policy Statistics"))
		Expect(buf.String()).To(MatchRegexp(`Policy\s+srrip`))
		Expect(buf.String()).To(MatchRegexp(`VictimSelections\s+1`))
	})
})
