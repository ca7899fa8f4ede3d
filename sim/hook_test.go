package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewHookableBase()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should report no hooks when created", func() {
		Expect(domain.NumHooks()).To(Equal(0))
		Expect(domain.Hooks()).To(BeEmpty())
	})

	It("should invoke every accepted hook in order", func() {
		hook1 := NewMockHook(mockCtrl)
		hook2 := NewMockHook(mockCtrl)
		domain.AcceptHook(hook1)
		domain.AcceptHook(hook2)

		pos := &HookPos{Name: "Test"}
		ctx := HookCtx{Domain: domain, Pos: pos, Item: 42}

		gomock.InOrder(
			hook1.EXPECT().Func(ctx),
			hook2.EXPECT().Func(ctx),
		)

		domain.InvokeHook(ctx)

		Expect(domain.NumHooks()).To(Equal(2))
	})
})

var _ = Describe("IDGenerator", func() {
	It("should generate sequential IDs", func() {
		g := NewSequentialIDGenerator()

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
		Expect(g.Generate()).To(Equal("3"))
	})

	It("should generate unique xids", func() {
		g := NewXIDGenerator()

		Expect(g.Generate()).NotTo(Equal(g.Generate()))
	})
})

var _ = Describe("WallClock", func() {
	It("should never go backwards", func() {
		c := NewWallClock()

		t1 := c.CurrentTime()
		t2 := c.CurrentTime()

		Expect(t1).To(BeNumerically(">=", 0))
		Expect(t2).To(BeNumerically(">=", t1))
	})
})
