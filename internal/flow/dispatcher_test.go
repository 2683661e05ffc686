package flow_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/scout/internal/flow"
)

var _ = Describe("Dispatcher", func() {
	var c *calls

	BeforeEach(func() {
		c = &calls{}
	})

	Describe("NewDispatcher", func() {
		It("accepts a table covering exactly the closed set", func() {
			d, err := flow.NewDispatcher(allTypes, testHandlers(c))
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Types()).To(Equal(allTypes))
		})

		It("rejects a closed set member without a handler", func() {
			handlers := testHandlers(c)
			delete(handlers, typeTop)

			_, err := flow.NewDispatcher(allTypes, handlers)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(`no handler registered for stage type "top"`))
		})

		It("rejects a handler outside the closed set", func() {
			handlers := testHandlers(c)
			handlers["stray"] = handlers[typeEmit]

			_, err := flow.NewDispatcher(allTypes, handlers)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(`"stray" outside the closed set`))
		})
	})

	Describe("Dispatch", func() {
		It("routes a node to its handler", func() {
			d := mustDispatcher(c)
			out, err := d.Dispatch(context.Background(), emit(1, 2), flow.ChildResults{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{1, 2}))
		})

		It("fails fast on an unregistered tag", func() {
			d := mustDispatcher(c)
			_, err := d.Dispatch(context.Background(), flow.NewNode("mystery", nil), flow.ChildResults{})

			var unknown *flow.UnknownStageTypeError
			Expect(errors.As(err, &unknown)).To(BeTrue())
			Expect(unknown.Type).To(Equal(flow.StageType("mystery")))
		})

		It("reports a payload of the wrong type", func() {
			d := mustDispatcher(c)
			_, err := d.Dispatch(context.Background(), flow.NewNode(typeEmit, "not a payload"), flow.ChildResults{})

			var pte *flow.PayloadTypeError
			Expect(errors.As(err, &pte)).To(BeTrue())
			Expect(pte.Type).To(Equal(typeEmit))
		})

		It("concatenates flat children in declaration order", func() {
			d := mustDispatcher(c)
			children := flow.NewChildResults([]int{1, 2}, []int{}, []int{3})
			out, err := d.Dispatch(context.Background(), flow.NewNode(typeCollect, collectPayload{}), children)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{1, 2, 3}))
		})

		It("keys children by index", func() {
			d := mustDispatcher(c)
			children := flow.NewChildResults([]int{1, 2}, []int{3})
			out, err := d.Dispatch(context.Background(), flow.NewNode(typeByIndex, collectPayload{}), children)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(map[int]int{0: 2, 1: 1}))
		})
	})
})
