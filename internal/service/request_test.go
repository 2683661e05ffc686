package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/queue"
	"basegraph.app/scout/internal/service"
	"basegraph.app/scout/internal/store/storetest"
)

var _ = Describe("RequestService", func() {
	var (
		ctx      context.Context
		mem      *storetest.Memory
		producer *mockProducer
		svc      service.RequestService
	)

	BeforeEach(func() {
		ctx = context.Background()
		mem = storetest.NewMemory()
		producer = &mockProducer{}
		svc = service.NewRequestService(mem.Requests(), mem.Items(), producer)
	})

	Describe("Create", func() {
		It("stores a pending request and enqueues its run", func() {
			trace := "abc123"
			req, err := svc.Create(ctx, service.CreateRequestParams{Topic: "  go books ", TraceID: &trace})
			Expect(err).NotTo(HaveOccurred())

			Expect(req.ID).NotTo(BeZero())
			Expect(req.Topic).To(Equal("go books"))
			Expect(req.Status).To(Equal(model.RequestStatusPending))
			Expect(mem.Status(req.ID)).To(Equal(model.RequestStatusPending))

			Expect(producer.tasks).To(HaveLen(1))
			Expect(producer.tasks[0].TaskType).To(Equal(queue.TaskTypeEnrichRequest))
			Expect(producer.tasks[0].RequestID).To(Equal(req.ID))
			Expect(*producer.tasks[0].TraceID).To(Equal("abc123"))
		})

		It("rejects a blank topic", func() {
			_, err := svc.Create(ctx, service.CreateRequestParams{Topic: "   "})
			Expect(err).To(MatchError(service.ErrEmptyTopic))
			Expect(producer.tasks).To(BeEmpty())
		})

		It("fails the request when it cannot be enqueued", func() {
			producer.enqueueFn = func(context.Context, queue.Task) error { return errors.New("redis down") }

			_, err := svc.Create(ctx, service.CreateRequestParams{Topic: "go"})
			Expect(err).To(MatchError(ContainSubstring("redis down")))

			id := producer.tasks[0].RequestID
			Expect(mem.Status(id)).To(Equal(model.RequestStatusFailed))
		})
	})

	Describe("Get", func() {
		It("returns not found for an unknown id", func() {
			_, err := svc.Get(ctx, 99)
			Expect(err).To(MatchError(service.ErrRequestNotFound))
		})

		It("omits items until the request is done", func() {
			mem.Seed(model.Request{ID: 5, Topic: "t", Status: model.RequestStatusInProgress})

			detail, err := svc.Get(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Request.Status).To(Equal(model.RequestStatusInProgress))
			Expect(detail.Items).To(BeNil())
		})

		It("returns the stored items of a done request", func() {
			mem.Seed(model.Request{ID: 5, Topic: "t", Status: model.RequestStatusDone})
			_, err := mem.Items().InsertBatch(ctx, []model.Item{
				{ID: 2, RequestID: 5, Position: 1, Title: "b"},
				{ID: 1, RequestID: 5, Position: 0, Title: "a"},
			})
			Expect(err).NotTo(HaveOccurred())

			detail, err := svc.Get(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(detail.Items).To(HaveLen(2))
			Expect(detail.Items[0].Title).To(Equal("a"))
		})
	})
})
