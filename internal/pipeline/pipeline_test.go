package pipeline_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/scout/internal/flow"
	"basegraph.app/scout/internal/lock"
	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/pipeline"
	"basegraph.app/scout/internal/stage"
	"basegraph.app/scout/internal/store/storetest"
	"basegraph.app/scout/internal/tracker"
)

const reqID int64 = 42

var _ = Describe("Pipeline", func() {
	var (
		ctx     context.Context
		mem     *storetest.Memory
		trk     *tracker.Tracker
		src     *fakeSource
		browser *fakeBrowser
		scorer  *fakeScorer
		sink    *fakeSink
		sched   *flow.Scheduler
	)

	newPipeline := func(opts ...pipeline.Option) *pipeline.Pipeline {
		d, err := stage.NewDispatcher(stage.Deps{
			Source:    src,
			Browser:   browser,
			Scorer:    scorer,
			Tracker:   trk,
			Sink:      sink,
			Pages:     2,
			Precision: 2,
			NewID:     counter(),
		})
		Expect(err).NotTo(HaveOccurred())
		sched = flow.NewScheduler(d, flow.Config{MaxConcurrency: 4}, flow.WithIDGenerator(counter()))
		return pipeline.New(sched, trk, 6, opts...)
	}

	BeforeEach(func() {
		ctx = context.Background()
		mem = storetest.NewMemory()
		mem.Seed(model.Request{ID: reqID, Topic: "go books"})
		trk = tracker.New(mem.Requests(), mem)
		src = &fakeSource{pages: map[int][]model.Candidate{1: hits(1, 7), 2: hits(2, 6)}}
		browser = &fakeBrowser{}
		scorer = &fakeScorer{}
		sink = &fakeSink{}
	})

	It("enriches 13 candidates in batches of 6, 6 and 1", func() {
		p := newPipeline()

		Expect(p.Process(ctx, reqID)).To(Succeed())

		Expect(browser.opened.Load()).To(Equal(int32(3)))
		Expect(browser.closed.Load()).To(Equal(int32(3)))

		Expect(scorer.calls).To(Equal(1))
		Expect(scorer.seen).To(HaveLen(13))
		for i, it := range scorer.seen {
			Expect(it.Position).To(Equal(i))
			Expect(*it.Description).To(Equal("desc " + it.URL))
		}
		Expect(scorer.seen[0].Title).To(Equal("p1-00"))
		Expect(scorer.seen[7].Title).To(Equal("p2-00"))

		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusDone))
		stored, err := mem.Items().ListByRequest(ctx, reqID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(HaveLen(13))
		Expect(*stored[0].RelevanceScore).To(Equal(0.46))
		Expect(*stored[0].ValueScore).To(Equal(7.89))

		Expect(sink.count()).To(Equal(1))
		Expect(sink.deliveries[0].Records).To(HaveLen(13))
		Expect(sched.InFlight()).To(BeZero())
	})

	It("marks a request with no candidates done without building a tree", func() {
		src.pages = nil
		p := newPipeline()

		Expect(p.Process(ctx, reqID)).To(Succeed())

		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusDone))
		Expect(browser.opened.Load()).To(BeZero())
		Expect(scorer.calls).To(BeZero())
		Expect(sink.count()).To(BeZero())
	})

	It("fails the request when page 2 of 2 fails", func() {
		src.fail = map[int]error{2: errors.New("search returned 500")}
		p := newPipeline()

		err := p.Process(ctx, reqID)
		Expect(err).To(MatchError(pipeline.ErrRunFailed))

		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusFailed))
		n, err := mem.Items().CountByRequest(ctx, reqID)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
		Expect(sink.count()).To(BeZero())
	})

	It("fails the whole request when the scorer omits an item", func() {
		scorer.omit = map[int]bool{4: true}
		p := newPipeline()

		err := p.Process(ctx, reqID)
		var unmatched *stage.UnmatchedResultError
		Expect(errors.As(err, &unmatched)).To(BeTrue())

		var nodeErr *flow.NodeFailedError
		Expect(errors.As(err, &nodeErr)).To(BeTrue())
		Expect(nodeErr.Type).To(Equal(stage.TypeAggregateScore))

		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusFailed))
		n, _ := mem.Items().CountByRequest(ctx, reqID)
		Expect(n).To(BeZero())
		Expect(sink.count()).To(BeZero())
	})

	It("rolls back items when the request cannot be completed", func() {
		mem.InsertErr = errors.New("disk full")
		p := newPipeline()

		Expect(p.Process(ctx, reqID)).To(MatchError(pipeline.ErrRunFailed))
		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusFailed))
		Expect(sink.count()).To(BeZero())
	})

	It("does nothing for a finished request", func() {
		mem.Seed(model.Request{ID: reqID, Topic: "t", Status: model.RequestStatusDone})
		p := newPipeline()

		Expect(p.Process(ctx, reqID)).To(Succeed())
		Expect(src.calls.Load()).To(BeZero())
	})

	It("holds the run lock for the duration of the run", func() {
		locker := &fakeLocker{}
		p := newPipeline(pipeline.WithRunLocker(locker))

		Expect(p.Process(ctx, reqID)).To(Succeed())
		Expect(locker.locked).To(Equal([]string{pipeline.RunKey(reqID)}))
		Expect(locker.released.Load()).To(Equal(int32(1)))
	})

	It("backs off when another worker holds the lock", func() {
		p := newPipeline(pipeline.WithRunLocker(&fakeLocker{err: lock.ErrHeld}))

		Expect(p.Process(ctx, reqID)).To(MatchError(pipeline.ErrAlreadyInFlight))
		Expect(src.calls.Load()).To(BeZero())
		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusPending))
	})
})

var _ = Describe("Builder", func() {
	var (
		ctx     context.Context
		mem     *storetest.Memory
		trk     *tracker.Tracker
		browser *fakeBrowser
		sched   *flow.Scheduler
		builder *pipeline.Builder
		req     *model.Request
	)

	items := func(n int) []model.Item {
		out := make([]model.Item, n)
		for i := range out {
			out[i] = model.Item{ID: int64(i + 1), RequestID: reqID, Position: i, URL: "u"}
		}
		return out
	}

	BeforeEach(func() {
		ctx = context.Background()
		mem = storetest.NewMemory()
		mem.Seed(model.Request{ID: reqID, Topic: "t"})
		trk = tracker.New(mem.Requests(), mem)
		browser = &fakeBrowser{gate: make(chan struct{})}

		d, err := stage.NewDispatcher(stage.Deps{
			Source:  &fakeSource{},
			Browser: browser,
			Scorer:  &fakeScorer{},
			Tracker: trk,
			Sink:    &fakeSink{},
		})
		Expect(err).NotTo(HaveOccurred())
		sched = flow.NewScheduler(d, flow.Config{}, flow.WithIDGenerator(counter()))
		builder = pipeline.NewBuilder(sched, trk, 6)
		req = &model.Request{ID: reqID, Topic: "t", Status: model.RequestStatusPending}
	})

	It("builds the four-level tree", func() {
		root, err := builder.Build(req, items(13))
		Expect(err).NotTo(HaveOccurred())

		Expect(root.Type).To(Equal(stage.TypeNotify))
		finalize := root.Children[0]
		Expect(finalize.Type).To(Equal(stage.TypeFinalizeRequest))
		score := finalize.Children[0]
		Expect(score.Type).To(Equal(stage.TypeAggregateScore))
		Expect(score.Children).To(HaveLen(3))

		sizes := make([]int, len(score.Children))
		for i, leaf := range score.Children {
			p := leaf.Payload.(stage.EnrichPayload)
			Expect(p.Index).To(Equal(i))
			sizes[i] = len(p.Items)
		}
		Expect(sizes).To(Equal([]int{6, 6, 1}))
	})

	It("submits nothing for a request already in flight", func() {
		first, err := builder.Start(ctx, req, items(3))
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Run).NotTo(BeNil())
		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusInProgress))

		second, err := builder.Start(ctx, req, items(3))
		Expect(err).To(MatchError(pipeline.ErrAlreadyInFlight))
		Expect(second.Run).To(BeIdenticalTo(first.Run))

		close(browser.gate)
		_, err = first.Run.Wait(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(browser.opened.Load()).To(Equal(int32(1)))
		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusDone))
	})

	It("rejects a terminal request", func() {
		req.Status = model.RequestStatusFailed
		_, err := builder.Start(ctx, req, items(3))
		Expect(err).To(MatchError(pipeline.ErrRequestTerminal))
		Expect(sched.InFlight()).To(BeZero())
	})

	It("short-circuits zero items to done", func() {
		res, err := builder.Start(ctx, req, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.ShortCircuited).To(BeTrue())
		Expect(res.Run).To(BeNil())
		Expect(mem.Status(reqID)).To(Equal(model.RequestStatusDone))
	})
})

var _ = DescribeTable("RequestIDFromRunKey",
	func(key string, want int64, ok bool) {
		got, gotOK := pipeline.RequestIDFromRunKey(key)
		Expect(gotOK).To(Equal(ok))
		Expect(got).To(Equal(want))
	},
	Entry("tree key", "request:42", int64(42), true),
	Entry("fetch key", "fetch:7", int64(7), true),
	Entry("no separator", "request42", int64(0), false),
	Entry("not a number", "request:abc", int64(0), false),
)
