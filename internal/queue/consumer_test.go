package queue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"basegraph.app/scout/internal/queue"
)

var _ = Describe("ParseMessage", func() {
	It("parses an enrich task as stored by the producer", func() {
		msg, err := queue.ParseMessage(redis.XMessage{
			ID: "1700000000000-0",
			Values: map[string]any{
				"task_type":  "enrich_request",
				"request_id": "1844674407370955161",
				"attempt":    "3",
				"trace_id":   "4bf92f3577b34da6a3ce929d0e0e4736",
				"last_error": "scorer timeout",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.ID).To(Equal("1700000000000-0"))
		Expect(msg.TaskType).To(Equal(queue.TaskTypeEnrichRequest))
		Expect(msg.RequestID).To(Equal(int64(1844674407370955161)))
		Expect(msg.Attempt).To(Equal(3))
		Expect(msg.TraceID).To(Equal("4bf92f3577b34da6a3ce929d0e0e4736"))
		Expect(msg.LastError).To(Equal("scorer timeout"))
	})

	It("defaults the task type and attempt", func() {
		msg, err := queue.ParseMessage(redis.XMessage{Values: map[string]any{"request_id": "7"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.TaskType).To(Equal(queue.TaskTypeEnrichRequest))
		Expect(msg.Attempt).To(Equal(1))
	})

	DescribeTable("rejects malformed messages",
		func(values map[string]any, want string) {
			_, err := queue.ParseMessage(redis.XMessage{Values: values})
			Expect(err).To(MatchError(ContainSubstring(want)))
		},
		Entry("missing request id", map[string]any{"task_type": "enrich_request"}, "missing request_id"),
		Entry("bad request id", map[string]any{"request_id": "abc"}, "parsing request_id"),
		Entry("bad attempt", map[string]any{"request_id": "1", "attempt": "x"}, "parsing attempt"),
		Entry("unknown task", map[string]any{"task_type": "repo_sync", "request_id": "1"}, "unknown task_type"),
	)
})
