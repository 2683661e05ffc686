package scorer_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/scout/common/llm"
	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/scorer"
)

type mockLLM struct {
	chatFn func(ctx context.Context, req llm.Request, result any) (*llm.Response, error)
}

func (m *mockLLM) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	return m.chatFn(ctx, req, result)
}

func (m *mockLLM) Model() string { return "mock" }

// replyWith decodes a canned JSON reply into the caller's result, as the
// real clients do.
func replyWith(doc string) func(context.Context, llm.Request, any) (*llm.Response, error) {
	return func(_ context.Context, _ llm.Request, result any) (*llm.Response, error) {
		return &llm.Response{PromptTokens: 10, CompletionTokens: 5}, json.Unmarshal([]byte(doc), result)
	}
}

var _ = Describe("Scorer", func() {
	var (
		ctx   context.Context
		items []model.Item
	)

	BeforeEach(func() {
		ctx = context.Background()
		desc := "Goroutines explained"
		price, orig := 27.5, 40.0
		items = []model.Item{
			{ID: 1844674407370955161, Title: "Concurrency in Go", URL: "u1", Price: &price, OriginalPrice: &orig, Description: &desc},
			{ID: 2, Title: "Learning Go", URL: "u2"},
		}
	})

	It("sends every item with its id and the topic", func() {
		var captured llm.Request
		client := &mockLLM{chatFn: func(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
			captured = req
			return nil, json.Unmarshal([]byte(`{"items":[]}`), result)
		}}

		_, err := scorer.New(client, scorer.Config{}).Score(ctx, "go books", items)
		Expect(err).NotTo(HaveOccurred())

		Expect(captured.SchemaName).To(Equal("item_scores"))
		Expect(captured.Schema).NotTo(BeNil())
		Expect(captured.UserPrompt).To(ContainSubstring("Topic: go books"))
		Expect(captured.UserPrompt).To(ContainSubstring(`"item_id":"1844674407370955161"`))
		Expect(captured.UserPrompt).To(ContainSubstring(`"description":"Goroutines explained"`))
		Expect(captured.UserPrompt).To(ContainSubstring(`"item_id":"2"`))
	})

	It("maps entries back to item ids without losing precision", func() {
		client := &mockLLM{chatFn: replyWith(`{"items":[
			{"item_id":"1844674407370955161","authors":["Katherine Cox-Buday"],"discount_amount":12.5,
			 "discount_percentage":31.25,"relevance_score":9.123,"summary":"Deep dive.","value_score":8.456},
			{"item_id":"2","authors":[],"discount_amount":0,"discount_percentage":0,
			 "relevance_score":7,"summary":"Intro.","value_score":6}
		]}`)}

		scores, err := scorer.New(client, scorer.Config{}).Score(ctx, "go books", items)
		Expect(err).NotTo(HaveOccurred())
		Expect(scores).To(HaveLen(2))
		Expect(scores[0].ItemID).To(Equal(int64(1844674407370955161)))
		Expect(scores[0].Authors).To(Equal([]string{"Katherine Cox-Buday"}))
		Expect(scores[0].RelevanceScore).To(Equal(9.123))
		Expect(scores[1].ItemID).To(Equal(int64(2)))
	})

	It("drops entries with unparseable ids", func() {
		client := &mockLLM{chatFn: replyWith(`{"items":[{"item_id":"abc","authors":[],"summary":"x"}]}`)}

		scores, err := scorer.New(client, scorer.Config{}).Score(ctx, "go", items)
		Expect(err).NotTo(HaveOccurred())
		Expect(scores).To(BeEmpty())
	})

	It("wraps client errors", func() {
		client := &mockLLM{chatFn: func(context.Context, llm.Request, any) (*llm.Response, error) {
			return nil, errors.New("rate limited")
		}}

		_, err := scorer.New(client, scorer.Config{}).Score(ctx, "go", items)
		Expect(err).To(MatchError(ContainSubstring("scoring 2 items: rate limited")))
	})
})
