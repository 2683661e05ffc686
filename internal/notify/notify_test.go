package notify_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/notify"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

var _ = Describe("Record", func() {
	item := model.Item{
		Title:              "Concurrency in Go",
		URL:                "https://shop.example/cig",
		Price:              f(27.5),
		OriginalPrice:      f(39.99),
		Description:        s("Tools and techniques"),
		Author:             s("Katherine Cox-Buday"),
		Summary:            s("A practical guide."),
		DiscountAmount:     f(12.49),
		DiscountPercentage: f(31.23),
		RelevanceScore:     f(9.5),
		ValueScore:         f(8.25),
	}

	It("serializes keys exactly and in order", func() {
		raw, err := json.Marshal(notify.FromItem(item))
		Expect(err).NotTo(HaveOccurred())

		doc := string(raw)
		last := -1
		for _, col := range notify.Columns {
			idx := strings.Index(doc, `"`+col+`":`)
			Expect(idx).To(BeNumerically(">", last), "column %q out of order", col)
			last = idx
		}

		var decoded map[string]any
		Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
		Expect(decoded).To(HaveLen(len(notify.Columns)))
	})

	It("maps item fields to columns", func() {
		row := notify.FromItem(item).Values()
		Expect(row).To(HaveLen(len(notify.Columns)))
		Expect(row[0]).To(Equal("Concurrency in Go"))
		Expect(row[1]).To(Equal("Katherine Cox-Buday"))
		Expect(row[4]).To(Equal(f(27.5)))
		Expect(row[7]).To(Equal(f(31.23)))
		Expect(row[10]).To(Equal("https://shop.example/cig"))
	})

	It("renders missing text fields as empty strings", func() {
		rec := notify.FromItem(model.Item{Title: "bare", URL: "u"})
		Expect(rec.Author).To(BeEmpty())
		Expect(rec.Description).To(BeEmpty())
		Expect(rec.ValueScore).To(BeNil())
	})
})

var _ = Describe("Webhook", func() {
	var (
		server  *httptest.Server
		status  int
		gotBody []byte
		gotReq  *http.Request
	)

	BeforeEach(func() {
		status = http.StatusAccepted
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotReq = r.Clone(context.Background())
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(status)
			_, _ = w.Write([]byte("nope"))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("posts columns and rows", func() {
		hook := notify.NewWebhook(notify.Config{WebhookURL: server.URL + "/hooks/scout", Token: "t0k"})
		defer hook.Close()

		err := hook.Deliver(context.Background(), notify.Delivery{
			RequestID: 7,
			Topic:     "go books",
			Records:   notify.FromItems([]model.Item{{Title: "a", URL: "u1"}, {Title: "b", URL: "u2"}}),
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(gotReq.Method).To(Equal(http.MethodPost))
		Expect(gotReq.URL.Path).To(Equal("/hooks/scout"))
		Expect(gotReq.Header.Get("Authorization")).To(Equal("Bearer t0k"))
		Expect(gotReq.Header.Get("Idempotency-Key")).To(Equal("request-7"))

		var body struct {
			RequestID string           `json:"request_id"`
			Topic     string           `json:"topic"`
			Columns   []string         `json:"columns"`
			Rows      []map[string]any `json:"rows"`
		}
		Expect(json.Unmarshal(gotBody, &body)).To(Succeed())
		Expect(body.RequestID).To(Equal("7"))
		Expect(body.Columns).To(Equal(notify.Columns))
		Expect(body.Rows).To(HaveLen(2))
		Expect(body.Rows[1]["Title"]).To(Equal("b"))
	})

	It("surfaces a rejected delivery", func() {
		status = http.StatusInternalServerError
		hook := notify.NewWebhook(notify.Config{WebhookURL: server.URL})
		defer hook.Close()

		err := hook.Deliver(context.Background(), notify.Delivery{RequestID: 1})
		Expect(err).To(MatchError(ContainSubstring("500")))
	})
})
