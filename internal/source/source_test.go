package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/scout/internal/source"
)

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		server *httptest.Server
		client *source.Client
		seen   *http.Request
		status int
		body   string
	)

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		body = `{"results":[]}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Clone(context.Background())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		client = source.New(source.Config{BaseURL: server.URL + "/", APIKey: "secret"})
	})

	AfterEach(func() {
		Expect(client.Close()).To(Succeed())
		server.Close()
	})

	It("queries the topic and page with the API key", func() {
		_, err := client.Fetch(ctx, "go books", 2)
		Expect(err).NotTo(HaveOccurred())

		Expect(seen.URL.Path).To(Equal("/search"))
		Expect(seen.URL.Query().Get("q")).To(Equal("go books"))
		Expect(seen.URL.Query().Get("page")).To(Equal("2"))
		Expect(seen.Header.Get("Authorization")).To(Equal("Bearer secret"))
	})

	It("decodes candidates in source order", func() {
		body = `{"results":[
			{"title":" The Go Programming Language ","url":"https://shop.example/gopl","price":"$31.99","original_price":44.99},
			{"title":"Concurrency in Go","url":"https://shop.example/cig","price":27.5,"original_price":null},
			{"title":"","url":"https://shop.example/untitled","price":1}
		]}`

		got, err := client.Fetch(ctx, "go", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))

		Expect(got[0].Title).To(Equal("The Go Programming Language"))
		Expect(*got[0].Price).To(Equal(31.99))
		Expect(*got[0].OriginalPrice).To(Equal(44.99))

		Expect(got[1].URL).To(Equal("https://shop.example/cig"))
		Expect(*got[1].Price).To(Equal(27.5))
		Expect(got[1].OriginalPrice).To(BeNil())
	})

	It("surfaces an API error", func() {
		status = http.StatusBadGateway
		body = `{"message":"upstream unavailable"}`

		_, err := client.Fetch(ctx, "go", 2)
		Expect(err).To(MatchError(ContainSubstring("searching page 2")))
		Expect(err).To(MatchError(ContainSubstring("upstream unavailable")))
	})
})
