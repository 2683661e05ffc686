package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/scout/internal/http/handler"
	"basegraph.app/scout/internal/model"
	"basegraph.app/scout/internal/service"
)

var _ = Describe("RequestHandler", func() {
	var (
		router *gin.Engine
		svc    *mockRequestService
	)

	BeforeEach(func() {
		router = gin.New()
		svc = &mockRequestService{}
		h := handler.NewRequestHandler(svc, "X-Trace-Id")
		router.POST("/requests", h.Create)
		router.GET("/requests/:id", h.Get)
		router.GET("/requests/:id/events", handler.NewEventsHandler(nil).Stream)
	})

	post := func(body string, headers ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	Describe("Create", func() {
		It("returns 202 with the pending request and forwards the trace id", func() {
			var got service.CreateRequestParams
			svc.createFn = func(_ context.Context, p service.CreateRequestParams) (*model.Request, error) {
				got = p
				return &model.Request{ID: 1844674407370955161, Topic: p.Topic, Status: model.RequestStatusPending}, nil
			}

			w := post(`{"topic":"go books"}`, "X-Trace-Id", "trace-1")

			Expect(w.Code).To(Equal(http.StatusAccepted))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("1844674407370955161"))
			Expect(resp["status"]).To(Equal("pending"))
			Expect(got.Topic).To(Equal("go books"))
			Expect(*got.TraceID).To(Equal("trace-1"))
		})

		It("returns 400 without a topic", func() {
			Expect(post(`{}`).Code).To(Equal(http.StatusBadRequest))
			Expect(post(`{`).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for a blank topic", func() {
			svc.createFn = func(context.Context, service.CreateRequestParams) (*model.Request, error) {
				return nil, service.ErrEmptyTopic
			}
			Expect(post(`{"topic":"  "}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 on service error", func() {
			svc.createFn = func(context.Context, service.CreateRequestParams) (*model.Request, error) {
				return nil, errors.New("redis down")
			}
			Expect(post(`{"topic":"go"}`).Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Get", func() {
		It("returns the request with its items", func() {
			author := "Alan Donovan"
			svc.getFn = func(_ context.Context, id int64) (*service.RequestDetail, error) {
				return &service.RequestDetail{
					Request: &model.Request{ID: id, Topic: "go", Status: model.RequestStatusDone},
					Items:   []model.Item{{ID: 9, Title: "The Go Programming Language", Author: &author}},
				}, nil
			}

			w := get("/requests/42")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Items  []struct {
					ID     string `json:"id"`
					Author string `json:"author"`
				} `json:"items"`
			}
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.ID).To(Equal("42"))
			Expect(resp.Status).To(Equal("done"))
			Expect(resp.Items).To(HaveLen(1))
			Expect(resp.Items[0].ID).To(Equal("9"))
			Expect(resp.Items[0].Author).To(Equal("Alan Donovan"))
		})

		It("returns 404 for an unknown request", func() {
			svc.getFn = func(context.Context, int64) (*service.RequestDetail, error) {
				return nil, service.ErrRequestNotFound
			}
			Expect(get("/requests/42").Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			Expect(get("/requests/abc").Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Events", func() {
		It("returns 503 without redis", func() {
			Expect(get("/requests/42/events").Code).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
