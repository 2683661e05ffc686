package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"basegraph.app/scout/common/id"
	"basegraph.app/scout/internal/http/dto"
	"basegraph.app/scout/internal/service"
)

type RequestHandler struct {
	service     service.RequestService
	traceHeader string
}

func NewRequestHandler(service service.RequestService, traceHeader string) *RequestHandler {
	return &RequestHandler{service: service, traceHeader: traceHeader}
}

func (h *RequestHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := service.CreateRequestParams{Topic: req.Topic}
	traceID := c.GetHeader(h.traceHeader)
	if traceID == "" {
		if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
			traceID = spanCtx.TraceID().String()
		}
	}
	if traceID != "" {
		params.TraceID = &traceID
	}

	created, err := h.service.Create(ctx, params)
	if err != nil {
		if errors.Is(err, service.ErrEmptyTopic) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to create request", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create request"})
		return
	}

	c.JSON(http.StatusAccepted, dto.ToRequestResponse(created))
}

func (h *RequestHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	detail, err := h.service.Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get request", "error", err, "request_id", requestID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get request"})
		return
	}

	c.JSON(http.StatusOK, dto.ToRequestDetailResponse(detail))
}
