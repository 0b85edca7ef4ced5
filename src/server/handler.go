package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/loxresearch/genie/src/genie"
	"github.com/loxresearch/genie/src/session"
	"github.com/loxresearch/genie/src/state"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// Handler handles HTTP requests.
type Handler struct {
	svc    *genie.Service
	logger *slog.Logger
}

// NewHandler creates a new handler.
func NewHandler(svc *genie.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/chat", h.Chat)
	e.POST("/v1/chat/resume", h.Resume)

	e.GET("/v1/threads", h.ListThreads)
	e.GET("/v1/threads/recent", h.RecentThreads)
	e.GET("/v1/threads/:thread_id", h.GetThread)
	e.DELETE("/v1/threads/:thread_id", h.DeleteThread)
	e.GET("/v1/threads/:thread_id/ttl", h.GetThreadTTL)
	e.PUT("/v1/threads/:thread_id/ttl", h.ExtendThread)

	e.GET("/healthz", h.Health)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// turnResponse is a TurnResult plus the store error when the answer could
// not be persisted.
type turnResponse struct {
	*genie.TurnResult
	Error string `json:"error,omitempty"`
}

// Chat runs a turn.
// POST /v1/chat
func (h *Handler) Chat(c echo.Context) error {
	var req genie.TurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	res, err := h.svc.RunTurn(c.Request().Context(), req)
	return h.turnReply(c, res, err)
}

// Resume answers a pending clarification.
// POST /v1/chat/resume
func (h *Handler) Resume(c echo.Context) error {
	var req genie.ResumeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	res, err := h.svc.ResumeTurn(c.Request().Context(), req)
	return h.turnReply(c, res, err)
}

func (h *Handler) turnReply(c echo.Context, res *genie.TurnResult, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, turnResponse{TurnResult: res})
	}

	var verr *genie.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	}

	var serr *session.StoreError
	if errors.As(err, &serr) {
		// The answer is still returned; the thread just did not advance.
		if res != nil {
			return c.JSON(http.StatusServiceUnavailable, turnResponse{TurnResult: res, Error: "conversation state could not be saved"})
		}
		h.logger.Error("session store unavailable", "op", serr.Op, "thread_id", serr.ThreadID, "error", serr.Err)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "session store unavailable"})
	}

	if c.Request().Context().Err() != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "request cancelled"})
	}

	h.logger.Error("turn failed", "error", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "turn failed"})
}

// ListThreads lists thread ids matching an optional glob pattern.
// GET /v1/threads?pattern=
func (h *Handler) ListThreads(c echo.Context) error {
	ids, err := h.svc.Sessions().List(c.Request().Context(), c.QueryParam("pattern"))
	if err != nil {
		if errors.Is(err, session.ErrInvalidPattern) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid pattern", Field: "pattern"})
		}
		return h.storeFailure(c, err)
	}
	count, err := h.svc.Sessions().Count(c.Request().Context())
	if err != nil {
		return h.storeFailure(c, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"thread_ids": ids,
		"total":      count,
	})
}

type threadSummary struct {
	ThreadID        string              `json:"thread_id"`
	Status          state.Status        `json:"status"`
	Messages        state.MessageCounts `json:"message_counts"`
	PendingQuestion string              `json:"pending_question,omitempty"`
	LastUpdated     time.Time           `json:"last_updated"`
}

// RecentThreads returns summaries of the most recently updated threads.
// GET /v1/threads/recent?limit=
func (h *Handler) RecentThreads(c echo.Context) error {
	limit := defaultRecentLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRecentLimit {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 200", Field: "limit"})
		}
		limit = n
	}

	states, err := h.svc.Sessions().Recent(c.Request().Context(), limit)
	if err != nil {
		return h.storeFailure(c, err)
	}
	out := make([]threadSummary, 0, len(states))
	for _, s := range states {
		out = append(out, threadSummary{
			ThreadID:        s.ThreadID,
			Status:          s.Status,
			Messages:        s.MessageCounts,
			PendingQuestion: s.PendingQuestion,
			LastUpdated:     s.LastUpdated,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"threads": out})
}

// GetThread returns the full conversation state.
// GET /v1/threads/:thread_id
func (h *Handler) GetThread(c echo.Context) error {
	id := c.Param("thread_id")
	s, err := h.svc.Sessions().Get(c.Request().Context(), id)
	if err != nil {
		return h.storeFailure(c, err)
	}
	if s == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "thread not found"})
	}
	return c.JSON(http.StatusOK, s)
}

// DeleteThread removes a thread.
// DELETE /v1/threads/:thread_id
func (h *Handler) DeleteThread(c echo.Context) error {
	ok, err := h.svc.Sessions().Delete(c.Request().Context(), c.Param("thread_id"))
	if err != nil {
		return h.storeFailure(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "thread not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

type ttlResponse struct {
	ThreadID string `json:"thread_id"`
	// TTLSeconds is -1 when the thread never expires.
	TTLSeconds int64 `json:"ttl_seconds"`
}

// GetThreadTTL returns the remaining lifetime of a thread.
// GET /v1/threads/:thread_id/ttl
func (h *Handler) GetThreadTTL(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("thread_id")

	exists, err := h.svc.Sessions().Store().Exists(ctx, id)
	if err != nil {
		return h.storeFailure(c, &session.StoreError{Op: "exists", ThreadID: id, Err: err})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "thread not found"})
	}

	ttl, err := h.svc.Sessions().TTL(ctx, id)
	if err != nil {
		return h.storeFailure(c, err)
	}
	return c.JSON(http.StatusOK, ttlFor(id, ttl))
}

type extendRequest struct {
	TTLSeconds int64 `json:"ttl_seconds"`
}

// ExtendThread resets a thread's expiry.
// PUT /v1/threads/:thread_id/ttl
func (h *Handler) ExtendThread(c echo.Context) error {
	var req extendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.TTLSeconds <= 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "must be positive", Field: "ttl_seconds"})
	}

	ctx := c.Request().Context()
	id := c.Param("thread_id")
	ttl := time.Duration(req.TTLSeconds) * time.Second
	ok, err := h.svc.Sessions().Extend(ctx, id, ttl)
	if err != nil {
		return h.storeFailure(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "thread not found"})
	}
	return c.JSON(http.StatusOK, ttlFor(id, ttl))
}

// Health reports liveness along with the store's thread count.
// GET /healthz
func (h *Handler) Health(c echo.Context) error {
	count, err := h.svc.Sessions().Count(c.Request().Context())
	if err != nil {
		h.logger.Warn("health check: store unavailable", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "healthy",
		"threads": count,
	})
}

func (h *Handler) storeFailure(c echo.Context, err error) error {
	h.logger.Error("session store failure", "path", c.Path(), "error", err)
	return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "session store unavailable"})
}

func ttlFor(id string, ttl time.Duration) ttlResponse {
	if ttl < 0 {
		return ttlResponse{ThreadID: id, TTLSeconds: -1}
	}
	return ttlResponse{ThreadID: id, TTLSeconds: int64(ttl / time.Second)}
}
