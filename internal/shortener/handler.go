package shortener

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sundayezeilo/linkshort/internal/errx"
	"github.com/sundayezeilo/linkshort/internal/httpx"
)

// Plain-text bodies returned by POST /shorten.
const (
	BodyURLRequired = "Bad Request: URL is required"
	BodyCodeInUse   = "Short code already in use. Please choose another one."
	BodyInvalidJSON = "Bad Request: Invalid JSON body"
)

// Handler provides HTTP handlers for the URL shortener service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

// Shorten handles POST /shorten. The body is buffered completely before it is
// parsed; a body that is not valid JSON gets a 400.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	body, err := httpx.DecodeJSON[shortenBody](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"error", err.Error(),
		)
		httpx.WriteText(w, http.StatusBadRequest, BodyInvalidJSON)
		return
	}

	code, err := h.service.Shorten(ctx, ShortenRequest{
		URL:       body.URL,
		ShortCode: body.ShortCode,
	})
	if err != nil {
		h.handleShortenError(ctx, logger, w, err)
		return
	}

	logger.InfoContext(ctx, "link created",
		"short_code", code,
		"custom_code", body.ShortCode != "",
	)

	httpx.WriteJSON(w, http.StatusOK, ShortenResponse{
		Success:   true,
		ShortCode: code,
	})
}

// ListLinks handles GET /links with the whole registry as a JSON object.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	links, err := h.service.List(ctx)
	if err != nil {
		logger := h.logger.With("request_id", httpx.GetRequestID(ctx))
		h.handleStoreError(ctx, logger, w, err, "failed to list links")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, links)
}

// Health handles the health check. The service is healthy when the store can be read.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Check(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed",
			"request_id", httpx.GetRequestID(ctx),
			"error", err.Error(),
			"error_kind", errx.KindOf(err),
		)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) handleShortenError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error) {
	switch kind := errx.KindOf(err); kind {
	case errx.Invalid:
		logger.WarnContext(ctx, "invalid link request",
			"error", err.Error(),
			"operation", errx.OpOf(err),
		)
		httpx.WriteText(w, http.StatusBadRequest, BodyURLRequired)

	case errx.Conflict:
		logger.WarnContext(ctx, "short code conflict",
			"error", err.Error(),
			"operation", errx.OpOf(err),
		)
		httpx.WriteText(w, http.StatusBadRequest, BodyCodeInUse)

	default:
		h.handleStoreError(ctx, logger, w, err, "failed to create link")
	}
}

// handleStoreError answers failures that are not the client's fault.
func (h *Handler) handleStoreError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, msg string) {
	kind := errx.KindOf(err)

	logger.ErrorContext(ctx, msg,
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	)

	status := httpx.ErrorKindToStatus(kind)
	if status == http.StatusServiceUnavailable {
		httpx.WriteText(w, status, httpx.BodyUnavailable)
		return
	}
	httpx.WriteText(w, http.StatusInternalServerError, httpx.BodyInternalError)
}
