package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ekisa-team/tabserve/internal/payload"
	"github.com/ekisa-team/tabserve/internal/service"
)

// InferenceHandler handles the health and inference routes.
type InferenceHandler struct {
	service *service.Inference
}

// NewInferenceHandler creates a new InferenceHandler and registers its routes on e.
func NewInferenceHandler(e *echo.Echo, svc *service.Inference) *InferenceHandler {
	h := &InferenceHandler{service: svc}

	e.GET("/ping", h.handlePing)
	e.POST("/invocations", h.handleInvocations)

	return h
}

// handlePing reports whether the model is loaded.
func (h *InferenceHandler) handlePing(c echo.Context) error {
	if err := h.service.Ready(); err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.String(http.StatusOK, "OK")
}

// handleInvocations parses the body and returns the predictions as a JSON array.
func (h *InferenceHandler) handleInvocations(c echo.Context) error {
	req := c.Request()
	contentType := req.Header.Get(echo.HeaderContentType)

	// Reject unsupported media types before touching the body.
	if err := h.service.Accepts(contentType); err != nil {
		return c.String(http.StatusUnsupportedMediaType, "Unsupported content type: "+contentType)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return c.String(http.StatusBadRequest, "Failed to read request body.")
	}

	preds, err := h.service.Invoke(req.Context(), contentType, body)
	if err != nil {
		return c.String(statusFor(err), messageFor(err))
	}

	return c.JSON(http.StatusOK, preds)
}

// statusFor maps inference errors to HTTP status codes.
// Feature-count mismatches and predictor failures both fall through to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, payload.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, payload.ErrEmptyBody), errors.Is(err, payload.ErrMalformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if errors.Is(err, payload.ErrEmptyBody) {
		return "Empty request body."
	}
	return err.Error()
}
