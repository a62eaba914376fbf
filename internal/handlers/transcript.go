package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/content-transcriber/internal/service"
	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

// Transcriber produces a transcript for a URL.
type Transcriber interface {
	Process(ctx context.Context, url string) (*types.TranscriptResult, error)
}

// TranscriptHandler serves synchronous transcript requests without touching
// the document store. Used for direct testing of the extraction pipeline.
type TranscriptHandler struct {
	svc Transcriber
}

// NewTranscriptHandler creates a transcript handler.
func NewTranscriptHandler(svc Transcriber) *TranscriptHandler {
	return &TranscriptHandler{svc: svc}
}

// TranscriptRequest is the inbound request body.
type TranscriptRequest struct {
	URL string `json:"url"`
}

// Handle runs extraction synchronously and returns the result or the real
// error status, unlike the fire-and-forget webhook.
func (h *TranscriptHandler) Handle(c *fiber.Ctx) error {
	var req TranscriptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
			"code":  "ERR_NO_URL",
		})
	}

	result, err := h.svc.Process(c.Context(), req.URL)
	if err != nil {
		status, code := mapProcessError(err)
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
			"code":  code,
		})
	}

	return c.JSON(result)
}

// mapProcessError picks the HTTP status for an extraction failure:
// recognized input problems are 400, upstream API failures 502, anything
// else 500.
func mapProcessError(err error) (int, string) {
	var perr *service.ProcessError
	if !errors.As(err, &perr) {
		return fiber.StatusInternalServerError, "ERR_INTERNAL"
	}

	switch perr.Kind {
	case service.KindUnrecognizedSource,
		service.KindNoCaptions,
		service.KindResolutionFailed,
		service.KindSizeExceeded:
		return fiber.StatusBadRequest, perr.Kind
	case service.KindTranscriptionAPI:
		return fiber.StatusBadGateway, perr.Kind
	default:
		return fiber.StatusInternalServerError, perr.Kind
	}
}
