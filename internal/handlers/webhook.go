package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/content-transcriber/internal/queue"
	"github.com/codebuildervaibhav/content-transcriber/internal/source"
)

// Header carrying the shared webhook secret.
const secretHeader = "X-Webhook-Secret"

// Enqueuer hands a job off for background processing.
type Enqueuer interface {
	EnqueueJob(job *queue.Job)
}

// WebhookHandler accepts webhook deliveries and acknowledges them before any
// extraction work happens.
type WebhookHandler struct {
	pool   Enqueuer
	secret string
	log    zerolog.Logger
}

// NewWebhookHandler creates a webhook handler. An empty secret disables the
// shared-secret check.
func NewWebhookHandler(pool Enqueuer, secret string, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{pool: pool, secret: secret, log: log}
}

// WebhookPayload is the inbound request body. The record ID is an opaque
// external reference and is never validated for existence. Share sheets
// sometimes put the URL in the title field, so both are checked.
type WebhookPayload struct {
	RecordID string `json:"recordId"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// Handle validates the delivery, enqueues the background job, and returns
// 200 immediately. Duplicate deliveries for the same record both run;
// last write wins in the document store.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	if h.secret != "" && c.Get(secretHeader) != h.secret {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "invalid webhook secret",
			"code":  "ERR_UNAUTHORIZED",
		})
	}

	var payload WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
			"code":  "ERR_INVALID_BODY",
		})
	}

	if payload.RecordID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "recordId is required",
			"code":  "ERR_NO_RECORD_ID",
		})
	}

	contentURL := source.FindContentURL(payload.URL, payload.Title)
	if contentURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no URL found in url or title field",
			"code":  "ERR_NO_URL",
		})
	}

	job := queue.NewJob(payload.RecordID, contentURL)
	h.pool.EnqueueJob(job)

	h.log.Info().
		Str("job_id", job.ID).
		Str("record_id", payload.RecordID).
		Msg("webhook accepted")

	return c.JSON(fiber.Map{
		"status":   "accepted",
		"job_id":   job.ID,
		"recordId": payload.RecordID,
		"url":      contentURL,
	})
}
