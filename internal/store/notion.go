package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codebuildervaibhav/content-transcriber/internal/types"
)

// Notion-format document store client. The record's Status select and Error
// Log rich text live in page properties; the transcript itself is appended
// as child blocks. Writes are never read back or retried.

const (
	notionVersion  = "2022-06-28"
	defaultBaseURL = "https://api.notion.com/v1"

	// Notion caps a rich text element at 2000 chars and a children append
	// at 100 blocks.
	maxRichTextLen      = 2000
	maxBlocksPerRequest = 100
)

// APIError represents a failed document-store write.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("document store write failed (status %d): %s", e.StatusCode, e.Body)
}

// Client talks to the document-store API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a document-store client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetStatus updates the record's Status property. A non-empty errorLog also
// writes the Error Log property, truncated to the rich text limit.
func (c *Client) SetStatus(ctx context.Context, recordID, status, errorLog string) error {
	properties := map[string]any{
		"Status": map[string]any{
			"select": map[string]any{"name": status},
		},
	}
	if errorLog != "" {
		properties["Error Log"] = map[string]any{
			"rich_text": []any{textElement(truncate(errorLog, maxRichTextLen))},
		}
	}

	return c.patch(ctx, "/pages/"+recordID, map[string]any{"properties": properties})
}

// SaveTranscript marks the record Completed, sets its title, and appends the
// transcript as page content.
func (c *Client) SaveTranscript(ctx context.Context, recordID string, result *types.TranscriptResult) error {
	properties := map[string]any{
		"Status": map[string]any{
			"select": map[string]any{"name": types.StatusCompleted},
		},
	}
	if result.Title != "" {
		properties["Title"] = map[string]any{
			"title": []any{textElement(truncate(result.Title, maxRichTextLen))},
		}
	}

	if err := c.patch(ctx, "/pages/"+recordID, map[string]any{"properties": properties}); err != nil {
		return err
	}

	return c.appendTranscriptBlocks(ctx, recordID, result)
}

func (c *Client) appendTranscriptBlocks(ctx context.Context, recordID string, result *types.TranscriptResult) error {
	blocks := []any{
		map[string]any{
			"object": "block",
			"type":   "heading_2",
			"heading_2": map[string]any{
				"rich_text": []any{textElement(fmt.Sprintf("%s Transcript", result.SourceKind))},
			},
		},
		map[string]any{
			"object":  "block",
			"type":    "divider",
			"divider": map[string]any{},
		},
	}

	for _, chunk := range splitText(result.Transcript, maxRichTextLen) {
		blocks = append(blocks, map[string]any{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []any{textElement(chunk)},
			},
		})
	}

	for start := 0; start < len(blocks); start += maxBlocksPerRequest {
		end := start + maxBlocksPerRequest
		if end > len(blocks) {
			end = len(blocks)
		}
		payload := map[string]any{"children": blocks[start:end]}
		if err := c.patch(ctx, "/blocks/"+recordID+"/children", payload); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) patch(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal document store payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	return nil
}

func textElement(content string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": content},
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// splitText chunks text at the rich text limit, preferring paragraph then
// word boundaries.
func splitText(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	current := ""

	flush := func() {
		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		if len(current)+len(paragraph)+2 <= max {
			if current != "" {
				current += "\n\n"
			}
			current += paragraph
			continue
		}
		flush()

		if len(paragraph) <= max {
			current = paragraph
			continue
		}

		for _, word := range strings.Fields(paragraph) {
			if len(current)+len(word)+1 > max {
				flush()
			}
			if current != "" {
				current += " "
			}
			current += word
		}
	}
	flush()

	return chunks
}
