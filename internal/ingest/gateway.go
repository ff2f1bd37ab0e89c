// Package ingest forwards knowledge submissions (single URL / sitemap / site
// crawl) to the external crawling service.
//
// The gateway does not crawl and does not create knowledge entries — it
// normalizes the submission to the crawler webhook's wire contract, issues
// the HTTP call, and reports the outcome. Entry creation happens separately,
// either by the caller or by the crawler's callback.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// maxResponseBytes caps how much of the webhook response is read back.
const maxResponseBytes = 1 << 20 // 1 MiB

// Submission is a UI-level ingestion request.
type Submission struct {
	AssistantID    string  `json:"assistantId"`
	OrganizationID *string `json:"organizationId,omitempty"`
	CollectionName string  `json:"collectionName"`
	UploadedBy     string  `json:"uploadedBy"`
	SourceURL      string  `json:"sourceUrl"`
	IncludeImg     bool    `json:"includeImg"`
	IncludeDoc     bool    `json:"includeDoc"`
	TaskID         string  `json:"taskId"`
	Frequency      string  `json:"frequency"`
	WorkflowID     string  `json:"workflowId"`
	StoreType      string  `json:"storeType"`
}

// webhookPayload is the external crawler's wire contract. Mostly snake_case;
// collectionName is camelCase in the existing service and must stay that way.
type webhookPayload struct {
	AssistantID    string  `json:"assistant_id"`
	OrganizationID *string `json:"organization_id,omitempty"`
	CollectionName string  `json:"collectionName"`
	UploadedBy     string  `json:"uploaded_by"`
	SourceURL      string  `json:"source_url"`
	IncludeImg     bool    `json:"include_img"`
	IncludeDoc     bool    `json:"include_doc"`
	TaskID         string  `json:"task_id"`
	Frequency      string  `json:"frequency"`
	WorkflowID     string  `json:"workflow_id"`
	StoreType      string  `json:"store_type"`
}

// Result is the gateway outcome. Upstream failures are reported here with
// Success=false rather than as a returned error — callers must check the
// flag. A returned error is reserved for invalid input.
type Result struct {
	Success bool            `json:"success"`
	TaskID  string          `json:"taskId,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Gateway submits normalized crawl requests to the external webhook.
//
// Gateway is safe for concurrent use.
type Gateway struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

// New creates a Gateway. timeout bounds the whole webhook call; the source
// system never set one, so a sane default is applied when zero.
func New(webhookURL string, timeout time.Duration, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Submit forwards one submission to the crawler webhook.
//
// A missing TaskID gets a generated correlation id. Resubmitting the same
// TaskID is not deduplicated here; contentHash on the knowledge entry is the
// intended dedup mechanism downstream.
func (g *Gateway) Submit(ctx context.Context, s Submission) (Result, error) {
	if s.AssistantID == "" {
		return Result{}, fmt.Errorf("assistant id is required")
	}
	if s.SourceURL == "" {
		return Result{}, fmt.Errorf("source url is required")
	}
	if s.TaskID == "" {
		s.TaskID = uuid.NewString()
	}

	payload := webhookPayload{
		AssistantID:    s.AssistantID,
		OrganizationID: s.OrganizationID,
		CollectionName: s.CollectionName,
		UploadedBy:     s.UploadedBy,
		SourceURL:      s.SourceURL,
		IncludeImg:     s.IncludeImg,
		IncludeDoc:     s.IncludeDoc,
		TaskID:         s.TaskID,
		Frequency:      s.Frequency,
		WorkflowID:     s.WorkflowID,
		StoreType:      s.StoreType,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.webhookURL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("crawler webhook call failed",
			"task_id", s.TaskID, "error", err)
		return Result{
			Success: false,
			TaskID:  s.TaskID,
			Error:   fmt.Sprintf("crawler webhook unreachable: %v", err),
		}, nil
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			g.logger.Debug("closing webhook response body", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{
			Success: false,
			TaskID:  s.TaskID,
			Error:   fmt.Sprintf("reading crawler response: %v", err),
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Warn("crawler webhook rejected submission",
			"task_id", s.TaskID, "status", resp.StatusCode)
		return Result{
			Success: false,
			TaskID:  s.TaskID,
			Error:   fmt.Sprintf("crawler webhook returned status %d", resp.StatusCode),
		}, nil
	}

	g.logger.Debug("submitted crawl request",
		"task_id", s.TaskID, "source_url", s.SourceURL)
	return Result{
		Success: true,
		TaskID:  s.TaskID,
		Data:    json.RawMessage(data),
	}, nil
}
