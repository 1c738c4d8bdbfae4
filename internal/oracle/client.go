// Package oracle is the client for the content scoring oracle, an
// OpenAI-compatible chat completions endpoint that answers with JSON.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/pkg/config"
	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

// Client calls the content scoring oracle
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	baseDelay  time.Duration
	logger     *zap.Logger
}

// New creates a new oracle client
func New(cfg *config.OracleConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		baseDelay:  500 * time.Millisecond,
		logger:     logging.WithComponent("oracle"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// httpError is a non-2xx oracle reply
type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("oracle http %d: %s", e.StatusCode, e.Body)
}

// Moderate assesses a piece of user content
func (c *Client) Moderate(ctx context.Context, req ModerationRequest) (*ModerationAssessment, error) {
	var out ModerationAssessment
	if err := c.complete(ctx, "moderate", moderationSystem, moderationPrompt(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScoreReview grades a review
func (c *Client) ScoreReview(ctx context.Context, req ReviewRequest) (*ReviewAssessment, error) {
	var out ReviewAssessment
	if err := c.complete(ctx, "score_review", reviewSystem, reviewPrompt(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScoreContent returns a 0-100 value estimate for a contribution
func (c *Client) ScoreContent(ctx context.Context, contentType, content string) (float64, error) {
	var out struct {
		QualityScore float64 `json:"quality_score"`
	}
	if err := c.complete(ctx, "score_content", contentValueSystem, contentValuePrompt(contentType, content), &out); err != nil {
		return 0, err
	}
	return out.QualityScore, nil
}

// complete runs one chat completion and decodes the JSON answer into out.
// Transport failures and 5xx replies are retried with exponential backoff;
// 429 and 402 are returned at once.
func (c *Client) complete(ctx context.Context, op, system, user string, out interface{}) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "oracle."+op, attribute.String("oracle.model", c.model))
	start := time.Now()
	defer func() {
		telemetry.RecordOracleCall(ctx, op, outcome(err), time.Since(start))
		telemetry.EndSpan(span, err)
	}()

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0.2,
	}

	var raw []byte
	delay := c.baseDelay
	for attempt := 0; ; attempt++ {
		raw, err = c.doOnce(ctx, body)
		if err == nil {
			break
		}
		if !retryable(ctx, err) || attempt >= c.maxRetries {
			return classify(op, err)
		}

		c.logger.Warn("Oracle request retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
			zap.Duration("sleep", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return classify(op, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	var resp chatResponse
	if err = json.Unmarshal(raw, &resp); err != nil {
		return apperr.Wrap(apperr.KindFormatError, "oracle."+op, "scoring service returned an unreadable response", err)
	}
	if len(resp.Choices) == 0 {
		err = apperr.New(apperr.KindFormatError, "oracle."+op, "scoring service returned no result")
		return err
	}
	err = decodeStructured(op, resp.Choices[0].Message.Content, out)
	return err
}

func (c *Client) doOnce(ctx context.Context, body chatRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 256)}
	}
	return raw, nil
}

// decodeStructured parses the model's JSON answer. quality_score must be
// present and numeric; everything else may be omitted.
func decodeStructured(op, content string, out interface{}) error {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return apperr.Wrap(apperr.KindFormatError, "oracle."+op, "scoring service returned malformed JSON", err)
	}
	score, ok := fields["quality_score"]
	if !ok {
		return apperr.New(apperr.KindFormatError, "oracle."+op, "scoring service result is missing quality_score")
	}
	var q *float64
	if err := json.Unmarshal(score, &q); err != nil {
		return apperr.Wrap(apperr.KindFormatError, "oracle."+op, "scoring service quality_score is not a number", err)
	}
	if q == nil {
		return apperr.New(apperr.KindFormatError, "oracle."+op, "scoring service quality_score is null")
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return apperr.Wrap(apperr.KindFormatError, "oracle."+op, "scoring service result does not match the expected shape", err)
	}
	return nil
}

// retryable reports whether err is worth another attempt. Client timeouts
// are; the caller's own cancellation or deadline is not.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var he *httpError
	if errors.As(err, &he) {
		return he.StatusCode >= 500
	}
	return true
}

// classify maps a transport outcome onto the error taxonomy
func classify(op string, err error) error {
	var he *httpError
	if errors.As(err, &he) {
		switch {
		case he.StatusCode == http.StatusTooManyRequests:
			return apperr.Wrap(apperr.KindRateLimited, "oracle."+op, "scoring service is rate limited", err)
		case he.StatusCode == http.StatusPaymentRequired:
			return apperr.Wrap(apperr.KindQuotaExhausted, "oracle."+op, "scoring service quota exhausted", err)
		}
	}
	return apperr.Wrap(apperr.KindServiceError, "oracle."+op, "scoring service unavailable", err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.KindOf(err).String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
