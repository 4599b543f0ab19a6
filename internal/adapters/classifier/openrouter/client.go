// Package openrouter classifies achievements through the OpenRouter
// chat-completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/socgpa/internal/domain/classify"
	"github.com/okian/socgpa/internal/domain/model"
	"github.com/okian/socgpa/pkg/logger"
	"github.com/okian/socgpa/pkg/metrics"
)

// Defaults for Config fields left empty.
const (
	DefaultURL     = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel   = "z-ai/glm-4.5-air:free"
	DefaultTimeout = 40 * time.Second

	referer = "https://socgpa.ai"
	title   = "SocGPA.AI"

	temperature    = 0.2
	attachmentMIME = "image/png"
	maxBodyBytes   = 1 << 20
)

const systemPrompt = "You are SocGPA.AI, an expert evaluator for a student Social GPA platform.\n" +
	"Return ONLY JSON with keys: " +
	"{category, scale, role_type, duration_months, scores, total_score, feedback, missing_recommendations}."

// Config holds the remote service settings.
type Config struct {
	APIKey  string
	URL     string
	Model   string
	Timeout time.Duration
}

// Client implements classify.Strategy. It makes a single attempt per call.
type Client struct {
	cfg    Config
	client *http.Client
	log    logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Config.Timeout bounds each call
// through the request context.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.client = c
		}
	}
}

// WithLogger sets the logger used for failures.
func WithLogger(l logger.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// NewClient creates a Client, filling empty Config fields with defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultURL
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{cfg: cfg, client: &http.Client{}, log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string { return string(classify.ProviderOpenRouter) }

// Classify sends in to the remote model and back-fills the reply.
func (c *Client) Classify(ctx context.Context, in classify.Input) (classify.Result, error) {
	start := time.Now()
	res, err := c.classify(ctx, in)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordRemoteClassifyLatency("error", float64(elapsed.Milliseconds()))
		c.log.Warn(ctx, "remote classification failed",
			logger.String("model", c.cfg.Model),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return classify.Result{}, err
	}
	metrics.RecordRemoteClassifyLatency("ok", float64(elapsed.Milliseconds()))
	return res, nil
}

func (c *Client) classify(ctx context.Context, in classify.Input) (classify.Result, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return classify.Result{}, classify.ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	data, err := json.Marshal(c.buildRequest(in))
	if err != nil {
		return classify.Result{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return classify.Result{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", referer)
	req.Header.Set("X-Title", title)

	resp, err := c.client.Do(req)
	if err != nil {
		return classify.Result{}, fmt.Errorf("openrouter request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return classify.Result{}, fmt.Errorf("%w: http %d", classify.ErrRemoteStatus, resp.StatusCode)
	}

	var body chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return classify.Result{}, fmt.Errorf("%w: decode body: %w", classify.ErrMalformedResponse, err)
	}
	if len(body.Choices) == 0 {
		return classify.Result{}, fmt.Errorf("%w: no choices", classify.ErrMalformedResponse)
	}

	return parseContent(body.Choices[0].Message.Content)
}

func parseContent(content string) (classify.Result, error) {
	content = cleanMarkdownWrapper(content)
	if !strings.HasPrefix(content, "{") {
		return classify.Result{}, fmt.Errorf("%w: content is not a json object", classify.ErrMalformedResponse)
	}

	var partial classify.Partial
	if err := json.Unmarshal([]byte(content), &partial); err != nil {
		return classify.Result{}, fmt.Errorf("%w: parse content: %w", classify.ErrMalformedResponse, err)
	}
	return classify.Backfill(partial, classify.ProviderOpenRouter), nil
}

func (c *Client) buildRequest(in classify.Input) chatRequest {
	profile := in.Profile
	if profile == nil {
		profile = &model.ProfileSummary{ByCategory: map[model.Category]int{}}
	}

	user, _ := json.Marshal(userPayload{
		StudentName:    in.StudentName,
		Title:          in.Title,
		CategoryHint:   string(in.CategoryHint),
		Description:    in.Description,
		ProfileSummary: profile,
	})

	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(user)},
		},
		Temperature:    temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if in.EncodedProof != "" {
		req.Attachments = []attachment{{Type: "image", Data: in.EncodedProof, MIMEType: attachmentMIME}}
	}
	return req
}

// cleanMarkdownWrapper strips a ```json fence some models wrap replies in.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}

type userPayload struct {
	StudentName    string                `json:"student_name"`
	Title          string                `json:"title"`
	CategoryHint   string                `json:"category_hint"`
	Description    string                `json:"description"`
	ProfileSummary *model.ProfileSummary `json:"profile_summary"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
	Attachments    []attachment   `json:"attachments,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type attachment struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	MIMEType string `json:"mime_type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
