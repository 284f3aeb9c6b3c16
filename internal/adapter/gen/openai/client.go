// Package openai implements the generation collaborator against an
// OpenAI-compatible chat completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	genhttp "github.com/edutools/fbgen/internal/adapter/gen/http"
	"github.com/edutools/fbgen/internal/domain"
	"github.com/edutools/fbgen/internal/usecase/feedback"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultTimeout = 60 * time.Second

	serviceName = "openai"
)

// Role-specific system prompts. The user prompt carries the full context;
// the system prompt only fixes the stage's posture.
var systemPrompts = map[string]string{
	feedback.RoleProposer:   "You are a teaching assistant drafting review comments on student code. Respond only with the requested JSON.",
	feedback.RoleReviewer:   "You are a senior teaching assistant critiquing draft review comments. Respond only with the requested JSON.",
	feedback.RoleSummarizer: "You are a teaching assistant summarizing review results. Follow the output format requested in the prompt.",
}

// Client is an HTTP client for an OpenAI-compatible generation service.
// It implements the feedback.Generator port, retrying transient failures
// internally; errors it returns have exhausted the retry budget.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	retry   genhttp.RetryConfig
	logger  genhttp.Logger
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint (self-hosted
// gateways, tests).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.client.Timeout = timeout }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg genhttp.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithLogger attaches a request/response logger.
func WithLogger(logger genhttp.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a generation client for the given model.
func NewClient(apiKey, model string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		retry:   genhttp.DefaultRetryConfig(),
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate implements feedback.Generator. Exhausted transient failures come
// back as GenerationTransientError so the orchestrator can report the file
// accordingly.
func (c *Client) Generate(ctx context.Context, req feedback.GenerationRequest) (feedback.GenerationResponse, error) {
	start := time.Now()
	if c.logger != nil {
		c.logger.LogRequest(ctx, genhttp.RequestLog{
			Service:     serviceName,
			Model:       c.model,
			Role:        req.Role,
			Timestamp:   start,
			PromptChars: len(req.Prompt),
			APIKey:      c.apiKey,
		})
	}

	var response feedback.GenerationResponse
	operation := func(ctx context.Context) error {
		resp, err := c.call(ctx, req)
		if err != nil {
			return err
		}
		response = resp
		return nil
	}

	if err := genhttp.RetryWithBackoff(ctx, operation, c.retry); err != nil {
		if c.logger != nil {
			c.logger.LogError(ctx, c.errorLog(err, start))
		}
		return feedback.GenerationResponse{}, classify(err)
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, genhttp.ResponseLog{
			Service:   serviceName,
			Model:     c.model,
			Role:      req.Role,
			Timestamp: time.Now(),
			Duration:  time.Since(start),
			TokensIn:  response.TokensIn,
			TokensOut: response.TokensOut,
		})
	}
	return response, nil
}

func (c *Client) call(ctx context.Context, req feedback.GenerationRequest) (feedback.GenerationResponse, error) {
	system, ok := systemPrompts[req.Role]
	if !ok {
		return feedback.GenerationResponse{}, genhttp.NewInvalidRequestError(serviceName,
			fmt.Sprintf("unknown role %q", req.Role))
	}

	reqBody := ChatCompletionRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: 0.0,
	}
	if req.Seed != 0 {
		seed := req.Seed
		reqBody.Seed = &seed
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return feedback.GenerationResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return feedback.GenerationResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return feedback.GenerationResponse{}, genhttp.NewTimeoutError(serviceName, "request timed out")
		}
		return feedback.GenerationResponse{}, genhttp.NewTimeoutError(serviceName, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return feedback.GenerationResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return feedback.GenerationResponse{}, errorFromStatus(resp.StatusCode, body)
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return feedback.GenerationResponse{}, fmt.Errorf("parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return feedback.GenerationResponse{}, errors.New("no choices in response")
	}

	return feedback.GenerationResponse{
		Text:      chatResp.Choices[0].Message.Content,
		TokensIn:  chatResp.Usage.PromptTokens,
		TokensOut: chatResp.Usage.CompletionTokens,
	}, nil
}

// errorFromStatus converts HTTP error responses to typed errors.
func errorFromStatus(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	} else if len(body) > 0 && len(body) < 200 {
		message = string(body)
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return genhttp.NewAuthenticationError(serviceName, message)
	case http.StatusTooManyRequests:
		return genhttp.NewRateLimitError(serviceName, message)
	case http.StatusBadRequest:
		return genhttp.NewInvalidRequestError(serviceName, message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return genhttp.NewServiceUnavailableError(serviceName, message)
	default:
		return &genhttp.Error{
			Type:       genhttp.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}
	}
}

// classify maps an exhausted client error onto the pipeline's taxonomy.
func classify(err error) error {
	var svcErr *genhttp.Error
	if errors.As(err, &svcErr) && svcErr.Retryable {
		return domain.NewError(domain.ErrKindGenerationTransient, "", err)
	}
	return err
}

func (c *Client) errorLog(err error, start time.Time) genhttp.ErrorLog {
	entry := genhttp.ErrorLog{
		Service:   serviceName,
		Model:     c.model,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Error:     err,
	}
	var svcErr *genhttp.Error
	if errors.As(err, &svcErr) {
		entry.ErrorType = svcErr.Type
		entry.StatusCode = svcErr.StatusCode
		entry.Retryable = svcErr.Retryable
	}
	return entry
}
