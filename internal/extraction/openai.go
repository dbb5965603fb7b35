package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/leaguelab/constraintd/internal/schema"
)

// Default configuration values.
const (
	defaultBaseURL     = "https://api.openai.com"
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// openAIExtractor implements Extractor using OpenAI chat completions with
// structured outputs (response_format json_schema).
type openAIExtractor struct {
	model       string
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
	metrics     *Metrics
}

// newOpenAIExtractor creates a new OpenAI extractor.
func newOpenAIExtractor(cfg Config) (*openAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	return &openAIExtractor{
		model:       model,
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries:  maxRetries,
		baseBackoff: defaultBaseBackoff,
		metrics:     NewMetrics(nil),
	}, nil
}

// chatRequest is the request format for the chat completions API.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat asks the provider to enforce an output schema. With
// structured outputs the provider guarantees syntactic conformance; only
// enum membership of the kind is re-checked on our side.
type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

// chatResponse is the response format for the chat completions API.
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// apiError is an error response from the API.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Extract issues one structured-output call for the fragment and returns a
// validated constraint of the target variant.
func (o *openAIExtractor) Extract(ctx context.Context, fragment string, variant schema.Variant) (schema.Constraint, error) {
	start := time.Now()
	constraint, err := o.extract(ctx, fragment, variant)
	o.metrics.RecordExtraction(ctx, o.model, variant, time.Since(start), err)
	return constraint, err
}

func (o *openAIExtractor) extract(ctx context.Context, fragment string, variant schema.Variant) (schema.Constraint, error) {
	spec, err := schema.Spec(variant)
	if err != nil {
		return schema.Constraint{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return schema.Constraint{}, fmt.Errorf("rate limiter error: %w", err)
	}

	req := chatRequest{
		Model:       o.model,
		Temperature: 0, // Deterministic extraction
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: fragment},
		},
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   string(variant) + "_constraint",
				Schema: spec.JSONSchema(),
			},
		},
	}

	// Bounded retries with exponential backoff for transient failures.
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := o.baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return schema.Constraint{}, ctx.Err()
			}
		}

		constraint, err := o.doRequest(ctx, req, spec)
		if err == nil {
			return constraint, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return schema.Constraint{}, err
		}
	}

	return schema.Constraint{}, fmt.Errorf("%w: max retries exceeded: %v", ErrExtractionFailed, lastErr)
}

// doRequest performs the HTTP request and parses the structured response.
func (o *openAIExtractor) doRequest(ctx context.Context, req chatRequest, spec *schema.VariantSpec) (schema.Constraint, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return schema.Constraint{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return schema.Constraint{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return schema.Constraint{}, &retryableError{err: fmt.Errorf("%w: request failed: %v", ErrExtractionFailed, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.Constraint{}, fmt.Errorf("%w: failed to read response: %v", ErrExtractionFailed, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return schema.Constraint{}, &retryableError{err: fmt.Errorf("%w: rate limited (429)", ErrExtractionFailed)}
	}
	if resp.StatusCode >= 500 {
		return schema.Constraint{}, &retryableError{err: fmt.Errorf("%w: server error (%d): %s", ErrExtractionFailed, resp.StatusCode, string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp apiError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return schema.Constraint{}, fmt.Errorf("%w: API error (%d): %s", ErrExtractionFailed, resp.StatusCode, errResp.Error.Message)
		}
		return schema.Constraint{}, fmt.Errorf("%w: API error (%d): %s", ErrExtractionFailed, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return schema.Constraint{}, fmt.Errorf("%w: failed to parse response: %v", ErrExtractionFailed, err)
	}
	if len(chatResp.Choices) == 0 {
		return schema.Constraint{}, fmt.Errorf("%w: empty response from API", ErrExtractionFailed)
	}
	if refusal := chatResp.Choices[0].Message.Refusal; refusal != "" {
		return schema.Constraint{}, fmt.Errorf("%w: model refused: %s", ErrExtractionFailed, refusal)
	}

	return parseConstraintJSON(chatResp.Choices[0].Message.Content, spec)
}

// extractionPayload is the shape the model fills in: the constraint minus
// the server-assigned ID and variant discriminant.
type extractionPayload struct {
	Kind       schema.Kind     `json:"type"`
	Scope      []string        `json:"scope"`
	Priority   schema.Priority `json:"priority"`
	Confidence *float64        `json:"confidence"`
	Parameters json.RawMessage `json:"parameters"`
}

// parseConstraintJSON builds a validated constraint from the model output.
// The provider enforces the schema syntactically, but the kind enum is
// re-checked here: a provider returning an out-of-enum string must fail
// extraction, not leak into persistence.
func parseConstraintJSON(content string, spec *schema.VariantSpec) (schema.Constraint, error) {
	// Some models wrap JSON in markdown code fences.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var payload extractionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return schema.Constraint{}, fmt.Errorf("%w: malformed model output: %v", ErrExtractionFailed, err)
	}

	if payload.Kind == "" {
		payload.Kind = schema.KindDefault
	}
	if !spec.ValidKind(payload.Kind) {
		return schema.Constraint{}, fmt.Errorf("%w: kind %q is not valid for variant %q", ErrExtractionFailed, payload.Kind, spec.Variant)
	}

	constraint, err := schema.NewConstraint(spec.Variant)
	if err != nil {
		return schema.Constraint{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	constraint.Kind = payload.Kind
	if payload.Scope != nil {
		constraint.Scope = payload.Scope
	}
	if payload.Priority != "" {
		constraint.Priority = payload.Priority
	}
	// Absent confidence stays at the unscored sentinel; it is never
	// defaulted to a high value.
	if payload.Confidence != nil {
		constraint.Confidence = *payload.Confidence
	}
	if len(payload.Parameters) > 0 && string(payload.Parameters) != "null" {
		if err := json.Unmarshal(payload.Parameters, constraint.Parameters); err != nil {
			return schema.Constraint{}, fmt.Errorf("%w: malformed parameters: %v", ErrExtractionFailed, err)
		}
	}

	if err := constraint.Validate(); err != nil {
		return schema.Constraint{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return constraint, nil
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	for e := err; e != nil; {
		if _, ok := e.(*retryableError); ok {
			return true
		}
		if unwrapper, ok := e.(interface{ Unwrap() error }); ok {
			e = unwrapper.Unwrap()
		} else {
			break
		}
	}
	return false
}

var _ Extractor = (*openAIExtractor)(nil)
