package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fwojciec/builder"
	"go.uber.org/zap"
)

// Interface compliance checks.
var (
	_ builder.Provider  = (*Client)(nil)
	_ builder.Completer = (*Client)(nil)
)

// Client implements [builder.Provider] and [builder.Completer] for the
// Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used to report skipped stream events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream sends a streaming request to the Anthropic Messages API and returns
// a [builder.Stream] that emits normalized events.
func (c *Client) Stream(ctx context.Context, req builder.Request) (builder.Stream, error) {
	resp, err := c.do(ctx, req, true)
	if err != nil {
		return nil, err
	}
	return newStream(ctx, resp.Body, c.log), nil
}

// Complete sends a non-streaming request and returns the response as one
// text buffer. Artifact blocks are rendered as fenced code annotated with
// their file name so the text can be parsed in batch mode.
func (c *Client) Complete(ctx context.Context, req builder.Request) (string, error) {
	resp, err := c.do(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", err)
	}
	var sb strings.Builder
	for _, b := range out.Content {
		switch b.Type {
		case "text":
			sb.WriteString(b.Text)
		case "artifact":
			writeFence(&sb, b.Metadata, b.Content)
		}
	}
	return sb.String(), nil
}

// writeFence appends an artifact as a fenced block on its own lines.
func writeFence(sb *strings.Builder, md apiArtifactMetadata, content string) {
	if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString("```")
	sb.WriteString(md.Language)
	if md.FileName != "" {
		if md.Language != "" {
			sb.WriteByte(':')
		}
		sb.WriteString(md.FileName)
	}
	sb.WriteByte('\n')
	sb.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString("```\n")
}

func (c *Client) do(ctx context.Context, req builder.Request, stream bool) (*http.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	body, err := c.buildRequestBody(req, stream)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}
	return resp, nil
}

func (c *Client) buildRequestBody(req builder.Request, stream bool) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	apiReq := apiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Stream:      stream,
		System:      convertSystem(req.SystemPrompt),
		Messages:    convertMessages(req.Conversation()),
		Temperature: req.Temperature,
	}
	return json.Marshal(apiReq)
}

// convertSystem converts a system prompt to content blocks with a cache
// breakpoint on the last one. Returns nil when the prompt is empty.
func convertSystem(prompt string) []apiContentBlock {
	if prompt == "" {
		return nil
	}
	return []apiContentBlock{{
		Type:         "text",
		Text:         prompt,
		CacheControl: &apiCacheControl{Type: "ephemeral"},
	}}
}

// convertMessages maps chat messages to API messages. Empty messages are
// dropped and consecutive messages of one role are merged, both of which
// the API requires.
func convertMessages(msgs []builder.ChatMessage) []apiMessage {
	var result []apiMessage
	for _, m := range msgs {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		block := apiContentBlock{Type: "text", Text: m.Content}
		if n := len(result); n > 0 && result[n-1].Role == string(m.Role) {
			result[n-1].Content = append(result[n-1].Content, block)
			continue
		}
		result = append(result, apiMessage{
			Role:    string(m.Role),
			Content: []apiContentBlock{block},
		})
	}
	return result
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("anthropic: HTTP %d (failed to read body: %w)", resp.StatusCode, err)
	}
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("anthropic: HTTP %d: %s", resp.StatusCode, string(body))
	}
	return fmt.Errorf("anthropic: %s: %s", apiErr.Error.Type, apiErr.Error.Message)
}
