package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/builder"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Interface compliance checks.
var (
	_ builder.Provider  = (*Client)(nil)
	_ builder.Completer = (*Client)(nil)
)

// Client implements [builder.Provider] and [builder.Completer] for the
// Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the default model ID.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithLogger sets the logger used for abnormal finish reasons.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream sends a streaming request to the Gemini API and returns a
// [builder.Stream] of text deltas terminated by [builder.EventDone].
func (c *Client) Stream(ctx context.Context, req builder.Request) (builder.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	seq := c.client.Models.GenerateContentStream(ctx, c.modelFor(req), ConvertMessages(req.Conversation()), buildConfig(req))
	return newStream(ctx, seq, c.log), nil
}

// Complete sends a non-streaming request and returns the response text.
func (c *Client) Complete(ctx context.Context, req builder.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.modelFor(req), ConvertMessages(req.Conversation()), buildConfig(req))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return ResponseText(resp), nil
}

func (c *Client) modelFor(req builder.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return c.model
}

func buildConfig(req builder.Request) *genai.GenerateContentConfig {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}

	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		config.Temperature = &temp
	}

	return config
}

// ConvertMessages converts chat messages to genai Contents. Empty messages
// are dropped. Exported for testing.
func ConvertMessages(msgs []builder.ChatMessage) []*genai.Content {
	var result []*genai.Content
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		role := "user"
		if m.Role == builder.RoleAssistant {
			role = "model"
		}
		result = append(result, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return result
}

// ResponseText concatenates the non-thought text parts of the first
// candidate. Exported for testing.
func ResponseText(resp *genai.GenerateContentResponse) string {
	return strings.Join(textParts(resp), "")
}

func textParts(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var parts []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		parts = append(parts, p.Text)
	}
	return parts
}
