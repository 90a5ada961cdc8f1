// Package openai implements [builder.Provider] and [builder.Completer] for
// OpenAI-compatible chat completion servers via go-openai.
//
// Like Gemini, these servers have no artifact blocks: the response is
// streamed as prose deltas and file paths travel in fenced code.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/builder"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultModel = openai.GPT4o

// Interface compliance checks.
var (
	_ builder.Provider  = (*Client)(nil)
	_ builder.Completer = (*Client)(nil)
	_ builder.Stream    = (*stream)(nil)
)

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

type settings struct {
	baseURL string
	model   string
	log     *zap.Logger
}

// Option configures a [Client].
type Option func(*settings)

// WithBaseURL points the client at an OpenAI-compatible server, for
// example "http://localhost:8000/v1".
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = strings.TrimSuffix(url, "/") }
}

// WithModel sets the default model ID.
func WithModel(model string) Option {
	return func(s *settings) { s.model = model }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.log = l }
}

// New creates a Client with the given API key.
func New(apiKey string, opts ...Option) *Client {
	s := settings{model: defaultModel, log: zap.NewNop()}
	for _, o := range opts {
		o(&s)
	}
	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  s.model,
		log:    s.log.Named("openai"),
	}
}

// Stream starts a streaming chat completion.
func (c *Client) Stream(ctx context.Context, req builder.Request) (builder.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	creq := c.buildRequest(req)
	creq.Stream = true
	creq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	s, err := c.client.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		c.log.Error("failed to create stream", zap.Error(err))
		return nil, fmt.Errorf("openai: %w", err)
	}
	return &stream{recv: s, ctx: ctx, reason: builder.StopUnknown}, nil
}

// Complete runs a non-streaming chat completion and returns the text of
// the first choice.
func (c *Client) Complete(ctx context.Context, req builder.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	c.log.Debug("completion finished",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) buildRequest(req builder.Request) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}
	creq := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  convertMessages(req.SystemPrompt, req.Conversation()),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		creq.Temperature = float32(*req.Temperature)
	}
	return creq
}

func convertMessages(system string, msgs []builder.ChatMessage) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		role := openai.ChatMessageRoleUser
		if m.Role == builder.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

// chunkReceiver is the part of *openai.ChatCompletionStream the adapter uses.
type chunkReceiver interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// stream adapts a go-openai stream to [builder.Stream].
type stream struct {
	recv   chunkReceiver
	ctx    context.Context
	state  builder.StreamState
	usage  builder.Usage
	reason builder.StopReason
	done   bool
	err    error
}

func (s *stream) Next() (builder.Event, error) {
	switch s.state {
	case builder.StreamStateComplete:
		return nil, io.EOF
	case builder.StreamStateError:
		return nil, s.err
	case builder.StreamStateClosed:
		return nil, fmt.Errorf("openai: %w", builder.ErrStreamClosed)
	}
	if s.done {
		s.state = builder.StreamStateComplete
		return nil, io.EOF
	}

	for {
		resp, err := s.recv.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			s.state = builder.StreamStateStreaming
			return builder.EventDone{StopReason: s.reason, Usage: s.usage}, nil
		}
		if err != nil {
			s.state = builder.StreamStateError
			if s.ctx.Err() != nil {
				s.err = fmt.Errorf("openai: stream aborted: %w", s.ctx.Err())
			} else {
				s.err = fmt.Errorf("openai: %w", err)
			}
			return nil, s.err
		}
		s.state = builder.StreamStateStreaming

		if resp.Usage != nil {
			s.usage = builder.Usage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens}
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		if choice.FinishReason != "" {
			s.reason = mapFinishReason(choice.FinishReason)
		}
		if choice.Delta.Content != "" {
			return builder.EventTextDelta{Delta: choice.Delta.Content}, nil
		}
	}
}

func (s *stream) State() builder.StreamState {
	return s.state
}

func (s *stream) Close() error {
	if s.state != builder.StreamStateComplete && s.state != builder.StreamStateError {
		s.state = builder.StreamStateClosed
	}
	return s.recv.Close()
}

func mapFinishReason(r openai.FinishReason) builder.StopReason {
	switch r {
	case openai.FinishReasonStop:
		return builder.StopEndTurn
	case openai.FinishReasonLength:
		return builder.StopLength
	case openai.FinishReasonContentFilter:
		return builder.StopError
	default:
		return builder.StopUnknown
	}
}
