// Package chat runs editing sessions: one conversation with the AI
// collaborator about one page or component.
//
// A turn sends the user message with the current content, parses the
// streamed response into blocks and resolves every code block against the
// project. Nothing is written until [Session.Apply] confirms the turn.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/parse"
	"github.com/fwojciec/builder/resolve"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Target is the entity a session edits.
type Target struct {
	Kind    builder.Kind // KindPage or KindComponent
	ID      string
	Content string
}

// Turn is the outcome of one Send.
type Turn struct {
	Message     builder.ChatMessage
	Resolutions []builder.Resolution
	Unresolved  []error // each wraps builder.ErrUnresolved
	StopReason  builder.StopReason
	Usage       builder.Usage
}

// Session is one editing conversation. Only one turn runs at a time: a
// Send or Apply while a turn is in progress fails with builder.ErrBusy.
type Session struct {
	provider  builder.Provider
	completer builder.Completer
	resolver  *resolve.Resolver
	history   builder.HistoryStore
	preview   builder.PreviewChannel
	log       *zap.Logger
	model     string
	projectID string

	busy atomic.Bool

	mu       sync.Mutex
	target   Target
	messages []builder.ChatMessage
	pending  []builder.CodeBlock
}

// Option configures a [Session].
type Option func(*Session)

// WithHistory persists the conversation after every turn.
func WithHistory(h builder.HistoryStore) Option {
	return func(s *Session) { s.history = h }
}

// WithPreview publishes applied content to p.
func WithPreview(p builder.PreviewChannel) Option {
	return func(s *Session) { s.preview = p }
}

// WithCompleter switches the session to batch mode: responses are
// requested in one piece and parsed at once.
func WithCompleter(c builder.Completer) Option {
	return func(s *Session) { s.completer = c }
}

// WithModel sets the model ID sent with every request.
func WithModel(model string) Option {
	return func(s *Session) { s.model = model }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New creates a session editing target within project projectID.
func New(provider builder.Provider, resolver *resolve.Resolver, projectID string, target Target, opts ...Option) *Session {
	s := &Session{
		provider:  provider,
		resolver:  resolver,
		projectID: projectID,
		target:    target,
		log:       zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load replaces the in-memory conversation with the persisted one.
func (s *Session) Load(ctx context.Context) error {
	if s.history == nil {
		return nil
	}
	h, err := s.history.LoadHistory(ctx, s.target.ID)
	if err != nil {
		return fmt.Errorf("chat: load history: %w", err)
	}
	s.mu.Lock()
	s.messages = h.Messages
	s.pending = nil
	if n := len(h.Messages); n > 0 && h.Messages[n-1].Role == builder.RoleAssistant {
		s.pending = slices.Clone(h.Messages[n-1].CodeBlocks)
	}
	s.mu.Unlock()
	return nil
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []builder.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Target returns the edited entity with its latest known content.
func (s *Session) Target() Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Pending returns the code blocks that Apply would write.
func (s *Session) Pending() []builder.CodeBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pending)
}

// Busy reports whether a turn is in progress.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// SendOption configures a single Send.
type SendOption func(*sendConfig)

type sendConfig struct {
	onEvent func(builder.Event)
	onBlock func(builder.ContentBlock)
}

// WithEventHandler receives every decoded event as it arrives.
func WithEventHandler(h func(builder.Event)) SendOption {
	return func(c *sendConfig) { c.onEvent = h }
}

// WithBlockHandler receives every parsed block as soon as it completes.
func WithBlockHandler(h func(builder.ContentBlock)) SendOption {
	return func(c *sendConfig) { c.onBlock = h }
}

// Send runs one turn. On a stream failure the blocks completed so far are
// kept in the conversation and the error is returned with the partial
// turn. Blocks that match no classification rule are listed in
// Turn.Unresolved; a store failure while resolving is returned as an error
// alongside the turn.
func (s *Session) Send(ctx context.Context, text string, opts ...SendOption) (Turn, error) {
	if strings.TrimSpace(text) == "" {
		return Turn{}, fmt.Errorf("chat: empty message: %w", builder.ErrValidation)
	}
	if !s.busy.CompareAndSwap(false, true) {
		return Turn{}, builder.ErrBusy
	}
	defer s.busy.Store(false)

	var cfg sendConfig
	for _, o := range opts {
		o(&cfg)
	}

	s.mu.Lock()
	req := builder.Request{
		Model:        s.model,
		SystemPrompt: SystemPrompt(s.target.Kind, s.target.Content),
		Messages:     slices.Clone(s.messages),
		UserMessage:  text,
	}
	s.mu.Unlock()
	user := builder.ChatMessage{
		ID:        uuid.NewString(),
		Role:      builder.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	}

	var turn Turn
	var blocks []builder.ContentBlock
	collect := func(b builder.ContentBlock) {
		blocks = append(blocks, b)
		if cfg.onBlock != nil {
			cfg.onBlock(b)
		}
	}
	observe := func(evt builder.Event) {
		if done, ok := evt.(builder.EventDone); ok {
			turn.StopReason, turn.Usage = done.StopReason, done.Usage
		}
		if cfg.onEvent != nil {
			cfg.onEvent(evt)
		}
	}

	var err error
	if s.completer != nil {
		err = s.complete(ctx, req, observe, collect)
	} else {
		err = s.stream(ctx, req, observe, collect)
	}
	if err != nil && len(blocks) == 0 {
		return Turn{}, err
	}

	code := builder.CodeBlocks(blocks)
	turn.Message = builder.ChatMessage{
		ID:         uuid.NewString(),
		Role:       builder.RoleAssistant,
		Content:    formatBlocks(blocks),
		Timestamp:  time.Now(),
		CodeBlocks: code,
	}
	var lookupErrs []error
	for _, cb := range code {
		res, rerr := s.resolver.Resolve(ctx, s.projectID, cb)
		switch {
		case errors.Is(rerr, builder.ErrUnresolved):
			turn.Unresolved = append(turn.Unresolved, rerr)
		case rerr != nil:
			s.log.Error("resolve code block", zap.String("path", cb.FilePath), zap.Error(rerr))
			lookupErrs = append(lookupErrs, fmt.Errorf("chat: %w", rerr))
		default:
			turn.Resolutions = append(turn.Resolutions, res)
		}
	}

	s.mu.Lock()
	s.messages = append(s.messages, user, turn.Message)
	s.pending = code
	history := builder.ChatHistory{EntityID: s.target.ID, Messages: slices.Clone(s.messages), UpdatedAt: time.Now()}
	s.mu.Unlock()
	s.save(ctx, history)

	if len(lookupErrs) > 0 {
		err = errors.Join(append([]error{err}, lookupErrs...)...)
	}
	return turn, err
}

func (s *Session) stream(ctx context.Context, req builder.Request, observe func(builder.Event), collect func(builder.ContentBlock)) error {
	st, err := s.provider.Stream(ctx, req)
	if err != nil {
		return fmt.Errorf("chat: start stream: %w", err)
	}
	defer st.Close()

	for b, err := range parse.Blocks(tee{Stream: st, fn: observe}, parse.WithLogger(s.log)) {
		if err != nil {
			return fmt.Errorf("chat: stream: %w", err)
		}
		collect(b)
	}
	return nil
}

func (s *Session) complete(ctx context.Context, req builder.Request, observe func(builder.Event), collect func(builder.ContentBlock)) error {
	text, err := s.completer.Complete(ctx, req)
	if err != nil {
		return fmt.Errorf("chat: complete: %w", err)
	}
	observe(builder.EventTextDelta{Delta: text})
	for _, b := range parse.Parse(text, parse.WithLogger(s.log)) {
		collect(b)
	}
	observe(builder.EventDone{StopReason: builder.StopEndTurn})
	return nil
}

func (s *Session) save(ctx context.Context, h builder.ChatHistory) {
	if s.history == nil || h.EntityID == "" {
		return
	}
	// History is saved even when the turn's context was canceled.
	if err := s.history.SaveHistory(context.WithoutCancel(ctx), h); err != nil {
		s.log.Error("saving chat history failed", zap.String("entity", h.EntityID), zap.Error(err))
	}
}

// tee forwards every event it reads to fn.
type tee struct {
	builder.Stream
	fn func(builder.Event)
}

func (t tee) Next() (builder.Event, error) {
	evt, err := t.Stream.Next()
	if err == nil {
		t.fn(evt)
	}
	return evt, err
}

// Apply writes the last turn's code blocks in emission order and
// publishes the last applied content to the preview channel. Per-block
// failures are collected and never stop the batch.
func (s *Session) Apply(ctx context.Context) ([]builder.Applied, []error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, []error{builder.ErrBusy}
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	blocks := slices.Clone(s.pending)
	s.mu.Unlock()
	if len(blocks) == 0 {
		return nil, nil
	}

	applied, errs := s.resolver.ApplyAll(ctx, s.projectID, blocks)

	var latest string
	published := false
	s.mu.Lock()
	for _, a := range applied {
		latest, published = a.Resolution.Block.Content, true
		if a.Resolution.TargetID != "" && a.Resolution.TargetID == s.target.ID {
			s.target.Content = a.Resolution.Block.Content
		}
	}
	s.pending = nil
	s.mu.Unlock()

	if published && s.preview != nil {
		if err := s.preview.Publish(ctx, latest); err != nil {
			s.log.Warn("preview publish failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("chat: publish preview: %w", err))
		}
	}
	return applied, errs
}
