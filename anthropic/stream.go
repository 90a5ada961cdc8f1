package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fwojciec/builder"
	"go.uber.org/zap"
)

// stream implements [builder.Stream] by parsing SSE events from an HTTP
// response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	ctx     context.Context
	log     *zap.Logger
	state   builder.StreamState
	blocks  map[int]*blockState
	usage   builder.Usage
	stop    builder.StopReason
	done    bool  // EventDone emitted; next call completes
	err     error // terminal error, if any
}

// blockState tracks one open content block.
type blockState struct {
	artifact bool
	id       string
	language string
	fileName string
	buf      strings.Builder
}

// Interface compliance check.
var _ builder.Stream = (*stream)(nil)

func newStream(ctx context.Context, body io.ReadCloser, log *zap.Logger) *stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &stream{
		body:    body,
		scanner: scanner,
		ctx:     ctx,
		log:     log,
		state:   builder.StreamStateNew,
		blocks:  make(map[int]*blockState),
		stop:    builder.StopUnknown,
	}
}

// Next reads the next normalized event from the SSE stream.
// Returns io.EOF after [builder.EventDone].
func (s *stream) Next() (builder.Event, error) {
	switch s.state {
	case builder.StreamStateComplete:
		return nil, io.EOF
	case builder.StreamStateError:
		return nil, s.err
	case builder.StreamStateClosed:
		return nil, fmt.Errorf("anthropic: %w", builder.ErrStreamClosed)
	}
	if s.done {
		s.state = builder.StreamStateComplete
		return nil, io.EOF
	}

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = builder.StreamStateStreaming

		evt, err := s.processEvent(eventType, data)
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}
		if evt != nil {
			return evt, nil
		}
		// Non-semantic or skipped event - keep reading.
	}
}

// State returns the current stream state.
func (s *stream) State() builder.StreamState {
	return s.state
}

// Close closes the underlying HTTP response body. Open artifacts are
// discarded.
func (s *stream) Close() error {
	if s.state != builder.StreamStateComplete && s.state != builder.StreamStateError {
		s.state = builder.StreamStateClosed
		clear(s.blocks)
	}
	return s.body.Close()
}

// terminate records a terminal error and sets the error state.
func (s *stream) terminate(err error) {
	s.state = builder.StreamStateError
	clear(s.blocks)
	switch {
	case s.ctx.Err() != nil:
		s.err = fmt.Errorf("anthropic: stream aborted: %w", s.ctx.Err())
	case errors.Is(err, io.EOF):
		// message_stop should arrive before the body ends.
		s.err = fmt.Errorf("anthropic: unexpected end of stream")
	default:
		s.err = err
	}
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *stream) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to a normalized event. It returns a nil
// event for non-semantic and skipped events, and an error only when the
// stream must terminate.
func (s *stream) processEvent(eventType, data string) (builder.Event, error) {
	switch eventType {
	case "message_start":
		s.handleMessageStart(data)
	case "content_block_start":
		return s.handleContentBlockStart(data), nil
	case "content_block_delta":
		return s.handleContentBlockDelta(data), nil
	case "content_block_stop":
		return s.handleContentBlockStop(data), nil
	case "message_delta":
		s.handleMessageDelta(data)
	case "message_stop":
		s.done = true
		clear(s.blocks)
		return builder.EventDone{StopReason: s.stop, Usage: s.usage}, nil
	case "error":
		return nil, s.handleError(data)
	}
	// ping and unknown event types are ignored.
	return nil, nil
}

// skip logs an event that could not be used.
func (s *stream) skip(eventType string, err error) {
	s.log.Warn("skipping stream event", zap.String("event", eventType), zap.Error(err))
}

func (s *stream) handleMessageStart(data string) {
	var evt sseMessageStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		s.skip("message_start", err)
		return
	}
	s.usage.InputTokens = evt.Message.Usage.InputTokens
}

func (s *stream) handleContentBlockStart(data string) builder.Event {
	var evt sseContentBlockStart
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		s.skip("content_block_start", err)
		return nil
	}

	bs := &blockState{}
	s.blocks[evt.Index] = bs

	cb := evt.ContentBlock
	if cb.Type != "artifact" {
		if cb.Text != "" {
			return builder.EventTextDelta{Delta: cb.Text}
		}
		return nil
	}
	bs.artifact = true
	bs.id = cb.ID
	if bs.id == "" {
		bs.id = fmt.Sprintf("artifact-%d", evt.Index)
	}
	bs.language = cb.Metadata.Language
	bs.fileName = cb.Metadata.FileName
	return builder.EventArtifactStart{ID: bs.id, Language: bs.language, FileName: bs.fileName}
}

func (s *stream) handleContentBlockDelta(data string) builder.Event {
	var evt sseContentBlockDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		s.skip("content_block_delta", err)
		return nil
	}

	bs := s.blocks[evt.Index]
	if bs == nil {
		s.skip("content_block_delta", fmt.Errorf("unknown block index %d", evt.Index))
		return nil
	}
	if evt.Delta.Type != "text_delta" || evt.Delta.Text == "" {
		return nil
	}
	if !bs.artifact {
		return builder.EventTextDelta{Delta: evt.Delta.Text}
	}
	bs.buf.WriteString(evt.Delta.Text)
	return builder.EventArtifactDelta{ID: bs.id, Delta: evt.Delta.Text}
}

func (s *stream) handleContentBlockStop(data string) builder.Event {
	var evt sseContentBlockStop
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		s.skip("content_block_stop", err)
		return nil
	}

	bs := s.blocks[evt.Index]
	if bs == nil {
		s.skip("content_block_stop", fmt.Errorf("unknown block index %d", evt.Index))
		return nil
	}
	delete(s.blocks, evt.Index)
	if !bs.artifact {
		return nil
	}
	return builder.EventArtifactStop{
		ID:       bs.id,
		Language: bs.language,
		FileName: bs.fileName,
		Content:  bs.buf.String(),
	}
}

func (s *stream) handleMessageDelta(data string) {
	var evt sseMessageDelta
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		s.skip("message_delta", err)
		return
	}
	s.usage.OutputTokens = evt.Usage.OutputTokens
	if evt.Usage.InputTokens != nil {
		s.usage.InputTokens = *evt.Usage.InputTokens
	}
	if evt.Delta.StopReason != nil {
		s.stop = mapStopReason(*evt.Delta.StopReason)
	}
}

func (s *stream) handleError(data string) error {
	var evt sseError
	if err := json.Unmarshal([]byte(data), &evt); err != nil {
		return fmt.Errorf("anthropic: malformed error event: %s", data)
	}
	return fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
}

func mapStopReason(raw string) builder.StopReason {
	switch raw {
	case "end_turn", "stop_sequence":
		return builder.StopEndTurn
	case "max_tokens":
		return builder.StopLength
	default:
		return builder.StopUnknown
	}
}
