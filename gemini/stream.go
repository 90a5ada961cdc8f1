package gemini

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/fwojciec/builder"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// stream implements [builder.Stream] by wrapping the genai SDK's streaming
// iterator.
type stream struct {
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	ctx     context.Context
	log     *zap.Logger
	state   builder.StreamState
	pending []builder.Event
	usage   builder.Usage
	reason  builder.StopReason
	done    bool
	err     error
}

// Interface compliance check.
var _ builder.Stream = (*stream)(nil)

func newStream(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error], log *zap.Logger) *stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		pull:   next,
		stop:   stop,
		ctx:    ctx,
		log:    log,
		state:  builder.StreamStateNew,
		reason: builder.StopUnknown,
	}
}

// Next returns the next text delta, then [builder.EventDone], then io.EOF.
func (s *stream) Next() (builder.Event, error) {
	switch s.state {
	case builder.StreamStateComplete:
		return nil, io.EOF
	case builder.StreamStateError:
		return nil, s.err
	case builder.StreamStateClosed:
		return nil, fmt.Errorf("gemini: %w", builder.ErrStreamClosed)
	}

	for len(s.pending) == 0 {
		if s.done {
			s.state = builder.StreamStateComplete
			return nil, io.EOF
		}
		resp, err, ok := s.pull()
		if !ok {
			s.done = true
			s.state = builder.StreamStateStreaming
			return builder.EventDone{StopReason: s.reason, Usage: s.usage}, nil
		}
		if err != nil {
			s.state = builder.StreamStateError
			if s.ctx.Err() != nil {
				s.err = fmt.Errorf("gemini: stream aborted: %w", s.ctx.Err())
			} else {
				s.err = fmt.Errorf("gemini: %w", err)
			}
			return nil, s.err
		}
		s.state = builder.StreamStateStreaming
		s.absorb(resp)
	}

	evt := s.pending[0]
	s.pending = s.pending[1:]
	return evt, nil
}

// absorb queues the text of one chunk and records usage and finish reason.
func (s *stream) absorb(resp *genai.GenerateContentResponse) {
	if resp == nil {
		return
	}
	for _, t := range textParts(resp) {
		s.pending = append(s.pending, builder.EventTextDelta{Delta: t})
	}
	if u := resp.UsageMetadata; u != nil {
		s.usage.InputTokens = int(u.PromptTokenCount)
		s.usage.OutputTokens = int(u.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		s.reason = mapFinishReason(resp.Candidates[0].FinishReason)
		if s.reason == builder.StopError {
			s.log.Warn("gemini response stopped early", zap.String("finish_reason", string(resp.Candidates[0].FinishReason)))
		}
	}
}

func (s *stream) State() builder.StreamState {
	return s.state
}

func (s *stream) Close() error {
	if s.state != builder.StreamStateComplete && s.state != builder.StreamStateError {
		s.state = builder.StreamStateClosed
		s.pending = nil
	}
	s.stop()
	return nil
}

func mapFinishReason(r genai.FinishReason) builder.StopReason {
	switch r {
	case genai.FinishReasonStop:
		return builder.StopEndTurn
	case genai.FinishReasonMaxTokens:
		return builder.StopLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return builder.StopError
	default:
		return builder.StopUnknown
	}
}
