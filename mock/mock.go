// Package mock provides test doubles for builder interfaces using function fields.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/builder"
)

// Interface compliance checks.
var (
	_ builder.Provider       = (*Provider)(nil)
	_ builder.Completer      = (*Completer)(nil)
	_ builder.Stream         = (*Stream)(nil)
	_ builder.ProjectStore   = (*Store)(nil)
	_ builder.HistoryStore   = (*HistoryStore)(nil)
	_ builder.PreviewChannel = (*PreviewChannel)(nil)
)

// Provider is a test double for builder.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req builder.Request) (builder.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req builder.Request) (builder.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Completer is a test double for builder.Completer.
type Completer struct {
	CompleteFn func(ctx context.Context, req builder.Request) (string, error)
}

// Complete delegates to CompleteFn.
func (c *Completer) Complete(ctx context.Context, req builder.Request) (string, error) {
	return c.CompleteFn(ctx, req)
}

// Stream is a test double for builder.Stream.
// Set the function fields for the methods you need.
type Stream struct {
	NextFn  func() (builder.Event, error)
	StateFn func() builder.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (builder.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn.
func (s *Stream) State() builder.StreamState {
	return s.StateFn()
}

// Close delegates to CloseFn.
func (s *Stream) Close() error {
	return s.CloseFn()
}

// Events returns a Stream that replays events in order, then io.EOF. If
// err is non-nil it is returned instead of io.EOF once events run out.
func Events(err error, events ...builder.Event) *Stream {
	i := 0
	state := builder.StreamStateNew
	return &Stream{
		NextFn: func() (builder.Event, error) {
			switch state {
			case builder.StreamStateClosed:
				return nil, builder.ErrStreamClosed
			case builder.StreamStateComplete:
				return nil, io.EOF
			case builder.StreamStateError:
				return nil, err
			}
			if i < len(events) {
				evt := events[i]
				i++
				state = builder.StreamStateStreaming
				return evt, nil
			}
			if err != nil {
				state = builder.StreamStateError
				return nil, err
			}
			state = builder.StreamStateComplete
			return nil, io.EOF
		},
		StateFn: func() builder.StreamState { return state },
		CloseFn: func() error {
			if state != builder.StreamStateComplete && state != builder.StreamStateError {
				state = builder.StreamStateClosed
			}
			return nil
		},
	}
}
