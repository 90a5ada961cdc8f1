package builder

import "context"

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving deltas.
	StreamStateComplete                     // Next() returned io.EOF.
	StreamStateError                        // Next() returned non-EOF error.
	StreamStateClosed                       // Close() called before terminal state.
)

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Provider.Stream().
//
// Next returns events in arrival order, then exactly one EventDone, then
// io.EOF. A stream is finite and not restartable: a new turn needs a new
// stream. After Close() on a non-terminal stream, Next returns
// ErrStreamClosed.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Close() error
}

// Provider is a strategy pattern interface for streaming AI providers.
type Provider interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}

// Completer returns a single, non-streamed completion. Used in batch mode
// where the whole response is parsed at once.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
