package builder

// Event is a sealed interface representing a normalized streaming event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta represents a prose fragment outside any artifact.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// EventArtifactStart signals that the provider opened a structured artifact
// with declared metadata.
type EventArtifactStart struct {
	ID       string
	Language string
	FileName string
}

func (EventArtifactStart) event() {}

// EventArtifactDelta carries a text fragment of the open artifact.
type EventArtifactDelta struct {
	ID    string
	Delta string
}

func (EventArtifactDelta) event() {}

// EventArtifactStop closes an artifact. Content is the full accumulated
// buffer; this is the only point a complete artifact is available.
type EventArtifactStop struct {
	ID       string
	Language string
	FileName string
	Content  string
}

func (EventArtifactStop) event() {}

// EventDone is the terminal event of a response. Next() returns io.EOF
// after it.
type EventDone struct {
	StopReason StopReason
	Usage      Usage
}

func (EventDone) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventArtifactStart{}
	_ Event = EventArtifactDelta{}
	_ Event = EventArtifactStop{}
	_ Event = EventDone{}
)
