package builder

import "context"

// PreviewChannel broadcasts the latest artifact content to preview
// surfaces. Delivery is last-write-wins: subscribers only ever observe the
// most recent value, never a queue of intermediate versions.
//
// Subscribe returns a channel that first yields the current content, if
// any, and then every later publish not superseded before delivery. The
// channel is closed when ctx ends.
type PreviewChannel interface {
	Publish(ctx context.Context, content string) error
	Latest(ctx context.Context) (string, error)
	Subscribe(ctx context.Context) (<-chan string, error)
}
