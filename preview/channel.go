// Package preview propagates artifact content to preview surfaces.
//
// [Channel] is the in-process broadcast used by the chat session and the
// preview server. [Poll] turns any content source into the same value
// stream by periodic fetches, and [Monitor] tracks whether the external
// render surface is reachable.
package preview

import (
	"context"
	"sync"

	"github.com/fwojciec/builder"
	"go.uber.org/zap"
)

// Interface compliance check.
var _ builder.PreviewChannel = (*Channel)(nil)

// Channel is an in-memory [builder.PreviewChannel]. Each subscriber has a
// one-slot buffer; a publish replaces an undelivered value instead of
// queueing behind it, so a slow subscriber never blocks publishers and
// never sees stale intermediate content.
type Channel struct {
	log *zap.Logger

	mu     sync.Mutex
	latest string
	has    bool
	subs   map[chan string]struct{}
}

// Option configures a [Channel].
type Option func(*Channel)

// WithLogger sets the logger for subscriber bookkeeping.
func WithLogger(l *zap.Logger) Option {
	return func(c *Channel) { c.log = l }
}

// NewChannel returns an empty Channel.
func NewChannel(opts ...Option) *Channel {
	c := &Channel{
		log:  zap.NewNop(),
		subs: make(map[chan string]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Publish replaces the current content and offers it to every subscriber.
func (c *Channel) Publish(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest, c.has = content, true
	for ch := range c.subs {
		offer(ch, content)
	}
	return nil
}

// offer puts v into a one-slot channel, dropping an undelivered value.
// Callers must hold the lock that guards sends and close on ch.
func offer(ch chan string, v string) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}

// Latest returns the current content, or "" if nothing was published.
func (c *Channel) Latest(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, nil
}

// Subscribe registers a subscriber until ctx ends.
func (c *Channel) Subscribe(ctx context.Context) (<-chan string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := make(chan string, 1)

	c.mu.Lock()
	if c.has {
		ch <- c.latest
	}
	c.subs[ch] = struct{}{}
	n := len(c.subs)
	c.mu.Unlock()
	c.log.Debug("preview subscriber added", zap.Int("subscribers", n))

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.subs, ch)
		close(ch)
		n := len(c.subs)
		c.mu.Unlock()
		c.log.Debug("preview subscriber removed", zap.Int("subscribers", n))
	}()
	return ch, nil
}

// Subscribers returns the number of live subscriptions.
func (c *Channel) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
