// Package redis implements [builder.PreviewChannel] on Redis so that the
// chat process and a separately running preview server share one preview.
//
// The current content lives under a plain key; every publish also goes
// out on a pub/sub channel. Subscribers read the key once after their
// subscription is confirmed and then follow the channel.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/builder"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Default key names.
const (
	DefaultChannel = "builder:preview"
	latestSuffix   = ":latest"
)

// Interface compliance check.
var _ builder.PreviewChannel = (*Channel)(nil)

// Channel is a Redis-backed preview channel.
type Channel struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

// Option configures a [Channel].
type Option func(*Channel)

// WithChannel sets the pub/sub channel name. The latest-content key is
// derived from it.
func WithChannel(name string) Option {
	return func(c *Channel) { c.channel = name }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Channel) { c.log = l }
}

// New wraps an existing client.
func New(client *redis.Client, opts ...Option) *Channel {
	c := &Channel{
		client:  client,
		channel: DefaultChannel,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, opts ...Option) (*Channel, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: connect %s: %w", addr, err)
	}
	return New(client, opts...), nil
}

// Close closes the underlying client.
func (c *Channel) Close() error {
	return c.client.Close()
}

func (c *Channel) latestKey() string {
	return c.channel + latestSuffix
}

// Publish stores content as the latest value and broadcasts it.
func (c *Channel) Publish(ctx context.Context, content string) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, c.latestKey(), content, 0)
		p.Publish(ctx, c.channel, content)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: publish: %w", err)
	}
	return nil
}

// Latest returns the stored content, or "" if nothing was published.
func (c *Channel) Latest(ctx context.Context) (string, error) {
	v, err := c.client.Get(ctx, c.latestKey()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis: latest: %w", err)
	}
	return v, nil
}

// Subscribe follows the channel until ctx ends. Like the in-process
// channel, each subscriber holds at most one undelivered value.
func (c *Channel) Subscribe(ctx context.Context) (<-chan string, error) {
	ps := c.client.Subscribe(ctx, c.channel)
	// Wait for the subscription to be active so no publish between here
	// and the initial read is lost.
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("redis: subscribe: %w", err)
	}
	out := make(chan string, 1)
	current, err := c.client.Get(ctx, c.latestKey()).Result()
	switch {
	case err == nil:
		out <- current
	case !errors.Is(err, redis.Nil):
		ps.Close()
		return nil, fmt.Errorf("redis: subscribe: %w", err)
	}
	c.log.Debug("preview subscriber added", zap.String("channel", c.channel))

	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				c.log.Debug("preview subscriber removed", zap.String("channel", c.channel))
				return
			case m, ok := <-msgs:
				if !ok {
					c.log.Warn("preview subscription ended", zap.String("channel", c.channel))
					return
				}
				select {
				case <-out:
				default:
				}
				out <- m.Payload
			}
		}
	}()
	return out, nil
}
