package preview

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultPollInterval is how often [Poll] fetches the latest content.
const DefaultPollInterval = time.Second

// Source is anything that can report the latest preview content.
type Source interface {
	Latest(ctx context.Context) (string, error)
}

// Poll fetches src every interval and emits the first value and every
// change after it. Fetch errors are logged and retried on the next tick.
// The returned channel is closed when ctx ends.
func Poll(ctx context.Context, src Source, interval time.Duration, log *zap.Logger) <-chan string {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	out := make(chan string, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last string
		seen := false
		for {
			v, err := src.Latest(ctx)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				log.Warn("preview poll failed", zap.Error(err))
			case !seen || v != last:
				last, seen = v, true
				select {
				case <-out:
				default:
				}
				out <- v
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}
