package preview

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultHealthInterval is how often [Monitor] checks the render surface.
const DefaultHealthInterval = 5 * time.Second

// Check reports whether the render surface is reachable.
type Check func(ctx context.Context) error

// HTTPCheck returns a Check that GETs url and treats any response below
// 500 as healthy. Each attempt is bounded by timeout.
func HTTPCheck(client *http.Client, url string, timeout time.Duration) Check {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("preview: render surface returned %s", resp.Status)
		}
		return nil
	}
}

// Monitor runs a health check on a fixed interval and exposes the result.
// The surface is considered unavailable until the first check passes.
type Monitor struct {
	check    Check
	interval time.Duration
	log      *zap.Logger

	mu        sync.Mutex
	checked   bool
	available bool
	lastErr   error
	changes   chan bool
}

// MonitorOption configures a [Monitor].
type MonitorOption func(*Monitor)

// WithInterval sets the check interval.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

// WithMonitorLogger sets the logger for state transitions.
func WithMonitorLogger(l *zap.Logger) MonitorOption {
	return func(m *Monitor) { m.log = l }
}

// NewMonitor creates a Monitor for check.
func NewMonitor(check Check, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		check:    check,
		interval: DefaultHealthInterval,
		log:      zap.NewNop(),
		changes:  make(chan bool, 1),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Run checks immediately and then on every interval until ctx ends.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		m.CheckNow(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// CheckNow runs one check and records the result. The first result always
// counts as a transition.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	err := m.check(ctx)
	ok := err == nil

	m.mu.Lock()
	changed := !m.checked || ok != m.available
	m.checked, m.available, m.lastErr = true, ok, err
	if changed {
		select {
		case <-m.changes:
		default:
		}
		m.changes <- ok
	}
	m.mu.Unlock()

	if changed && ok {
		m.log.Info("preview surface available")
	} else if changed {
		m.log.Warn("preview surface unavailable", zap.Error(err))
	}
	return ok
}

// Available reports the result of the latest check.
func (m *Monitor) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Err returns the error of the latest check, or nil.
func (m *Monitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Changes yields the new availability after each transition. Only the
// most recent undelivered transition is kept.
func (m *Monitor) Changes() <-chan bool {
	return m.changes
}
