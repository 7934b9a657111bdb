// Package clock keeps an NTP-corrected wall clock for the panel.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"cloudpico-handheld/internal/panel"
)

// DefaultRetryInterval is how often a missing or failed sync is retried.
const DefaultRetryInterval = 30 * time.Second

// QueryFunc returns the offset between the local system clock and the server.
type QueryFunc func(server string) (time.Duration, error)

type Options struct {
	Server string
	Zone   *time.Location

	SyncInterval time.Duration

	// RetryInterval spaces attempts while no sync has succeeded. Zero means
	// DefaultRetryInterval.
	RetryInterval time.Duration

	// MaxAge is how long a successful sync keeps the clock available.
	MaxAge time.Duration

	// Online gates the periodic resync; nil means always online.
	Online func() bool

	Query QueryFunc
	Now   func() time.Time
}

// Source implements panel.ClockSource. It is safe for concurrent use.
type Source struct {
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	offset   time.Duration
	lastSync time.Time
	started  bool

	firstDone chan struct{}
	doneOnce  sync.Once
}

func New(opts Options, logger *slog.Logger) *Source {
	if opts.Zone == nil {
		opts.Zone = time.UTC
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.Query == nil {
		opts.Query = Query
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Source{opts: opts, logger: logger, firstDone: make(chan struct{})}
}

// Query asks an NTP server for the local clock offset.
func Query(server string) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: 5 * time.Second})
	if err != nil {
		return 0, fmt.Errorf("ntp query %s: %w", server, err)
	}
	if err := resp.Validate(); err != nil {
		return 0, fmt.Errorf("ntp response from %s: %w", server, err)
	}
	return resp.ClockOffset, nil
}

// Start marks the first sync as pending so that LocalTime waits for it.
func (s *Source) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
}

// Sync queries the server once and records the result.
func (s *Source) Sync() error {
	offset, err := s.opts.Query(s.opts.Server)
	defer s.doneOnce.Do(func() { close(s.firstDone) })
	if err != nil {
		s.logger.Warn("ntp sync failed", "server", s.opts.Server, "err", err)
		return err
	}

	s.mu.Lock()
	s.offset = offset
	s.lastSync = s.opts.Now()
	s.mu.Unlock()

	s.logger.Info("ntp synced", "server", s.opts.Server, "offset", offset)
	return nil
}

// Run syncs immediately and then every SyncInterval. Until a sync succeeds,
// and after a failed resync, it retries every RetryInterval instead, so a
// link that comes up late is synced within one retry. Attempts are skipped
// while the network is down. It returns when ctx is cancelled. Call Start
// first if readers should wait for the initial sync.
func (s *Source) Run(ctx context.Context) {
	for {
		wait := s.opts.RetryInterval
		if !s.online() {
			s.logger.Debug("ntp sync skipped, network down")
		} else if err := s.Sync(); err == nil {
			if s.opts.SyncInterval <= 0 {
				<-ctx.Done()
				return
			}
			wait = s.opts.SyncInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Source) online() bool {
	return s.opts.Online == nil || s.opts.Online()
}

// Synced reports whether a sync succeeded within MaxAge.
func (s *Source) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncedLocked(s.opts.Now())
}

func (s *Source) syncedLocked(now time.Time) bool {
	if s.lastSync.IsZero() {
		return false
	}
	return s.opts.MaxAge <= 0 || now.Sub(s.lastSync) < s.opts.MaxAge
}

// LocalTime returns the corrected local time. While the first sync is still
// in flight it waits up to timeout for it.
func (s *Source) LocalTime(timeout time.Duration) (panel.TimeSnapshot, bool) {
	s.mu.Lock()
	pending := s.started && s.lastSync.IsZero()
	s.mu.Unlock()

	if pending && timeout > 0 {
		timer := time.NewTimer(timeout)
		select {
		case <-s.firstDone:
		case <-timer.C:
		}
		timer.Stop()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.opts.Now()
	if !s.syncedLocked(now) {
		return panel.TimeSnapshot{}, false
	}
	return panel.SnapshotOf(now.Add(s.offset).In(s.opts.Zone)), true
}
