package clock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"cloudpico-handheld/internal/panel"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var jst = time.FixedZone("JST", 9*3600)

func TestSource_UnavailableBeforeSync(t *testing.T) {
	fc := &fakeClock{now: time.Date(2024, 1, 15, 0, 5, 3, 0, time.UTC)}
	s := New(Options{Server: "pool.test", Zone: jst, Now: fc.Now}, discard)

	if s.Synced() {
		t.Error("Synced() = true before any sync")
	}
	start := time.Now()
	if _, ok := s.LocalTime(time.Second); ok {
		t.Error("LocalTime() ok = true before any sync")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("LocalTime() waited although no sync is pending")
	}
}

func TestSource_LocalTimeAppliesOffsetAndZone(t *testing.T) {
	fc := &fakeClock{now: time.Date(2024, 1, 15, 0, 5, 0, 0, time.UTC)}
	s := New(Options{
		Server: "pool.test",
		Zone:   jst,
		MaxAge: 24 * time.Hour,
		Query:  func(string) (time.Duration, error) { return 3 * time.Second, nil },
		Now:    fc.Now,
	}, discard)

	if err := s.Sync(); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	got, ok := s.LocalTime(0)
	if !ok {
		t.Fatal("LocalTime() ok = false after sync")
	}
	want := panel.TimeSnapshot{Year: 2024, Month: 1, Day: 15, Weekday: time.Monday, Hour: 9, Minute: 5, Second: 3}
	if got != want {
		t.Errorf("LocalTime() = %+v, want %+v", got, want)
	}
}

func TestSource_ExpiresAfterMaxAge(t *testing.T) {
	fc := &fakeClock{now: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}
	fails := false
	s := New(Options{
		MaxAge: time.Hour,
		Query: func(string) (time.Duration, error) {
			if fails {
				return 0, errors.New("timeout")
			}
			return 0, nil
		},
		Now: fc.Now,
	}, discard)

	if err := s.Sync(); err != nil {
		t.Fatal(err)
	}
	fc.advance(59 * time.Minute)
	fails = true
	if err := s.Sync(); err == nil {
		t.Fatal("Sync() error = nil, want failure")
	}
	if !s.Synced() {
		t.Error("failed resync dropped a still-fresh sync")
	}
	fc.advance(time.Minute)
	if s.Synced() {
		t.Error("Synced() = true after MaxAge without a successful sync")
	}
	if _, ok := s.LocalTime(0); ok {
		t.Error("LocalTime() ok = true after expiry")
	}
}

func TestSource_LocalTimeWaitsForPendingSync(t *testing.T) {
	release := make(chan struct{})
	s := New(Options{
		Query: func(string) (time.Duration, error) {
			<-release
			return 0, nil
		},
	}, discard)

	s.Start()
	go func() { _ = s.Sync() }()

	result := make(chan bool, 1)
	go func() {
		_, ok := s.LocalTime(5 * time.Second)
		result <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case ok := <-result:
		if !ok {
			t.Error("LocalTime() ok = false after the pending sync completed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("LocalTime() did not return after the sync completed")
	}
}

func TestSource_LocalTimeTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := New(Options{
		Query: func(string) (time.Duration, error) {
			<-block
			return 0, nil
		},
	}, discard)
	s.Start()
	go func() { _ = s.Sync() }()

	start := time.Now()
	if _, ok := s.LocalTime(50 * time.Millisecond); ok {
		t.Error("LocalTime() ok = true while sync is still pending")
	}
	if waited := time.Since(start); waited < 50*time.Millisecond {
		t.Errorf("LocalTime() returned after %v, want the full timeout", waited)
	}
}

func TestSource_RunResyncsOnlyWhenOnline(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	online := false
	s := New(Options{
		SyncInterval:  5 * time.Millisecond,
		RetryInterval: 5 * time.Millisecond,
		Online: func() bool {
			mu.Lock()
			defer mu.Unlock()
			return online
		},
		Query: func(string) (time.Duration, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return 0, nil
		},
	}, discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	offline := calls
	online = true
	mu.Unlock()
	if offline != 0 {
		t.Errorf("calls while offline = %d, want 0", offline)
	}

	time.Sleep(40 * time.Millisecond)
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if calls <= offline {
		t.Errorf("no resync while online (calls = %d)", calls)
	}
}

func TestSource_RunRetriesUntilFirstSync(t *testing.T) {
	tests := []struct {
		name      string
		startDown bool
		failFirst int
	}{
		{name: "link comes up after boot", startDown: true},
		{name: "first queries fail", failFirst: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var mu sync.Mutex
			online := !tc.startDown
			calls := 0
			s := New(Options{
				SyncInterval:  time.Hour,
				RetryInterval: 10 * time.Millisecond,
				MaxAge:        24 * time.Hour,
				Online: func() bool {
					mu.Lock()
					defer mu.Unlock()
					return online
				},
				Query: func(string) (time.Duration, error) {
					mu.Lock()
					defer mu.Unlock()
					calls++
					if calls <= tc.failFirst {
						return 0, errors.New("i/o timeout")
					}
					return 0, nil
				},
			}, discard)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				s.Run(ctx)
				close(done)
			}()
			defer func() {
				cancel()
				<-done
			}()

			time.Sleep(30 * time.Millisecond)
			mu.Lock()
			online = true
			mu.Unlock()

			deadline := time.Now().Add(2 * time.Second)
			for !s.Synced() {
				if time.Now().After(deadline) {
					t.Fatal("not synced although the link is up")
				}
				time.Sleep(5 * time.Millisecond)
			}

			// Once synced the next attempt waits for SyncInterval.
			mu.Lock()
			n := calls
			mu.Unlock()
			time.Sleep(50 * time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			if calls != n {
				t.Errorf("queries after sync = %d, want none before SyncInterval", calls-n)
			}
		})
	}
}
