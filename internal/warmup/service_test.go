package warmup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

type fakePinger struct {
	calls   atomic.Int64
	latency int64
	err     error
}

func (f *fakePinger) Ping(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return f.latency, f.err
}

func newTestService(interval time.Duration) (*Service, *fakePinger) {
	p := &fakePinger{latency: 42}
	s := New(Config{Model: "test-model", Interval: interval, URL: "http://localhost:0"}, nil)
	s.pinger = p
	return s, p
}

func waitForCount(t *testing.T, s *Service, want uint64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Stats().Count < want {
		if time.Now().After(deadline) {
			t.Fatalf("count never reached %d, at %d", want, s.Stats().Count)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStartStop(t *testing.T) {
	s, p := newTestService(5 * time.Millisecond)
	s.Start()
	if !s.IsRunning() {
		t.Fatal("expected running after Start")
	}

	waitForCount(t, s, 2)
	s.Stop()
	if s.IsRunning() {
		t.Errorf("expected stopped after Stop")
	}
	if s.Stats().Running {
		t.Errorf("stats should report not running after Stop")
	}

	// No further pings after Stop returns.
	calls := p.calls.Load()
	time.Sleep(20 * time.Millisecond)
	if p.calls.Load() != calls {
		t.Errorf("ping issued after Stop")
	}
}

func TestStartIdempotent(t *testing.T) {
	s, _ := newTestService(time.Hour)
	s.Start()
	defer s.Stop()
	s.Start() // warned no-op
	if !s.IsRunning() {
		t.Errorf("expected still running")
	}
}

func TestCounterMonotonic(t *testing.T) {
	s, _ := newTestService(2 * time.Millisecond)
	s.Start()
	defer s.Stop()

	var prev uint64
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		c := s.Stats().Count
		if c < prev {
			t.Fatalf("counter decreased: %d -> %d", prev, c)
		}
		prev = c
		if c >= 5 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("counter stalled at %d", prev)
}

func TestPauseSkipsHeartbeats(t *testing.T) {
	s, p := newTestService(3 * time.Millisecond)
	s.Pause()
	s.Start()
	defer s.Stop()

	time.Sleep(30 * time.Millisecond)
	if got := p.calls.Load(); got != 0 {
		t.Errorf("expected no pings while paused, got %d", got)
	}
	if !s.Stats().Paused {
		t.Errorf("stats should report paused")
	}

	s.Resume()
	waitForCount(t, s, 1)
}

func TestPingFailureDoesNotStopLoop(t *testing.T) {
	s, p := newTestService(2 * time.Millisecond)
	p.err = errors.New("model reload in progress")
	p.latency = 9001
	s.Start()
	defer s.Stop()

	waitForCount(t, s, 3)
	if got := s.Stats().LastLatencyMs; got != 9001 {
		t.Errorf("failed ping latency not recorded: %d", got)
	}
}

func TestForcePingWhilePaused(t *testing.T) {
	s, p := newTestService(time.Hour)
	s.Pause()

	latency := s.ForcePing(context.Background())
	if latency != 42 {
		t.Errorf("expected latency 42, got %d", latency)
	}
	if p.calls.Load() != 1 {
		t.Errorf("expected one immediate ping, got %d", p.calls.Load())
	}
	if s.Stats().Count != 1 {
		t.Errorf("forced ping should publish stats, count=%d", s.Stats().Count)
	}
}

func TestSubscribeYieldsLastValueThenUpdates(t *testing.T) {
	s, _ := newTestService(time.Hour)
	s.ForcePing(context.Background())
	s.ForcePing(context.Background())

	// Late subscriber sees the latest value immediately.
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)
	select {
	case st := <-ch:
		if st.Count != 2 {
			t.Errorf("expected last value count=2, got %d", st.Count)
		}
	default:
		t.Fatal("subscriber should have an initial value buffered")
	}

	s.ForcePing(context.Background())
	select {
	case st := <-ch:
		if st.Count != 3 {
			t.Errorf("expected live update count=3, got %d", st.Count)
		}
	case <-time.After(time.Second):
		t.Fatal("no live update delivered")
	}
}

func TestSlowSubscriberNeverBlocksWriter(t *testing.T) {
	s, _ := newTestService(time.Hour)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	// Never read; publications must still proceed, last value winning.
	for i := 0; i < 10; i++ {
		s.ForcePing(context.Background())
	}
	st := <-ch
	if st.Count != 10 {
		t.Errorf("expected newest value 10 for a slow subscriber, got %d", st.Count)
	}
}

func TestHTTPPingerMeasuresFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := newHTTPPinger(Config{Model: "test-model", URL: srv.URL})
	latency, err := p.Ping(context.Background())
	if err == nil {
		t.Errorf("expected error for non-success status")
	}
	if latency < 0 {
		t.Errorf("latency must be measured even on failure")
	}
}

func TestHTTPPingerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"Ready","done":true}`))
	}))
	defer srv.Close()

	p := newHTTPPinger(Config{Model: "test-model", URL: srv.URL})
	if _, err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
