package downloader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/queue"
)

type recorder struct {
	events []domain.Event
	mu     sync.Mutex
}

func (r *recorder) Publish(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(typ domain.EventType, itemID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ && ev.ItemID == itemID {
			n++
		}
	}
	return n
}

func startPool(t *testing.T, workers int, f Fetcher) (*queue.Manager, *recorder) {
	t.Helper()
	rec := &recorder{}
	m := queue.NewManager(rec, nil, logger.Discard())
	p := NewPool(m, f, logger.Discard())
	p.MaxConcurrent = workers
	p.Start()
	t.Cleanup(p.Stop)
	return m, rec
}

func enqueue(t *testing.T, m *queue.Manager, name string) string {
	t.Helper()
	id, err := m.Enqueue(domain.DownloadRequest{TrackName: name, ArtistName: "Artist"})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return id
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func statusOf(m *queue.Manager, id string) domain.ItemStatus {
	it, err := m.Get(id)
	if err != nil {
		return ""
	}
	return it.Status
}

func TestPool_Outcomes(t *testing.T) {
	f := FetcherFunc(func(_ context.Context, req domain.FetchRequest, _ domain.ProgressFunc) (domain.FetchResult, error) {
		switch req.TrackName {
		case "ok":
			return domain.Success("/out/ok.flac", 1024), nil
		case "exists":
			return domain.AlreadyExists("/out/exists.flac"), nil
		case "refused":
			return domain.Failure("quota exceeded"), nil
		case "silent":
			return domain.Failure(""), nil
		case "panic":
			panic("boom")
		default:
			return domain.FetchResult{}, errors.New("network unreachable")
		}
	})
	m, _ := startPool(t, 2, f)

	tests := []struct {
		track      string
		wantStatus domain.ItemStatus
		wantPath   string
		wantError  string
	}{
		{"ok", domain.StatusCompleted, "/out/ok.flac", ""},
		{"exists", domain.StatusSkipped, "/out/exists.flac", ""},
		{"refused", domain.StatusFailed, "", "quota exceeded"},
		{"silent", domain.StatusFailed, "", "download failed"},
		{"panic", domain.StatusFailed, "", "panic: boom"},
		{"error", domain.StatusFailed, "", "network unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.track, func(t *testing.T) {
			id := enqueue(t, m, tt.track)
			waitFor(t, func() bool { return statusOf(m, id).IsTerminal() })

			it, _ := m.Get(id)
			if it.Status != tt.wantStatus {
				t.Errorf("Expected %s, got %s", tt.wantStatus, it.Status)
			}
			if it.FilePath != tt.wantPath {
				t.Errorf("Expected path %q, got %q", tt.wantPath, it.FilePath)
			}
			if it.ErrorMessage != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, it.ErrorMessage)
			}
		})
	}

	s := m.Snapshot()
	if s.TotalDownloaded != 1024 {
		t.Errorf("Expected only the completed item counted, got %d", s.TotalDownloaded)
	}
}

func TestPool_RespectsConcurrencyLimit(t *testing.T) {
	const workers = 3
	var active, peak atomic.Int32
	release := make(chan struct{})

	f := FetcherFunc(func(ctx context.Context, _ domain.FetchRequest, _ domain.ProgressFunc) (domain.FetchResult, error) {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		defer active.Add(-1)
		select {
		case <-release:
		case <-ctx.Done():
			return domain.FetchResult{}, ctx.Err()
		}
		return domain.Success("/out/x", 1), nil
	})
	m, _ := startPool(t, workers, f)

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = enqueue(t, m, "track")
	}

	waitFor(t, func() bool { return m.Snapshot().DownloadingCount == workers })
	time.Sleep(20 * time.Millisecond)
	if s := m.Snapshot(); s.DownloadingCount != workers || s.QueuedCount != 10-workers {
		t.Errorf("Expected %d downloading and %d queued, got %+v", workers, 10-workers, s)
	}

	close(release)
	waitFor(t, func() bool { return m.Snapshot().CompletedCount == 10 })

	if got := peak.Load(); got > workers {
		t.Errorf("Expected at most %d concurrent fetches, saw %d", workers, got)
	}
}

func TestPool_FIFO(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	f := FetcherFunc(func(_ context.Context, req domain.FetchRequest, _ domain.ProgressFunc) (domain.FetchResult, error) {
		mu.Lock()
		order = append(order, req.TrackName)
		mu.Unlock()
		return domain.Success("/out/"+req.TrackName, 1), nil
	})

	rec := &recorder{}
	m := queue.NewManager(rec, nil, logger.Discard())
	for _, name := range []string{"a", "b", "c", "d"} {
		enqueue(t, m, name)
	}
	p := NewPool(m, f, logger.Discard())
	p.MaxConcurrent = 1
	p.Start()
	defer p.Stop()

	waitFor(t, func() bool { return m.Snapshot().CompletedCount == 4 })

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("Expected admission order %v, got %v", want, order)
		}
	}
}

func TestPool_ProgressThrottled(t *testing.T) {
	f := FetcherFunc(func(_ context.Context, _ domain.FetchRequest, progress domain.ProgressFunc) (domain.FetchResult, error) {
		for i := 1; i <= 100; i++ {
			progress(domain.Progress{Percent: float64(i), Speed: 1.5, TotalSize: 100, Downloaded: int64(i)})
		}
		return domain.Success("/out/p", 100), nil
	})

	rec := &recorder{}
	m := queue.NewManager(rec, nil, logger.Discard())
	p := NewPool(m, f, logger.Discard())
	p.MaxConcurrent = 1
	p.ProgressInterval = time.Hour
	p.Start()
	defer p.Stop()

	id := enqueue(t, m, "throttled")
	waitFor(t, func() bool { return statusOf(m, id) == domain.StatusCompleted })

	// claim + first callback + forced final update
	if got := rec.count(domain.EventProgress, id); got != 3 {
		t.Errorf("Expected 3 progress events, got %d", got)
	}
	if got := rec.count(domain.EventCompleted, id); got != 1 {
		t.Errorf("Expected 1 completed event, got %d", got)
	}
}

func TestPool_StopFailsInFlight(t *testing.T) {
	started := make(chan struct{})
	f := FetcherFunc(func(ctx context.Context, _ domain.FetchRequest, _ domain.ProgressFunc) (domain.FetchResult, error) {
		close(started)
		<-ctx.Done()
		return domain.FetchResult{}, ctx.Err()
	})

	rec := &recorder{}
	m := queue.NewManager(rec, nil, logger.Discard())
	p := NewPool(m, f, logger.Discard())
	p.MaxConcurrent = 1
	p.Start()

	id := enqueue(t, m, "long")
	<-started
	p.Stop()

	it, _ := m.Get(id)
	if it.Status != domain.StatusFailed {
		t.Errorf("Expected in-flight item failed on shutdown, got %s", it.Status)
	}
	p.Stop()
}

func TestPool_FailureDoesNotStallOthers(t *testing.T) {
	f := FetcherFunc(func(_ context.Context, req domain.FetchRequest, _ domain.ProgressFunc) (domain.FetchResult, error) {
		if req.TrackName == "bad" {
			panic("collaborator crashed")
		}
		return domain.Success("/out/"+req.TrackName, 1), nil
	})
	m, _ := startPool(t, 1, f)

	bad := enqueue(t, m, "bad")
	good := enqueue(t, m, "good")

	waitFor(t, func() bool { return statusOf(m, good) == domain.StatusCompleted })
	if statusOf(m, bad) != domain.StatusFailed {
		t.Errorf("Expected bad item failed, got %s", statusOf(m, bad))
	}
}
