// Package queue owns the live download queue. Every mutation of an item
// passes through Manager so that workers, API calls and readers all observe
// the same serialized state.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/metrics"
)

// Publisher receives every transition the manager makes. Publish is called
// with the manager lock held for admission, claim and progress events, so it
// must not block or call back into the Manager.
type Publisher interface {
	Publish(ev domain.Event)
}

type Manager struct {
	sessionStart time.Time
	bus          Publisher
	history      domain.HistoryStore
	logger       *logger.Logger
	now          func() time.Time
	index        map[string]*domain.DownloadItem
	notify       chan struct{}
	items        []*domain.DownloadItem
	clearedBytes int64
	mu           sync.RWMutex
}

// NewManager builds an empty queue. history may be nil, in which case
// terminal items are only kept in the live view.
func NewManager(bus Publisher, history domain.HistoryStore, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		bus:     bus,
		history: history,
		logger:  log.WithComponent("queue"),
		now:     time.Now,
		index:   make(map[string]*domain.DownloadItem),
		notify:  make(chan struct{}),
	}
}

func (m *Manager) publish(ev domain.Event) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
}

// wake releases every Claim blocked on an empty queue. Caller holds m.mu.
func (m *Manager) wake() {
	close(m.notify)
	m.notify = make(chan struct{})
}

// Enqueue admits a request as a new queued item and returns its id.
func (m *Manager) Enqueue(req domain.DownloadRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if req.Kind == "" {
		req.Kind = domain.KindTrack
	}

	item := &domain.DownloadItem{
		ID:         uuid.New().String(),
		TrackName:  req.TrackName,
		ArtistName: req.ArtistName,
		AlbumName:  req.AlbumName,
		SourceID:   req.SourceID,
		Service:    req.Service,
		Kind:       req.Kind,
		Status:     domain.StatusQueued,
		Request:    req.FetchRequest(),
	}
	item.Request.ItemID = item.ID

	m.mu.Lock()
	m.items = append(m.items, item)
	m.index[item.ID] = item
	if m.sessionStart.IsZero() {
		m.sessionStart = m.now()
	}
	// Published before any worker can claim the item.
	m.publish(domain.Event{
		Type:    domain.EventQueued,
		ItemID:  item.ID,
		Status:  domain.EventStatusQueued,
		Message: constants.MessageQueued,
	})
	m.wake()
	m.mu.Unlock()

	m.logger.WithItem(item.ID, item.TrackName).Info("Item enqueued", "artist", item.ArtistName, "service", item.Service, "kind", item.Kind)
	return item.ID, nil
}

// Claim moves the oldest queued item to downloading and returns a copy of it.
// It blocks until an item is available or ctx is done.
func (m *Manager) Claim(ctx context.Context) (domain.DownloadItem, error) {
	for {
		m.mu.Lock()
		for _, it := range m.items {
			if it.Status != domain.StatusQueued {
				continue
			}
			it.Status = domain.StatusDownloading
			it.StartTime = m.now()
			it.Progress = 0
			claimed := *it
			m.publish(domain.Event{
				Type:    domain.EventProgress,
				ItemID:  claimed.ID,
				Status:  domain.EventStatusDownloading,
				Message: constants.MessageStarting,
			})
			m.mu.Unlock()

			m.logger.WithItem(claimed.ID, claimed.TrackName).Debug("Item claimed")
			return claimed, nil
		}
		wait := m.notify
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.DownloadItem{}, ctx.Err()
		case <-wait:
		}
	}
}

// UpdateProgress records a collaborator progress callback on a downloading item.
// Percent is clamped to [0,100] and never moves backwards.
func (m *Manager) UpdateProgress(id string, p domain.Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.index[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	if it.Status != domain.StatusDownloading {
		return fmt.Errorf("item %s is %s: %w", id, it.Status, domain.ErrInvalidTransition)
	}

	pct := min(max(p.Percent, 0), 100)
	if pct > it.Progress {
		it.Progress = pct
	}
	if p.Speed >= 0 {
		it.Speed = p.Speed
	}
	if p.TotalSize > 0 {
		it.TotalSize = p.TotalSize
	}
	if p.Downloaded > it.Downloaded {
		it.Downloaded = p.Downloaded
	}
	return nil
}

// PublishProgress emits the current progress of a downloading item.
func (m *Manager) PublishProgress(id string) {
	m.mu.RLock()
	it, ok := m.index[id]
	if !ok || it.Status != domain.StatusDownloading {
		m.mu.RUnlock()
		return
	}
	ev := domain.Event{
		Type:    domain.EventProgress,
		ItemID:  it.ID,
		Status:  domain.EventStatusDownloading,
		Percent: it.Progress,
		Speed:   it.Speed,
		Message: fmt.Sprintf("%.1f%%", it.Progress),
	}
	m.publish(ev)
	m.mu.RUnlock()
}

// Complete finishes a downloading item successfully.
func (m *Manager) Complete(ctx context.Context, id, filePath string, size int64) error {
	return m.finish(ctx, id, domain.StatusDownloading, domain.StatusCompleted, func(it *domain.DownloadItem) domain.Event {
		it.FilePath = filePath
		if size > 0 {
			it.TotalSize = size
		}
		it.Downloaded = it.TotalSize
		it.Progress = 100
		return domain.Event{
			Type:    domain.EventCompleted,
			ItemID:  it.ID,
			Status:  domain.EventStatusCompleted,
			Percent: 100,
			Message: constants.MessageCompleted,
		}
	})
}

// Skip finishes a downloading item whose asset was already present.
func (m *Manager) Skip(ctx context.Context, id, filePath string) error {
	return m.finish(ctx, id, domain.StatusDownloading, domain.StatusSkipped, alreadyExists(filePath))
}

// SkipQueued marks a still queued item as already present without running it.
func (m *Manager) SkipQueued(ctx context.Context, id, filePath string) error {
	return m.finish(ctx, id, domain.StatusQueued, domain.StatusSkipped, alreadyExists(filePath))
}

func alreadyExists(filePath string) func(*domain.DownloadItem) domain.Event {
	return func(it *domain.DownloadItem) domain.Event {
		it.FilePath = filePath
		it.Progress = 100
		return domain.Event{
			Type:          domain.EventCompleted,
			ItemID:        it.ID,
			Status:        domain.EventStatusExists,
			Percent:       100,
			Message:       constants.MessageAlreadyExists,
			AlreadyExists: true,
		}
	}
}

// Fail finishes a downloading item with an error message.
func (m *Manager) Fail(ctx context.Context, id, message string) error {
	return m.finish(ctx, id, domain.StatusDownloading, domain.StatusFailed, func(it *domain.DownloadItem) domain.Event {
		it.ErrorMessage = message
		return domain.Event{
			Type:    domain.EventFailed,
			ItemID:  it.ID,
			Status:  domain.EventStatusFailed,
			Percent: it.Progress,
			Message: message,
		}
	})
}

// finish applies a terminal transition under the lock, then records history
// and publishes outside it. A history failure comes back as a
// *domain.HistoryWriteWarning after the transition has taken effect.
func (m *Manager) finish(ctx context.Context, id string, from, to domain.ItemStatus, apply func(*domain.DownloadItem) domain.Event) error {
	m.mu.Lock()
	it, ok := m.index[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	if it.Status != from || !domain.CanTransition(it.Status, to) {
		status := it.Status
		m.mu.Unlock()
		return fmt.Errorf("item %s is %s, cannot become %s: %w", id, status, to, domain.ErrInvalidTransition)
	}
	it.Status = to
	it.EndTime = m.now()
	it.Speed = 0
	ev := apply(it)
	done := *it
	m.mu.Unlock()

	log := m.logger.WithItem(done.ID, done.TrackName)
	log.Info("Item finished", "status", done.Status, "file_path", done.FilePath, "error", done.ErrorMessage)

	err := m.record(ctx, done)
	m.publish(ev)
	return err
}

func (m *Manager) record(ctx context.Context, it domain.DownloadItem) error {
	if m.history == nil {
		return nil
	}
	if err := m.history.Append(ctx, it.HistoryRecord(m.now())); err != nil {
		metrics.HistoryWriteWarnings.Inc()
		m.logger.WithItem(it.ID, it.TrackName).Warn("Failed to write history", "error", err)
		return &domain.HistoryWriteWarning{ItemID: it.ID, Err: err}
	}
	return nil
}

// CancelQueued skips every item that is queued right now. Items already
// claimed by a worker are untouched.
func (m *Manager) CancelQueued(ctx context.Context) (int, error) {
	m.mu.Lock()
	var cancelled []domain.DownloadItem
	now := m.now()
	for _, it := range m.items {
		if it.Status != domain.StatusQueued {
			continue
		}
		it.Status = domain.StatusSkipped
		it.EndTime = now
		cancelled = append(cancelled, *it)
	}
	m.mu.Unlock()

	var warnings []error
	for _, it := range cancelled {
		if err := m.record(ctx, it); err != nil {
			warnings = append(warnings, err)
		}
		m.publish(domain.Event{
			Type:    domain.EventSkipped,
			ItemID:  it.ID,
			Status:  domain.EventStatusSkipped,
			Message: constants.MessageCancelled,
		})
	}

	if len(cancelled) > 0 {
		m.logger.Info("Cancelled queued items", "count", len(cancelled))
	}
	return len(cancelled), errors.Join(warnings...)
}

// ClearCompleted drops terminal items from the live view. History is kept.
func (m *Manager) ClearCompleted() int {
	return m.purge(false, func(it *domain.DownloadItem) bool {
		return it.Status.IsTerminal()
	})
}

// ClearAll drops every item that is not downloading. When nothing is left the
// session counters start over.
func (m *Manager) ClearAll() int {
	return m.purge(true, func(it *domain.DownloadItem) bool {
		return it.Status != domain.StatusDownloading
	})
}

func (m *Manager) purge(resetSession bool, drop func(*domain.DownloadItem) bool) int {
	m.mu.Lock()
	kept := m.items[:0]
	removed := 0
	for _, it := range m.items {
		if !drop(it) {
			kept = append(kept, it)
			continue
		}
		if it.Status == domain.StatusCompleted {
			m.clearedBytes += it.TotalSize
		}
		delete(m.index, it.ID)
		removed++
	}
	clear(m.items[len(kept):])
	m.items = kept

	reset := resetSession && len(m.items) == 0
	if reset {
		m.sessionStart = time.Time{}
		m.clearedBytes = 0
	}
	m.mu.Unlock()

	m.logger.Info("Queue cleared", "removed", removed, "session_reset", reset)
	m.publish(domain.Event{
		Type:    domain.EventCleared,
		Message: fmt.Sprintf("Removed %d items", removed),
	})
	return removed
}

// Get returns a copy of one live item.
func (m *Manager) Get(id string) (domain.DownloadItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.index[id]
	if !ok {
		return domain.DownloadItem{}, fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return *it, nil
}
