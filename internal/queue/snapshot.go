package queue

import (
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

// Snapshot derives every aggregate from the live items under one read lock.
func (m *Manager) Snapshot() domain.QueueSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := domain.QueueSnapshot{
		Queue:           make([]domain.DownloadItem, 0, len(m.items)),
		TotalDownloaded: m.clearedBytes,
	}
	if !m.sessionStart.IsZero() {
		s.SessionStartTime = m.sessionStart.Unix()
	}

	for _, it := range m.items {
		s.Queue = append(s.Queue, *it)
		switch it.Status {
		case domain.StatusQueued:
			s.QueuedCount++
		case domain.StatusDownloading:
			s.DownloadingCount++
			s.CurrentSpeed += it.Speed
		case domain.StatusCompleted:
			s.CompletedCount++
			s.TotalDownloaded += it.TotalSize
		case domain.StatusFailed:
			s.FailedCount++
		case domain.StatusSkipped:
			s.SkippedCount++
		}
	}
	s.IsDownloading = s.DownloadingCount > 0
	return s
}
