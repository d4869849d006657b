package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

// FailedEntry is one failed download in an export.
type FailedEntry struct {
	ID           string `json:"id"`
	TrackName    string `json:"track_name"`
	ArtistName   string `json:"artist_name"`
	AlbumName    string `json:"album_name"`
	SourceID     string `json:"spotify_id"`
	ErrorMessage string `json:"error_message"`
}

// FailedReport lists every failed item known to the live queue or history.
type FailedReport struct {
	ExportedAt time.Time
	Items      []FailedEntry
}

func (r FailedReport) Message() string {
	if len(r.Items) == 0 {
		return "No failed downloads to export"
	}
	return fmt.Sprintf("Exported %d failed downloads", len(r.Items))
}

// Text renders the report in the plain format users paste into issue trackers.
func (r FailedReport) Text() string {
	if len(r.Items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("# Failed Downloads\n")
	fmt.Fprintf(&b, "# Exported: %s\n\n", r.ExportedAt.Format("2006-01-02 15:04:05"))
	for _, it := range r.Items {
		fmt.Fprintf(&b, "Track: %s\n", it.TrackName)
		fmt.Fprintf(&b, "Artist: %s\n", it.ArtistName)
		fmt.Fprintf(&b, "Album: %s\n", it.AlbumName)
		fmt.Fprintf(&b, "Spotify ID: %s\n", it.SourceID)
		fmt.Fprintf(&b, "Error: %s\n", it.ErrorMessage)
		b.WriteString("---\n\n")
	}
	return b.String()
}

// ExportFailed merges failed items from the live queue and history, live
// entries first, without duplicates. It never mutates state.
func (m *Manager) ExportFailed(ctx context.Context) (FailedReport, error) {
	report := FailedReport{ExportedAt: m.now()}
	seen := make(map[string]bool)

	m.mu.RLock()
	for _, it := range m.items {
		if it.Status != domain.StatusFailed {
			continue
		}
		seen[it.ID] = true
		report.Items = append(report.Items, FailedEntry{
			ID:           it.ID,
			TrackName:    it.TrackName,
			ArtistName:   it.ArtistName,
			AlbumName:    it.AlbumName,
			SourceID:     it.SourceID,
			ErrorMessage: it.ErrorMessage,
		})
	}
	m.mu.RUnlock()

	if m.history == nil {
		return report, nil
	}
	records, err := m.history.List(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list history: %w", err)
	}
	for _, rec := range records {
		if rec.Status != domain.StatusFailed || seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		report.Items = append(report.Items, FailedEntry{
			ID:           rec.ID,
			TrackName:    rec.TrackName,
			ArtistName:   rec.ArtistName,
			AlbumName:    rec.AlbumName,
			SourceID:     rec.SourceID,
			ErrorMessage: rec.ErrorMessage,
		})
	}
	return report, nil
}
