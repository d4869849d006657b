package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type ItemStatus string

const (
	StatusQueued      ItemStatus = "queued"
	StatusDownloading ItemStatus = "downloading"
	StatusCompleted   ItemStatus = "completed"
	StatusFailed      ItemStatus = "failed"
	StatusSkipped     ItemStatus = "skipped"
)

// IsTerminal reports whether no further transition is possible out of s.
func (s ItemStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// CanTransition reports whether the item state machine allows from -> to.
func CanTransition(from, to ItemStatus) bool {
	switch from {
	case StatusQueued:
		return to == StatusDownloading || to == StatusSkipped
	case StatusDownloading:
		return to.IsTerminal()
	}
	return false
}

// AssetKind is the kind of media asset an item retrieves.
type AssetKind string

const (
	KindTrack   AssetKind = "track"
	KindLyrics  AssetKind = "lyrics"
	KindCover   AssetKind = "cover"
	KindAvatar  AssetKind = "avatar"
	KindHeader  AssetKind = "header"
	KindGallery AssetKind = "gallery"
)

func (k AssetKind) Valid() bool {
	switch k {
	case KindTrack, KindLyrics, KindCover, KindAvatar, KindHeader, KindGallery:
		return true
	}
	return false
}

// DownloadItem is a unit of work in the live queue.
type DownloadItem struct {
	Request FetchRequest `json:"-"`

	StartTime    time.Time  `json:"-"`
	EndTime      time.Time  `json:"-"`
	ID           string     `json:"id"`
	TrackName    string     `json:"track_name"`
	ArtistName   string     `json:"artist_name"`
	AlbumName    string     `json:"album_name"`
	SourceID     string     `json:"spotify_id"`
	Service      string     `json:"service"`
	Kind         AssetKind  `json:"kind"`
	Status       ItemStatus `json:"status"`
	ErrorMessage string     `json:"error_message"`
	FilePath     string     `json:"file_path"`
	Progress     float64    `json:"progress"`
	Speed        float64    `json:"speed"`
	TotalSize    int64      `json:"total_size"`
	Downloaded   int64      `json:"downloaded"`
}

// MarshalJSON renders timestamps as unix seconds, 0 when unset.
func (i DownloadItem) MarshalJSON() ([]byte, error) {
	type plain DownloadItem
	return json.Marshal(struct {
		plain
		StartTime int64 `json:"start_time"`
		EndTime   int64 `json:"end_time"`
	}{
		plain:     plain(i),
		StartTime: unixOrZero(i.StartTime),
		EndTime:   unixOrZero(i.EndTime),
	})
}

// DownloadRequest is the admission input. Service specific fields are carried
// through to the fetch collaborator untouched.
type DownloadRequest struct {
	TrackName          string    `json:"track_name"`
	ArtistName         string    `json:"artist_name"`
	AlbumName          string    `json:"album_name"`
	AlbumArtist        string    `json:"album_artist,omitempty"`
	SourceID           string    `json:"spotify_id"`
	Service            string    `json:"service,omitempty"`
	Kind               AssetKind `json:"kind,omitempty"`
	SourceURL          string    `json:"source_url,omitempty"`
	CoverURL           string    `json:"cover_url,omitempty"`
	Format             string    `json:"audio_format,omitempty"`
	ReleaseDate        string    `json:"release_date,omitempty"`
	Position           int       `json:"position,omitempty"`
	DiscNumber         int       `json:"disc_number,omitempty"`
	UseFirstArtistOnly bool      `json:"use_first_artist_only,omitempty"`
}

// Validate checks the descriptive fields required for admission.
func (r DownloadRequest) Validate() error {
	var errs []ValidationError
	if strings.TrimSpace(r.TrackName) == "" {
		errs = append(errs, ValidationError{Field: "track_name", Message: "is required"})
	}
	if strings.TrimSpace(r.ArtistName) == "" {
		errs = append(errs, ValidationError{Field: "artist_name", Message: "is required"})
	}
	if r.Kind != "" && !r.Kind.Valid() {
		errs = append(errs, ValidationError{Field: "kind", Message: "unknown asset kind"})
	}
	if r.Position < 0 {
		errs = append(errs, ValidationError{Field: "position", Message: "must not be negative"})
	}
	if len(errs) > 0 {
		return &InvalidRequestError{Errors: errs}
	}
	return nil
}

// FetchRequest builds the descriptor handed to the fetch collaborator.
func (r DownloadRequest) FetchRequest() FetchRequest {
	return FetchRequest{
		TrackName:   r.TrackName,
		ArtistName:  r.ArtistName,
		AlbumName:   r.AlbumName,
		AlbumArtist: r.AlbumArtist,
		SourceID:    r.SourceID,
		Service:     r.Service,
		Kind:        r.Kind,
		SourceURL:   r.SourceURL,
		CoverURL:    r.CoverURL,
		Format:      r.Format,
		ReleaseDate: r.ReleaseDate,
		Position:    r.Position,
		DiscNumber:  r.DiscNumber,
	}
}

// HistoryRecord returns the immutable history copy of a terminal item.
func (i DownloadItem) HistoryRecord(recordedAt time.Time) HistoryRecord {
	return HistoryRecord{
		ID:           i.ID,
		TrackName:    i.TrackName,
		ArtistName:   i.ArtistName,
		AlbumName:    i.AlbumName,
		SourceID:     i.SourceID,
		Service:      i.Service,
		Kind:         i.Kind,
		Format:       i.Request.Format,
		Status:       i.Status,
		ErrorMessage: i.ErrorMessage,
		FilePath:     i.FilePath,
		TotalSize:    i.TotalSize,
		StartTime:    unixOrZero(i.StartTime),
		EndTime:      unixOrZero(i.EndTime),
		RecordedAt:   recordedAt.Unix(),
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
