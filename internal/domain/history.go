package domain

// HistoryRecord is the durable copy of an item that reached a terminal state.
type HistoryRecord struct {
	ID           string     `json:"id" db:"id"`
	TrackName    string     `json:"track_name" db:"track_name"`
	ArtistName   string     `json:"artist_name" db:"artist_name"`
	AlbumName    string     `json:"album_name" db:"album_name"`
	SourceID     string     `json:"spotify_id" db:"source_id"`
	Service      string     `json:"service" db:"service"`
	Kind         AssetKind  `json:"kind" db:"kind"`
	Format       string     `json:"format" db:"format"`
	Status       ItemStatus `json:"status" db:"status"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	FilePath     string     `json:"file_path,omitempty" db:"file_path"`
	TotalSize    int64      `json:"total_size" db:"total_size"`
	StartTime    int64      `json:"start_time" db:"start_time"`
	EndTime      int64      `json:"end_time" db:"end_time"`
	RecordedAt   int64      `json:"timestamp" db:"recorded_at"`
}

// FetchHistoryRecord records a metadata lookup, not a download.
type FetchHistoryRecord struct {
	ID        string `json:"id" db:"id"`
	URL       string `json:"url" db:"url"`
	Type      string `json:"type" db:"item_type"`
	Name      string `json:"name" db:"name"`
	Info      string `json:"info" db:"info"`
	Image     string `json:"image" db:"image"`
	Data      string `json:"data" db:"data"`
	Timestamp int64  `json:"timestamp" db:"timestamp"`
}

// Validate checks a fetch history record before it is stored.
func (r FetchHistoryRecord) Validate() error {
	var errs []ValidationError
	if r.Type == "" {
		errs = append(errs, ValidationError{Field: "type", Message: "is required"})
	}
	if r.URL == "" && r.Name == "" {
		errs = append(errs, ValidationError{Field: "url", Message: "url or name is required"})
	}
	if len(errs) > 0 {
		return &InvalidRequestError{Errors: errs}
	}
	return nil
}
