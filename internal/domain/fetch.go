package domain

// FetchRequest is the descriptor passed to the external fetch collaborator.
type FetchRequest struct {
	ItemID      string    `json:"item_id"`
	TrackName   string    `json:"track_name"`
	ArtistName  string    `json:"artist_name"`
	AlbumName   string    `json:"album_name"`
	AlbumArtist string    `json:"album_artist,omitempty"`
	SourceID    string    `json:"spotify_id,omitempty"`
	Service     string    `json:"service"`
	Kind        AssetKind `json:"kind"`
	SourceURL   string    `json:"source_url,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Format      string    `json:"audio_format,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Position    int       `json:"position,omitempty"`
	DiscNumber  int       `json:"disc_number,omitempty"`
}

type FetchOutcome string

const (
	OutcomeSuccess       FetchOutcome = "success"
	OutcomeAlreadyExists FetchOutcome = "already_exists"
	OutcomeFailure       FetchOutcome = "failure"
)

// FetchResult is the single terminal outcome reported by a collaborator.
type FetchResult struct {
	Outcome  FetchOutcome
	FilePath string
	Message  string
	Size     int64
}

func Success(path string, size int64) FetchResult {
	return FetchResult{Outcome: OutcomeSuccess, FilePath: path, Size: size}
}

func AlreadyExists(path string) FetchResult {
	return FetchResult{Outcome: OutcomeAlreadyExists, FilePath: path}
}

func Failure(message string) FetchResult {
	return FetchResult{Outcome: OutcomeFailure, Message: message}
}

// Progress is a collaborator progress callback payload.
// Sizes are bytes, Speed is MB/s.
type Progress struct {
	Percent    float64
	Speed      float64
	Downloaded int64
	TotalSize  int64
}

type ProgressFunc func(Progress)
