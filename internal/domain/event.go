package domain

type EventType string

const (
	EventQueued    EventType = "download:queued"
	EventProgress  EventType = "download:progress"
	EventCompleted EventType = "download:completed"
	EventFailed    EventType = "download:failed"
	EventSkipped   EventType = "download:skipped"
	EventCleared   EventType = "queue:cleared"
)

// Event status values seen by observers. EventStatusExists marks the
// already-present outcome of a completed fetch.
const (
	EventStatusQueued      = "queued"
	EventStatusDownloading = "downloading"
	EventStatusCompleted   = "completed"
	EventStatusFailed      = "failed"
	EventStatusExists      = "exists"
	EventStatusSkipped     = "skipped"
)

// Event is the small serializable payload published for each transition.
type Event struct {
	Type          EventType `json:"type"`
	ItemID        string    `json:"item_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Message       string    `json:"message,omitempty"`
	Percent       float64   `json:"percent"`
	Speed         float64   `json:"speed"`
	AlreadyExists bool      `json:"already_exists,omitempty"`
}
