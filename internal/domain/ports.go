package domain

import "context"

// HistoryStore is the append-only record of terminal downloads.
// Append is idempotent by id; List returns the most recent first.
type HistoryStore interface {
	Append(ctx context.Context, rec HistoryRecord) error
	List(ctx context.Context) ([]HistoryRecord, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// FetchHistoryStore records metadata lookups, kept apart from download history.
type FetchHistoryStore interface {
	Append(ctx context.Context, rec FetchHistoryRecord) error
	List(ctx context.Context) ([]FetchHistoryRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteByType(ctx context.Context, itemType string) error
	Clear(ctx context.Context) error
}

// SettingsStore keeps opaque user settings by key.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
