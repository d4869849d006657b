package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	db, err := NewSQLiteDB(tmpFile)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	cleanup := func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	}
	return db, cleanup
}

func TestDB_History(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewHistoryRepo(db)
	ctx := context.Background()

	first := domain.HistoryRecord{
		ID:         "a",
		TrackName:  "Song",
		ArtistName: "Artist",
		AlbumName:  "Album",
		SourceID:   "sp1",
		Service:    "http",
		Kind:       domain.KindTrack,
		Format:     "flac",
		Status:     domain.StatusCompleted,
		FilePath:   "/out/Song.flac",
		TotalSize:  2048,
		StartTime:  90,
		EndTime:    95,
		RecordedAt: 100,
	}
	second := domain.HistoryRecord{
		ID:           "b",
		TrackName:    "Other",
		ArtistName:   "Artist",
		Kind:         domain.KindLyrics,
		Status:       domain.StatusFailed,
		ErrorMessage: "timeout",
		RecordedAt:   200,
	}

	if err := repo.Append(ctx, first); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := repo.Append(ctx, second); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(list))
	}
	if list[0].ID != "b" {
		t.Errorf("Expected most recent first, got %s", list[0].ID)
	}
	if list[1] != first {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", list[1], first)
	}

	// Re-append overwrites rather than duplicates
	first.FilePath = "/out/moved.flac"
	if err := repo.Append(ctx, first); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 2 {
		t.Errorf("Expected idempotent append, got %d records", len(list))
	}
	for _, r := range list {
		if r.ID == "a" && r.FilePath != "/out/moved.flac" {
			t.Errorf("Expected overwrite, got %q", r.FilePath)
		}
	}

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 0 {
		t.Errorf("Expected empty history, got %d", len(list))
	}
}

func TestDB_FetchHistory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewFetchHistoryRepo(db)
	ctx := context.Background()

	records := []domain.FetchHistoryRecord{
		{ID: "1", URL: "https://open.spotify.com/album/1", Type: "album", Name: "Album One", Timestamp: 10},
		{ID: "2", URL: "https://open.spotify.com/album/2", Type: "album", Name: "Album Two", Timestamp: 20},
		{ID: "3", URL: "https://open.spotify.com/playlist/3", Type: "playlist", Name: "Mix", Data: `{"tracks":3}`, Timestamp: 30},
	}
	for _, r := range records {
		if err := repo.Append(ctx, r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 || list[0].ID != "3" || list[0].Data != `{"tracks":3}` {
		t.Fatalf("Unexpected list %+v", list)
	}

	if err := repo.DeleteByType(ctx, "album"); err != nil {
		t.Fatalf("DeleteByType failed: %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 1 || list[0].Type != "playlist" {
		t.Errorf("Expected only the playlist to remain, got %+v", list)
	}

	if err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "3"); err != nil {
		t.Errorf("Delete failed: %v", err)
	}

	_ = repo.Append(ctx, records[0])
	if err := repo.Clear(ctx); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 0 {
		t.Errorf("Expected empty fetch history, got %d", len(list))
	}
}

func TestDB_Settings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewSettingsRepo(db)
	ctx := context.Background()

	v, err := repo.Get(ctx, SettingUserPreferences)
	if err != nil || v != "" {
		t.Fatalf("Expected empty value for missing key, got %q, %v", v, err)
	}

	if err := repo.Set(ctx, SettingUserPreferences, `{"theme":"dark"}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := repo.Set(ctx, SettingUserPreferences, `{"theme":"light"}`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, _ = repo.Get(ctx, SettingUserPreferences)
	if v != `{"theme":"light"}` {
		t.Errorf("Expected upserted value, got %q", v)
	}

	if err := repo.Delete(ctx, SettingUserPreferences); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	v, _ = repo.Get(ctx, SettingUserPreferences)
	if v != "" {
		t.Errorf("Expected deleted value, got %q", v)
	}
}

func TestDB_Interfaces(t *testing.T) {
	var _ domain.HistoryStore = (*HistoryRepo)(nil)
	var _ domain.FetchHistoryStore = (*FetchHistoryRepo)(nil)
	var _ domain.SettingsStore = (*SettingsRepo)(nil)
}
