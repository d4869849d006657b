package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("db.Close error: %v", err)
		}
	})
	return db
}

func setupHistoryService(t *testing.T) *HistoryService {
	db := openTestDB(t)
	return NewHistoryService(store.NewHistoryRepo(db), store.NewFetchHistoryRepo(db), store.NewSettingsRepo(db), logger.Discard())
}

func TestHistoryService_Downloads(t *testing.T) {
	svc := setupHistoryService(t)
	ctx := context.Background()

	records, err := svc.ListDownloads(ctx)
	if err != nil {
		t.Fatalf("ListDownloads failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("Expected empty non-nil list, got %v", records)
	}

	if err := svc.DeleteDownload(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := svc.ClearDownloads(ctx); err != nil {
		t.Errorf("ClearDownloads failed: %v", err)
	}
}

func TestHistoryService_Fetches(t *testing.T) {
	svc := setupHistoryService(t)
	ctx := context.Background()

	if _, err := svc.AddFetch(ctx, domain.FetchHistoryRecord{Name: "x"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("Expected ErrInvalidRequest for missing type, got %v", err)
	}

	album, err := svc.AddFetch(ctx, domain.FetchHistoryRecord{Type: "album", Name: "Album", URL: "https://example.com/a"})
	if err != nil {
		t.Fatalf("AddFetch failed: %v", err)
	}
	if album.ID == "" || album.Timestamp == 0 {
		t.Errorf("Expected id and timestamp to be assigned, got %+v", album)
	}
	if _, err := svc.AddFetch(ctx, domain.FetchHistoryRecord{ID: "fixed", Type: "playlist", Name: "Mix"}); err != nil {
		t.Fatalf("AddFetch failed: %v", err)
	}

	if err := svc.DeleteFetchesByType(ctx, ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for empty type, got %v", err)
	}
	if err := svc.DeleteFetchesByType(ctx, "album"); err != nil {
		t.Fatalf("DeleteFetchesByType failed: %v", err)
	}

	records, err := svc.ListFetches(ctx)
	if err != nil {
		t.Fatalf("ListFetches failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "fixed" {
		t.Errorf("Expected only the playlist record, got %+v", records)
	}

	if err := svc.DeleteFetch(ctx, "fixed"); err != nil {
		t.Errorf("DeleteFetch failed: %v", err)
	}
	if err := svc.DeleteFetch(ctx, "fixed"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestHistoryService_Settings(t *testing.T) {
	svc := setupHistoryService(t)
	ctx := context.Background()

	raw, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("Expected empty object, got %s", raw)
	}

	if err := svc.SaveSettings(ctx, []byte(`[1,2]`)); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for array, got %v", err)
	}
	if err := svc.SaveSettings(ctx, []byte(`{"theme":"dark"}`)); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	raw, _ = svc.Settings(ctx)
	if string(raw) != `{"theme":"dark"}` {
		t.Errorf("Unexpected settings %s", raw)
	}
}
