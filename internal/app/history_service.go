package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/logger"
	"github.com/Paidguy/SpotiFLAC-web/internal/store"
)

// HistoryService fronts the download history, fetch history and settings stores.
type HistoryService struct {
	downloads domain.HistoryStore
	fetches   domain.FetchHistoryStore
	settings  domain.SettingsStore
	Logger    *logger.Logger
	now       func() time.Time
}

func NewHistoryService(downloads domain.HistoryStore, fetches domain.FetchHistoryStore, settings domain.SettingsStore, log *logger.Logger) *HistoryService {
	if log == nil {
		log = logger.Default()
	}
	return &HistoryService{
		downloads: downloads,
		fetches:   fetches,
		settings:  settings,
		Logger:    log.WithComponent("history_service"),
		now:       time.Now,
	}
}

func (s *HistoryService) ListDownloads(ctx context.Context) ([]domain.HistoryRecord, error) {
	records, err := s.downloads.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list download history: %w", err)
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	return records, nil
}

func (s *HistoryService) DeleteDownload(ctx context.Context, id string) error {
	if err := s.downloads.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("Deleted download history record", "id", id)
	return nil
}

func (s *HistoryService) ClearDownloads(ctx context.Context) error {
	if err := s.downloads.Clear(ctx); err != nil {
		return err
	}
	s.Logger.Info("Cleared download history")
	return nil
}

// AddFetch stores a lookup record, assigning an id and timestamp when missing.
func (s *HistoryService) AddFetch(ctx context.Context, rec domain.FetchHistoryRecord) (domain.FetchHistoryRecord, error) {
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = s.now().UnixMilli()
	}
	if err := s.fetches.Append(ctx, rec); err != nil {
		return rec, fmt.Errorf("failed to save fetch history: %w", err)
	}
	return rec, nil
}

func (s *HistoryService) ListFetches(ctx context.Context) ([]domain.FetchHistoryRecord, error) {
	records, err := s.fetches.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetch history: %w", err)
	}
	if records == nil {
		records = []domain.FetchHistoryRecord{}
	}
	return records, nil
}

func (s *HistoryService) DeleteFetch(ctx context.Context, id string) error {
	return s.fetches.Delete(ctx, id)
}

func (s *HistoryService) DeleteFetchesByType(ctx context.Context, itemType string) error {
	if itemType == "" {
		return &domain.InvalidRequestError{Errors: []domain.ValidationError{{Field: "type", Message: "is required"}}}
	}
	if err := s.fetches.DeleteByType(ctx, itemType); err != nil {
		return err
	}
	s.Logger.Info("Deleted fetch history by type", "type", itemType)
	return nil
}

func (s *HistoryService) ClearFetches(ctx context.Context) error {
	return s.fetches.Clear(ctx)
}

// Settings returns the stored preferences object, {} when nothing is saved.
func (s *HistoryService) Settings(ctx context.Context) (json.RawMessage, error) {
	raw, err := s.settings.Get(ctx, store.SettingUserPreferences)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if raw == "" {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(raw), nil
}

// SaveSettings replaces the stored preferences. Only JSON objects are accepted.
func (s *HistoryService) SaveSettings(ctx context.Context, raw json.RawMessage) error {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return &domain.InvalidRequestError{Errors: []domain.ValidationError{{Field: "settings", Message: "must be a JSON object"}}}
	}
	if err := s.settings.Set(ctx, store.SettingUserPreferences, string(raw)); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
