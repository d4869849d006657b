package store

import (
	"context"
	"fmt"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

const historyColumns = `id, track_name, artist_name, album_name, source_id, service, kind, format,
	status, error_message, file_path, total_size, start_time, end_time, recorded_at`

type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append overwrites any record with the same id.
func (r *HistoryRepo) Append(ctx context.Context, rec domain.HistoryRecord) error {
	query := `INSERT INTO download_history (` + historyColumns + `)
		VALUES (:id, :track_name, :artist_name, :album_name, :source_id, :service, :kind, :format,
			:status, :error_message, :file_path, :total_size, :start_time, :end_time, :recorded_at)
		ON CONFLICT(id) DO UPDATE SET
			track_name = excluded.track_name,
			artist_name = excluded.artist_name,
			album_name = excluded.album_name,
			source_id = excluded.source_id,
			service = excluded.service,
			kind = excluded.kind,
			format = excluded.format,
			status = excluded.status,
			error_message = excluded.error_message,
			file_path = excluded.file_path,
			total_size = excluded.total_size,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			recorded_at = excluded.recorded_at`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to append history %s: %w", rec.ID, err)
	}
	return nil
}

func (r *HistoryRepo) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	query := `SELECT ` + historyColumns + ` FROM download_history ORDER BY recorded_at DESC, rowid DESC`

	records := []domain.HistoryRecord{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return records, nil
}

func (r *HistoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM download_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete history %s: %w", id, err)
	}
	return requireAffected(res, id)
}

func (r *HistoryRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM download_history`)
	return err
}
