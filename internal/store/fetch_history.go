package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

type FetchHistoryRepo struct {
	db *DB
}

func NewFetchHistoryRepo(db *DB) *FetchHistoryRepo {
	return &FetchHistoryRepo{db: db}
}

func (r *FetchHistoryRepo) Append(ctx context.Context, rec domain.FetchHistoryRecord) error {
	query := `INSERT INTO fetch_history (id, url, item_type, name, info, image, data, timestamp)
		VALUES (:id, :url, :item_type, :name, :info, :image, :data, :timestamp)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			item_type = excluded.item_type,
			name = excluded.name,
			info = excluded.info,
			image = excluded.image,
			data = excluded.data,
			timestamp = excluded.timestamp`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to append fetch history %s: %w", rec.ID, err)
	}
	return nil
}

func (r *FetchHistoryRepo) List(ctx context.Context) ([]domain.FetchHistoryRecord, error) {
	query := `SELECT id, url, item_type, name, info, image, data, timestamp
		FROM fetch_history ORDER BY timestamp DESC, rowid DESC`

	records := []domain.FetchHistoryRecord{}
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list fetch history: %w", err)
	}
	return records, nil
}

func (r *FetchHistoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fetch_history WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fetch history %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// DeleteByType removes every record of one item type. Unknown types are a no-op.
func (r *FetchHistoryRepo) DeleteByType(ctx context.Context, itemType string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM fetch_history WHERE item_type = ?`, itemType)
	return err
}

func (r *FetchHistoryRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM fetch_history`)
	return err
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
