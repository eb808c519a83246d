package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/sqlinline"
)

// RecordRepositoryPG implements domain.RecordRepository on PostgreSQL.
type RecordRepositoryPG struct {
	db infra.SQLExecutor
}

// NewRecordRepository creates a record repository backed by PostgreSQL. db is
// usually an *infra.SQLRunner so statements are logged under their marker.
func NewRecordRepository(db infra.SQLExecutor) *RecordRepositoryPG {
	return &RecordRepositoryPG{db: db}
}

func (r *RecordRepositoryPG) Create(ctx context.Context, record *domain.GenerationRecord) error {
	if err := prepareRecord(record); err != nil {
		return err
	}
	row := r.db.QueryRow(ctx, sqlinline.QRecordInsert,
		record.ID,
		record.Prompt,
		record.Model,
		record.Length,
		record.Shape,
		record.Decoration,
		record.Color,
		record.RefImage,
		string(record.Status),
	)
	if err := row.Scan(&record.CreatedAt, &record.UpdatedAt); err != nil {
		return fmt.Errorf("repo: insert record: %w", err)
	}
	return nil
}

func (r *RecordRepositoryPG) Complete(ctx context.Context, id string, status domain.RecordStatus, images []string) error {
	images, err := completionImages(status, images)
	if err != nil {
		return err
	}
	raw, err := encodeImages(images)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, sqlinline.QRecordComplete, id, string(status), string(raw))
	if err != nil {
		return fmt.Errorf("repo: complete record: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var current string
	err = r.db.QueryRow(ctx, sqlinline.QRecordStatus, id).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("repo: record status: %w", err)
	}
	return finalizedOrMissing(err == nil)
}

func (r *RecordRepositoryPG) GetByID(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	record, err := scanRecord(r.db.QueryRow(ctx, sqlinline.QRecordGet, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: get record: %w", err)
	}
	return record, nil
}

func (r *RecordRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	rows, err := r.db.Query(ctx, sqlinline.QRecordListRecent, domain.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("repo: list records: %w", err)
	}
	defer rows.Close()
	out := []domain.GenerationRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("repo: scan record: %w", err)
		}
		out = append(out, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list records: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*domain.GenerationRecord, error) {
	var (
		record domain.GenerationRecord
		status string
		raw    []byte
	)
	if err := row.Scan(
		&record.ID,
		&record.Prompt,
		&record.Model,
		&record.Length,
		&record.Shape,
		&record.Decoration,
		&record.Color,
		&record.RefImage,
		&status,
		&raw,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	images, err := decodeImages(raw)
	if err != nil {
		return nil, err
	}
	record.Status = domain.RecordStatus(status)
	record.Images = images
	return &record, nil
}

var _ domain.RecordRepository = (*RecordRepositoryPG)(nil)
