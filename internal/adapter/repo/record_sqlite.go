package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/sqlinline"
)

// RecordRepositorySQLite implements domain.RecordRepository on a database/sql
// handle opened with the modernc sqlite driver.
type RecordRepositorySQLite struct {
	db     *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

func NewRecordRepositorySQLite(db *sql.DB, logger zerolog.Logger) *RecordRepositorySQLite {
	return &RecordRepositorySQLite{db: db, logger: logger, now: time.Now}
}

// statement strips the audit marker and logs it, mirroring infra.SQLRunner.
func (r *RecordRepositorySQLite) statement(query, op string) (string, error) {
	marker, body, err := infra.ExtractMarker(query)
	if err != nil {
		return "", err
	}
	r.logger.Debug().Str("sql", marker).Msg(op)
	return body, nil
}

func (r *RecordRepositorySQLite) Create(ctx context.Context, record *domain.GenerationRecord) error {
	if err := prepareRecord(record); err != nil {
		return err
	}
	query, err := r.statement(sqlinline.QRecordInsertSQLite, "exec")
	if err != nil {
		return err
	}
	now := r.now().UTC().Truncate(time.Millisecond)
	if _, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Prompt,
		record.Model,
		record.Length,
		record.Shape,
		record.Decoration,
		record.Color,
		record.RefImage,
		string(record.Status),
		now.UnixMilli(),
		now.UnixMilli(),
	); err != nil {
		return fmt.Errorf("repo: insert record: %w", err)
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

func (r *RecordRepositorySQLite) Complete(ctx context.Context, id string, status domain.RecordStatus, images []string) error {
	images, err := completionImages(status, images)
	if err != nil {
		return err
	}
	raw, err := encodeImages(images)
	if err != nil {
		return err
	}
	query, err := r.statement(sqlinline.QRecordCompleteSQLite, "exec")
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, string(status), string(raw), r.now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("repo: complete record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	statusQuery, err := r.statement(sqlinline.QRecordStatusSQLite, "query_row")
	if err != nil {
		return err
	}
	var current string
	err = r.db.QueryRowContext(ctx, statusQuery, id).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("repo: record status: %w", err)
	}
	return finalizedOrMissing(err == nil)
}

func (r *RecordRepositorySQLite) GetByID(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	query, err := r.statement(sqlinline.QRecordGetSQLite, "query_row")
	if err != nil {
		return nil, err
	}
	record, err := scanSQLiteRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("repo: get record: %w", err)
	}
	return record, nil
}

func (r *RecordRepositorySQLite) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	query, err := r.statement(sqlinline.QRecordListRecentSQLite, "query")
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, domain.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("repo: list records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()
	out := []domain.GenerationRecord{}
	for rows.Next() {
		record, err := scanSQLiteRecord(rows)
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

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row sqlScanner) (*domain.GenerationRecord, error) {
	var (
		record             domain.GenerationRecord
		status, raw        string
		createdMs, updated int64
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
		&createdMs,
		&updated,
	); err != nil {
		return nil, err
	}
	images, err := decodeImages([]byte(raw))
	if err != nil {
		return nil, err
	}
	record.Status = domain.RecordStatus(status)
	record.Images = images
	record.CreatedAt = time.UnixMilli(createdMs).UTC()
	record.UpdatedAt = time.UnixMilli(updated).UTC()
	return &record, nil
}

var _ domain.RecordRepository = (*RecordRepositorySQLite)(nil)
