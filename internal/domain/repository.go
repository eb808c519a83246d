package domain

import "context"

// DefaultHistoryLimit caps ListRecent results.
const DefaultHistoryLimit = 100

// RecordRepository persists generation records.
type RecordRepository interface {
	// Create assigns ID and timestamps and stores the record as processing.
	Create(ctx context.Context, record *GenerationRecord) error
	// Complete performs the single terminal write. A record that is no longer
	// processing yields ErrRecordFinalized.
	Complete(ctx context.Context, id string, status RecordStatus, images []string) error
	GetByID(ctx context.Context, id string) (*GenerationRecord, error)
	// ListRecent returns records newest first.
	ListRecent(ctx context.Context, limit int) ([]GenerationRecord, error)
}

// ClampHistoryLimit bounds a requested history size to (0, DefaultHistoryLimit].
func ClampHistoryLimit(limit int) int {
	if limit <= 0 || limit > DefaultHistoryLimit {
		return DefaultHistoryLimit
	}
	return limit
}
