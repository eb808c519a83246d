package repo

import (
	"context"
	"sync"
	"time"

	"github.com/bardoun7894/basplast/internal/domain"
)

// RecordRepositoryMemory keeps records in process memory. Used for
// RECORD_STORE=memory and in tests.
type RecordRepositoryMemory struct {
	mu      sync.RWMutex
	records map[string]*domain.GenerationRecord
	order   []string
	now     func() time.Time
}

func NewRecordRepositoryMemory() *RecordRepositoryMemory {
	return &RecordRepositoryMemory{records: make(map[string]*domain.GenerationRecord), now: time.Now}
}

func (r *RecordRepositoryMemory) Create(ctx context.Context, record *domain.GenerationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepareRecord(record); err != nil {
		return err
	}
	now := r.now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneRecord(*record)
	r.records[record.ID] = &stored
	r.order = append(r.order, record.ID)
	return nil
}

func (r *RecordRepositoryMemory) Complete(ctx context.Context, id string, status domain.RecordStatus, images []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	images, err := completionImages(status, images)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status != domain.RecordStatusProcessing {
		return finalizedOrMissing(ok)
	}
	rec.Status = status
	rec.Images = images
	rec.UpdatedAt = r.now().UTC()
	return nil
}

func (r *RecordRepositoryMemory) GetByID(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneRecord(*rec)
	return &out, nil
}

func (r *RecordRepositoryMemory) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = domain.ClampHistoryLimit(limit)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.GenerationRecord, 0, min(limit, len(r.order)))
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneRecord(*r.records[r.order[i]]))
	}
	return out, nil
}

func cloneRecord(rec domain.GenerationRecord) domain.GenerationRecord {
	rec.Images = append([]string{}, rec.Images...)
	return rec
}

var _ domain.RecordRepository = (*RecordRepositoryMemory)(nil)
