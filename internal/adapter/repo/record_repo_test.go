package repo

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/migration"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newSQLiteRepo(t *testing.T) *RecordRepositorySQLite {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")
	if err := migration.Up(ctx, migration.BackendSQLite, path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := infra.OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	r := NewRecordRepositorySQLite(db, *infra.DiscardLogger())
	clock := &stepClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r.now = clock.now
	return r
}

func newMemoryRepo(t *testing.T) *RecordRepositoryMemory {
	t.Helper()
	r := NewRecordRepositoryMemory()
	clock := &stepClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r.now = clock.now
	return r
}

func TestRecordRepositories(t *testing.T) {
	backends := map[string]func(*testing.T) domain.RecordRepository{
		"memory": func(t *testing.T) domain.RecordRepository { return newMemoryRepo(t) },
		"sqlite": func(t *testing.T) domain.RecordRepository { return newSQLiteRepo(t) },
	}
	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			t.Run("round trip keeps image order", func(t *testing.T) {
				testRoundTrip(t, build(t))
			})
			t.Run("terminal write happens once", func(t *testing.T) {
				testCompleteOnce(t, build(t))
			})
			t.Run("missing records", func(t *testing.T) {
				testMissing(t, build(t))
			})
			t.Run("list is newest first and bounded", func(t *testing.T) {
				testListRecent(t, build(t))
			})
			t.Run("completion validation", func(t *testing.T) {
				testCompletionValidation(t, build(t))
			})
		})
	}
}

func newRecord(prompt string) *domain.GenerationRecord {
	return &domain.GenerationRecord{
		Prompt:     prompt,
		Model:      "flux-2/flex-image-to-image",
		Attributes: domain.Attributes{Length: " 1L ", Shape: "dallah", Decoration: "سدو", Color: "gold"},
		RefImage:   "http://x/img.jpg",
	}
}

func testRoundTrip(t *testing.T, r domain.RecordRepository) {
	ctx := context.Background()
	rec := newRecord("ترمس ذهبي")
	if err := r.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" || rec.Status != domain.RecordStatusProcessing || rec.CreatedAt.IsZero() {
		t.Fatalf("unexpected created record %+v", rec)
	}
	got, err := r.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.RecordStatusProcessing || len(got.Images) != 0 {
		t.Fatalf("processing record = %+v", got)
	}
	images := []string{"c.png", "a.png", "b.png"}
	if err := r.Complete(ctx, rec.ID, domain.RecordStatusSuccess, images); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, err = r.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !reflect.DeepEqual(got.Images, images) {
		t.Fatalf("images = %v, want %v", got.Images, images)
	}
	if got.Status != domain.RecordStatusSuccess || got.Prompt != "ترمس ذهبي" || got.Length != "1L" || got.Decoration != "سدو" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func testCompleteOnce(t *testing.T, r domain.RecordRepository) {
	ctx := context.Background()
	rec := newRecord("once")
	if err := r.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Complete(ctx, rec.ID, domain.RecordStatusFailed, []string{"ignored.png"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	err := r.Complete(ctx, rec.ID, domain.RecordStatusSuccess, []string{"late.png"})
	if !errors.Is(err, domain.ErrRecordFinalized) {
		t.Fatalf("second Complete err = %v, want ErrRecordFinalized", err)
	}
	got, err := r.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.RecordStatusFailed || len(got.Images) != 0 {
		t.Fatalf("failed record must carry no images: %+v", got)
	}
}

func testMissing(t *testing.T, r domain.RecordRepository) {
	ctx := context.Background()
	if _, err := r.GetByID(ctx, "does-not-exist"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID err = %v", err)
	}
	if err := r.Complete(ctx, "does-not-exist", domain.RecordStatusSuccess, []string{"a.png"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Complete err = %v", err)
	}
}

func testListRecent(t *testing.T, r domain.RecordRepository) {
	ctx := context.Background()
	var ids []string
	for _, p := range []string{"first", "second", "third"} {
		rec := newRecord(p)
		if err := r.Create(ctx, rec); err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	list, err := r.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(list) != 2 || list[0].ID != ids[2] || list[1].ID != ids[1] {
		t.Fatalf("unexpected order: %+v", list)
	}
	all, err := r.ListRecent(ctx, 0)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
}

func testCompletionValidation(t *testing.T, r domain.RecordRepository) {
	ctx := context.Background()
	rec := newRecord("validate")
	if err := r.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Complete(ctx, rec.ID, domain.RecordStatusSuccess, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("success without images err = %v", err)
	}
	if err := r.Complete(ctx, rec.ID, domain.RecordStatusProcessing, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("non-terminal err = %v", err)
	}
	got, err := r.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.RecordStatusProcessing {
		t.Fatalf("rejected completion must not change status, got %s", got.Status)
	}
}
