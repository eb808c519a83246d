package infra

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type recordingQuerier struct {
	lastQuery string
	lastArgs  []any
}

func (q *recordingQuerier) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	q.lastQuery, q.lastArgs = query, args
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (q *recordingQuerier) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	q.lastQuery, q.lastArgs = query, args
	return errorRow{err: pgx.ErrNoRows}
}

func (q *recordingQuerier) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	q.lastQuery, q.lastArgs = query, args
	return nil, errors.New("not implemented")
}

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		marker  string
		wantErr bool
	}{
		{
			name:   "valid",
			query:  "--sql 0b7c3c1e-5f55-4f0c-9d8e-2b6f4a1d9c01\nselect 1;",
			marker: "0b7c3c1e-5f55-4f0c-9d8e-2b6f4a1d9c01",
		},
		{
			name:   "leading whitespace",
			query:  "\n  --sql 0b7c3c1e-5f55-4f0c-9d8e-2b6f4a1d9c01\nselect 1;",
			marker: "0b7c3c1e-5f55-4f0c-9d8e-2b6f4a1d9c01",
		},
		{name: "missing", query: "select 1;", wantErr: true},
		{name: "uppercase uuid", query: "--sql 0B7C3C1E-5F55-4F0C-9D8E-2B6F4A1D9C01\nselect 1;", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := ExtractMarker(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if marker != tc.marker {
				t.Fatalf("marker = %q, want %q", marker, tc.marker)
			}
			if strings.Contains(body, "--sql") {
				t.Fatalf("body still carries marker: %q", body)
			}
		})
	}
}

func TestSQLRunnerStripsMarkerBeforeDelegating(t *testing.T) {
	q := &recordingQuerier{}
	runner := NewSQLRunner(q, *DiscardLogger())

	if _, err := runner.Exec(context.Background(), "--sql 0b7c3c1e-5f55-4f0c-9d8e-2b6f4a1d9c01\nupdate t set a = $1;", 7); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if strings.TrimSpace(q.lastQuery) != "update t set a = $1;" {
		t.Fatalf("delegated query = %q", q.lastQuery)
	}
	if len(q.lastArgs) != 1 || q.lastArgs[0] != 7 {
		t.Fatalf("delegated args = %#v", q.lastArgs)
	}
}

func TestSQLRunnerRejectsUnmarkedQuery(t *testing.T) {
	q := &recordingQuerier{}
	runner := NewSQLRunner(q, *DiscardLogger())

	if _, err := runner.Exec(context.Background(), "update t set a = 1;"); err == nil {
		t.Fatal("expected marker error")
	}
	if q.lastQuery != "" {
		t.Fatalf("unmarked query reached the pool: %q", q.lastQuery)
	}
	row := runner.QueryRow(context.Background(), "select 1;")
	if err := row.Scan(new(int)); err == nil {
		t.Fatal("expected marker error from QueryRow")
	}
}
