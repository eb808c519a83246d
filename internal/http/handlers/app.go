package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/generation"
	"github.com/bardoun7894/basplast/internal/infra"
	"github.com/bardoun7894/basplast/internal/metrics"
	"github.com/bardoun7894/basplast/internal/providers/kie"
	"github.com/bardoun7894/basplast/internal/providers/prompt"
	"github.com/bardoun7894/basplast/internal/storage"
)

// Generator runs a whole generation request.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// CreditsSource reports the remaining upstream balance.
type CreditsSource interface {
	Credits(ctx context.Context) (float64, error)
}

const (
	defaultMaxUploadBytes = 20 << 20
	maxProxyBytes         = 32 << 20
)

type App struct {
	Generation Generator
	Records    domain.RecordRepository
	Enhancer   prompt.Enhancer
	Credits    CreditsSource
	Uploads    *storage.FileStore
	Models     []kie.Model
	// ProxyClient fetches images for /proxy-image.
	ProxyClient    *http.Client
	Metrics        *metrics.Collector
	Logger         *infra.Logger
	MaxUploadBytes int64
	Now            func() time.Time
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]any{"error": msg})
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) log() *infra.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return infra.DiscardLogger()
}

func (a *App) models() []kie.Model {
	if len(a.Models) > 0 {
		return a.Models
	}
	return kie.Models()
}
