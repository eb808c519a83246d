package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/pkg/zip"
)

func (a *App) History(w http.ResponseWriter, r *http.Request) {
	limit := domain.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = domain.ClampHistoryLimit(n)
	}
	records, err := a.Records.ListRecent(r.Context(), limit)
	if err != nil {
		a.log().Error().Err(err).Msg("list history failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []domain.GenerationRecord{}
	}
	a.json(w, http.StatusOK, records)
}

func (a *App) HistoryByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := a.Records.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Generation not found")
			return
		}
		a.log().Error().Err(err).Str("id", id).Msg("get history failed")
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.json(w, http.StatusOK, record)
}

// HistoryArchive bundles every image of a record into one zip download.
func (a *App) HistoryArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := a.Records.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Generation not found")
			return
		}
		a.error(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(record.Images) == 0 {
		a.error(w, http.StatusNotFound, "Generation has no images")
		return
	}
	entries := make([]zip.Entry, 0, len(record.Images))
	for i, u := range record.Images {
		data, err := a.fetchImage(r.Context(), u)
		if err != nil {
			a.log().Warn().Err(err).Str("id", id).Str("url", u).Msg("archive fetch failed")
			a.error(w, http.StatusBadGateway, "failed to fetch image "+strconv.Itoa(i+1))
			return
		}
		entries = append(entries, zip.Entry{Name: archiveName(i, u), Data: data, Modified: record.UpdatedAt})
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="generation_%s.zip"`, id))
	w.WriteHeader(http.StatusOK)
	if err := zip.Write(w, entries); err != nil {
		a.log().Error().Err(err).Str("id", id).Msg("write archive failed")
	}
}

// fetchImage reads files stored under the upload directory from disk and
// everything else over HTTP.
func (a *App) fetchImage(ctx context.Context, rawURL string) ([]byte, error) {
	if a.Uploads != nil {
		if prefix := a.Uploads.PublicURL(""); strings.HasPrefix(rawURL, prefix) {
			p, err := a.Uploads.Path(strings.TrimPrefix(rawURL, prefix))
			if err != nil {
				return nil, err
			}
			return os.ReadFile(p)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	client := a.ProxyClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxProxyBytes))
}

func archiveName(i int, rawURL string) string {
	ext := ".png"
	if u, err := url.Parse(rawURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e != "" && len(e) <= 5 {
			ext = e
		}
	}
	return fmt.Sprintf("image_%02d%s", i+1, ext)
}
