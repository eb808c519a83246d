package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

const uploadField = "image"

// Upload stores a multipart reference image and returns its public URL.
func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	if a.Uploads == nil {
		a.error(w, http.StatusInternalServerError, "uploads are not configured")
		return
	}
	limit := a.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		a.error(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		a.error(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer func() {
		_ = file.Close()
	}()
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if int64(len(data)) > limit {
		a.error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		a.error(w, http.StatusBadRequest, "file must be an image")
		return
	}

	key, err := a.Uploads.Save(r.Context(), "", uploadExt(header.Filename, contentType), data)
	if err != nil {
		a.log().Error().Err(err).Msg("store upload failed")
		a.error(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	path, _ := a.Uploads.Path(key)
	a.log().Info().Str("key", key).Int("bytes", len(data)).Msg("upload stored")
	a.json(w, http.StatusOK, map[string]string{
		"filename": key,
		"url":      a.Uploads.PublicURL(key),
		"path":     path,
	})
}

// uploadExt keeps the client extension and falls back to the sniffed type.
func uploadExt(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" && !strings.ContainsAny(ext, `/\`) && len(ext) <= 6 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// ProxyImage streams a remote image so browsers can read it without CORS.
func (a *App) ProxyImage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		a.error(w, http.StatusBadRequest, "URL required")
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		a.error(w, http.StatusBadRequest, "url must be http or https")
		return
	}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid url")
		return
	}
	client := a.ProxyClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		a.log().Warn().Err(err).Str("url", raw).Msg("proxy fetch failed")
		a.error(w, http.StatusBadGateway, err.Error())
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.error(w, http.StatusBadGateway, "Failed to fetch image: "+resp.Status)
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, io.LimitReader(resp.Body, maxProxyBytes))
}
