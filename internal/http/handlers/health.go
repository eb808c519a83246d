package handlers

import (
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": a.now().UTC().Format(time.RFC3339Nano),
	})
}

// CreditsBalance proxies the upstream balance query.
func (a *App) CreditsBalance(w http.ResponseWriter, r *http.Request) {
	ts := a.now().UTC().Format(time.RFC3339Nano)
	if a.Credits == nil {
		a.json(w, http.StatusInternalServerError, map[string]any{"error": "credits unavailable", "credits": nil})
		return
	}
	credits, err := a.Credits.Credits(r.Context())
	if err != nil {
		a.log().Warn().Err(err).Msg("credits lookup failed")
		a.json(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "credits": nil})
		return
	}
	a.json(w, http.StatusOK, map[string]any{"credits": credits, "timestamp": ts})
}

type modelResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (a *App) ListModels(w http.ResponseWriter, r *http.Request) {
	models := a.models()
	out := make([]modelResponse, 0, len(models))
	for _, m := range models {
		out = append(out, modelResponse{ID: m.Key, Name: m.Label, Type: "image-to-image"})
	}
	a.json(w, http.StatusOK, out)
}
