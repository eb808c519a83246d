package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/metrics"
	"github.com/bardoun7894/basplast/internal/providers/prompt"
)

type enhanceRequest struct {
	Prompt     string            `json:"prompt"`
	Attributes domain.Attributes `json:"attributes"`
	Type       string            `json:"type"`
}

type enhanceResponse struct {
	Original string `json:"original"`
	Enhanced string `json:"enhanced"`
	Provider string `json:"provider,omitempty"`
}

// Enhance never fails upstream: a fallback answers 200 with the original text.
func (a *App) Enhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.error(w, http.StatusBadRequest, "Prompt is required")
		return
	}
	enhancer := a.Enhancer
	if enhancer == nil {
		enhancer = prompt.NewPassthroughEnhancer()
	}
	res := enhancer.Enhance(r.Context(), prompt.Request{
		Prompt:     req.Prompt,
		Attributes: req.Attributes,
		Kind:       prompt.ParseKind(req.Type),
	})
	outcome := metrics.OutcomeSuccess
	if !res.Enhanced {
		outcome = metrics.OutcomeFallback
		a.log().Info().Str("reason", res.FallbackReason).Msg("enhance fell back to original prompt")
	}
	a.Metrics.IncEnhancement(outcome)

	text := res.Text
	if strings.TrimSpace(text) == "" {
		text = req.Prompt
	}
	a.json(w, http.StatusOK, enhanceResponse{Original: req.Prompt, Enhanced: text, Provider: res.Provider})
}
