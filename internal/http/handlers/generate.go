package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bardoun7894/basplast/internal/domain"
	"github.com/bardoun7894/basplast/internal/generation"
)

const maxGenerateBodyBytes = 50 << 20

const missingRefImageMessage = "Reference image is required. Please upload an image first."

// flexBool accepts both true and "true". Everything else decodes as false.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", `"true"`:
		*b = true
	default:
		*b = false
	}
	return nil
}

type generateAttributes struct {
	domain.Attributes
	Model           string   `json:"model"`
	RefImage        string   `json:"refImage"`
	IsAdMode        flexBool `json:"isAdMode"`
	ProductName     string   `json:"productName"`
	AuxiliaryImages []string `json:"auxiliaryImages"`
}

type generateRequest struct {
	Prompt     string             `json:"prompt"`
	Attributes generateAttributes `json:"attributes"`
	Count      int                `json:"count"`
	Mode       string             `json:"mode"`
}

type generateResponse struct {
	Success bool                      `json:"success"`
	Images  []string                  `json:"images"`
	ID      string                    `json:"id"`
	Count   int                       `json:"count"`
	Status  domain.RecordStatus       `json:"status"`
	Models  []generation.ModelOutcome `json:"models,omitempty"`
}

// Generate runs a whole generation and answers once every task has settled.
// The work is detached from the client connection so the record is always
// finalized.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBodyBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Attributes.RefImage) == "" {
		a.json(w, http.StatusBadRequest, map[string]string{"error": missingRefImageMessage, "field": "refImage"})
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	ctx := context.WithoutCancel(r.Context())
	res, err := a.Generation.Generate(ctx, generation.Request{
		Prompt:          req.Prompt,
		Attributes:      req.Attributes.Attributes,
		RefImage:        strings.TrimSpace(req.Attributes.RefImage),
		Mode:            generation.ParseMode(req.Mode),
		Count:           req.Count,
		Model:           req.Attributes.Model,
		AdMode:          bool(req.Attributes.IsAdMode),
		ProductName:     strings.TrimSpace(req.Attributes.ProductName),
		AuxiliaryImages: req.Attributes.AuxiliaryImages,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingReferenceImage):
			a.json(w, http.StatusBadRequest, map[string]string{"error": missingRefImageMessage, "field": "refImage"})
		case errors.Is(err, domain.ErrInvalidInput):
			a.error(w, http.StatusBadRequest, err.Error())
		default:
			a.log().Error().Err(err).Msg("generate failed")
			a.error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	a.json(w, http.StatusOK, generateResponse{
		Success: true,
		Images:  res.Images,
		ID:      res.RecordID,
		Count:   len(res.Images),
		Status:  res.Status,
		Models:  res.Models,
	})
}
