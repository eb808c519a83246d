package kie

import (
	"fmt"
	"strings"

	"github.com/bardoun7894/basplast/internal/domain"
)

// Family identifies one of the upstream wire protocols.
type Family string

const (
	// FamilyJobs is the generic createTask / recordInfo jobs API.
	FamilyJobs Family = "jobs"
	// FamilyKontext is the image editing API with numeric state codes.
	FamilyKontext Family = "kontext"
	// FamilyMidjourney is the art platform API reporting successFlag.
	FamilyMidjourney Family = "midjourney"
)

// Model keys accepted by the upstream API.
const (
	ModelFluxFlex    = "flux-2/flex-image-to-image"
	ModelNanoPro     = "nano-banana-pro"
	ModelMidjourney  = "midjourney/mj-api"
	ModelFluxKontext = "flux-kontext-pro"
)

// Model describes a supported upstream model.
type Model struct {
	Key    string
	Family Family
	Label  string
	// AcceptsAuxiliary marks models that take extra reference images.
	AcceptsAuxiliary bool
	// AmplifyOrnament enables the Arabic/Islamic ornament prompt heuristic.
	AmplifyOrnament bool
}

// models is in fan-out order.
var models = []Model{
	{Key: ModelFluxFlex, Family: FamilyJobs, Label: "Flux Flex (تصميم منتج)"},
	{Key: ModelNanoPro, Family: FamilyJobs, Label: "Nano Banana Pro (إعلانات)", AcceptsAuxiliary: true, AmplifyOrnament: true},
	{Key: ModelMidjourney, Family: FamilyMidjourney, Label: "Midjourney"},
	{Key: ModelFluxKontext, Family: FamilyKontext, Label: "Flux Kontext (تعديل احترافي)"},
}

// Models returns the supported models in fan-out order.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// LookupModel resolves a model key.
func LookupModel(key string) (Model, error) {
	key = strings.TrimSpace(key)
	for _, m := range models {
		if m.Key == key {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("kie: %q: %w", key, domain.ErrUnknownModel)
}
