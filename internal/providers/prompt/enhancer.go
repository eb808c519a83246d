package prompt

import (
	"context"
	"strings"

	"github.com/bardoun7894/basplast/internal/domain"
)

// Kind selects the instruction template.
type Kind string

const (
	KindProduct Kind = "product"
	KindAd      Kind = "ad"
)

// ParseKind maps a request type to a Kind. Anything other than "ad" is a
// product request.
func ParseKind(s string) Kind {
	if strings.EqualFold(strings.TrimSpace(s), string(KindAd)) {
		return KindAd
	}
	return KindProduct
}

type Request struct {
	Prompt     string
	Attributes domain.Attributes
	Kind       Kind
}

// Result is the enhanced prompt. On any failure Text is the original prompt
// and Enhanced is false.
type Result struct {
	Text           string
	Provider       string
	Enhanced       bool
	FallbackReason string
}

// Enhancer rewrites a short prompt into a long descriptive one. It never fails.
type Enhancer interface {
	Enhance(ctx context.Context, req Request) Result
}

// PassthroughEnhancer returns prompts unchanged.
type PassthroughEnhancer struct{}

func NewPassthroughEnhancer() *PassthroughEnhancer {
	return &PassthroughEnhancer{}
}

func (PassthroughEnhancer) Enhance(_ context.Context, req Request) Result {
	return Result{Text: req.Prompt, Provider: passthroughProviderName}
}

var _ Enhancer = (*PassthroughEnhancer)(nil)
