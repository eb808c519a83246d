package kie

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ornamentClause is appended to prompts that ask for Arabic or Islamic ornamentation.
const ornamentClause = "Render the ornamentation with authentic Arabic-Islamic craftsmanship: " +
	"precise interlocking geometric star patterns, fine arabesque scrollwork and crisp engraved " +
	"detailing that follows the product's curvature, with metallic accents catching the light."

var ornamentKeywords = []string{
	"islamic", "arabic", "arabesque", "ornament", "geometric pattern", "mashrabiya", "calligraphy",
	"zellige", "najdi", "sadu",
	"إسلامي", "اسلامي", "إسلامية", "اسلامية", "عربي", "عربية", "نقوش", "نقش", "زخرفة", "زخارف",
	"مشربية", "خط عربي", "أرابيسك", "ارابيسك", "هندسي", "هندسية",
}

var foldCaser = cases.Fold()

// foldForMatch lowercases and strips combining marks (including Arabic
// harakat) so keyword matching ignores case and vocalisation.
func foldForMatch(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return foldCaser.String(stripped)
}

// HasOrnamentKeyword reports whether the prompt mentions Arabic or Islamic ornamentation.
func HasOrnamentKeyword(prompt string) bool {
	folded := foldForMatch(prompt)
	for _, kw := range ornamentKeywords {
		if strings.Contains(folded, foldForMatch(kw)) {
			return true
		}
	}
	return false
}

// AmplifyOrnament appends the ornament clause once when the prompt qualifies.
func AmplifyOrnament(prompt string) string {
	if !HasOrnamentKeyword(prompt) || strings.Contains(prompt, ornamentClause) {
		return prompt
	}
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return ornamentClause
	}
	if !strings.HasSuffix(trimmed, ".") {
		trimmed += "."
	}
	return trimmed + " " + ornamentClause
}
