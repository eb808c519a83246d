package prompt

import (
	"fmt"
	"strings"

	"github.com/bardoun7894/basplast/internal/domain"
)

// decorationPhrases maps lid and handle decorations to descriptive phrasing.
// Keys are lower case; Arabic labels map to the same phrases.
var decorationPhrases = map[string]string{
	"islamic geometric":  "The lid and handle carry subtle interlocking Islamic geometric star patterns, precisely engraved.",
	"arabesque":          "The lid and handle are wrapped in flowing arabesque scrollwork with fine vine detailing.",
	"floral":             "The lid and handle feature delicate hand-painted floral motifs in a restrained palette.",
	"calligraphy":        "The lid and handle bear an elegant band of Arabic calligraphy in relief.",
	"gold filigree":      "The lid and handle are trimmed with fine 24k gold filigree lacework.",
	"najdi":              "The lid and handle show Najdi architectural triangles and stepped motifs, carved in low relief.",
	"sadu":               "The lid and handle are banded with Bedouin Sadu weave patterns in deep red and black.",
	"crystal inlay":      "The lid finial holds a faceted crystal inlay and the handle has a polished crystal accent.",
	"زخرفة إسلامية":      "The lid and handle carry subtle interlocking Islamic geometric star patterns, precisely engraved.",
	"أرابيسك":            "The lid and handle are wrapped in flowing arabesque scrollwork with fine vine detailing.",
	"نقوش زهرية":         "The lid and handle feature delicate hand-painted floral motifs in a restrained palette.",
	"خط عربي":            "The lid and handle bear an elegant band of Arabic calligraphy in relief.",
	"تخريم ذهبي":         "The lid and handle are trimmed with fine 24k gold filigree lacework.",
	"نجدي":               "The lid and handle show Najdi architectural triangles and stepped motifs, carved in low relief.",
	"سدو":                "The lid and handle are banded with Bedouin Sadu weave patterns in deep red and black.",
	"ترصيع كريستال":      "The lid finial holds a faceted crystal inlay and the handle has a polished crystal accent.",
}

// decorationPhrase returns the phrase for a decoration or a generic sentence
// for decorations outside the table. None and empty yield "".
func decorationPhrase(decoration string) string {
	d := strings.TrimSpace(decoration)
	if d == "" || strings.EqualFold(d, "none") || d == "بدون" {
		return ""
	}
	if phrase, ok := decorationPhrases[strings.ToLower(d)]; ok {
		return phrase
	}
	return fmt.Sprintf("The lid and handle have subtle '%s' style decorative patterns as a gentle enhancement.", d)
}

// attributeContext builds the clause appended to the user message.
func attributeContext(attrs domain.Attributes) string {
	attrs = attrs.Normalize()
	sb := &strings.Builder{}
	if attrs.Color != "" {
		fmt.Fprintf(sb, " Color / Tone: %s.", attrs.Color)
	}
	if attrs.Shape != "" {
		fmt.Fprintf(sb, " Shape / Style: %s.", attrs.Shape)
	}
	if attrs.Length != "" {
		fmt.Fprintf(sb, " Scale: %s.", attrs.Length)
	}
	if phrase := decorationPhrase(attrs.Decoration); phrase != "" {
		sb.WriteString(" Decoration: ")
		sb.WriteString(phrase)
	}
	return sb.String()
}
