package prompt

import (
	"strings"
)

const (
	passthroughProviderName = "passthrough"
	geminiProviderName      = "gemini"
	openAIProviderName      = "openai"
)

const emptyPromptMessage = "Create a luxury scene"

// buildUserMessage joins the prompt with its attribute context.
func buildUserMessage(req Request) string {
	msg := strings.TrimSpace(strings.TrimSpace(req.Prompt) + "." + attributeContext(req.Attributes))
	if msg == "." {
		return emptyPromptMessage
	}
	return msg
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

// cleanCompletion strips code fences and wrapping quotes models sometimes add.
func cleanCompletion(text string) string {
	text = trimCodeFence(text)
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```text")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
