package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Fallback     Enhancer
	OnFallback   func(reason string, err error)
	OnWarning    func(reason, detail string)
}

type OpenAIEnhancer struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
	fallback     Enhancer
	onFallback   func(reason string, err error)
}

const openAIDefaultTimeout = 30 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

const (
	openAIMaxTokens   = 1000
	openAITemperature = 0.8
)

var openAIModelCanonical = map[string]string{
	"gpt-4o-mini":   "gpt-4o-mini",
	"gpt-4o":        "gpt-4o",
	"gpt-3.5-turbo": "gpt-3.5-turbo",
}

var openAIModelAliases = map[string]string{
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4o":                  "gpt-4o",
	"gpt-3.5":                "gpt-3.5-turbo",
	"gpt-35-turbo":           "gpt-3.5-turbo",
	"deepseek-chat":          "gpt-4o-mini",
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIEnhancer builds the chat completion enhancer. A missing API key is
// not an error: every call then falls back.
func NewOpenAIEnhancer(opts OpenAIOptions) *OpenAIEnhancer {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	normalizedModel, normalizationReason := normalizeOpenAIModel(modelInput)
	if normalizationReason != "" && opts.OnWarning != nil {
		detail := fmt.Sprintf("requested=%s resolved=%s", coalesce(modelInput, defaultOpenAIModel), normalizedModel)
		opts.OnWarning("model_"+normalizationReason, detail)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIEnhancer{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        normalizedModel,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		fallback:     opts.Fallback,
		onFallback:   opts.OnFallback,
	}
}

// Model returns the resolved model identifier.
func (o *OpenAIEnhancer) Model() string {
	return o.model
}

func (o *OpenAIEnhancer) Enhance(ctx context.Context, req Request) Result {
	if o.apiKey == "" {
		return o.useFallback(ctx, req, "missing_api_key", nil)
	}
	payload := openAIChatRequest{
		Model:       o.model,
		MaxTokens:   openAIMaxTokens,
		Temperature: openAITemperature,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt(req.Kind)},
			{Role: "user", Content: buildUserMessage(req)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return o.useFallback(ctx, req, "encode_request", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return o.useFallback(ctx, req, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return o.useFallback(ctx, req, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return o.useFallback(ctx, req, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode))
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return o.useFallback(ctx, req, "decode_response", err)
	}
	if len(out.Choices) == 0 {
		return o.useFallback(ctx, req, "empty_choices", errors.New("no choices"))
	}
	text := cleanCompletion(out.Choices[0].Message.Content)
	if text == "" {
		return o.useFallback(ctx, req, "empty_response", errors.New("empty response"))
	}
	return Result{Text: text, Provider: openAIProviderName, Enhanced: true}
}

func (o *OpenAIEnhancer) useFallback(ctx context.Context, req Request, reason string, fallbackErr error) Result {
	if o.onFallback != nil {
		o.onFallback(reason, fallbackErr)
	}
	return runFallback(ctx, o.fallback, req, reason)
}

// runFallback delegates to next, or returns the original prompt when there is none.
func runFallback(ctx context.Context, next Enhancer, req Request, reason string) Result {
	if next != nil {
		res := next.Enhance(ctx, req)
		if !res.Enhanced && res.FallbackReason == "" {
			res.FallbackReason = reason
		}
		if strings.TrimSpace(res.Text) == "" {
			res.Text = req.Prompt
			res.Enhanced = false
		}
		return res
	}
	return Result{Text: req.Prompt, Provider: passthroughProviderName, FallbackReason: reason}
}

var _ Enhancer = (*OpenAIEnhancer)(nil)

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := openAIModelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}
