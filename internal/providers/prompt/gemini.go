package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Enhancer
	OnFallback func(reason string, err error)
}

// GeminiEnhancer rewrites prompts with the Gemini generateContent API using the
// same templates as the OpenAI enhancer.
type GeminiEnhancer struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	fallback   Enhancer
	onFallback func(reason string, err error)
}

const geminiDefaultTimeout = 30 * time.Second

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	CandidateCount  int     `json:"candidateCount,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func NewGeminiEnhancer(opts GeminiOptions) *GeminiEnhancer {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	return &GeminiEnhancer{
		apiKey:     strings.TrimSpace(opts.APIKey),
		model:      model,
		baseURL:    baseURL,
		client:     client,
		fallback:   opts.Fallback,
		onFallback: opts.OnFallback,
	}
}

func (g *GeminiEnhancer) Enhance(ctx context.Context, req Request) Result {
	if g.apiKey == "" {
		return g.useFallback(ctx, req, "missing_api_key", nil)
	}
	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemPrompt(req.Kind)}}},
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: buildUserMessage(req)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     openAITemperature,
			CandidateCount:  1,
			MaxOutputTokens: openAIMaxTokens,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return g.useFallback(ctx, req, "encode_request", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return g.useFallback(ctx, req, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return g.useFallback(ctx, req, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return g.useFallback(ctx, req, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("gemini status %d", resp.StatusCode))
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return g.useFallback(ctx, req, "decode_response", err)
	}
	text := cleanCompletion(g.extractText(out))
	if text == "" {
		return g.useFallback(ctx, req, "empty_response", errors.New("empty response"))
	}
	return Result{Text: text, Provider: geminiProviderName, Enhanced: true}
}

func (g *GeminiEnhancer) useFallback(ctx context.Context, req Request, reason string, err error) Result {
	if g.onFallback != nil {
		g.onFallback(reason, err)
	}
	return runFallback(ctx, g.fallback, req, reason)
}

func (g *GeminiEnhancer) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func (g *GeminiEnhancer) extractText(resp geminiResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}

var _ Enhancer = (*GeminiEnhancer)(nil)
