package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GoogleConfig is the (apiKey, baseUrl) pair for the Gemini family.
type GoogleConfig struct {
	APIKey  string
	BaseURL string
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiRequestBody struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiResponseBody struct {
	Candidates    []geminiCandidate   `json:"candidates"`
	UsageMetadata geminiUsageMetadata `json:"usageMetadata"`
}

// GoogleAdapter dispatches to the Gemini family. Unlike the teacher's
// header-based x-goog-api-key auth, this proxy authenticates with the
// documented `?key=` query parameter, since that is the form the spec's
// Google-family dispatch is grounded on.
type GoogleAdapter struct {
	Config     GoogleConfig
	HTTPClient *http.Client
}

func (a *GoogleAdapter) baseURL() string {
	if a.Config.BaseURL != "" {
		return a.Config.BaseURL
	}
	return "https://generativelanguage.googleapis.com"
}

func geminiRoleFor(role string) string {
	if role == "assistant" {
		return "model"
	}
	return "user"
}

func (a *GoogleAdapter) Send(ctx context.Context, req Request) (*ProxyResponse, []byte, error) {
	start := time.Now()

	contents := make([]geminiContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		contents = append(contents, geminiContent{Role: geminiRoleFor(m.Role), Parts: []geminiPart{{Text: m.Content}}})
	}

	body := geminiRequestBody{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, wrapNetworkError("google", err)
	}

	action := "generateContent"
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:%s?key=%s",
		strings.TrimRight(a.baseURL(), "/"), req.ModelID, action, a.Config.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, wrapNetworkError("google", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, nil, wrapNetworkError("google", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, nil, mapUpstreamError("google", resp.StatusCode, bytes.NewReader(raw))
	}

	var out geminiResponseBody
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil, wrapNetworkError("google", err)
	}

	var content, finishReason string
	if len(out.Candidates) > 0 {
		finishReason = out.Candidates[0].FinishReason
		for _, p := range out.Candidates[0].Content.Parts {
			content += p.Text
		}
	}

	return &ProxyResponse{
		Content:      content,
		InputTokens:  out.UsageMetadata.PromptTokenCount,
		OutputTokens: out.UsageMetadata.CandidatesTokenCount,
		FinishReason: finishReason,
		ModelID:      req.ModelID,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, raw, nil
}
