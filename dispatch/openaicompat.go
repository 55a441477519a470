package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAICompatConfig is the (apiKey, baseUrl) pair shared by every provider
// using the OpenAI Chat Completions wire shape.
type OpenAICompatConfig struct {
	APIKey  string
	BaseURL string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequestBody struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatCompletionsChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatCompletionsUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatCompletionsResponseBody struct {
	Model   string                  `json:"model"`
	Choices []chatCompletionsChoice `json:"choices"`
	Usage   chatCompletionsUsage    `json:"usage"`
}

// OpenAICompatAdapter dispatches to any provider speaking the OpenAI
// Chat Completions wire shape; providers differ only in base URL and key.
type OpenAICompatAdapter struct {
	ProviderName string
	Config       OpenAICompatConfig
	HTTPClient   *http.Client
}

// Send performs a single non-streaming attempt; a single attempt only, per
// spec §4.7 ("on non-Anthropic, a single attempt").
func (a *OpenAICompatAdapter) Send(ctx context.Context, req Request) (*ProxyResponse, []byte, error) {
	start := time.Now()
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	body := chatCompletionsRequestBody{
		Model:       req.ModelID,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, wrapNetworkError(a.ProviderName, err)
	}

	endpoint := strings.TrimRight(a.Config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, wrapNetworkError(a.ProviderName, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.Config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, nil, wrapNetworkError(a.ProviderName, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, nil, mapUpstreamError(a.ProviderName, resp.StatusCode, bytes.NewReader(raw))
	}

	var out chatCompletionsResponseBody
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil, wrapNetworkError(a.ProviderName, err)
	}

	var content, finishReason string
	if len(out.Choices) > 0 {
		content = out.Choices[0].Message.Content
		finishReason = out.Choices[0].FinishReason
	}

	return &ProxyResponse{
		Content:      content,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
		FinishReason: finishReason,
		ModelID:      out.Model,
		LatencyMs:    time.Since(start).Milliseconds(),
	}, raw, nil
}
