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

	"github.com/throttlehq/throttle/ratelimit"
)

// AnthropicConfig is the (apiKey, baseUrl) pair plus the dual-key extras
// from spec §6's configuration file.
type AnthropicConfig struct {
	APIKey           string
	BaseURL          string
	SetupToken       string
	PreferSetupToken bool
	// AuthType selects how keyFor's value is sent upstream: "api-key" forces
	// x-api-key, "bearer" forces Authorization: Bearer, and "auto" (the
	// zero value falls back to this) inspects the key's prefix.
	AuthType string
}

// authHeader resolves the (header name, value) pair to send for key under
// cfg's AuthType, per spec §6: auto routes sk-ant-* keys to x-api-key and
// anything else to a bearer token.
func authHeader(key, authType string) (name, value string) {
	switch authType {
	case "bearer":
		return "Authorization", "Bearer " + key
	case "api-key":
		return "x-api-key", key
	default:
		if strings.HasPrefix(key, "sk-ant-") {
			return "x-api-key", key
		}
		return "Authorization", "Bearer " + key
	}
}

// anthropicMessage/-Content/-Request/-Response mirror the teacher's Claude
// adapter shapes; tool_use/tool_result blocks pass through via RawMessage
// since dispatch never interprets tool content, only forwards it.
type anthropicMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type anthropicRequestBody struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicResponseBody struct {
	ID         string                  `json:"id"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

// AnthropicAdapter dispatches to Anthropic-family models, with transparent
// dual-key failover on 429/401 and raw-body passthrough for Messages-style
// ingress.
type AnthropicAdapter struct {
	Config     AnthropicConfig
	HTTPClient *http.Client
	DualKey    *ratelimit.DualKeyState
}

func (a *AnthropicAdapter) keyFor(kt ratelimit.KeyType) string {
	if kt == ratelimit.KeyTypeEnterprise {
		return a.Config.APIKey
	}
	return a.Config.SetupToken
}

func (a *AnthropicAdapter) baseURL() string {
	if a.Config.BaseURL != "" {
		return a.Config.BaseURL
	}
	return "https://api.anthropic.com"
}

// Send performs a non-streaming Messages call, retrying once on the
// fallback key type when the primary returns 429 or 401, per spec §4.7.
func (a *AnthropicAdapter) Send(ctx context.Context, req Request, anthropicVersion string) (*ProxyResponse, []byte, error) {
	start := time.Now()
	primary, fallback, hasFallback := a.DualKey.Select()

	resp, raw, status, err := a.attempt(ctx, req, primary, anthropicVersion)
	if err == nil && status < 400 {
		pr := decodeAnthropicResponse(resp)
		pr.KeyType = primary
		pr.LatencyMs = time.Since(start).Milliseconds()
		return pr, raw, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if (status == http.StatusTooManyRequests || status == http.StatusUnauthorized) && hasFallback {
		a.DualKey.MarkCooldown(primary, ratelimit.DefaultCooldown)
		resp2, raw2, status2, err2 := a.attempt(ctx, req, fallback, anthropicVersion)
		if err2 != nil {
			return nil, nil, err2
		}
		if status2 >= 400 {
			return nil, nil, mapUpstreamError("anthropic", status2, bytes.NewReader(raw2))
		}
		pr := decodeAnthropicResponse(resp2)
		pr.KeyType = fallback
		pr.Failover = true
		pr.LatencyMs = time.Since(start).Milliseconds()
		return pr, raw2, nil
	}
	return nil, nil, mapUpstreamError("anthropic", status, bytes.NewReader(raw))
}

func (a *AnthropicAdapter) attempt(ctx context.Context, req Request, kt ratelimit.KeyType, anthropicVersion string) (*anthropicResponseBody, []byte, int, error) {
	payload, err := a.buildPayload(req)
	if err != nil {
		return nil, nil, 0, err
	}

	endpoint := strings.TrimRight(a.baseURL(), "/") + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, 0, err
	}
	headerName, headerValue := authHeader(a.keyFor(kt), a.Config.AuthType)
	httpReq.Header.Set(headerName, headerValue)
	if anthropicVersion == "" {
		anthropicVersion = "2023-06-01"
	}
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, nil, 0, wrapNetworkError("anthropic", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, raw, resp.StatusCode, nil
	}

	var body anthropicResponseBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, raw, resp.StatusCode, wrapNetworkError("anthropic", err)
	}
	return &body, raw, resp.StatusCode, nil
}

// buildPayload prefers raw-body passthrough (only model/stream overridden)
// when the ingress retained the original Messages-style body; otherwise it
// builds a fresh request from NeutralMessage.
func (a *AnthropicAdapter) buildPayload(req Request) ([]byte, error) {
	if len(req.RawBody) > 0 {
		return overrideModelAndStream(req.RawBody, req.ModelID, req.Stream)
	}

	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		block, _ := json.Marshal([]anthropicContentBlock{{Type: "text", Text: m.Content}})
		messages = append(messages, anthropicMessage{Role: m.Role, Content: block})
	}
	body := anthropicRequestBody{
		Model:       req.ModelID,
		Messages:    messages,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}
	return json.Marshal(body)
}

func overrideModelAndStream(raw []byte, modelID string, stream bool) ([]byte, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("anthropic passthrough: %w", err)
	}
	modelJSON, _ := json.Marshal(modelID)
	streamJSON, _ := json.Marshal(stream)
	generic["model"] = modelJSON
	generic["stream"] = streamJSON
	return json.Marshal(generic)
}

func decodeAnthropicResponse(body *anthropicResponseBody) *ProxyResponse {
	var content strings.Builder
	for _, b := range body.Content {
		if b.Type == "text" || b.Type == "" {
			content.WriteString(b.Text)
		}
	}
	return &ProxyResponse{
		Content:      content.String(),
		InputTokens:  body.Usage.InputTokens,
		OutputTokens: body.Usage.OutputTokens,
		FinishReason: body.StopReason,
		ModelID:      body.Model,
	}
}
