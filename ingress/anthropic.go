package ingress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// anthropicContentBlock covers the subset of Messages-API content blocks
// whose text matters to the classifier; tool_use/tool_result blocks are
// skipped for the neutral text view but survive in RawBody untouched.
type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type anthropicSystemBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicRequest struct {
	Model       string            `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      json.RawMessage   `json:"system"`
	MaxTokens   int               `json:"max_tokens"`
	Temperature *float64          `json:"temperature"`
	Stream      bool              `json:"stream"`
	Tools       json.RawMessage   `json:"tools"`
}

// DecodeAnthropic parses a POST /v1/messages body into a ParsedRequest,
// preserving the raw body for passthrough dispatch.
func DecodeAnthropic(r *http.Request) (ParsedRequest, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return ParsedRequest{}, fmt.Errorf("read body: %w", err)
	}

	var req anthropicRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ParsedRequest{}, fmt.Errorf("parse messages request: %w", err)
	}

	messages := make([]NeutralMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role, ok := normalizeAnthropicRole(m.Role)
		if !ok {
			return ParsedRequest{}, fmt.Errorf("unsupported message role %q", m.Role)
		}
		messages = append(messages, NeutralMessage{Role: role, Content: flattenAnthropicContent(m.Content)})
	}

	pr := ParsedRequest{
		Messages:         messages,
		System:           flattenAnthropicSystem(req.System),
		MaxTokens:        req.MaxTokens,
		Temperature:      req.Temperature,
		Stream:           req.Stream,
		HasTools:         len(bytes.TrimSpace(req.Tools)) > 0 && string(bytes.TrimSpace(req.Tools)) != "null",
		Format:           FormatAnthropic,
		RawBody:          raw,
		AnthropicVersion: r.Header.Get("anthropic-version"),
		AnthropicBeta:    r.Header.Get("anthropic-beta"),
	}
	return pr, nil
}

func normalizeAnthropicRole(role string) (Role, bool) {
	switch role {
	case "user":
		return RoleUser, true
	case "assistant":
		return RoleAssistant, true
	default:
		return "", false
	}
}

// flattenAnthropicContent accepts either a plain string or an array of
// content blocks, concatenating the text of any text blocks and ignoring
// tool_use/tool_result/image blocks for purposes of the neutral text view.
func flattenAnthropicContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var blocks []anthropicContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var buf bytes.Buffer
	for _, b := range blocks {
		if b.Type == "text" || b.Type == "" {
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(b.Text)
		}
	}
	return buf.String()
}

func flattenAnthropicSystem(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}
	var blocks []anthropicSystemBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	var buf bytes.Buffer
	for _, b := range blocks {
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(b.Text)
	}
	return buf.String()
}
