package ingress

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionsRequest struct {
	Model       string          `json:"model"`
	Messages    []chatMessage   `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature"`
	Stream      bool            `json:"stream"`
	Tools       json.RawMessage `json:"tools"`
}

// DecodeChatCompletions parses a POST /v1/chat/completions body into a
// ParsedRequest. The system prompt, if present, is the leading system-role
// message; it is pulled out of Messages rather than kept inline, matching
// the Messages-style shape the rest of the pipeline works with.
func DecodeChatCompletions(r *http.Request) (ParsedRequest, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return ParsedRequest{}, fmt.Errorf("read body: %w", err)
	}

	var req chatCompletionsRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ParsedRequest{}, fmt.Errorf("parse chat completions request: %w", err)
	}

	var system string
	messages := make([]NeutralMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "system" {
			if system != "" {
				system += "\n"
			}
			system += m.Content
			continue
		}
		role, ok := normalizeOpenAIRole(m.Role)
		if !ok {
			return ParsedRequest{}, fmt.Errorf("unsupported message role %q", m.Role)
		}
		messages = append(messages, NeutralMessage{Role: role, Content: m.Content})
	}

	return ParsedRequest{
		Messages:    messages,
		System:      system,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
		HasTools:    len(req.Tools) > 0 && string(req.Tools) != "null",
		Format:      FormatOpenAI,
	}, nil
}

func normalizeOpenAIRole(role string) (Role, bool) {
	switch role {
	case "user":
		return RoleUser, true
	case "assistant":
		return RoleAssistant, true
	default:
		return "", false
	}
}
