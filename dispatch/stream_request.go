package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/throttlehq/throttle/catalog"
)

// buildStreamRequest builds the provider-native streaming HTTP request:
// same body shape as the non-streaming adapters but with stream forced on.
func buildStreamRequest(ctx context.Context, provider catalog.Provider, req Request, endpoint string, headers map[string]string) (*http.Request, []byte, error) {
	var payload []byte
	var err error

	switch provider {
	case catalog.ProviderAnthropic:
		payload, err = buildAnthropicStreamPayload(req)
	case catalog.ProviderGoogle:
		payload, err = buildGeminiStreamPayload(req)
	default:
		payload, err = buildChatCompletionsStreamPayload(req)
	}
	if err != nil {
		return nil, nil, wrapNetworkError(string(provider), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, wrapNetworkError(string(provider), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, payload, nil
}

func buildAnthropicStreamPayload(req Request) ([]byte, error) {
	if len(req.RawBody) > 0 {
		return overrideModelAndStream(req.RawBody, req.ModelID, true)
	}
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		block, _ := json.Marshal([]anthropicContentBlock{{Type: "text", Text: m.Content}})
		messages = append(messages, anthropicMessage{Role: m.Role, Content: block})
	}
	return json.Marshal(anthropicRequestBody{
		Model:       req.ModelID,
		Messages:    messages,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	})
}

func buildGeminiStreamPayload(req Request) ([]byte, error) {
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
	return json.Marshal(body)
}

func buildChatCompletionsStreamPayload(req Request) ([]byte, error) {
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	return json.Marshal(chatCompletionsRequestBody{
		Model:       req.ModelID,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	})
}
