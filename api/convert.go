package api

import (
	"github.com/throttlehq/throttle/dispatch"
	"github.com/throttlehq/throttle/ingress"
)

// toDispatchRequest converts a decoded ParsedRequest into the neutral
// shape the dispatcher's adapters consume. RawBody is copied through
// unconditionally: only the Anthropic-family payload builders read it, and
// they're only reached when the chosen model's provider is Anthropic, so a
// non-Anthropic route simply ignores it.
func toDispatchRequest(pr ingress.ParsedRequest, modelID string) dispatch.Request {
	messages := make([]dispatch.NeutralMessage, len(pr.Messages))
	for i, m := range pr.Messages {
		messages[i] = dispatch.NeutralMessage{Role: string(m.Role), Content: m.Content}
	}
	return dispatch.Request{
		ModelID:          modelID,
		System:           pr.System,
		Messages:         messages,
		MaxTokens:        pr.MaxTokens,
		Temperature:      pr.Temperature,
		Stream:           pr.Stream,
		RawBody:          pr.RawBody,
		AnthropicVersion: pr.AnthropicVersion,
		AnthropicBeta:    pr.AnthropicBeta,
	}
}
