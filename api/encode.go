package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/throttlehq/throttle/dispatch"
	"github.com/throttlehq/throttle/ingress"
)

// encodeResponse renders resp in clientFormat's dialect. Anthropic-upstream
// to an Anthropic client is byte-faithful passthrough of rawBody (the
// adapter's raw, unmodified upstream bytes); every other pairing —
// including Google, which has no client-facing dialect of its own — is
// synthesized from the neutral ProxyResponse, mirroring the streaming
// translator's passthrough-vs-synthesize split.
func encodeResponse(resp *dispatch.ProxyResponse, rawBody []byte, upstreamProvider string, clientFormat ingress.Format) ([]byte, error) {
	if upstreamProvider == "anthropic" && clientFormat == ingress.FormatAnthropic {
		return rawBody, nil
	}
	if clientFormat == ingress.FormatAnthropic {
		return json.Marshal(anthropicMessage{
			ID:         "msg_" + uuid.NewString(),
			Type:       "message",
			Role:       "assistant",
			Model:      resp.ModelID,
			Content:    []anthropicContentBlock{{Type: "text", Text: resp.Content}},
			StopReason: resp.FinishReason,
			Usage:      anthropicUsage{InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens},
		})
	}
	return json.Marshal(chatCompletion{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   resp.ModelID,
		Choices: []chatCompletionChoice{{
			Index:        0,
			Message:      chatCompletionMessage{Role: "assistant", Content: resp.Content},
			FinishReason: resp.FinishReason,
		}},
		Usage: chatCompletionUsage{
			PromptTokens:     resp.InputTokens,
			CompletionTokens: resp.OutputTokens,
			TotalTokens:      resp.InputTokens + resp.OutputTokens,
		},
	})
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicMessage struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Model      string                  `json:"model"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      anthropicUsage          `json:"usage"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionChoice struct {
	Index        int                    `json:"index"`
	Message      chatCompletionMessage  `json:"message"`
	FinishReason string                 `json:"finish_reason"`
}

type chatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatCompletion struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   chatCompletionUsage    `json:"usage"`
}
