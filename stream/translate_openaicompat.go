package streaming

import "encoding/json"

// openAIStreamChunk is one `data: {...}` line from an OpenAI-compatible
// Chat Completions stream.
type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// openAIToDelta reduces one OpenAI-compatible SSE data line to the neutral
// delta sequence. The family has no explicit start event — the first
// content-bearing chunk implicitly starts the turn — and terminates on the
// `[DONE]` sentinel rather than a typed stop event.
func openAIToDelta(ev Event) (delta, bool) {
	data := ev.Data
	if data == "" {
		return delta{}, false
	}
	if data == "[DONE]" {
		return delta{kind: deltaStop}, true
	}

	var parsed openAIStreamChunk
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return delta{}, false
	}

	d := delta{kind: deltaText}
	if parsed.Usage != nil {
		d.inputTokens = parsed.Usage.PromptTokens
		d.outputTokens = parsed.Usage.CompletionTokens
	}
	if len(parsed.Choices) > 0 {
		d.text = parsed.Choices[0].Delta.Content
		if parsed.Choices[0].FinishReason != nil {
			d.finishReason = *parsed.Choices[0].FinishReason
		}
	}
	return d, true
}

// openAIEmitter renders the neutral delta sequence as OpenAI Chat
// Completions SSE chunks.
type openAIEmitter struct {
	started bool
}

func (e *openAIEmitter) render(d delta) []Event {
	switch d.kind {
	case deltaStart:
		return nil // OpenAI's first content chunk doubles as the start signal
	case deltaText:
		if d.text == "" {
			return nil
		}
		e.started = true
		payload, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"delta": map[string]string{"content": d.text}, "index": 0}},
		})
		return []Event{{Data: string(payload)}}
	case deltaStop:
		reason := d.finishReason
		if reason == "" {
			reason = "stop"
		}
		payload, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"delta": map[string]string{}, "finish_reason": reason, "index": 0}},
		})
		return []Event{{Data: string(payload)}, {Data: "[DONE]"}}
	}
	return nil
}
