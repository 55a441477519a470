package streaming

import "encoding/json"

// anthropicStreamEvent mirrors the teacher's claudeStreamEvent shape:
// typed SSE events carrying message_start/content_block_*/message_delta/
// message_stop payloads.
type anthropicStreamEvent struct {
	Type         string `json:"type"`
	Delta        *struct {
		Type       string `json:"type"`
		Text       string `json:"text,omitempty"`
		StopReason string `json:"stop_reason,omitempty"`
	} `json:"delta,omitempty"`
	ContentBlock *struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content_block,omitempty"`
	Message *struct {
		Model string `json:"model"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	} `json:"message,omitempty"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

// anthropicToDelta reduces one Anthropic SSE event to the neutral delta
// sequence. message_start and the running usage fields on message_delta
// carry token counts; content_block_delta of type text_delta carries text;
// message_stop ends the turn.
func anthropicToDelta(ev Event) (delta, bool) {
	if ev.Data == "" {
		return delta{}, false
	}
	var parsed anthropicStreamEvent
	if err := json.Unmarshal([]byte(ev.Data), &parsed); err != nil {
		return delta{}, false
	}

	switch parsed.Type {
	case "message_start":
		d := delta{kind: deltaStart}
		if parsed.Message != nil {
			d.inputTokens = parsed.Message.Usage.InputTokens
			d.outputTokens = parsed.Message.Usage.OutputTokens
		}
		return d, true
	case "content_block_delta":
		if parsed.Delta != nil && parsed.Delta.Type == "text_delta" {
			return delta{kind: deltaText, text: parsed.Delta.Text}, true
		}
		return delta{}, false
	case "message_delta":
		d := delta{kind: deltaText, text: ""}
		if parsed.Usage != nil {
			d.outputTokens = parsed.Usage.OutputTokens
			d.inputTokens = parsed.Usage.InputTokens
		}
		if parsed.Delta != nil {
			d.finishReason = parsed.Delta.StopReason
		}
		return d, true
	case "message_stop":
		return delta{kind: deltaStop}, true
	default:
		// ping, content_block_start (non-text), content_block_stop: no
		// neutral-sequence contribution.
		return delta{}, false
	}
}

// anthropicEmitter renders the neutral delta sequence as Anthropic Messages
// SSE events, used both for Google/OpenAI-compat upstream synthesized into
// an Anthropic-dialect client response.
type anthropicEmitter struct {
	started bool
	index   int
}

func (e *anthropicEmitter) render(d delta) []Event {
	switch d.kind {
	case deltaStart:
		if e.started {
			return nil
		}
		e.started = true
		return []Event{
			{Event: "message_start", Data: `{"type":"message_start","message":{"type":"message","role":"assistant","content":[]}}`},
			{Event: "content_block_start", Data: `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
		}
	case deltaText:
		if d.text == "" {
			return nil
		}
		if !e.started {
			e.started = true
		}
		payload, _ := json.Marshal(map[string]any{
			"type":  "content_block_delta",
			"index": e.index,
			"delta": map[string]string{"type": "text_delta", "text": d.text},
		})
		return []Event{{Event: "content_block_delta", Data: string(payload)}}
	case deltaStop:
		reason := d.finishReason
		if reason == "" {
			reason = "end_turn"
		}
		deltaPayload, _ := json.Marshal(map[string]any{
			"type": "message_delta",
			"delta": map[string]string{"stop_reason": reason},
			"usage": map[string]int{"output_tokens": d.outputTokens},
		})
		return []Event{
			{Event: "content_block_stop", Data: `{"type":"content_block_stop","index":0}`},
			{Event: "message_delta", Data: string(deltaPayload)},
			{Event: "message_stop", Data: `{"type":"message_stop"}`},
		}
	}
	return nil
}
