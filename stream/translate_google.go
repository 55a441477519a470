package streaming

import "encoding/json"

// geminiStreamChunk is one `data: {...}` line from a Gemini
// streamGenerateContent SSE response.
type geminiStreamChunk struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// googleToDelta reduces one Gemini SSE data line to the neutral delta
// sequence. Gemini, like OpenAI, has no explicit start event; a
// non-empty finishReason on a candidate ends the turn.
func googleToDelta(ev Event) (delta, bool) {
	if ev.Data == "" {
		return delta{}, false
	}

	var parsed geminiStreamChunk
	if err := json.Unmarshal([]byte(ev.Data), &parsed); err != nil {
		return delta{}, false
	}

	d := delta{kind: deltaText}
	if parsed.UsageMetadata != nil {
		d.inputTokens = parsed.UsageMetadata.PromptTokenCount
		d.outputTokens = parsed.UsageMetadata.CandidatesTokenCount
	}
	if len(parsed.Candidates) == 0 {
		return d, true
	}

	cand := parsed.Candidates[0]
	for _, p := range cand.Content.Parts {
		d.text += p.Text
	}
	if cand.FinishReason != "" {
		d.finishReason = cand.FinishReason
		return d, true
	}
	return d, true
}

// googleStopFrom reports whether a rendered delta should also trigger a
// synthesized deltaStop; Gemini folds its stop signal into the last
// content-bearing chunk rather than emitting a separate terminal event.
func googleStopFrom(d delta) (delta, bool) {
	if d.finishReason == "" {
		return delta{}, false
	}
	return delta{kind: deltaStop, finishReason: d.finishReason, outputTokens: d.outputTokens}, true
}
