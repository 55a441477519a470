package streaming

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/ingress"
)

func noopFlush() {}

func TestTranslate_AnthropicToAnthropicIsPassthrough(t *testing.T) {
	raw := "event: message_start\ndata: {\"type\":\"message_start\",\"message\":{\"model\":\"claude-haiku\",\"usage\":{\"input_tokens\":10,\"output_tokens\":0}}}\n\n" +
		"event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n\n" +
		"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"

	var out bytes.Buffer
	result, err := Translate(strings.NewReader(raw), catalog.ProviderAnthropic, ingress.FormatAnthropic, &out, noopFlush)
	require.NoError(t, err)
	assert.Equal(t, raw, out.String())
	assert.Equal(t, 10, result.Usage.InputTokens)
}

func TestTranslate_OpenAIToOpenAIIsPassthrough(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n" +
		"data: [DONE]\n\n"

	var out bytes.Buffer
	_, err := Translate(strings.NewReader(raw), catalog.ProviderOpenAI, ingress.FormatOpenAI, &out, noopFlush)
	require.NoError(t, err)
	assert.Equal(t, raw, out.String())
}

func TestTranslate_OpenAIUpstreamToAnthropicClientSynthesizesEvents(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
		"data: [DONE]\n\n"

	var out bytes.Buffer
	_, err := Translate(strings.NewReader(raw), catalog.ProviderOpenAI, ingress.FormatAnthropic, &out, noopFlush)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "event: message_start")
	assert.Contains(t, got, "event: content_block_start")
	assert.Contains(t, got, `"text":"hel"`)
	assert.Contains(t, got, `"text":"lo"`)
	assert.Contains(t, got, "event: message_stop")
}

func TestTranslate_GoogleUpstreamToOpenAIClientSynthesizesEvents(t *testing.T) {
	raw := "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"hi\"}]}}]}\n\n" +
		"data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"\"}]},\"finishReason\":\"STOP\"}],\"usageMetadata\":{\"promptTokenCount\":5,\"candidatesTokenCount\":2}}\n\n"

	var out bytes.Buffer
	result, err := Translate(strings.NewReader(raw), catalog.ProviderGoogle, ingress.FormatOpenAI, &out, noopFlush)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, `"content":"hi"`)
	assert.Contains(t, got, `"finish_reason":"STOP"`)
	assert.Contains(t, got, "[DONE]")
	assert.Equal(t, 5, result.Usage.InputTokens)
	assert.Equal(t, 2, result.Usage.OutputTokens)
}

func TestTranslate_AnthropicUpstreamToOpenAIClientSynthesizesEvents(t *testing.T) {
	raw := "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n\n" +
		"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"

	var out bytes.Buffer
	_, err := Translate(strings.NewReader(raw), catalog.ProviderAnthropic, ingress.FormatOpenAI, &out, noopFlush)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, `"content":"hi"`)
	assert.Contains(t, got, "[DONE]")
	assert.NotContains(t, got, "message_start")
}
