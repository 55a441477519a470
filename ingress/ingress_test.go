package ingress

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAnthropic_StringContent(t *testing.T) {
	body := `{"model":"claude","max_tokens":100,"system":"be terse","messages":[{"role":"user","content":"hello there"}]}`
	r := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	r.Header.Set("anthropic-version", "2023-06-01")

	pr, err := Decode(r, FormatAnthropic)
	require.NoError(t, err)
	assert.Equal(t, "be terse", pr.System)
	assert.Equal(t, "hello there", pr.LastUserUtterance())
	assert.Equal(t, "2023-06-01", pr.AnthropicVersion)
	assert.False(t, pr.HasTools)
	assert.NotEmpty(t, pr.RawBody)
}

func TestDecodeAnthropic_BlockContent(t *testing.T) {
	body := `{"max_tokens":1,"messages":[{"role":"user","content":[{"type":"text","text":"part one"},{"type":"tool_result","text":"ignored"}]}]}`
	r := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))

	pr, err := Decode(r, FormatAnthropic)
	require.NoError(t, err)
	assert.Equal(t, "part one", pr.LastUserUtterance())
}

func TestDecodeAnthropic_Tools(t *testing.T) {
	body := `{"max_tokens":1,"messages":[{"role":"user","content":"x"}],"tools":[{"name":"lookup"}]}`
	r := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))

	pr, err := Decode(r, FormatAnthropic)
	require.NoError(t, err)
	assert.True(t, pr.HasTools)
}

func TestDecodeAnthropic_UnsupportedRole(t *testing.T) {
	body := `{"max_tokens":1,"messages":[{"role":"narrator","content":"x"}]}`
	r := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))

	_, err := Decode(r, FormatAnthropic)
	assert.Error(t, err)
}

func TestDecodeChatCompletions_SplitsSystemMessage(t *testing.T) {
	body := `{"model":"gpt-4o","messages":[{"role":"system","content":"be terse"},{"role":"user","content":"hi"}]}`
	r := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	r.Header.Set(HeaderSessionID, "sess-123")

	pr, err := Decode(r, FormatOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "be terse", pr.System)
	assert.Equal(t, "hi", pr.LastUserUtterance())
	assert.Equal(t, "sess-123", pr.SessionID)
	assert.Equal(t, 1, pr.ConversationTurns())
}

func TestDecode_ForceModelHeaderWins(t *testing.T) {
	body := `{"max_tokens":1,"messages":[{"role":"user","content":"x"}]}`
	r := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(body))
	r.Header.Set(HeaderForceModel, "opus")

	pr, err := Decode(r, FormatAnthropic)
	require.NoError(t, err)
	assert.Equal(t, "opus", pr.ForceModelHeader)
}
