// Package ingress decodes the two inbound HTTP shapes (Messages-style and
// ChatCompletions-style) into a neutral representation and extracts the
// routing-control headers the rest of the pipeline acts on.
package ingress

// Role is restricted to the two roles the neutral representation accepts;
// a system prompt is carried separately on ParsedRequest.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Format records which wire dialect a request arrived in, driving outbound
// translation in the response mediator.
type Format string

const (
	FormatAnthropic Format = "anthropic"
	FormatOpenAI    Format = "openai"
)

// NeutralMessage is a role plus textual content. Opaque tool-call content
// blocks in the raw request, if present, are preserved separately on
// ParsedRequest.RawBody for provider passthrough; NeutralMessage only ever
// carries the plain-text view used by the classifier and dedup key.
type NeutralMessage struct {
	Role    Role
	Content string
}

// ParsedRequest is the ingress's output: everything downstream stages need,
// independent of which wire shape it arrived in.
type ParsedRequest struct {
	Messages     []NeutralMessage
	System       string
	MaxTokens    int
	Temperature  *float64
	Stream       bool
	HasTools     bool
	Format       Format

	// RawBody and the following headers are only populated for
	// Messages-style ingress; they let the dispatcher forward an Anthropic
	// request byte-for-byte except for model/stream, so tools, tool_choice,
	// thinking, metadata and tool-content blocks round-trip exactly.
	// AnthropicBeta is passed on to dispatch but not sent upstream.
	RawBody          []byte
	AnthropicVersion string
	AnthropicBeta    string

	// ForceModelHeader, SessionID, ClientID and ParentRequestID come from
	// request headers, not the body.
	ForceModelHeader string
	SessionID        string
	ClientID         string
	ParentRequestID  string
}

// LastUserUtterance returns the text of the most recent user-role message,
// the input the classifier scores.
func (p ParsedRequest) LastUserUtterance() string {
	for i := len(p.Messages) - 1; i >= 0; i-- {
		if p.Messages[i].Role == RoleUser {
			return p.Messages[i].Content
		}
	}
	return ""
}

// ConversationTurns is the number of messages, used as the classifier's
// conversationDepth signal.
func (p ParsedRequest) ConversationTurns() int {
	return len(p.Messages)
}
