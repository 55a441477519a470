// Package dedup collapses concurrent identical requests into a single
// dispatcher call: the first caller for a key becomes the producer, later
// callers with the same key fan out onto its result instead of re-dispatching.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"

	"github.com/throttlehq/throttle/ingress"
)

// timestampPrefix matches a leading "[DAY YYYY-MM-DD HH:MM TZ]" stamp some
// clients prepend to the first user message, e.g.
// "[Tue 2026-07-29 14:03 PDT] what's on my calendar". Per the resolved Open
// Question, only the leading occurrence is stripped; additional or
// mid-message occurrences are left in place.
var timestampPrefix = regexp.MustCompile(`^\[[A-Za-z]{3} \d{4}-\d{2}-\d{2} \d{2}:\d{2} [A-Za-z]+\] *`)

type canonicalMessage struct {
	Role    ingress.Role `json:"role"`
	Content string       `json:"content"`
}

type canonicalForm struct {
	System   string             `json:"system"`
	Messages []canonicalMessage `json:"messages"`
}

// Key computes the canonical dedup key for a parsed request: the first 16
// hex characters of the SHA-256 digest of the JSON-canonicalized
// {system, messages}, with a single leading timestamp stamp stripped from
// the first message's content.
func Key(pr ingress.ParsedRequest) string {
	form := canonicalForm{System: pr.System, Messages: make([]canonicalMessage, len(pr.Messages))}
	for i, m := range pr.Messages {
		content := m.Content
		if i == 0 {
			content = timestampPrefix.ReplaceAllString(content, "")
		}
		form.Messages[i] = canonicalMessage{Role: m.Role, Content: content}
	}

	// json.Marshal on a fixed struct shape is already a canonical encoding:
	// field order is the struct's declaration order, not map iteration.
	encoded, err := json.Marshal(form)
	if err != nil {
		// Content is always valid UTF-8 text decoded from JSON already;
		// Marshal of this struct shape cannot fail in practice.
		encoded = []byte(pr.System)
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])[:16]
}
