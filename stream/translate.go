package streaming

import (
	"fmt"
	"io"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/ingress"
)

// Result is what Translate reports once the upstream stream ends: the
// accumulated token usage and the last finish reason observed, for the
// routing-log entry.
type Result struct {
	Usage        Usage
	FinishReason string
}

// Translate reads the upstream SSE byte stream from body (whose event
// grammar is determined by upstreamProvider) and writes it to w in
// clientFormat's dialect, calling flush after every write so the HTTP
// handler's response writer pushes bytes immediately.
//
// Anthropic upstream to an Anthropic client, and OpenAI-compatible
// upstream to an OpenAI client, are byte-faithful passthrough: the same
// event/data lines are re-emitted unmodified. Every other pairing —
// including anything from Google, which has no client-facing dialect of
// its own — is synthesized from the neutral start/text/stop delta
// sequence.
func Translate(body io.Reader, upstreamProvider catalog.Provider, clientFormat ingress.Format, w io.Writer, flush func()) (Result, error) {
	parser := NewParser(body)

	var usage Usage
	var finishReason string
	var ae anthropicEmitter
	var oe openAIEmitter

	passthroughAnthropic := upstreamProvider == catalog.ProviderAnthropic && clientFormat == ingress.FormatAnthropic
	passthroughOpenAI := upstreamProvider != catalog.ProviderAnthropic && upstreamProvider != catalog.ProviderGoogle && clientFormat == ingress.FormatOpenAI

	for {
		ev, ok := parser.Next()
		if !ok {
			break
		}
		if ev.Comment != "" {
			continue
		}

		switch {
		case passthroughAnthropic:
			writeRaw(w, ev)
			if d, ok := anthropicToDelta(ev); ok {
				usage.observe(d)
				if d.finishReason != "" {
					finishReason = d.finishReason
				}
			}
		case passthroughOpenAI:
			writeRaw(w, ev)
			if d, ok := openAIToDelta(ev); ok {
				usage.observe(d)
				if d.finishReason != "" {
					finishReason = d.finishReason
				}
			}
		default:
			d, ok := parseUpstream(upstreamProvider, ev)
			if !ok {
				flush()
				continue
			}
			usage.observe(d)
			if d.finishReason != "" {
				finishReason = d.finishReason
			}
			emitNeutral(clientFormat, &ae, &oe, d, w)
			if upstreamProvider == catalog.ProviderGoogle {
				if stopD, ok := googleStopFrom(d); ok {
					emitNeutral(clientFormat, &ae, &oe, stopD, w)
				}
			}
		}
		flush()
	}
	return Result{Usage: usage, FinishReason: finishReason}, parser.Err()
}

func parseUpstream(provider catalog.Provider, ev Event) (delta, bool) {
	switch provider {
	case catalog.ProviderAnthropic:
		return anthropicToDelta(ev)
	case catalog.ProviderGoogle:
		return googleToDelta(ev)
	default:
		return openAIToDelta(ev)
	}
}

// emitNeutral renders d in the client's dialect, synthesizing the
// Anthropic start event on first text for upstreams (Google,
// OpenAI-compat) whose own grammar has no equivalent.
func emitNeutral(format ingress.Format, ae *anthropicEmitter, oe *openAIEmitter, d delta, w io.Writer) {
	switch format {
	case ingress.FormatAnthropic:
		if d.kind == deltaText && !ae.started {
			writeEvents(w, ae.render(delta{kind: deltaStart}))
		}
		writeEvents(w, ae.render(d))
	default:
		writeEvents(w, oe.render(d))
	}
}

func writeEvents(w io.Writer, events []Event) {
	for _, ev := range events {
		writeRaw(w, ev)
	}
}

func writeRaw(w io.Writer, ev Event) {
	if ev.Event != "" {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, ev.Data)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", ev.Data)
}
