// Package override recognizes the classification-bypassing directives
// described in spec §4.3: heartbeat/summary prompts, explicit force-model
// tokens, sub-agent tier inheritance, and the tool-calling floor. Detection
// is a pure ordered scan; first match wins.
package override

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/throttlehq/throttle/catalog"
)

// Kind is the tagged-variant discriminator for a Result.
type Kind string

const (
	KindNone             Kind = "none"
	KindHeartbeat        Kind = "heartbeat"
	KindForceModel       Kind = "force_model"
	KindToolCalling      Kind = "tool_calling"
	KindSubAgentInherit  Kind = "sub_agent_inherit"
	KindSubAgentStepdown Kind = "sub_agent_stepdown"
)

// Result is the tagged variant the router consumes. ModelID carries the
// payload for force_model and the two sub_agent_* variants; it is empty
// for none/heartbeat/tool_calling.
type Result struct {
	Kind    Kind
	ModelID string
}

var heartbeatPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*ping\s*$`),
	regexp.MustCompile(`(?i)^\s*pong\s*$`),
	regexp.MustCompile(`(?i)^\s*heartbeat\s*$`),
	regexp.MustCompile(`(?i)^\s*are you there\??\s*$`),
	regexp.MustCompile(`(?i)^\s*summari[sz]e\b`),
	regexp.MustCompile(`(?i)^\s*tl;?dr\b`),
	regexp.MustCompile(`(?i)^\s*recap\b`),
	regexp.MustCompile(`(?i)^\s*give me a (brief )?summary\b`),
}

func isHeartbeat(text string) bool {
	for _, p := range heartbeatPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

var inlinePrefixRx = regexp.MustCompile(`^\s*/([a-zA-Z0-9_-]+)\b`)

// ParentLookup resolves a parent request id to the model it was routed to.
// Implementations are backed by the routing log.
type ParentLookup func(parentRequestID string) (modelID string, found bool)

// Input is everything the detector needs to classify one request.
type Input struct {
	UserText         string
	ForceModelHeader string
	// Aliases maps a configured alias (header value or inline-prefix
	// command, without the leading slash) to a catalog model id.
	Aliases map[string]string
	HasTools         bool
	ParentRequestID  string
	Lookup           ParentLookup
	Hierarchy        *catalog.Registry
}

// Detect runs the ordered evaluation from spec §4.3 and returns the first
// matching variant.
func Detect(in Input, logger *zap.Logger) Result {
	if isHeartbeat(in.UserText) {
		return Result{Kind: KindHeartbeat}
	}

	if id, ok := resolveForceModel(in); ok {
		return Result{Kind: KindForceModel, ModelID: id}
	}

	if in.ParentRequestID != "" && in.Lookup != nil {
		parentModel, found := in.Lookup(in.ParentRequestID)
		if !found {
			logger.Warn("sub-agent parent request id not found in routing log",
				zap.String("parent_request_id", in.ParentRequestID))
		} else {
			return resolveSubAgent(parentModel, in.Hierarchy)
		}
	}

	if in.HasTools {
		return Result{Kind: KindToolCalling}
	}

	return Result{Kind: KindNone}
}

func resolveForceModel(in Input) (string, bool) {
	if in.ForceModelHeader != "" {
		if id, ok := in.Aliases[strings.ToLower(in.ForceModelHeader)]; ok {
			return id, true
		}
	}
	m := inlinePrefixRx.FindStringSubmatch(in.UserText)
	if m != nil {
		if id, ok := in.Aliases[strings.ToLower(m[1])]; ok {
			return id, true
		}
	}
	return "", false
}

// resolveSubAgent implements the "model hierarchy [cheapest .. most
// capable]" rule: a sub-agent one step below its parent, or inherit when
// the parent is already at the floor (or sits outside the hierarchy
// entirely, per the resolved Open Question).
func resolveSubAgent(parentModelID string, hierarchy *catalog.Registry) Result {
	if hierarchy == nil {
		return Result{Kind: KindSubAgentInherit, ModelID: parentModelID}
	}
	down, ok := hierarchy.StepDown(parentModelID)
	if !ok {
		return Result{Kind: KindSubAgentInherit, ModelID: parentModelID}
	}
	return Result{Kind: KindSubAgentStepdown, ModelID: down.ID}
}

// IsKnownAlias reports whether alias (header value or inline-prefix command
// sans slash) resolves to a configured model. Used by the api handlers to return
// invalid_request for an unknown X-Throttle-Force-Model value.
func IsKnownAlias(aliases map[string]string, alias string) bool {
	_, ok := aliases[strings.ToLower(alias)]
	return ok
}
