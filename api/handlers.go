package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/classifier"
	"github.com/throttlehq/throttle/dedup"
	"github.com/throttlehq/throttle/dispatch"
	"github.com/throttlehq/throttle/ingress"
	"github.com/throttlehq/throttle/override"
	"github.com/throttlehq/throttle/routing"
	"github.com/throttlehq/throttle/routinglog"
	"github.com/throttlehq/throttle/types"
)

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	s.handleChat(w, r, ingress.FormatAnthropic)
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	s.handleChat(w, r, ingress.FormatOpenAI)
}

// handleChat is the shared pipeline behind both chat routes: decode,
// classify, detect overrides, route, then either stream or dispatch and
// reply once. The two routes differ only in ingress.Format.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, format ingress.Format) {
	ctx := r.Context()
	requestID := uuid.NewString()

	pr, err := ingress.Decode(r, format)
	if err != nil {
		writeError(w, types.NewError(types.ErrInvalidRequest, err.Error()))
		return
	}

	if pr.ForceModelHeader != "" && !override.IsKnownAlias(s.Aliases, strings.ToLower(pr.ForceModelHeader)) {
		writeError(w, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unknown force-model alias %q", pr.ForceModelHeader)))
		return
	}

	tokenCount, err := s.Tokenizer.CountTokens(pr.LastUserUtterance())
	var tokenCountPtr *int
	if err == nil {
		tokenCountPtr = &tokenCount
	}

	classResult := classifier.Classify(classifier.Input{
		Text:              pr.LastUserUtterance(),
		SystemPrompt:      pr.System,
		ConversationTurns: pr.ConversationTurns(),
		TokenCount:        tokenCountPtr,
	}, s.Weights, s.Thresholds)

	ov := override.Detect(override.Input{
		UserText:         pr.LastUserUtterance(),
		ForceModelHeader: pr.ForceModelHeader,
		Aliases:          s.Aliases,
		HasTools:         pr.HasTools,
		ParentRequestID:  pr.ParentRequestID,
		Lookup:           s.RoutingLog.Lookup,
		Hierarchy:        s.Registry,
	}, s.Logger)

	routeStart := time.Now()
	decision, err := s.Router.Route(routing.Input{
		Score:      classResult.Score,
		Tier:       classResult.Tier,
		Confidence: classResult.Confidence,
		Mode:       s.Mode,
		Override:   ov,
		SessionID:  pr.SessionID,
	})
	if s.Metrics != nil {
		s.Metrics.ObserveRoutingDuration(classResult.Tier.String(), time.Since(routeStart))
	}
	if err != nil {
		writeError(w, types.NewError(types.ErrNoAvailableModel, err.Error()))
		return
	}

	model, ok := s.Registry.Resolve(decision.ModelID)
	if !ok {
		writeError(w, types.NewError(types.ErrInternal, fmt.Sprintf("routed model %q not in catalog", decision.ModelID)))
		return
	}

	if s.Metrics != nil {
		s.Metrics.RecordRequest(string(format), decision.Tier.String(), decision.ModelID)
	}

	if pr.Stream {
		s.handleStream(w, ctx, pr, decision, model, format, requestID, classResult)
		return
	}
	s.handleOnce(ctx, w, pr, decision, model, format, requestID, classResult)
}

// handleOnce dispatches a non-streaming request through the dedup cache.
// produce runs at most once among callers sharing the same canonical key;
// only the call that actually ran produce has a non-nil proxyResp to log
// to the routing log, matching a cache replay's existing behavior of
// never re-logging a prior producer's request.
func (s *Server) handleOnce(ctx context.Context, w http.ResponseWriter, pr ingress.ParsedRequest, decision routing.Decision, model catalog.ModelSpec, format ingress.Format, requestID string, classResult classifier.Result) {
	key := dedup.Key(pr)
	start := time.Now()

	var proxyResp *dispatch.ProxyResponse
	entry, hit, err := s.Dedup.Do(ctx, key, func() (*dedup.CompletedEntry, error) {
		req := toDispatchRequest(pr, decision.ModelID)
		resp, raw, derr := s.Dispatcher.Send(ctx, model.Provider, req, pr.AnthropicVersion)
		if derr != nil {
			if pr.SessionID != "" {
				s.Sessions.MarkFailed(pr.SessionID)
			}
			return nil, derr
		}
		body, eerr := encodeResponse(resp, raw, string(model.Provider), format)
		if eerr != nil {
			return nil, eerr
		}
		proxyResp = resp
		return &dedup.CompletedEntry{
			Status:  http.StatusOK,
			Headers: http.Header{"Content-Type": []string{"application/json"}},
			Body:    body,
		}, nil
	})

	setThrottleHeaders(w, decision, classResult, requestID)

	if err != nil {
		writeError(w, err)
		return
	}

	if s.Metrics != nil {
		switch hit {
		case dedup.HitReplay:
			s.Metrics.RecordDedupHit("replay")
		case dedup.HitInFlight:
			s.Metrics.RecordDedupHit("in_flight")
		default:
			s.Metrics.RecordDedupMiss()
		}
	}

	for k, vs := range entry.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(entry.Status)
	w.Write(entry.Body)

	if proxyResp != nil {
		proxyResp.LatencyMs = time.Since(start).Milliseconds()
		s.recordCompletedRequest(requestID, pr, decision, model, classResult, proxyResp)
	}
}

func setThrottleHeaders(w http.ResponseWriter, decision routing.Decision, classResult classifier.Result, requestID string) {
	w.Header().Set("X-Throttle-Model", decision.ModelID)
	w.Header().Set("X-Throttle-Tier", decision.Tier.String())
	w.Header().Set("X-Throttle-Score", fmt.Sprintf("%.3f", classResult.Score))
	w.Header().Set("X-Throttle-Confidence", fmt.Sprintf("%.3f", classResult.Confidence))
	w.Header().Set("X-Throttle-Request-Id", requestID)
}

// recordCompletedRequest appends the routing-log entry for a finished
// request, streaming or not. A write failure is logged, not propagated:
// the response has already been sent to the client.
func (s *Server) recordCompletedRequest(requestID string, pr ingress.ParsedRequest, decision routing.Decision, model catalog.ModelSpec, classResult classifier.Result, resp *dispatch.ProxyResponse) {
	entry := routinglog.Entry{
		RequestID:        requestID,
		Timestamp:        time.Now(),
		PromptHash:       dedup.Key(pr),
		Score:            classResult.Score,
		Confidence:       classResult.Confidence,
		Tier:             decision.Tier.String(),
		ModelID:          decision.ModelID,
		Provider:         string(model.Provider),
		Mode:             string(decision.Mode),
		Override:         string(decision.Override),
		InputTokens:      resp.InputTokens,
		OutputTokens:     resp.OutputTokens,
		EstimatedCostUSD: estimateCostUSD(model, resp.InputTokens, resp.OutputTokens),
		LatencyMs:        resp.LatencyMs,
		ParentRequestID:  pr.ParentRequestID,
		ClientID:         pr.ClientID,
		KeyType:          string(resp.KeyType),
		Failover:         resp.Failover,
	}
	if err := s.RoutingLog.Append(entry); err != nil {
		s.Logger.Warn("routing log append failed", zap.String("request_id", requestID), zap.Error(err))
	}
}

func estimateCostUSD(model catalog.ModelSpec, inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000*model.InputCostPerMTok +
		float64(outputTokens)/1_000_000*model.OutputCostPerMTok
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Mode:          string(s.Mode),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

type healthResponse struct {
	Status        string `json:"status"`
	Mode          string `json:"mode"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

const defaultStatsDays = 30

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	days := defaultStatsDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			days = n
		}
	}
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	mostExpensive := s.Registry.MostExpensive()
	stats, err := routinglog.Aggregate(s.RoutingLogPath, since, now, routinglog.BaselineModel{
		ID:                mostExpensive.ID,
		InputCostPerMTok:  mostExpensive.InputCostPerMTok,
		OutputCostPerMTok: mostExpensive.OutputCostPerMTok,
	})
	if err != nil {
		writeError(w, types.NewError(types.ErrInternal, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
