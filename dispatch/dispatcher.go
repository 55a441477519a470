package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/ratelimit"
	"github.com/throttlehq/throttle/types"
)

// DefaultOutboundRPS bounds how many outbound calls per second this
// process makes to any single provider, independent of that provider's own
// 429s; it protects a shared upstream account from this process's own
// concurrency rather than reacting to a throttling response.
const DefaultOutboundRPS = 20

// DefaultOutboundBurst is the token bucket's burst size for
// DefaultOutboundRPS.
const DefaultOutboundBurst = 10

// Dispatcher owns one adapter per provider. It is the process singleton
// responsible for all outbound HTTP to LLM backends. Every dispatch goes
// to one model; the Anthropic adapter retries once on the other key after
// a 429 or 401, and every other upstream failure is surfaced to the
// caller rather than retried here.
type Dispatcher struct {
	Anthropic    *AnthropicAdapter
	Google       *GoogleAdapter
	OpenAICompat map[catalog.Provider]*OpenAICompatAdapter

	Limiter *ratelimit.Limiter
	Logger  *zap.Logger

	mu       sync.Mutex
	outbound map[catalog.Provider]*rate.Limiter
}

// NewDispatcher wires the provider adapters together with shared
// rate-limiting state.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		OpenAICompat: make(map[catalog.Provider]*OpenAICompatAdapter),
		Limiter:      ratelimit.NewLimiter(),
		Logger:       logger,
		outbound:     make(map[catalog.Provider]*rate.Limiter),
	}
}

// outboundLimiterFor returns (creating if needed) the token bucket that
// paces this process's outbound calls to provider.
func (d *Dispatcher) outboundLimiterFor(provider catalog.Provider) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.outbound[provider]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(DefaultOutboundRPS), DefaultOutboundBurst)
	d.outbound[provider] = l
	return l
}

// Send dispatches a single-attempt, non-streaming request to the given
// provider/model. On a 429 from a non-Anthropic provider it marks the
// model rate-limited, per spec §4.7.
func (d *Dispatcher) Send(ctx context.Context, provider catalog.Provider, req Request, anthropicVersion string) (*ProxyResponse, []byte, error) {
	resp, raw, err := d.call(ctx, provider, req, anthropicVersion)
	if err != nil {
		if d.Limiter != nil && types.GetErrorCode(err) == types.ErrUpstreamRateLimit && provider != catalog.ProviderAnthropic {
			d.Limiter.MarkRateLimited(req.ModelID, ratelimit.DefaultCooldown)
		}
		return nil, nil, err
	}
	return resp, raw, nil
}

func (d *Dispatcher) call(ctx context.Context, provider catalog.Provider, req Request, anthropicVersion string) (*ProxyResponse, []byte, error) {
	if err := d.outboundLimiterFor(provider).Wait(ctx); err != nil {
		return nil, nil, types.NewError(types.ErrInternal, "outbound rate limiter wait: "+err.Error()).WithProvider(string(provider))
	}
	switch provider {
	case catalog.ProviderAnthropic:
		return d.Anthropic.Send(ctx, req, anthropicVersion)
	case catalog.ProviderGoogle:
		return d.Google.Send(ctx, req)
	default:
		adapter, ok := d.OpenAICompat[provider]
		if !ok {
			return nil, nil, types.NewError(types.ErrInternal, fmt.Sprintf("no adapter configured for provider %q", provider))
		}
		return adapter.Send(ctx, req)
	}
}

// StreamUpstream issues the upstream call with stream:true and returns the
// raw response body for the response mediator's SSE translation, bypassing
// retry and the dedup cache (both too expensive to apply to a stream).
func (d *Dispatcher) StreamUpstream(ctx context.Context, provider catalog.Provider, req Request, anthropicVersion string, httpClient *http.Client) (*StreamResponse, error) {
	req.Stream = true
	start := time.Now()

	if err := d.outboundLimiterFor(provider).Wait(ctx); err != nil {
		return nil, types.NewError(types.ErrInternal, "outbound rate limiter wait: "+err.Error()).WithProvider(string(provider))
	}

	var endpoint string
	var headers map[string]string

	switch provider {
	case catalog.ProviderAnthropic:
		endpoint, headers = d.anthropicStreamTarget(req, anthropicVersion)
	case catalog.ProviderGoogle:
		endpoint, headers = d.googleStreamTarget(req)
	default:
		adapter, ok := d.OpenAICompat[provider]
		if !ok {
			return nil, types.NewError(types.ErrInternal, fmt.Sprintf("no adapter configured for provider %q", provider))
		}
		endpoint = adapter.Config.BaseURL
		headers = map[string]string{"Authorization": "Bearer " + adapter.Config.APIKey}
	}

	httpReq, _, err := buildStreamRequest(ctx, provider, req, endpoint, headers)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapNetworkError(string(provider), err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, mapUpstreamError(string(provider), resp.StatusCode, resp.Body)
	}

	return &StreamResponse{
		Body:         resp.Body,
		ModelID:      req.ModelID,
		Provider:     provider,
		UpstreamCode: resp.StatusCode,
		StartedAt:    start,
	}, nil
}

func (d *Dispatcher) anthropicStreamTarget(req Request, anthropicVersion string) (string, map[string]string) {
	primary, _, _ := d.Anthropic.DualKey.Select()
	headerName, headerValue := authHeader(d.Anthropic.keyFor(primary), d.Anthropic.Config.AuthType)
	return d.Anthropic.baseURL() + "/v1/messages", map[string]string{
		headerName:          headerValue,
		"anthropic-version": anthropicVersion,
	}
}

func (d *Dispatcher) googleStreamTarget(req Request) (string, map[string]string) {
	return fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse&key=%s",
		d.Google.baseURL(), req.ModelID, d.Google.Config.APIKey), nil
}
