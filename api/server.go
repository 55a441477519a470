package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/classifier"
	"github.com/throttlehq/throttle/config"
	"github.com/throttlehq/throttle/dedup"
	"github.com/throttlehq/throttle/dispatch"
	"github.com/throttlehq/throttle/internal/metrics"
	"github.com/throttlehq/throttle/ratelimit"
	"github.com/throttlehq/throttle/routing"
	"github.com/throttlehq/throttle/routinglog"
	"github.com/throttlehq/throttle/session"
	"github.com/throttlehq/throttle/tokenizer"
)

// openAICompatProviders lists every provider dispatched through the
// generic OpenAI-wire-compatible adapter rather than a bespoke one.
var openAICompatProviders = []catalog.Provider{
	catalog.ProviderOpenAI,
	catalog.ProviderDeepSeek,
	catalog.ProviderXAI,
	catalog.ProviderMoonshot,
	catalog.ProviderMistral,
	catalog.ProviderOllama,
}

// outboundHTTPTimeout bounds one upstream call, streaming or not; the
// heartbeat keeps intermediate proxies alive well under this.
const outboundHTTPTimeout = 120 * time.Second

// Server holds every component the four HTTP handlers wire together. It is
// built once at startup and is safe for concurrent use by every request
// goroutine.
type Server struct {
	Registry   *catalog.Registry
	Table      *catalog.RoutingTable
	Weights    classifier.Weights
	Thresholds classifier.Thresholds
	Mode       catalog.Mode

	Router     *routing.Router
	Dispatcher *dispatch.Dispatcher
	Dedup      *dedup.Cache
	Sessions   *session.Store
	RoutingLog *routinglog.Writer
	RoutingLogPath string
	Tokenizer  tokenizer.Tokenizer
	Aliases    map[string]string

	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Collector

	startedAt time.Time
}

// NewServer loads the catalog, routing table and classifier weights named
// by cfg, wires the provider adapters for every configured credential, and
// returns a ready-to-serve Server. The caller is responsible for calling
// Close when done.
func NewServer(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) (*Server, error) {
	registry, err := catalog.LoadRegistry(cfg.ModelCatalogPath)
	if err != nil {
		return nil, err
	}
	table, err := catalog.LoadRoutingTable(cfg.RoutingTablePath, registry)
	if err != nil {
		return nil, err
	}
	weights, err := classifier.LoadWeights(cfg.Classifier.WeightsPath)
	if err != nil {
		return nil, err
	}
	mode, err := catalog.NormalizeMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	routingLog, err := routinglog.NewWriter(cfg.RoutingLogPath, logger)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: outboundHTTPTimeout}
	dispatcher := dispatch.NewDispatcher(logger)

	anthropicCfg := cfg.AnthropicAdapterConfig()
	dispatcher.Anthropic = &dispatch.AnthropicAdapter{
		Config:     anthropicCfg,
		HTTPClient: httpClient,
		DualKey:    ratelimit.NewDualKeyState(anthropicCfg.PreferSetupToken),
	}
	dispatcher.Google = &dispatch.GoogleAdapter{
		Config:     cfg.GoogleAdapterConfig(),
		HTTPClient: httpClient,
	}
	for _, p := range openAICompatProviders {
		dispatcher.OpenAICompat[p] = &dispatch.OpenAICompatAdapter{
			ProviderName: string(p),
			Config:       cfg.OpenAICompatAdapterConfig(p),
			HTTPClient:   httpClient,
		}
	}

	sessions := session.NewStore(session.DefaultIdleTimeout, session.DefaultCleanupInterval)

	router := &routing.Router{
		Registry:   registry,
		Table:      table,
		Limiter:    dispatcher.Limiter,
		Configured: cfg,
		Sessions:   sessions,
	}

	tokenizer.RegisterOpenAITokenizers()

	return &Server{
		Registry:   registry,
		Table:      table,
		Weights:    weights,
		Thresholds: cfg.ClassifierThresholds(),
		Mode:       mode,
		Router:     router,
		Dispatcher: dispatcher,
		Dedup:      dedup.NewCache(dedup.DefaultTTL),
		Sessions:   sessions,
		RoutingLog: routingLog,
		RoutingLogPath: cfg.RoutingLogPath,
		Tokenizer:  tokenizer.GetTokenizerOrEstimator("gpt-4"),
		Aliases:    buildAliases(registry),
		HTTPClient: httpClient,
		Logger:     logger,
		Metrics:    collector,
		startedAt:  time.Now(),
	}, nil
}

// Close releases the background goroutines Server started.
func (s *Server) Close() error {
	s.Sessions.Close()
	return s.RoutingLog.Close()
}

// Routes builds the HTTP mux the rest of the proxy's middleware chain
// wraps.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/messages", s.handleMessages)
	mux.HandleFunc("POST /v1/chat/completions", s.handleChatCompletions)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)
	return mux
}
