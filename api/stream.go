package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/throttlehq/throttle/catalog"
	"github.com/throttlehq/throttle/classifier"
	"github.com/throttlehq/throttle/dispatch"
	"github.com/throttlehq/throttle/ingress"
	"github.com/throttlehq/throttle/routing"
	streaming "github.com/throttlehq/throttle/stream"
	"github.com/throttlehq/throttle/types"
)

// firstByteReader calls onFirstByte the first time Read yields data, so a
// heartbeat started before the upstream call can stop the instant real
// content starts arriving instead of on a fixed schedule.
type firstByteReader struct {
	r           io.Reader
	onFirstByte func()
	once        sync.Once
}

func (f *firstByteReader) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if n > 0 {
		f.once.Do(f.onFirstByte)
	}
	return n, err
}

// handleStream dispatches a streaming request and translates the upstream
// SSE into the client's wire dialect, heartbeating the connection while
// waiting on a slow-starting upstream. The HTTP status is committed to 200
// before dispatch begins since a streaming response can't be downgraded to
// an error status once bytes start flowing; a failure after that point is
// reported as an in-band SSE error event instead.
func (s *Server) handleStream(w http.ResponseWriter, ctx context.Context, pr ingress.ParsedRequest, decision routing.Decision, model catalog.ModelSpec, format ingress.Format, requestID string, classResult classifier.Result) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, types.NewError(types.ErrInternal, "response writer does not support streaming"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	setThrottleHeaders(w, decision, classResult, requestID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	req := toDispatchRequest(pr, decision.ModelID)
	start := time.Now()

	hb := streaming.NewHeartbeat(func(chunk string) error {
		_, err := io.WriteString(w, chunk)
		if err == nil {
			flusher.Flush()
		}
		return err
	})
	hb.Start()

	streamResp, err := s.Dispatcher.StreamUpstream(ctx, model.Provider, req, pr.AnthropicVersion, s.HTTPClient)
	if err != nil {
		hb.Stop()
		writeSSEError(w, flusher, err)
		return
	}
	defer streamResp.Body.Close()

	body := &firstByteReader{r: streamResp.Body, onFirstByte: hb.Stop}
	result, err := streaming.Translate(body, model.Provider, format, w, flusher.Flush)
	hb.Stop()
	if err != nil {
		s.Logger.Warn("stream translation ended with error",
			zap.String("request_id", requestID), zap.Error(err))
		return
	}

	if s.Metrics != nil {
		s.Metrics.RecordStreamChunk(string(model.Provider))
	}

	proxyResp := &dispatch.ProxyResponse{
		ModelID:      decision.ModelID,
		Provider:     model.Provider,
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		FinishReason: result.FinishReason,
		LatencyMs:    time.Since(start).Milliseconds(),
		KeyType:      streamResp.KeyType,
		Failover:     streamResp.Failover,
	}
	s.recordCompletedRequest(requestID, pr, decision, model, classResult, proxyResp)
}

// writeSSEError emits a best-effort SSE error event when dispatch fails
// after the 200 status has already been committed to the client.
func writeSSEError(w io.Writer, flusher http.Flusher, err error) {
	e := types.AsError(err)
	fmt.Fprintf(w, "event: error\ndata: {\"error\":{\"type\":%q,\"message\":%q}}\n\n", e.Code, e.Message)
	flusher.Flush()
}

