package ingress

import "net/http"

// Header names for the routing-control directives a client may set,
// independent of which wire shape the body is in.
const (
	HeaderForceModel = "X-Throttle-Force-Model"
	HeaderSessionID  = "X-Session-ID"
	HeaderClientID   = "X-Client-ID"
	// HeaderParentRequestID is not enumerated in the external header table;
	// it is this proxy's own addition for sub-agent tier inheritance, since
	// nothing else identifies "the request that spawned this one".
	HeaderParentRequestID = "X-Throttle-Parent-Request-Id"
)

// applyHeaders copies the routing-control headers onto a decoded
// ParsedRequest. Called after body decoding so header values always win
// regardless of wire shape.
func applyHeaders(pr *ParsedRequest, r *http.Request) {
	pr.ForceModelHeader = r.Header.Get(HeaderForceModel)
	pr.SessionID = r.Header.Get(HeaderSessionID)
	pr.ClientID = r.Header.Get(HeaderClientID)
	pr.ParentRequestID = r.Header.Get(HeaderParentRequestID)
}

// Decode dispatches to the Messages-style or ChatCompletions-style decoder
// based on which route matched, then layers the control headers on top.
func Decode(r *http.Request, format Format) (ParsedRequest, error) {
	var (
		pr  ParsedRequest
		err error
	)
	switch format {
	case FormatAnthropic:
		pr, err = DecodeAnthropic(r)
	case FormatOpenAI:
		pr, err = DecodeChatCompletions(r)
	default:
		return ParsedRequest{}, errUnsupportedFormat(format)
	}
	if err != nil {
		return ParsedRequest{}, err
	}
	applyHeaders(&pr, r)
	return pr, nil
}

type errUnsupportedFormat Format

func (e errUnsupportedFormat) Error() string {
	return "ingress: unsupported format " + string(e)
}
