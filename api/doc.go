// Package api wires the request-path packages (ingress, classifier,
// override, routing, dedup, dispatch, streaming, routinglog) into the
// four HTTP endpoints the proxy exposes: the two chat-completion routes,
// health, and stats.
package api
