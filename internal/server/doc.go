// Package server provides HTTP server lifecycle management: non-blocking
// start, graceful shutdown, and SIGINT/SIGTERM signal handling.
//
// Manager wraps net/http.Server, unifying listen/serve/shutdown/error
// propagation into one type. The proxy binds loopback-only by default, so
// unlike some ambient-stack servers this Manager carries no TLS mode.
package server
