// Package middleware provides HTTP middleware for the NBA stats
// gateway: request ID propagation, panic recovery, access logging,
// request metrics, fixed-window rate limiting, and centralized error
// handling.
//
// Middleware compose as standard func(http.Handler) http.Handler
// wrappers. The intended order is request ID first, then recovery,
// logging, metrics, and rate limiting, so every later stage sees the
// request ID and every panic is caught:
//
//	handler = RequestID()(Recovery(logger, cfg)(Logging(logger)(mux)))
//
// Handlers that can fail should be written as middleware.Handler and
// adapted with ErrorHandler, which owns normalization, single-write,
// and single-log semantics for the error envelope.
package middleware
