// Package observability provides structured logging built on zap,
// together with context propagation of request and correlation
// identifiers. Loggers are constructed explicitly and injected; the
// global logger exists only as a fallback for code paths that have no
// owner yet.
package observability
