// Package provider implements the HTTP client for the upstream NBA
// data provider. Every outbound request goes through a token bucket
// throttle and the retry executor, and non-2xx responses are mapped
// onto the service error taxonomy so handlers never see raw upstream
// failures.
package provider
