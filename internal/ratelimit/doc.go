// Package ratelimit implements per-key fixed-window request limiting.
//
// The window is anchored at each key's first request: the record counts
// requests until resetAt and is then replaced wholesale by the next
// request's fresh window. This is deliberately a fixed window, not a
// sliding window or token bucket: the reset-at-boundary semantics are
// part of the service contract. A background sweep purges records whose
// window has passed so idle clients do not accumulate.
package ratelimit
