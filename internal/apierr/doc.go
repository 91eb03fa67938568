// Package apierr defines the typed error taxonomy for the API service:
// a closed set of machine-readable codes with a fixed code-to-status
// table, constructors that pin code and status per error kind, a
// normalizer that converts any failure into a member of the taxonomy,
// and the JSON envelope that is the wire contract for every handled
// error. Stack traces appear in the envelope only in development mode.
package apierr
