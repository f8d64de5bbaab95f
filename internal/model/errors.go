// Package model defines the core data types shared by every stage of the
// retrieval pipeline: signifiers, intents, structured conditions, and the
// sentinel errors returned by ingest-time operations.
package model

import "errors"

// Sentinel errors returned by ingest paths (spec.md §6, "Error kinds returned
// to callers"). Retrieval paths never return these — per-candidate failures
// are recorded as signals instead (spec.md §7).
var (
	ErrAlreadyExists  = errors.New("signifier already exists")
	ErrNotFound       = errors.New("signifier not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidRDF     = errors.New("invalid rdf")
	ErrUnknownVersion = errors.New("unknown matcher version")
	ErrInvalidShapes  = errors.New("invalid shacl shapes")
	ErrInternal       = errors.New("internal error")
)
