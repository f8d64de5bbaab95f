package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a signifier's current version.
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// Operator is one of the fixed set of ordered numeric comparisons a
// ValueCondition may use.
type Operator string

const (
	OpGreaterThan  Operator = "greaterThan"
	OpLessThan     Operator = "lessThan"
	OpGreaterEqual Operator = "greaterEqual"
	OpLessEqual    Operator = "lessEqual"
	OpEquals       Operator = "equals"
	OpNotEquals    Operator = "notEquals"
)

// validOperators is the fixed set validated on ingest (spec.md §3 invariants).
var validOperators = map[Operator]bool{
	OpGreaterThan:  true,
	OpLessThan:     true,
	OpGreaterEqual: true,
	OpLessEqual:    true,
	OpEquals:       true,
	OpNotEquals:    true,
}

// Valid reports whether op is one of the six recognized operators.
func (op Operator) Valid() bool {
	return validOperators[op]
}

// Provenance records who created a signifier and how.
type Provenance struct {
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	Source    string    `json:"source"`
}

// ValueCondition is a single numeric/scalar comparison against a context
// feature's value.
type ValueCondition struct {
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
	Datatype string   `json:"datatype,omitempty"`
}

// StructuredCondition conjoins a set of ValueConditions against one
// (artifact, property) context feature.
type StructuredCondition struct {
	Artifact            string           `json:"artifact"`
	PropertyAffordance  string           `json:"property_affordance"`
	ValueConditions      []ValueCondition `json:"value_conditions"`
}

// IntentionDescription is a signifier's natural-language intent, optionally
// paired with a short structured verb/object form.
type IntentionDescription struct {
	NLText     string         `json:"nl_text"`
	Structured map[string]any `json:"structured,omitempty"`
}

// IntentContext is a signifier's context precondition, expressed both as
// ordered numeric conditions and as a SHACL shapes graph (serialized Turtle).
type IntentContext struct {
	StructuredConditions []StructuredCondition `json:"structured_conditions"`
	ShaclShapes           string                `json:"shacl_shapes,omitempty"`
	NLDescription          string                `json:"nl_description,omitempty"`
}

// Signifier is the canonical, dual-representable (document + RDF) unit of
// the registry.
type Signifier struct {
	SignifierID   string         `json:"signifier_id"`
	Version       int            `json:"version"`
	Status        Status         `json:"status"`
	Intent        IntentionDescription `json:"intent"`
	Context       IntentContext  `json:"context"`
	AffordanceURI string         `json:"affordance_uri"`
	Provenance    Provenance     `json:"provenance"`
	Indexes       map[string]any `json:"indexes,omitempty"`
}

// PropertyKey is the (artifact, property) pair the inverted index is keyed by.
type PropertyKey struct {
	Artifact string
	Property string
}

// PropertyKeys extracts the (artifact, property) pairs referenced by s's
// structured conditions, in order, without deduplication — callers that need
// a set should dedupe themselves.
func (s *Signifier) PropertyKeys() []PropertyKey {
	keys := make([]PropertyKey, 0, len(s.Context.StructuredConditions))
	for _, c := range s.Context.StructuredConditions {
		keys = append(keys, PropertyKey{Artifact: c.Artifact, Property: c.PropertyAffordance})
	}
	return keys
}

// Validate checks the invariants spec.md §3 requires at ingest time: non-empty
// identifiers, a version >= 1, a recognized status, a non-empty affordance
// URI, and recognized operators on every value condition.
func (s *Signifier) Validate() error {
	if s.SignifierID == "" {
		return fmt.Errorf("%w: signifier_id must not be empty", ErrInvalidInput)
	}
	if s.Version < 1 {
		return fmt.Errorf("%w: version must be >= 1", ErrInvalidInput)
	}
	if s.Status != StatusActive && s.Status != StatusDeprecated {
		return fmt.Errorf("%w: status %q is not active or deprecated", ErrInvalidInput, s.Status)
	}
	if s.Intent.NLText == "" {
		return fmt.Errorf("%w: intent.nl_text must not be empty", ErrInvalidInput)
	}
	if s.AffordanceURI == "" {
		return fmt.Errorf("%w: affordance_uri must not be empty", ErrInvalidInput)
	}
	if s.Provenance.CreatedBy == "" {
		return fmt.Errorf("%w: provenance.created_by must not be empty", ErrInvalidInput)
	}
	for _, cond := range s.Context.StructuredConditions {
		if cond.Artifact == "" || cond.PropertyAffordance == "" {
			return fmt.Errorf("%w: structured condition missing artifact or property", ErrInvalidInput)
		}
		for _, vc := range cond.ValueConditions {
			if !vc.Operator.Valid() {
				return fmt.Errorf("%w: unknown operator %q", ErrInvalidInput, vc.Operator)
			}
		}
	}
	return nil
}

// Clone returns a deep-enough copy of s suitable for handing to a concurrent
// reader: slices and maps are copied, scalar fields by value.
func (s *Signifier) Clone() *Signifier {
	clone := *s
	clone.Context.StructuredConditions = make([]StructuredCondition, len(s.Context.StructuredConditions))
	for i, c := range s.Context.StructuredConditions {
		nc := c
		nc.ValueConditions = append([]ValueCondition(nil), c.ValueConditions...)
		clone.Context.StructuredConditions[i] = nc
	}
	if s.Intent.Structured != nil {
		clone.Intent.Structured = make(map[string]any, len(s.Intent.Structured))
		for k, v := range s.Intent.Structured {
			clone.Intent.Structured[k] = v
		}
	}
	if s.Indexes != nil {
		clone.Indexes = make(map[string]any, len(s.Indexes))
		for k, v := range s.Indexes {
			clone.Indexes[k] = v
		}
	}
	return &clone
}
