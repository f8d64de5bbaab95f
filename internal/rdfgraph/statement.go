package rdfgraph

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
)

// Statement is an RDF triple. It implements graph.Edge and graph.Line so a
// Graph's statements can back a gonum multigraph (multiple predicates may
// connect the same subject/object pair).
type Statement struct {
	Subject   Term
	Predicate Term
	Object    Term

	// id is the statement's unique line id within its owning Graph.
	id int64
}

// From implements graph.Edge.
func (s *Statement) From() graph.Node { return s.Subject }

// To implements graph.Edge.
func (s *Statement) To() graph.Node { return s.Object }

// ID implements graph.Line. Unlike the predicate's own UID, this is unique
// per-statement so that repeated predicates between the same nodes remain
// distinct lines.
func (s *Statement) ID() int64 { return s.id }

// ReversedEdge returns the receiver: RDF triples have no meaningful reversal.
func (s *Statement) ReversedEdge() graph.Edge { return s }

// ReversedLine returns the receiver: RDF triples have no meaningful reversal.
func (s *Statement) ReversedLine() graph.Line { return s }

// String renders s as a single N-Triples line.
func (s *Statement) String() string {
	return fmt.Sprintf("%s %s %s .", s.Subject.String(), s.Predicate.String(), s.Object.String())
}
