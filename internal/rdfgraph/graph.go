package rdfgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph/multi"
)

// Graph is a mutable, interned RDF triple store backed by a gonum directed
// multigraph: multiple predicates between the same subject/object pair are
// distinct lines, matching RDF semantics directly (spec.md §3's context and
// shapes graphs are both represented this way).
type Graph struct {
	g       *multi.DirectedGraph
	terms   map[string]Term
	nextUID int64
	nextLID int64

	// stmts preserves insertion order; Statements() returns this slice
	// rather than walking the multigraph, since gonum's Lines iterator
	// order is not guaranteed stable across calls.
	stmts []*Statement
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		g:     multi.NewDirectedGraph(),
		terms: make(map[string]Term),
	}
}

// Intern returns t with its UID set to the Graph-scoped id for its value,
// adding a new node to the underlying multigraph the first time a given term
// value is seen.
func (gr *Graph) Intern(t Term) Term {
	if existing, ok := gr.terms[t.key()]; ok {
		return existing
	}
	gr.nextUID++
	t.UID = gr.nextUID
	gr.terms[t.key()] = t
	gr.g.AddNode(t)
	return t
}

// AddStatement interns subject/predicate/object and adds the resulting
// triple to the graph. Duplicate triples (identical subject, predicate, and
// object after interning) are not re-added.
func (gr *Graph) AddStatement(subject, predicate, object Term) *Statement {
	s := gr.Intern(subject)
	p := gr.Intern(predicate)
	o := gr.Intern(object)

	for _, existing := range gr.stmts {
		if existing.Subject.UID == s.UID && existing.Predicate.UID == p.UID && existing.Object.UID == o.UID {
			return existing
		}
	}

	gr.nextLID++
	stmt := &Statement{Subject: s, Predicate: p, Object: o, id: gr.nextLID}
	gr.g.SetLine(stmt)
	gr.stmts = append(gr.stmts, stmt)
	return stmt
}

// Statements returns every triple in insertion order.
func (gr *Graph) Statements() []*Statement {
	out := make([]*Statement, len(gr.stmts))
	copy(out, gr.stmts)
	return out
}

// Len returns the number of triples in the graph.
func (gr *Graph) Len() int { return len(gr.stmts) }

// ByPredicate returns every statement whose predicate IRI equals pred, in
// insertion order.
func (gr *Graph) ByPredicate(pred string) []*Statement {
	var out []*Statement
	for _, s := range gr.stmts {
		if s.Predicate.Kind == KindIRI && s.Predicate.Value == pred {
			out = append(out, s)
		}
	}
	return out
}

// BySubject returns every statement whose subject equals subj, in insertion
// order.
func (gr *Graph) BySubject(subj Term) []*Statement {
	var out []*Statement
	for _, s := range gr.stmts {
		if s.Subject.key() == subj.key() {
			out = append(out, s)
		}
	}
	return out
}

// Subjects returns the distinct subject terms that have rdf:type == typeIRI.
func (gr *Graph) Subjects(typeIRI string) []Term {
	var out []Term
	seen := make(map[string]bool)
	for _, s := range gr.ByPredicate(rdfType) {
		if s.Object.Kind == KindIRI && s.Object.Value == typeIRI && !seen[s.Subject.key()] {
			seen[s.Subject.key()] = true
			out = append(out, s.Subject)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
