// Package rdfgraph provides the RDF term, triple, and graph primitives used
// throughout the retrieval pipeline: a Turtle-subset parser/writer, and a
// canonical N-Triples form used to derive cache keys for shape validation.
//
// Term and Statement follow the shape of gonum.org/v1/gonum/graph's node/edge
// interfaces (as gonum/graph/formats/rdf does for N-Quads) so that a Graph's
// contents can be handed directly to gonum graph algorithms when needed.
package rdfgraph

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/graph"
)

var (
	_ graph.Node = Term{}
	_ graph.Edge = (*Statement)(nil)
	_ graph.Line = (*Statement)(nil)
)

// Kind is the syntactic kind of an RDF term.
type Kind int

const (
	// KindInvalid marks a zero-value Term.
	KindInvalid Kind = iota
	// KindIRI is an absolute IRI term.
	KindIRI
	// KindLiteral is a literal term, optionally typed or language-tagged.
	KindLiteral
	// KindBlank is a blank node term.
	KindBlank
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindLiteral:
		return "literal"
	case KindBlank:
		return "blank"
	default:
		return "invalid"
	}
}

// Term is an RDF term: an IRI, a literal, or a blank node. It implements
// graph.Node so graphs of Statements can be walked with gonum's graph
// algorithms.
type Term struct {
	Kind     Kind
	Value    string // IRI text, literal lexical form, or blank node label
	Lang     string // literal language tag, without the leading "@"
	Datatype string // literal datatype IRI, empty for plain/lang-tagged strings

	// UID is the term's unique id within its owning Graph. Two Terms with
	// equal Kind/Value/Lang/Datatype share a UID once interned.
	UID int64
}

// ID implements graph.Node.
func (t Term) ID() int64 { return t.UID }

// NewIRI returns an uninterned IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// NewBlank returns an uninterned blank node term for the given label (without
// the "_:" prefix).
func NewBlank(label string) Term {
	return Term{Kind: KindBlank, Value: label}
}

// NewLiteral returns an uninterned literal term. lang and datatype are
// mutually exclusive; pass "" for whichever does not apply.
func NewLiteral(text, lang, datatype string) Term {
	return Term{Kind: KindLiteral, Value: text, Lang: lang, Datatype: datatype}
}

// key returns the identity key used for term interning: two terms with the
// same key are the same node.
func (t Term) key() string {
	switch t.Kind {
	case KindIRI:
		return "I" + t.Value
	case KindBlank:
		return "B" + t.Value
	case KindLiteral:
		return "L" + t.Value + "\x00" + t.Lang + "\x00" + t.Datatype
	default:
		return "?"
	}
}

// String renders t in Turtle syntax, using full IRIs (no prefix shortening).
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindBlank:
		return "_:" + t.Value
	case KindLiteral:
		quoted := quoteLiteral(t.Value)
		if t.Lang != "" {
			return quoted + "@" + t.Lang
		}
		if t.Datatype != "" {
			return quoted + "^^<" + t.Datatype + ">"
		}
		return quoted
	default:
		return fmt.Sprintf("<invalid-term:%q>", t.Value)
	}
}

func quoteLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
