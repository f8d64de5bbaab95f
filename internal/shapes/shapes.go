// Package shapes implements the Shape Validator (SV, spec.md §4.5): parses a
// signifier's SHACL shapes text into shape constraints, validates a context
// graph against them, and caches results by data/shapes graph hash pair.
package shapes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/rdfgraph"
)

const (
	rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	shNodeShape      = "http://www.w3.org/ns/shacl#NodeShape"
	shTargetClass    = "http://www.w3.org/ns/shacl#targetClass"
	shTargetNode     = "http://www.w3.org/ns/shacl#targetNode"
	shProperty       = "http://www.w3.org/ns/shacl#property"
	shPath           = "http://www.w3.org/ns/shacl#path"
	shMinCount       = "http://www.w3.org/ns/shacl#minCount"
	shMaxCount       = "http://www.w3.org/ns/shacl#maxCount"
	shDatatype       = "http://www.w3.org/ns/shacl#datatype"
	shClass          = "http://www.w3.org/ns/shacl#class"
	shMinInclusive   = "http://www.w3.org/ns/shacl#minInclusive"
	shMaxInclusive   = "http://www.w3.org/ns/shacl#maxInclusive"
	shMinExclusive   = "http://www.w3.org/ns/shacl#minExclusive"
	shMaxExclusive   = "http://www.w3.org/ns/shacl#maxExclusive"
	shMinLength      = "http://www.w3.org/ns/shacl#minLength"
	shMaxLength      = "http://www.w3.org/ns/shacl#maxLength"
	shPattern        = "http://www.w3.org/ns/shacl#pattern"
	shIn             = "http://www.w3.org/ns/shacl#in"
	shNodeKind       = "http://www.w3.org/ns/shacl#nodeKind"
	shMessage        = "http://www.w3.org/ns/shacl#message"
)

// PropertyShape is one sh:property sub-shape: a path plus the constraint
// components present on it. Only SHACL Core constraint components are
// supported (spec.md §9 excludes "SHACL rules/inferencing beyond core
// constraints").
type PropertyShape struct {
	Path         string
	MinCount     *int
	MaxCount     *int
	Datatype     string
	Class        string
	MinInclusive *float64
	MaxInclusive *float64
	MinExclusive *float64
	MaxExclusive *float64
	MinLength    *int
	MaxLength    *int
	Pattern      string
	In           []rdfgraph.Term
	NodeKind     string
	Message      string
}

// NodeShape targets either a class (every instance of it in the data graph)
// or an explicit node, and carries its property shapes.
type NodeShape struct {
	TargetClass string
	TargetNode  string
	Properties  []PropertyShape
}

// ShapesGraph is a parsed SHACL shapes document.
type ShapesGraph struct {
	Shapes []NodeShape
	raw    *rdfgraph.Graph
	text   string
}

// ParseShapes parses shapes text (Turtle) into node shapes with their
// property constraints.
func ParseShapes(shapesText string) (*ShapesGraph, error) {
	g, err := rdfgraph.ParseTurtle(shapesText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidShapes, err)
	}

	sg := &ShapesGraph{raw: g, text: shapesText}
	for _, subj := range g.Subjects(shNodeShape) {
		ns := NodeShape{}
		for _, s := range g.BySubject(subj) {
			switch s.Predicate.Value {
			case shTargetClass:
				ns.TargetClass = s.Object.Value
			case shTargetNode:
				ns.TargetNode = s.Object.Value
			case shProperty:
				ps, err := parsePropertyShape(g, s.Object)
				if err != nil {
					return nil, err
				}
				ns.Properties = append(ns.Properties, ps)
			}
		}
		sg.Shapes = append(sg.Shapes, ns)
	}
	return sg, nil
}

func parsePropertyShape(g *rdfgraph.Graph, node rdfgraph.Term) (PropertyShape, error) {
	ps := PropertyShape{}
	for _, s := range g.BySubject(node) {
		switch s.Predicate.Value {
		case shPath:
			ps.Path = s.Object.Value
		case shMinCount:
			n, err := parseIntLiteral(s.Object)
			if err != nil {
				return ps, err
			}
			ps.MinCount = &n
		case shMaxCount:
			n, err := parseIntLiteral(s.Object)
			if err != nil {
				return ps, err
			}
			ps.MaxCount = &n
		case shDatatype:
			ps.Datatype = s.Object.Value
		case shClass:
			ps.Class = s.Object.Value
		case shMinInclusive:
			f, err := parseFloatLiteral(s.Object)
			if err != nil {
				return ps, err
			}
			ps.MinInclusive = &f
		case shMaxInclusive:
			f, err := parseFloatLiteral(s.Object)
			if err != nil {
				return ps, err
			}
			ps.MaxInclusive = &f
		case shMinExclusive:
			f, err := parseFloatLiteral(s.Object)
			if err != nil {
				return ps, err
			}
			ps.MinExclusive = &f
		case shMaxExclusive:
			f, err := parseFloatLiteral(s.Object)
			if err != nil {
				return ps, err
			}
			ps.MaxExclusive = &f
		case shMinLength:
			n, err := parseIntLiteral(s.Object)
			if err != nil {
				return ps, err
			}
			ps.MinLength = &n
		case shMaxLength:
			n, err := parseIntLiteral(s.Object)
			if err != nil {
				return ps, err
			}
			ps.MaxLength = &n
		case shPattern:
			ps.Pattern = s.Object.Value
		case shNodeKind:
			ps.NodeKind = s.Object.Value
		case shMessage:
			ps.Message = s.Object.Value
		case shIn:
			ps.In = append(ps.In, s.Object)
		}
	}
	if ps.Path == "" {
		return ps, fmt.Errorf("%w: sh:property shape missing sh:path", model.ErrInvalidShapes)
	}
	return ps, nil
}

func parseIntLiteral(t rdfgraph.Term) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(t.Value))
	if err != nil {
		return 0, fmt.Errorf("%w: expected integer literal, got %q", model.ErrInvalidShapes, t.Value)
	}
	return n, nil
}

func parseFloatLiteral(t rdfgraph.Term) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: expected numeric literal, got %q", model.ErrInvalidShapes, t.Value)
	}
	return f, nil
}

// ConstraintCount is a cheap syntactic tally of sh:property plus sh:class
// occurrences in the shapes text, used by the ranker's specificity boost.
// This is intentionally lexical, not semantic (spec.md §4.5): it double
// counts if those substrings appear inside comments or literals, a known
// open question rather than a bug.
func ConstraintCount(shapesText string) int {
	return strings.Count(shapesText, "sh:property") + strings.Count(shapesText, "sh:class")
}
