package shapes

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aimas-cs-pub-ro/cashmere/internal/rdfgraph"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
)

// Violation is one failed constraint, in the shape of spec.md §4.5's output.
type Violation struct {
	FocusNode                 string
	ResultPath                string
	Message                   string
	Severity                  string
	SourceConstraintComponent string
	Value                     string
}

// Result is the outcome of validating a data graph against a shapes graph.
type Result struct {
	Conforms   bool
	Violations []Violation
}

// Validator validates context graphs against parsed SHACL shapes, with an
// optional bounded result cache keyed by (data graph hash, shapes graph
// hash).
type Validator struct {
	cache  *registry.Cache
	logger *slog.Logger
}

// NewValidator builds a Validator. cache may be nil to disable memoization.
func NewValidator(cache *registry.Cache, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{cache: cache, logger: logger}
}

// Validate checks dataGraph against every NodeShape in shapesText, applying
// SHACL Core constraint components (spec.md §9 excludes rules/inferencing
// beyond core). Results are memoized by the canonical hash pair of the two
// graphs when a cache is configured.
func (v *Validator) Validate(dataGraph *rdfgraph.Graph, shapesText string) (Result, error) {
	sg, err := ParseShapes(shapesText)
	if err != nil {
		return Result{}, err
	}

	cacheKey := ""
	if v.cache != nil {
		cacheKey = dataGraph.Hash() + ":" + sg.raw.Hash()
		if raw, found, err := v.cache.Get(cacheKey); err == nil && found {
			return decodeResult(raw), nil
		}
	}

	result := validateShapes(dataGraph, sg)

	if v.cache != nil {
		if err := v.cache.Put(cacheKey, encodeResult(result)); err != nil {
			v.logger.Warn("shacl validation cache put failed", "error", err)
		}
	}
	return result, nil
}

// BatchItem pairs a signifier id with the shapes graph to validate dataGraph
// against.
type BatchItem struct {
	SignifierID string
	ShaclShapes string
}

// ValidateBatch validates dataGraph against every item's shapes graph
// concurrently, keyed by signifier id (spec.md §5: validating multiple
// candidates is independent and may be parallelized). A shapes graph that
// fails to parse is reported as a non-conforming result rather than failing
// the whole batch.
func (v *Validator) ValidateBatch(ctx context.Context, dataGraph *rdfgraph.Graph, items []BatchItem) map[string]Result {
	results := make(map[string]Result, len(items))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, item := range items {
		item := item
		g.Go(func() error {
			r, err := v.Validate(dataGraph, item.ShaclShapes)
			if err != nil {
				r = Result{Conforms: false, Violations: []Violation{{Message: err.Error()}}}
			}
			mu.Lock()
			results[item.SignifierID] = r
			mu.Unlock()
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		})
	}
	_ = g.Wait()
	return results
}

func validateShapes(data *rdfgraph.Graph, sg *ShapesGraph) Result {
	var violations []Violation

	for _, ns := range sg.Shapes {
		targets := targetNodes(data, ns)
		for _, target := range targets {
			for _, ps := range ns.Properties {
				violations = append(violations, validateProperty(data, target, ps)...)
			}
		}
	}

	return Result{Conforms: len(violations) == 0, Violations: violations}
}

func targetNodes(data *rdfgraph.Graph, ns NodeShape) []rdfgraph.Term {
	var targets []rdfgraph.Term
	seen := make(map[string]bool)
	add := func(t rdfgraph.Term) {
		key := t.Kind.String() + t.Value
		if !seen[key] {
			seen[key] = true
			targets = append(targets, t)
		}
	}
	if ns.TargetClass != "" {
		for _, t := range data.Subjects(ns.TargetClass) {
			add(t)
		}
	}
	if ns.TargetNode != "" {
		add(rdfgraph.NewIRI(ns.TargetNode))
	}
	return targets
}

func validateProperty(data *rdfgraph.Graph, focus rdfgraph.Term, ps PropertyShape) []Violation {
	var values []rdfgraph.Term
	for _, stmt := range data.BySubject(focus) {
		if stmt.Predicate.Kind == rdfgraph.KindIRI && stmt.Predicate.Value == ps.Path {
			values = append(values, stmt.Object)
		}
	}

	var violations []Violation
	fail := func(component, message string, value string) {
		msg := message
		if ps.Message != "" {
			msg = ps.Message
		}
		violations = append(violations, Violation{
			FocusNode:                 focus.Value,
			ResultPath:                ps.Path,
			Message:                   msg,
			Severity:                  "Violation",
			SourceConstraintComponent: component,
			Value:                     value,
		})
	}

	if ps.MinCount != nil && len(values) < *ps.MinCount {
		fail("MinCountConstraintComponent", fmt.Sprintf("expected at least %d value(s) for %s, got %d", *ps.MinCount, ps.Path, len(values)), "")
	}
	if ps.MaxCount != nil && len(values) > *ps.MaxCount {
		fail("MaxCountConstraintComponent", fmt.Sprintf("expected at most %d value(s) for %s, got %d", *ps.MaxCount, ps.Path, len(values)), "")
	}

	for _, val := range values {
		validateValue(data, val, ps, fail)
	}

	return violations
}

func validateValue(data *rdfgraph.Graph, val rdfgraph.Term, ps PropertyShape, fail func(component, message, value string)) {
	if ps.Datatype != "" && (val.Kind != rdfgraph.KindLiteral || val.Datatype != ps.Datatype) {
		fail("DatatypeConstraintComponent", fmt.Sprintf("expected datatype %s, got %s", ps.Datatype, val.Datatype), val.Value)
	}

	if ps.Class != "" && !hasType(data, val, ps.Class) {
		fail("ClassConstraintComponent", fmt.Sprintf("value %q is not a member of class %s", val.Value, ps.Class), val.Value)
	}

	if num, ok := parseNumeric(val); ok {
		if ps.MinInclusive != nil && num < *ps.MinInclusive {
			fail("MinInclusiveConstraintComponent", fmt.Sprintf("%v is less than minimum %v", num, *ps.MinInclusive), val.Value)
		}
		if ps.MaxInclusive != nil && num > *ps.MaxInclusive {
			fail("MaxInclusiveConstraintComponent", fmt.Sprintf("%v is greater than maximum %v", num, *ps.MaxInclusive), val.Value)
		}
		if ps.MinExclusive != nil && num <= *ps.MinExclusive {
			fail("MinExclusiveConstraintComponent", fmt.Sprintf("%v is not greater than %v", num, *ps.MinExclusive), val.Value)
		}
		if ps.MaxExclusive != nil && num >= *ps.MaxExclusive {
			fail("MaxExclusiveConstraintComponent", fmt.Sprintf("%v is not less than %v", num, *ps.MaxExclusive), val.Value)
		}
	} else if ps.MinInclusive != nil || ps.MaxInclusive != nil || ps.MinExclusive != nil || ps.MaxExclusive != nil {
		fail("NumericRangeConstraintComponent", fmt.Sprintf("value %q is not numeric", val.Value), val.Value)
	}

	if ps.MinLength != nil && len(val.Value) < *ps.MinLength {
		fail("MinLengthConstraintComponent", fmt.Sprintf("value %q shorter than minimum length %d", val.Value, *ps.MinLength), val.Value)
	}
	if ps.MaxLength != nil && len(val.Value) > *ps.MaxLength {
		fail("MaxLengthConstraintComponent", fmt.Sprintf("value %q longer than maximum length %d", val.Value, *ps.MaxLength), val.Value)
	}

	if ps.Pattern != "" {
		re, err := regexp.Compile(ps.Pattern)
		if err != nil || !re.MatchString(val.Value) {
			fail("PatternConstraintComponent", fmt.Sprintf("value %q does not match pattern %q", val.Value, ps.Pattern), val.Value)
		}
	}

	if len(ps.In) > 0 {
		found := false
		for _, allowed := range ps.In {
			if allowed.Kind == val.Kind && allowed.Value == val.Value {
				found = true
				break
			}
		}
		if !found {
			fail("InConstraintComponent", fmt.Sprintf("value %q is not in the allowed set", val.Value), val.Value)
		}
	}

	if ps.NodeKind != "" && !nodeKindMatches(ps.NodeKind, val) {
		fail("NodeKindConstraintComponent", fmt.Sprintf("value %q does not match node kind %s", val.Value, ps.NodeKind), val.Value)
	}
}

func nodeKindMatches(nodeKind string, val rdfgraph.Term) bool {
	switch nodeKind {
	case "http://www.w3.org/ns/shacl#IRI":
		return val.Kind == rdfgraph.KindIRI
	case "http://www.w3.org/ns/shacl#Literal":
		return val.Kind == rdfgraph.KindLiteral
	case "http://www.w3.org/ns/shacl#BlankNode":
		return val.Kind == rdfgraph.KindBlank
	default:
		return true
	}
}
