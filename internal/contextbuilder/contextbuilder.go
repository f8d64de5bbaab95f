// Package contextbuilder converts a request's context snapshot — a nested or
// flat key-value map, or an already-built graph — into the canonical RDF
// graph and (artifact, property) -> value feature map that the subsumption
// engine and shape validator both consume (spec.md §4.4/§4.5).
package contextbuilder

import (
	"fmt"
	"log/slog"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/rdfgraph"
)

const (
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	xsdBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
	xsdInteger = "http://www.w3.org/2001/XMLSchema#integer"
	xsdDouble  = "http://www.w3.org/2001/XMLSchema#double"
	xsdString  = "http://www.w3.org/2001/XMLSchema#string"
)

// Features maps an (artifact, property) pair to its raw context value, kept
// alongside the RDF graph so that SSE can evaluate numeric conditions
// without re-walking triples.
type Features map[model.PropertyKey]any

// Builder converts context input into a Graph plus its extracted Features.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder returns a Builder that logs skipped/malformed input through
// logger.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// BuildFromKV builds a graph from a nested map: artifact URI -> property URI
// -> value. Non-string keys at either level are skipped with a warning
// rather than failing the whole build.
func (b *Builder) BuildFromKV(contextFeatures map[string]map[string]any) (*rdfgraph.Graph, Features) {
	g := rdfgraph.NewGraph()
	features := make(Features, len(contextFeatures))

	for artifactURI, properties := range contextFeatures {
		artifactNode := rdfgraph.NewIRI(artifactURI)
		for propertyURI, value := range properties {
			literal := b.convertToLiteral(value)
			g.AddStatement(artifactNode, rdfgraph.NewIRI(propertyURI), literal)
			features[model.PropertyKey{Artifact: artifactURI, Property: propertyURI}] = value
		}
	}

	b.logger.Debug("built context graph",
		"triples", g.Len(), "features", len(features))
	return g, features
}

// BuildFromFlatDict builds a graph from a flat map whose keys are
// "artifact_uri::property_uri". Keys without the "::" separator are skipped
// with a warning.
func (b *Builder) BuildFromFlatDict(snapshot map[string]any) (*rdfgraph.Graph, Features) {
	nested := make(map[string]map[string]any)
	for key, value := range snapshot {
		artifactURI, propertyURI, ok := splitFlatKey(key)
		if !ok {
			b.logger.Warn("skipping context key without '::' separator", "key", key)
			continue
		}
		if nested[artifactURI] == nil {
			nested[artifactURI] = make(map[string]any)
		}
		nested[artifactURI][propertyURI] = value
	}
	return b.BuildFromKV(nested)
}

// NormalizeContext accepts a nested map[string]map[string]any, a flat
// map[string]any using "::"-separated keys, or an already-built
// *rdfgraph.Graph, and returns the graph and its extracted features for any
// of them. Any other type is an error.
func (b *Builder) NormalizeContext(input any) (*rdfgraph.Graph, Features, error) {
	switch v := input.(type) {
	case *rdfgraph.Graph:
		return v, b.extractFeaturesFromGraph(v), nil
	case map[string]map[string]any:
		g, f := b.BuildFromKV(v)
		return g, f, nil
	case map[string]any:
		for key := range v {
			if _, _, ok := splitFlatKey(key); ok {
				g, f := b.BuildFromFlatDict(v)
				return g, f, nil
			}
		}
		nested := make(map[string]map[string]any, len(v))
		for key, value := range v {
			props, ok := value.(map[string]any)
			if !ok {
				b.logger.Warn("skipping non-object context value", "artifact", key)
				continue
			}
			nested[key] = props
		}
		g, f := b.BuildFromKV(nested)
		return g, f, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported context input type %T", model.ErrInvalidInput, input)
	}
}

// AddTypeInformation adds an rdf:type triple for each artifact -> type URI
// pair to g, mutating and returning it.
func (b *Builder) AddTypeInformation(g *rdfgraph.Graph, artifactTypes map[string]string) *rdfgraph.Graph {
	for artifactURI, typeURI := range artifactTypes {
		g.AddStatement(rdfgraph.NewIRI(artifactURI), rdfgraph.NewIRI(rdfType), rdfgraph.NewIRI(typeURI))
	}
	b.logger.Debug("added type information", "count", len(artifactTypes))
	return g
}

func (b *Builder) convertToLiteral(value any) rdfgraph.Term {
	switch v := value.(type) {
	case bool:
		return rdfgraph.NewLiteral(boolString(v), "", xsdBoolean)
	case int:
		return rdfgraph.NewLiteral(fmt.Sprintf("%d", v), "", xsdInteger)
	case int64:
		return rdfgraph.NewLiteral(fmt.Sprintf("%d", v), "", xsdInteger)
	case float32:
		return rdfgraph.NewLiteral(fmt.Sprintf("%g", v), "", xsdDouble)
	case float64:
		return rdfgraph.NewLiteral(fmt.Sprintf("%g", v), "", xsdDouble)
	case string:
		return rdfgraph.NewLiteral(v, "", xsdString)
	default:
		b.logger.Warn("unknown context value type, defaulting to string", "type", fmt.Sprintf("%T", value))
		return rdfgraph.NewLiteral(fmt.Sprintf("%v", v), "", xsdString)
	}
}

func (b *Builder) extractFeaturesFromGraph(g *rdfgraph.Graph) Features {
	features := make(Features)
	for _, s := range g.Statements() {
		if s.Subject.Kind != rdfgraph.KindIRI || s.Predicate.Kind != rdfgraph.KindIRI {
			continue
		}
		var value any
		if s.Object.Kind == rdfgraph.KindLiteral {
			value = s.Object.Value
		} else {
			value = s.Object.String()
		}
		features[model.PropertyKey{Artifact: s.Subject.Value, Property: s.Predicate.Value}] = value
	}
	return features
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func splitFlatKey(key string) (artifact, property string, ok bool) {
	for i := 0; i+1 < len(key); i++ {
		if key[i] == ':' && key[i+1] == ':' {
			return key[:i], key[i+2:], true
		}
	}
	return "", "", false
}
