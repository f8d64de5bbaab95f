// Package representation converts between the cashmere RDF/Turtle
// serialization of a signifier and the internal model.Signifier, and handles
// the non-standard preprocessing cashmere documents require before they
// parse as strict Turtle (spec.md §4.1, "parses a signifier's RDF form").
package representation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/rdfgraph"
)

const (
	cashmereNS = "https://aimas.cs.pub.ro/ont/cashmere#"
	shNS       = "http://www.w3.org/ns/shacl#"
	xsdNS      = "http://www.w3.org/2001/XMLSchema#"
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	predSignifies                = cashmereNS + "signifies"
	predHasIntentionDescription  = cashmereNS + "hasIntentionDescription"
	predHasStructuredDescription = cashmereNS + "hasStructuredDescription"
	predRecommendsContext        = cashmereNS + "recommendsContext"
	predHasShaclCondition        = cashmereNS + "hasShaclCondition"
	predSHProperty               = shNS + "property"
	typeSignifier                = cashmereNS + "Signifier"
	typeIntentionDescription     = cashmereNS + "IntentionDescription"
	typeIntentContext            = cashmereNS + "IntentContext"
	typeNodeShape                = shNS + "NodeShape"
)

var fixedPrefixes = []string{
	"@prefix cashmere: <" + cashmereNS + "> .",
	"@prefix sh: <" + shNS + "> .",
	"@prefix hmas: <" + cashmereNS + "> .",
	"@prefix xsd: <" + xsdNS + "> .",
	"@prefix rdf: <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .",
	"",
}

// hasStructuredDescriptionRe matches a cashmere:hasStructuredDescription
// literal so its embedded "<http://...>" tokens (which are not legal inside
// a quoted Turtle literal) can be rewritten to single-quoted form before
// re-wrapping the whole literal in triple quotes.
var hasStructuredDescriptionRe = regexp.MustCompile(`(?s)cashmere:hasStructuredDescription\s+"(.*?)"(?:\^\^xsd:string)?`)

var embeddedURIRe = regexp.MustCompile(`<(http[^>]+)>`)

// PreprocessRDF handles cashmere's non-standard RDF syntax: "//" line
// comments (which are not part of Turtle), missing prefix declarations, and
// multi-line JSON embedded in hasStructuredDescription literals that itself
// contains unescaped "<...>" URIs. A "//" starts a comment only at the start
// of a line or after a space or tab, so the "//" of a URI scheme is kept; a
// whitespace-preceded "//" inside a quoted literal is still stripped.
func PreprocessRDF(rdfData string) string {
	var lines []string
	for _, line := range strings.Split(rdfData, "\n") {
		for idx := 0; idx+1 < len(line); idx++ {
			if line[idx] == '/' && line[idx+1] == '/' && (idx == 0 || line[idx-1] == ' ' || line[idx-1] == '\t') {
				line = strings.TrimRight(line[:idx], " \t")
				break
			}
		}
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	processed := strings.Join(lines, "\n")

	processed = hasStructuredDescriptionRe.ReplaceAllStringFunc(processed, func(match string) string {
		sub := hasStructuredDescriptionRe.FindStringSubmatch(match)
		content := strings.TrimSpace(sub[1])
		fixed := embeddedURIRe.ReplaceAllString(content, `'$1'`)
		return `cashmere:hasStructuredDescription """` + fixed + `"""^^xsd:string`
	})

	return strings.Join(fixedPrefixes, "\n") + "\n" + processed
}

// Service parses and generates RDF signifier representations.
type Service struct {
	logger *slog.Logger
}

// NewService returns a Service that logs through logger.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ParseSignifier parses rdfData (Turtle, preprocessed if it lacks an
// explicit @prefix) into a model.Signifier. It returns model.ErrInvalidRDF
// wrapped with the underlying cause on any failure: missing required
// predicates, malformed JSON in an intent or context description, or a
// document with no cashmere:Signifier node at all.
func (s *Service) ParseSignifier(rdfData string) (*model.Signifier, error) {
	if !strings.Contains(rdfData, "@prefix") {
		rdfData = PreprocessRDF(rdfData)
	}

	g, err := rdfgraph.ParseTurtle(rdfData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidRDF, err)
	}

	signifierNodes := g.Subjects(typeSignifier)
	if len(signifierNodes) == 0 {
		return nil, fmt.Errorf("%w: no Signifier found in RDF data", model.ErrInvalidRDF)
	}
	signifierNode := signifierNodes[0]
	signifierID := lastFragment(signifierNode.Value)

	affordance, ok := firstObject(g, signifierNode, predSignifies)
	if !ok {
		return nil, fmt.Errorf("%w: missing cashmere:signifies property", model.ErrInvalidRDF)
	}

	intentNode, ok := firstObject(g, signifierNode, predHasIntentionDescription)
	if !ok {
		return nil, fmt.Errorf("%w: missing cashmere:hasIntentionDescription", model.ErrInvalidRDF)
	}

	intentNL, ok := firstObject(g, intentNode, predHasStructuredDescription)
	if !ok {
		return nil, fmt.Errorf("%w: missing intent description", model.ErrInvalidRDF)
	}

	var intentDict map[string]any
	if err := json.Unmarshal([]byte(intentNL.Value), &intentDict); err != nil {
		return nil, fmt.Errorf("%w: invalid intent description JSON: %v", model.ErrInvalidRDF, err)
	}
	nlText, _ := intentDict["intent"].(string)
	intent := model.IntentionDescription{NLText: nlText, Structured: intentDict}

	context := model.IntentContext{}
	if contextNode, ok := firstObject(g, signifierNode, predRecommendsContext); ok {
		if contextNL, ok := firstObject(g, contextNode, predHasStructuredDescription); ok {
			context.NLDescription = contextNL.Value

			var contextDict map[string]any
			if err := json.Unmarshal([]byte(contextNL.Value), &contextDict); err != nil {
				s.logger.Warn("failed to parse context description", "error", err)
			} else if rawConditions, ok := contextDict["conditions"].([]any); ok {
				for _, rc := range rawConditions {
					cm, ok := rc.(map[string]any)
					if !ok {
						continue
					}
					context.StructuredConditions = append(context.StructuredConditions, parseStructuredCondition(cm))
				}
			}
		}

		shapeNodes := objects(g, contextNode, predHasShaclCondition)
		if len(shapeNodes) > 0 {
			context.ShaclShapes = extractShaclShapes(g, shapeNodes)
		}
	}

	signifier := &model.Signifier{
		SignifierID:   signifierID,
		Version:       1,
		Status:        model.StatusActive,
		Intent:        intent,
		Context:       context,
		AffordanceURI: affordance.Value,
		Provenance: model.Provenance{
			CreatedBy: "system",
			Source:    "rdf_import",
			CreatedAt: time.Now().UTC(),
		},
	}

	s.logger.Info("parsed RDF signifier", "signifier_id", signifierID)
	return signifier, nil
}

func parseStructuredCondition(m map[string]any) model.StructuredCondition {
	cond := model.StructuredCondition{
		Artifact:           asString(m["artifact"]),
		PropertyAffordance: asString(m["propertyAffordance"]),
	}
	rawConditions, _ := m["valueConditions"].([]any)
	for _, rvc := range rawConditions {
		vcm, ok := rvc.(map[string]any)
		if !ok {
			continue
		}
		op := model.OpEquals
		if opStr, ok := vcm["operator"].(string); ok && opStr != "" {
			op = model.Operator(opStr)
		}
		cond.ValueConditions = append(cond.ValueConditions, model.ValueCondition{
			Operator: op,
			Value:    vcm["value"],
			Datatype: asString(vcm["datatype"]),
		})
	}
	return cond
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// extractShaclShapes copies shapeNodes' triples, and one level of
// sh:property sub-shape triples, into a fresh graph and serializes it as
// Turtle.
func extractShaclShapes(g *rdfgraph.Graph, shapeNodes []rdfgraph.Term) string {
	shapes := rdfgraph.NewGraph()
	for _, node := range shapeNodes {
		for _, stmt := range g.BySubject(node) {
			shapes.AddStatement(stmt.Subject, stmt.Predicate, stmt.Object)
		}
		for _, propShape := range objects(g, node, predSHProperty) {
			for _, stmt := range g.BySubject(propShape) {
				shapes.AddStatement(stmt.Subject, stmt.Predicate, stmt.Object)
			}
		}
	}
	return rdfgraph.WriteTurtle(shapes, map[string]string{"sh": shNS, "xsd": xsdNS})
}

// GenerateRDF serializes signifier as Turtle, rebuilding the
// cashmere:Signifier / IntentionDescription / IntentContext node structure
// ParseSignifier expects.
func (s *Service) GenerateRDF(signifier *model.Signifier, baseURI string) string {
	if baseURI == "" {
		baseURI = "http://example.org/signifiers"
	}
	g := rdfgraph.NewGraph()
	signifierURI := baseURI + "#" + signifier.SignifierID

	g.AddStatement(rdfgraph.NewIRI(signifierURI), rdfgraph.NewIRI(rdfType), rdfgraph.NewIRI(typeSignifier))
	g.AddStatement(rdfgraph.NewIRI(signifierURI), rdfgraph.NewIRI(predSignifies), rdfgraph.NewIRI(signifier.AffordanceURI))

	intentNode := signifierURI + "-intent"
	g.AddStatement(rdfgraph.NewIRI(signifierURI), rdfgraph.NewIRI(predHasIntentionDescription), rdfgraph.NewIRI(intentNode))
	g.AddStatement(rdfgraph.NewIRI(intentNode), rdfgraph.NewIRI(rdfType), rdfgraph.NewIRI(typeIntentionDescription))

	structured := signifier.Intent.Structured
	if len(structured) == 0 {
		structured = map[string]any{"intent": signifier.Intent.NLText}
	}
	intentJSON, _ := json.Marshal(structured)
	g.AddStatement(rdfgraph.NewIRI(intentNode), rdfgraph.NewIRI(predHasStructuredDescription),
		rdfgraph.NewLiteral(string(intentJSON), "", xsdNS+"string"))

	hasContext := signifier.Context.NLDescription != "" || signifier.Context.ShaclShapes != "" || len(signifier.Context.StructuredConditions) > 0
	if hasContext {
		contextNode := signifierURI + "-context"
		g.AddStatement(rdfgraph.NewIRI(signifierURI), rdfgraph.NewIRI(predRecommendsContext), rdfgraph.NewIRI(contextNode))
		g.AddStatement(rdfgraph.NewIRI(contextNode), rdfgraph.NewIRI(rdfType), rdfgraph.NewIRI(typeIntentContext))

		if signifier.Context.NLDescription != "" {
			g.AddStatement(rdfgraph.NewIRI(contextNode), rdfgraph.NewIRI(predHasStructuredDescription),
				rdfgraph.NewLiteral(signifier.Context.NLDescription, "", xsdNS+"string"))
		}

		if signifier.Context.ShaclShapes != "" {
			shapes, err := rdfgraph.ParseTurtle(signifier.Context.ShaclShapes)
			if err == nil {
				for _, stmt := range shapes.Statements() {
					g.AddStatement(stmt.Subject, stmt.Predicate, stmt.Object)
					if stmt.Predicate.Kind == rdfgraph.KindIRI && stmt.Predicate.Value == rdfType &&
						stmt.Object.Kind == rdfgraph.KindIRI && stmt.Object.Value == typeNodeShape {
						g.AddStatement(rdfgraph.NewIRI(contextNode), rdfgraph.NewIRI(predHasShaclCondition), stmt.Subject)
					}
				}
			} else {
				s.logger.Warn("failed to reparse shacl shapes while generating RDF", "error", err)
			}
		}
	}

	s.logger.Debug("generated RDF for signifier", "signifier_id", signifier.SignifierID)
	return rdfgraph.WriteTurtle(g, map[string]string{"cashmere": cashmereNS, "sh": shNS, "xsd": xsdNS})
}

// NormalizeSignifier is a hook for future field normalization; currently a
// pass-through, matching the placeholder in the original implementation.
func (s *Service) NormalizeSignifier(signifier *model.Signifier) *model.Signifier {
	s.logger.Debug("normalized signifier", "signifier_id", signifier.SignifierID)
	return signifier
}

func lastFragment(iri string) string {
	if idx := strings.LastIndexByte(iri, '#'); idx >= 0 {
		return iri[idx+1:]
	}
	if idx := strings.LastIndexByte(iri, '/'); idx >= 0 {
		return iri[idx+1:]
	}
	return iri
}

func firstObject(g *rdfgraph.Graph, subject rdfgraph.Term, predicate string) (rdfgraph.Term, bool) {
	for _, stmt := range g.BySubject(subject) {
		if stmt.Predicate.Kind == rdfgraph.KindIRI && stmt.Predicate.Value == predicate {
			return stmt.Object, true
		}
	}
	return rdfgraph.Term{}, false
}

func objects(g *rdfgraph.Graph, subject rdfgraph.Term, predicate string) []rdfgraph.Term {
	var out []rdfgraph.Term
	for _, stmt := range g.BySubject(subject) {
		if stmt.Predicate.Kind == rdfgraph.KindIRI && stmt.Predicate.Value == predicate {
			out = append(out, stmt.Object)
		}
	}
	return out
}
