// Package authoring implements the optional authoring validator (spec.md
// §7): a pass, off by default, that inspects a signifier's structure and
// its shape graph for well-formedness before it is persisted. In strict
// mode a failing check raises model.ErrInvalidInput; in lenient mode every
// failing check contributes a message to the returned list and the
// signifier is otherwise accepted.
package authoring

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/shapes"
)

// recognizedDatatypes is the XSD vocabulary this validator accepts for
// structured_condition value_conditions and SHACL sh:datatype constraints.
var recognizedDatatypes = map[string]bool{
	"http://www.w3.org/2001/XMLSchema#string":   true,
	"http://www.w3.org/2001/XMLSchema#integer":  true,
	"http://www.w3.org/2001/XMLSchema#double":   true,
	"http://www.w3.org/2001/XMLSchema#decimal":  true,
	"http://www.w3.org/2001/XMLSchema#float":    true,
	"http://www.w3.org/2001/XMLSchema#boolean":  true,
	"http://www.w3.org/2001/XMLSchema#dateTime": true,
	"http://www.w3.org/2001/XMLSchema#date":     true,
	"http://www.w3.org/2001/XMLSchema#anyURI":   true,
}

// Validator runs the authoring checks against a signifier.
type Validator struct {
	Strict bool
	logger *slog.Logger
}

// New returns a Validator. strict controls whether Validate raises on the
// first failing check (true) or accumulates every failing check's message
// into the returned slice (false).
func New(strict bool, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{Strict: strict, logger: logger}
}

// Validate inspects sig's structure and shape graph. In strict mode the
// first failing check is returned wrapped in model.ErrInvalidInput and any
// messages slice is nil. In lenient mode every failing check's message is
// collected and returned with a nil error.
func (v *Validator) Validate(sig *model.Signifier) ([]string, error) {
	var messages []string

	for _, check := range []func(*model.Signifier) []string{
		checkAbsoluteAffordanceURI,
		checkAbsoluteConditionURIs,
		checkRecognizedDatatypes,
		checkShapesParseable,
		checkShapesHaveTargets,
	} {
		for _, msg := range check(sig) {
			if v.Strict {
				return nil, fmt.Errorf("%w: %s", model.ErrInvalidInput, msg)
			}
			messages = append(messages, msg)
		}
	}

	if len(messages) > 0 {
		v.logger.Warn("authoring validation found issues", "signifier_id", sig.SignifierID, "count", len(messages))
	}
	return messages, nil
}

func checkAbsoluteAffordanceURI(sig *model.Signifier) []string {
	if !isAbsoluteURI(sig.AffordanceURI) {
		return []string{fmt.Sprintf("affordance_uri %q is not an absolute URI", sig.AffordanceURI)}
	}
	return nil
}

func checkAbsoluteConditionURIs(sig *model.Signifier) []string {
	var msgs []string
	for _, cond := range sig.Context.StructuredConditions {
		if !isAbsoluteURI(cond.Artifact) {
			msgs = append(msgs, fmt.Sprintf("structured condition artifact %q is not an absolute URI", cond.Artifact))
		}
		if !isAbsoluteURI(cond.PropertyAffordance) {
			msgs = append(msgs, fmt.Sprintf("structured condition property %q is not an absolute URI", cond.PropertyAffordance))
		}
	}
	return msgs
}

func checkRecognizedDatatypes(sig *model.Signifier) []string {
	var msgs []string
	for _, cond := range sig.Context.StructuredConditions {
		for _, vc := range cond.ValueConditions {
			if vc.Datatype != "" && !recognizedDatatypes[vc.Datatype] {
				msgs = append(msgs, fmt.Sprintf("value condition on %s/%s declares unrecognized datatype %q", cond.Artifact, cond.PropertyAffordance, vc.Datatype))
			}
		}
	}
	if strings.TrimSpace(sig.Context.ShaclShapes) != "" {
		if graph, err := shapes.ParseShapes(sig.Context.ShaclShapes); err == nil {
			for _, ns := range graph.Shapes {
				for _, ps := range ns.Properties {
					if ps.Datatype != "" && !recognizedDatatypes[ps.Datatype] {
						msgs = append(msgs, fmt.Sprintf("shape property %s declares unrecognized sh:datatype %q", ps.Path, ps.Datatype))
					}
				}
			}
		}
	}
	return msgs
}

func checkShapesParseable(sig *model.Signifier) []string {
	if strings.TrimSpace(sig.Context.ShaclShapes) == "" {
		return nil
	}
	if _, err := shapes.ParseShapes(sig.Context.ShaclShapes); err != nil {
		return []string{fmt.Sprintf("shacl_shapes does not parse: %s", err)}
	}
	return nil
}

func checkShapesHaveTargets(sig *model.Signifier) []string {
	if strings.TrimSpace(sig.Context.ShaclShapes) == "" {
		return nil
	}
	graph, err := shapes.ParseShapes(sig.Context.ShaclShapes)
	if err != nil {
		return nil
	}
	var msgs []string
	for i, ns := range graph.Shapes {
		if ns.TargetClass == "" && ns.TargetNode == "" {
			msgs = append(msgs, fmt.Sprintf("shape at index %d has neither sh:targetClass nor sh:targetNode", i))
		}
	}
	return msgs
}

func isAbsoluteURI(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs()
}
