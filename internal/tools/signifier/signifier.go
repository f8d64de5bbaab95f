// Package signifier implements the thin MCP tool wrappers over
// internal/registry.Registry: signifier_create, signifier_create_from_rdf,
// signifier_get, signifier_update, signifier_update_status,
// signifier_delete, signifier_list, and signifier_find_by_property. Each
// tool does nothing but decode its JSON arguments, call the registry, and
// re-encode the result — all ingest/update semantics live in the registry
// and model packages.
package signifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aimas-cs-pub-ro/cashmere/internal/authoring"
	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
	"github.com/aimas-cs-pub-ro/cashmere/internal/toolkit"
)

// wireStructuredCondition mirrors model.StructuredCondition for JSON
// arguments so callers don't need to know the internal field layout.
type wireStructuredCondition struct {
	Artifact           string                `json:"artifact"`
	PropertyAffordance string                `json:"property_affordance"`
	ValueConditions    []model.ValueCondition `json:"value_conditions"`
}

func toModelConditions(in []wireStructuredCondition) []model.StructuredCondition {
	out := make([]model.StructuredCondition, len(in))
	for i, c := range in {
		out[i] = model.StructuredCondition{
			Artifact:           c.Artifact,
			PropertyAffordance: c.PropertyAffordance,
			ValueConditions:    c.ValueConditions,
		}
	}
	return out
}

// toolError maps a core package error to a tool result rather than an
// Execute error, so registry failures surface as ordinary isError results
// instead of JSON-RPC internal errors.
func toolError(err error) (*toolkit.ToolsCallResult, error) {
	switch {
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrAlreadyExists),
		errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrInvalidRDF),
		errors.Is(err, model.ErrInvalidShapes):
		return toolkit.ErrorResult(err.Error()), nil
	default:
		return nil, err
	}
}

// --- signifier_create ---

type createParams struct {
	SignifierID   string                    `json:"signifier_id"`
	AffordanceURI string                    `json:"affordance_uri"`
	NLText        string                    `json:"nl_text"`
	CreatedBy     string                    `json:"created_by"`
	ShaclShapes   string                    `json:"shacl_shapes,omitempty"`
	NLDescription string                    `json:"nl_description,omitempty"`
	Conditions    []wireStructuredCondition `json:"structured_conditions,omitempty"`
	Validate      bool                      `json:"validate,omitempty"`
}

// Create wraps registry.Registry.Create. When a caller sets validate=true
// and an authoring.Validator was provided at construction, the signifier is
// run through the authoring checks first: in lenient mode any messages are
// attached to the result, in strict mode a failing check aborts the create.
type Create struct {
	reg       *registry.Registry
	validator *authoring.Validator
}

func NewCreate(reg *registry.Registry) *Create { return &Create{reg: reg} }

// NewCreateWithValidator wires an authoring.Validator into the create tool
// so callers can opt into the authoring pass (spec.md §7) per request via
// the validate argument.
func NewCreateWithValidator(reg *registry.Registry, validator *authoring.Validator) *Create {
	return &Create{reg: reg, validator: validator}
}

func (t *Create) Name() string { return "signifier_create" }
func (t *Create) Description() string {
	return "Create a new signifier from its natural-language intent, affordance URI, and context preconditions (structured conditions and/or SHACL shapes)."
}
func (t *Create) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "signifier_id": {"type": "string", "description": "Unique identifier for the new signifier"},
    "affordance_uri": {"type": "string", "description": "URI of the affordance this signifier signals"},
    "nl_text": {"type": "string", "description": "Natural-language description of the intent"},
    "created_by": {"type": "string", "description": "Author identifier"},
    "shacl_shapes": {"type": "string", "description": "SHACL shapes graph, serialized as Turtle"},
    "nl_description": {"type": "string", "description": "Natural-language description of the context precondition"},
    "structured_conditions": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "artifact": {"type": "string"},
          "property_affordance": {"type": "string"},
          "value_conditions": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "operator": {"type": "string", "enum": ["greaterThan", "lessThan", "greaterEqual", "lessEqual", "equals", "notEquals"]},
                "value": {},
                "datatype": {"type": "string"}
              },
              "required": ["operator", "value"]
            }
          }
        },
        "required": ["artifact", "property_affordance"]
      }
    },
    "validate": {"type": "boolean", "description": "Run the optional authoring validator before creating (no-op if the server has none configured)"}
  },
  "required": ["signifier_id", "affordance_uri", "nl_text", "created_by"]
}`)
}
func (t *Create) Execute(_ context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p createParams
	if err := json.Unmarshal(params, &p); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	sig := &model.Signifier{
		SignifierID:   p.SignifierID,
		AffordanceURI: p.AffordanceURI,
		Intent:        model.IntentionDescription{NLText: p.NLText},
		Context: model.IntentContext{
			StructuredConditions: toModelConditions(p.Conditions),
			ShaclShapes:          p.ShaclShapes,
			NLDescription:        p.NLDescription,
		},
		Provenance: model.Provenance{CreatedBy: p.CreatedBy},
	}

	var authoringMessages []string
	if p.Validate && t.validator != nil {
		msgs, err := t.validator.Validate(sig)
		if err != nil {
			return toolError(err)
		}
		authoringMessages = msgs
	}

	if err := t.reg.Create(sig, ""); err != nil {
		return toolError(err)
	}
	if len(authoringMessages) == 0 {
		return toolkit.JSONResult(sig)
	}
	return toolkit.JSONResult(map[string]any{"signifier": sig, "authoring_messages": authoringMessages})
}

// --- signifier_create_from_rdf ---

type createFromRDFParams struct {
	RDF string `json:"rdf"`
}

type CreateFromRDF struct {
	reg *registry.Registry
}

func NewCreateFromRDF(reg *registry.Registry) *CreateFromRDF { return &CreateFromRDF{reg: reg} }

func (t *CreateFromRDF) Name() string { return "signifier_create_from_rdf" }
func (t *CreateFromRDF) Description() string {
	return "Create a signifier by parsing a complete RDF/Turtle document rather than structured fields."
}
func (t *CreateFromRDF) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"rdf": {"type": "string", "description": "Turtle-serialized signifier RDF"}},
  "required": ["rdf"]
}`)
}
func (t *CreateFromRDF) Execute(_ context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p createFromRDFParams
	if err := json.Unmarshal(params, &p); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	sig, err := t.reg.CreateFromRDF(p.RDF)
	if err != nil {
		return toolError(err)
	}
	return toolkit.JSONResult(sig)
}

// --- signifier_get ---

type getParams struct {
	SignifierID string `json:"signifier_id"`
}

type Get struct {
	reg *registry.Registry
}

func NewGet(reg *registry.Registry) *Get { return &Get{reg: reg} }

func (t *Get) Name() string        { return "signifier_get" }
func (t *Get) Description() string { return "Fetch the current version of a signifier by id." }
func (t *Get) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"signifier_id": {"type": "string"}},
  "required": ["signifier_id"]
}`)
}
func (t *Get) Execute(_ context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p getParams
	if err := json.Unmarshal(params, &p); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	sig, err := t.reg.Get(p.SignifierID)
	if err != nil {
		return toolError(err)
	}
	return toolkit.JSONResult(sig)
}

// --- signifier_update ---

type updateParams struct {
	SignifierID   string                    `json:"signifier_id"`
	AffordanceURI string                    `json:"affordance_uri"`
	NLText        string                    `json:"nl_text"`
	CreatedBy     string                    `json:"created_by"`
	ShaclShapes   string                    `json:"shacl_shapes,omitempty"`
	NLDescription string                    `json:"nl_description,omitempty"`
	Conditions    []wireStructuredCondition `json:"structured_conditions,omitempty"`
	NewVersion    bool                      `json:"new_version"`
}

type Update struct {
	reg *registry.Registry
}

func NewUpdate(reg *registry.Registry) *Update { return &Update{reg: reg} }

func (t *Update) Name() string { return "signifier_update" }
func (t *Update) Description() string {
	return "Replace a signifier's content. When new_version is true, bumps the version and keeps the prior RDF file around; otherwise overwrites the current version in place."
}
func (t *Update) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "signifier_id": {"type": "string"},
    "affordance_uri": {"type": "string"},
    "nl_text": {"type": "string"},
    "created_by": {"type": "string"},
    "shacl_shapes": {"type": "string"},
    "nl_description": {"type": "string"},
    "structured_conditions": {"type": "array", "items": {"type": "object"}},
    "new_version": {"type": "boolean", "description": "Whether to create a new version instead of overwriting"}
  },
  "required": ["signifier_id", "affordance_uri", "nl_text", "created_by"]
}`)
}
func (t *Update) Execute(_ context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p updateParams
	if err := json.Unmarshal(params, &p); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	sig := &model.Signifier{
		SignifierID:   p.SignifierID,
		AffordanceURI: p.AffordanceURI,
		Status:        model.StatusActive,
		Intent:        model.IntentionDescription{NLText: p.NLText},
		Context: model.IntentContext{
			StructuredConditions: toModelConditions(p.Conditions),
			ShaclShapes:          p.ShaclShapes,
			NLDescription:        p.NLDescription,
		},
		Provenance: model.Provenance{CreatedBy: p.CreatedBy},
	}
	if err := t.reg.Update(sig, p.NewVersion); err != nil {
		return toolError(err)
	}
	return toolkit.JSONResult(sig)
}

// --- signifier_update_status ---

type updateStatusParams struct {
	SignifierID string `json:"signifier_id"`
	Status      string `json:"status"`
}

type UpdateStatus struct {
	reg *registry.Registry
}

func NewUpdateStatus(reg *registry.Registry) *UpdateStatus { return &UpdateStatus{reg: reg} }

func (t *UpdateStatus) Name() string { return "signifier_update_status" }
func (t *UpdateStatus) Description() string {
	return "Transition a signifier's status (active/deprecated) without writing a new version."
}
func (t *UpdateStatus) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "signifier_id": {"type": "string"},
    "status": {"type": "string", "enum": ["active", "deprecated"]}
  },
  "required": ["signifier_id", "status"]
}`)
}
func (t *UpdateStatus) Execute(_ context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p updateStatusParams
	if err := json.Unmarshal(params, &p); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	status := model.Status(p.Status)
	if status != model.StatusActive && status != model.StatusDeprecated {
		return toolkit.ErrorResult(fmt.Sprintf("invalid status %q", p.Status)), nil
	}
	if err := t.reg.UpdateStatus(p.SignifierID, status); err != nil {
		return toolError(err)
	}
	return toolkit.JSONResult(map[string]string{"signifier_id": p.SignifierID, "status": p.Status})
}

// --- signifier_delete ---

type deleteParams struct {
	SignifierID string `json:"signifier_id"`
}

type Delete struct {
	reg *registry.Registry
}

func NewDelete(reg *registry.Registry) *Delete { return &Delete{reg: reg} }

func (t *Delete) Name() string { return "signifier_delete" }
func (t *Delete) Description() string {
	return "Delete a signifier: all versions, RDF files, and index entries."
}
func (t *Delete) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"signifier_id": {"type": "string"}},
  "required": ["signifier_id"]
}`)
}
func (t *Delete) Execute(_ context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p deleteParams
	if err := json.Unmarshal(params, &p); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if err := t.reg.Delete(p.SignifierID); err != nil {
		return toolError(err)
	}
	return toolkit.JSONResult(map[string]string{"deleted": p.SignifierID})
}

// --- signifier_list ---

type listParams struct {
	Status        string `json:"status,omitempty"`
	AffordanceURI string `json:"affordance_uri,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Offset        int    `json:"offset,omitempty"`
}

type List struct {
	reg *registry.Registry
}

func NewList(reg *registry.Registry) *List { return &List{reg: reg} }

func (t *List) Name() string { return "signifier_list" }
func (t *List) Description() string {
	return "List current-version signifiers, optionally filtered by status or affordance URI, ordered by signifier_id."
}
func (t *List) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "status": {"type": "string", "enum": ["active", "deprecated"]},
    "affordance_uri": {"type": "string"},
    "limit": {"type": "integer"},
    "offset": {"type": "integer"}
  }
}`)
}
func (t *List) Execute(_ context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p listParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
		}
	}
	results := t.reg.List(registry.ListFilter{
		Status:        model.Status(p.Status),
		AffordanceURI: p.AffordanceURI,
		Limit:         p.Limit,
		Offset:        p.Offset,
	})
	return toolkit.JSONResult(results)
}

// --- signifier_find_by_property ---

type findByPropertyParams struct {
	Artifact string `json:"artifact"`
	Property string `json:"property"`
}

type FindByProperty struct {
	reg *registry.Registry
}

func NewFindByProperty(reg *registry.Registry) *FindByProperty { return &FindByProperty{reg: reg} }

func (t *FindByProperty) Name() string { return "signifier_find_by_property" }
func (t *FindByProperty) Description() string {
	return "Look up every signifier with a structured condition on the given (artifact, property) pair via the registry's inverted index."
}
func (t *FindByProperty) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "artifact": {"type": "string"},
    "property": {"type": "string"}
  },
  "required": ["artifact", "property"]
}`)
}
func (t *FindByProperty) Execute(_ context.Context, params json.RawMessage) (*toolkit.ToolsCallResult, error) {
	var p findByPropertyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return toolkit.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	ids := t.reg.FindByProperty(p.Artifact, p.Property)
	return toolkit.JSONResult(map[string]any{"signifier_ids": ids})
}
