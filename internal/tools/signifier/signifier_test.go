package signifier

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aimas-cs-pub-ro/cashmere/internal/authoring"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
	"github.com/aimas-cs-pub-ro/cashmere/internal/representation"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New(t.TempDir(), representation.NewService(nil), nil)
	require.NoError(t, err)
	return reg
}

func TestCreateThenGet(t *testing.T) {
	reg := newTestRegistry(t)
	create := NewCreate(reg)
	get := NewGet(reg)

	res, err := create.Execute(context.Background(), json.RawMessage(`{
		"signifier_id": "raise-blinds",
		"affordance_uri": "http://example.org/affordances/raise-blinds",
		"nl_text": "raise the blinds",
		"created_by": "tester"
	}`))
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = get.Execute(context.Background(), json.RawMessage(`{"signifier_id": "raise-blinds"}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, res.Content[0].Text, "raise the blinds")
}

func TestCreateDuplicateReturnsErrorResult(t *testing.T) {
	reg := newTestRegistry(t)
	create := NewCreate(reg)
	params := json.RawMessage(`{
		"signifier_id": "dup",
		"affordance_uri": "http://example.org/a",
		"nl_text": "x",
		"created_by": "tester"
	}`)

	_, err := create.Execute(context.Background(), params)
	require.NoError(t, err)

	res, err := create.Execute(context.Background(), params)
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestGetMissingReturnsErrorResult(t *testing.T) {
	reg := newTestRegistry(t)
	get := NewGet(reg)
	res, err := get.Execute(context.Background(), json.RawMessage(`{"signifier_id": "missing"}`))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestUpdateStatusTransition(t *testing.T) {
	reg := newTestRegistry(t)
	create := NewCreate(reg)
	updateStatus := NewUpdateStatus(reg)
	get := NewGet(reg)

	_, err := create.Execute(context.Background(), json.RawMessage(`{
		"signifier_id": "s1",
		"affordance_uri": "http://example.org/a",
		"nl_text": "x",
		"created_by": "tester"
	}`))
	require.NoError(t, err)

	res, err := updateStatus.Execute(context.Background(), json.RawMessage(`{"signifier_id": "s1", "status": "deprecated"}`))
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = get.Execute(context.Background(), json.RawMessage(`{"signifier_id": "s1"}`))
	require.NoError(t, err)
	require.Contains(t, res.Content[0].Text, "deprecated")
}

func TestDeleteRemovesSignifier(t *testing.T) {
	reg := newTestRegistry(t)
	create := NewCreate(reg)
	del := NewDelete(reg)
	get := NewGet(reg)

	_, err := create.Execute(context.Background(), json.RawMessage(`{
		"signifier_id": "s1",
		"affordance_uri": "http://example.org/a",
		"nl_text": "x",
		"created_by": "tester"
	}`))
	require.NoError(t, err)

	res, err := del.Execute(context.Background(), json.RawMessage(`{"signifier_id": "s1"}`))
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = get.Execute(context.Background(), json.RawMessage(`{"signifier_id": "s1"}`))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestListReturnsAllCreatedSignifiers(t *testing.T) {
	reg := newTestRegistry(t)
	create := NewCreate(reg)
	list := NewList(reg)

	for _, id := range []string{"a", "b"} {
		_, err := create.Execute(context.Background(), json.RawMessage(`{
			"signifier_id": "`+id+`",
			"affordance_uri": "http://example.org/a",
			"nl_text": "x",
			"created_by": "tester"
		}`))
		require.NoError(t, err)
	}

	res, err := list.Execute(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, res.Content[0].Text, `"a"`)
	require.Contains(t, res.Content[0].Text, `"b"`)
}

func TestCreateWithValidatorLenientAttachesMessages(t *testing.T) {
	reg := newTestRegistry(t)
	create := NewCreateWithValidator(reg, authoring.New(false, nil))

	res, err := create.Execute(context.Background(), json.RawMessage(`{
		"signifier_id": "bad-uri",
		"affordance_uri": "not-a-uri",
		"nl_text": "x",
		"created_by": "tester",
		"validate": true
	}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, res.Content[0].Text, "authoring_messages")
}

func TestCreateWithValidatorStrictAbortsCreate(t *testing.T) {
	reg := newTestRegistry(t)
	create := NewCreateWithValidator(reg, authoring.New(true, nil))

	res, err := create.Execute(context.Background(), json.RawMessage(`{
		"signifier_id": "bad-uri",
		"affordance_uri": "not-a-uri",
		"nl_text": "x",
		"created_by": "tester",
		"validate": true
	}`))
	require.NoError(t, err)
	require.True(t, res.IsError)

	get := NewGet(reg)
	res, err = get.Execute(context.Background(), json.RawMessage(`{"signifier_id": "bad-uri"}`))
	require.NoError(t, err)
	require.True(t, res.IsError)
}

func TestFindByPropertyReturnsMatchingIDs(t *testing.T) {
	reg := newTestRegistry(t)
	create := NewCreate(reg)
	find := NewFindByProperty(reg)

	_, err := create.Execute(context.Background(), json.RawMessage(`{
		"signifier_id": "s1",
		"affordance_uri": "http://example.org/a",
		"nl_text": "x",
		"created_by": "tester",
		"structured_conditions": [{
			"artifact": "http://example.org/artifacts/lum308",
			"property_affordance": "http://example.org/LightSensor#hasLuminosityLevel",
			"value_conditions": [{"operator": "greaterEqual", "value": 10000}]
		}]
	}`))
	require.NoError(t, err)

	res, err := find.Execute(context.Background(), json.RawMessage(`{
		"artifact": "http://example.org/artifacts/lum308",
		"property": "http://example.org/LightSensor#hasLuminosityLevel"
	}`))
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, res.Content[0].Text, "s1")
}
