package shapes

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aimas-cs-pub-ro/cashmere/internal/rdfgraph"
	"github.com/aimas-cs-pub-ro/cashmere/internal/registry"
)

const raiseBlindsShapes = `
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

<http://example.org/shapes/RaiseBlindsShape> a sh:NodeShape ;
    sh:targetNode <http://example.org/artifacts/sensor308> ;
    sh:property [
        sh:path <http://example.org/LightSensor#hasLuminosityLevel> ;
        sh:minCount 1 ;
        sh:minInclusive 10000 ;
    ] .
`

func dataGraphWithLuminosity(value string) *rdfgraph.Graph {
	g := rdfgraph.NewGraph()
	g.AddStatement(
		rdfgraph.NewIRI("http://example.org/artifacts/sensor308"),
		rdfgraph.NewIRI("http://example.org/LightSensor#hasLuminosityLevel"),
		rdfgraph.NewLiteral(value, "", "http://www.w3.org/2001/XMLSchema#double"),
	)
	return g
}

func TestParseShapesExtractsTargetAndPropertyConstraints(t *testing.T) {
	sg, err := ParseShapes(raiseBlindsShapes)
	require.NoError(t, err)
	require.Len(t, sg.Shapes, 1)
	require.Equal(t, "http://example.org/artifacts/sensor308", sg.Shapes[0].TargetNode)
	require.Len(t, sg.Shapes[0].Properties, 1)
	require.Equal(t, "http://example.org/LightSensor#hasLuminosityLevel", sg.Shapes[0].Properties[0].Path)
	require.NotNil(t, sg.Shapes[0].Properties[0].MinInclusive)
	require.Equal(t, 10000.0, *sg.Shapes[0].Properties[0].MinInclusive)
}

func TestValidateConformsWhenAboveThreshold(t *testing.T) {
	v := NewValidator(nil, nil)
	result, err := v.Validate(dataGraphWithLuminosity("15000"), raiseBlindsShapes)
	require.NoError(t, err)
	require.True(t, result.Conforms)
	require.Empty(t, result.Violations)
}

func TestValidateAtBoundaryConforms(t *testing.T) {
	v := NewValidator(nil, nil)
	result, err := v.Validate(dataGraphWithLuminosity("10000"), raiseBlindsShapes)
	require.NoError(t, err)
	require.True(t, result.Conforms, "minInclusive 10000 must accept the boundary value itself")
}

func TestValidateFlipsToFalseWhenUnsatisfied(t *testing.T) {
	v := NewValidator(nil, nil)
	result, err := v.Validate(dataGraphWithLuminosity("3000"), raiseBlindsShapes)
	require.NoError(t, err)
	require.False(t, result.Conforms)
	require.Len(t, result.Violations, 1)
	require.Equal(t, "MinInclusiveConstraintComponent", result.Violations[0].SourceConstraintComponent)
}

func TestValidateWithoutPropertyShapesAlwaysConforms(t *testing.T) {
	v := NewValidator(nil, nil)
	const shapesNoProperty = `
@prefix sh: <http://www.w3.org/ns/shacl#> .
<http://example.org/shapes/Empty> a sh:NodeShape ;
    sh:targetNode <http://example.org/artifacts/sensor308> .
`
	result, err := v.Validate(dataGraphWithLuminosity("1"), shapesNoProperty)
	require.NoError(t, err)
	require.True(t, result.Conforms, "removing all sh:property sub-shapes restores conformance")
}

func TestConstraintCountIsLexical(t *testing.T) {
	require.Equal(t, 1, ConstraintCount(raiseBlindsShapes))
}

func TestValidateUsesCacheOnSecondCall(t *testing.T) {
	cache, err := registry.OpenCache(filepath.Join(t.TempDir(), "shacl.db"), "shacl", 0)
	require.NoError(t, err)
	defer cache.Close()

	v := NewValidator(cache, nil)
	data := dataGraphWithLuminosity("3000")

	first, err := v.Validate(data, raiseBlindsShapes)
	require.NoError(t, err)
	require.False(t, first.Conforms)

	second, err := v.Validate(data, raiseBlindsShapes)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestValidateBatchValidatesEachItemIndependently(t *testing.T) {
	v := NewValidator(nil, nil)
	data := dataGraphWithLuminosity("15000")

	results := v.ValidateBatch(context.Background(), data, []BatchItem{
		{SignifierID: "conforms", ShaclShapes: raiseBlindsShapes},
		{SignifierID: "unparseable", ShaclShapes: "<http://example.org/shapes/Broken"},
	})

	require.Len(t, results, 2)
	require.True(t, results["conforms"].Conforms)
	require.False(t, results["unparseable"].Conforms)
	require.NotEmpty(t, results["unparseable"].Violations)
}
