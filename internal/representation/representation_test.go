package representation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
)

func TestPreprocessRDFStripsCommentsAndInjectsPrefixes(t *testing.T) {
	raw := `cashmere:x cashmere:y cashmere:z . // trailing comment
// whole line comment
cashmere:hasStructuredDescription "plain text with no embedded uri"^^xsd:string`

	out := PreprocessRDF(raw)
	require.Contains(t, out, "@prefix cashmere:")
	require.Contains(t, out, "@prefix sh:")
	require.NotContains(t, out, "trailing comment")
	require.NotContains(t, out, "whole line comment")
	require.Contains(t, out, `cashmere:hasStructuredDescription """plain text with no embedded uri"""^^xsd:string`)
}

func TestPreprocessRDFRewritesEmbeddedURIs(t *testing.T) {
	raw := `cashmere:hasStructuredDescription "see <http://example.org/thing> for more"`
	out := PreprocessRDF(raw)
	require.Contains(t, out, `see 'http://example.org/thing' for more`)
}

const sampleSignifierTurtle = `
@prefix cashmere: <https://aimas.cs.pub.ro/ont/cashmere#> .
@prefix sh: <http://www.w3.org/ns/shacl#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

cashmere:raise-blinds-signifier a cashmere:Signifier ;
    cashmere:signifies <http://example.org/affordance/raise-blinds> ;
    cashmere:hasIntentionDescription cashmere:raise-blinds-signifier-intent ;
    cashmere:recommendsContext cashmere:raise-blinds-signifier-context .

cashmere:raise-blinds-signifier-intent cashmere:hasStructuredDescription "{\"intent\": \"raise the blinds when it is dark\"}"^^xsd:string .

cashmere:raise-blinds-signifier-context cashmere:hasStructuredDescription "{\"conditions\": []}"^^xsd:string ;
    cashmere:hasShaclCondition cashmere:raise-blinds-shape .

cashmere:raise-blinds-shape a sh:NodeShape ;
    sh:targetClass cashmere:LightSensor ;
    sh:property cashmere:luminosity-property .

cashmere:luminosity-property sh:path cashmere:hasLuminosityLevel ;
    sh:minCount "1"^^xsd:integer .
`

func TestParseSignifierRoundTrip(t *testing.T) {
	svc := NewService(nil)

	parsed, err := svc.ParseSignifier(sampleSignifierTurtle)
	require.NoError(t, err)
	require.Equal(t, "raise-blinds-signifier", parsed.SignifierID)
	require.Equal(t, "http://example.org/affordance/raise-blinds", parsed.AffordanceURI)
	require.Equal(t, "raise the blinds when it is dark", parsed.Intent.NLText)
	require.NotEmpty(t, parsed.Context.ShaclShapes)

	regenerated := svc.GenerateRDF(parsed, "http://example.org/signifiers")
	reparsed, err := svc.ParseSignifier(regenerated)
	require.NoError(t, err)
	require.Equal(t, parsed.SignifierID, reparsed.SignifierID)
	require.Equal(t, parsed.AffordanceURI, reparsed.AffordanceURI)
	require.Equal(t, parsed.Intent.NLText, reparsed.Intent.NLText)
}

func TestParseSignifierMissingSignifiesIsInvalidRDF(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.ParseSignifier(`
@prefix cashmere: <https://aimas.cs.pub.ro/ont/cashmere#> .
cashmere:x a cashmere:Signifier ;
    cashmere:hasIntentionDescription cashmere:x-intent .
cashmere:x-intent cashmere:hasStructuredDescription "{}" .
`)
	require.ErrorIs(t, err, model.ErrInvalidRDF)
}

func TestParseSignifierNoSignifierNode(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.ParseSignifier(`
@prefix cashmere: <https://aimas.cs.pub.ro/ont/cashmere#> .
cashmere:x cashmere:signifies <http://example.org/a> .
`)
	require.ErrorIs(t, err, model.ErrInvalidRDF)
}
