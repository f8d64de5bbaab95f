package rdfgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleTurtle = `
@prefix cashmere: <https://aimas.cs.pub.ro/ont/cashmere#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

cashmere:raise-blinds-signifier a cashmere:Signifier ;
    cashmere:signifies <http://example.org/affordance/raise-blinds> ;
    cashmere:hasConstraint [
        cashmere:path cashmere:lightLevel ;
        cashmere:minCount "1"^^xsd:integer
    ] .
`

func TestParseTurtleBasic(t *testing.T) {
	g, err := ParseTurtle(sampleTurtle)
	require.NoError(t, err)
	require.Equal(t, 5, g.Len())

	types := g.Subjects("https://aimas.cs.pub.ro/ont/cashmere#Signifier")
	require.Len(t, types, 1)
	require.Equal(t, "https://aimas.cs.pub.ro/ont/cashmere#raise-blinds-signifier", types[0].Value)

	signifies := g.ByPredicate("https://aimas.cs.pub.ro/ont/cashmere#signifies")
	require.Len(t, signifies, 1)
	require.Equal(t, "http://example.org/affordance/raise-blinds", signifies[0].Object.Value)
}

func TestParseTurtleBlankPropertyList(t *testing.T) {
	g, err := ParseTurtle(sampleTurtle)
	require.NoError(t, err)

	constraints := g.ByPredicate("https://aimas.cs.pub.ro/ont/cashmere#hasConstraint")
	require.Len(t, constraints, 1)
	blank := constraints[0].Object
	require.Equal(t, KindBlank, blank.Kind)

	props := g.BySubject(blank)
	require.Len(t, props, 2)
}

func TestCanonicalIsOrderIndependent(t *testing.T) {
	g1, err := ParseTurtle(sampleTurtle)
	require.NoError(t, err)

	reordered := `
@prefix cashmere: <https://aimas.cs.pub.ro/ont/cashmere#> .
@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .

cashmere:raise-blinds-signifier cashmere:signifies <http://example.org/affordance/raise-blinds> ;
    a cashmere:Signifier ;
    cashmere:hasConstraint [
        cashmere:minCount "1"^^xsd:integer ;
        cashmere:path cashmere:lightLevel
    ] .
`
	g2, err := ParseTurtle(reordered)
	require.NoError(t, err)

	require.Equal(t, g1.Hash(), g2.Hash())
}

func TestWriteTurtleRoundTrips(t *testing.T) {
	g, err := ParseTurtle(sampleTurtle)
	require.NoError(t, err)

	out := WriteTurtle(g, map[string]string{
		"cashmere": "https://aimas.cs.pub.ro/ont/cashmere#",
		"xsd":      "http://www.w3.org/2001/XMLSchema#",
	})

	reparsed, err := ParseTurtle(out)
	require.NoError(t, err)
	require.Equal(t, g.Hash(), reparsed.Hash())
}

func TestParseTurtleRejectsMalformed(t *testing.T) {
	_, err := ParseTurtle(`cashmere:a cashmere:b cashmere:c .`)
	require.Error(t, err)
}
