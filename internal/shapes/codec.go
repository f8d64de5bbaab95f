package shapes

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aimas-cs-pub-ro/cashmere/internal/rdfgraph"
)

func hasType(data *rdfgraph.Graph, val rdfgraph.Term, class string) bool {
	if val.Kind != rdfgraph.KindIRI {
		return false
	}
	for _, stmt := range data.BySubject(val) {
		if stmt.Predicate.Value == rdfType && stmt.Object.Value == class {
			return true
		}
	}
	return false
}

func parseNumeric(val rdfgraph.Term) (float64, bool) {
	if val.Kind != rdfgraph.KindLiteral {
		return 0, false
	}
	f, err := strconv.ParseFloat(val.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}

// encodeResult/decodeResult serialize a Result for the bbolt-backed cache.
func encodeResult(r Result) []byte {
	b, _ := json.Marshal(r)
	return b
}

func decodeResult(raw []byte) Result {
	var r Result
	_ = json.Unmarshal(raw, &r)
	return r
}
