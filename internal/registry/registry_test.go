package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/representation"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	rep := representation.NewService(nil)
	r, err := New(t.TempDir(), rep, nil)
	require.NoError(t, err)
	return r
}

func sampleSignifier(id string) *model.Signifier {
	return &model.Signifier{
		SignifierID:   id,
		AffordanceURI: "http://example.org/affordance/" + id,
		Intent:        model.IntentionDescription{NLText: "do the " + id + " thing"},
		Context: model.IntentContext{
			StructuredConditions: []model.StructuredCondition{
				{
					Artifact:           "http://example.org/artifacts/sensor1",
					PropertyAffordance: "http://example.org/LightSensor#hasLuminosityLevel",
					ValueConditions: []model.ValueCondition{
						{Operator: model.OpGreaterEqual, Value: 10000.0},
					},
				},
			},
		},
		Provenance: model.Provenance{CreatedBy: "tester"},
	}
}

func TestCreateAndGet(t *testing.T) {
	r := newTestRegistry(t)
	sig := sampleSignifier("raise-blinds")

	require.NoError(t, r.Create(sig, ""))

	got, err := r.Get("raise-blinds")
	require.NoError(t, err)
	require.Equal(t, "raise-blinds", got.SignifierID)
	require.Equal(t, 1, got.Version)
	require.Equal(t, model.StatusActive, got.Status)

	rdf, err := r.GetRDF("raise-blinds", 0)
	require.NoError(t, err)
	require.NotEmpty(t, rdf)
}

func TestCreateDuplicateFails(t *testing.T) {
	r := newTestRegistry(t)
	sig := sampleSignifier("raise-blinds")
	require.NoError(t, r.Create(sig, ""))
	require.ErrorIs(t, r.Create(sampleSignifier("raise-blinds"), ""), model.ErrAlreadyExists)
}

func TestGetNotFound(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Get("missing")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestFindByProperty(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Create(sampleSignifier("raise-blinds"), ""))
	require.NoError(t, r.Create(sampleSignifier("lower-blinds"), ""))

	ids := r.FindByProperty("http://example.org/artifacts/sensor1", "http://example.org/LightSensor#hasLuminosityLevel")
	require.ElementsMatch(t, []string{"raise-blinds", "lower-blinds"}, ids)
}

func TestUpdateWithNewVersionBumpsVersionAndIndex(t *testing.T) {
	r := newTestRegistry(t)
	sig := sampleSignifier("raise-blinds")
	require.NoError(t, r.Create(sig, ""))

	updated := sampleSignifier("raise-blinds")
	updated.Context.StructuredConditions[0].Artifact = "http://example.org/artifacts/sensor2"
	require.NoError(t, r.Update(updated, true))

	got, err := r.Get("raise-blinds")
	require.NoError(t, err)
	require.Equal(t, 2, got.Version)

	require.Empty(t, r.FindByProperty("http://example.org/artifacts/sensor1", "http://example.org/LightSensor#hasLuminosityLevel"))
	require.Equal(t, []string{"raise-blinds"}, r.FindByProperty("http://example.org/artifacts/sensor2", "http://example.org/LightSensor#hasLuminosityLevel"))
}

func TestUpdateStatusDoesNotBumpVersion(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Create(sampleSignifier("raise-blinds"), ""))
	require.NoError(t, r.UpdateStatus("raise-blinds", model.StatusDeprecated))

	got, err := r.Get("raise-blinds")
	require.NoError(t, err)
	require.Equal(t, model.StatusDeprecated, got.Status)
	require.Equal(t, 1, got.Version)
}

func TestDeletePrunesIndexAndFiles(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Create(sampleSignifier("raise-blinds"), ""))
	require.NoError(t, r.Delete("raise-blinds"))

	_, err := r.Get("raise-blinds")
	require.ErrorIs(t, err, model.ErrNotFound)
	require.Empty(t, r.FindByProperty("http://example.org/artifacts/sensor1", "http://example.org/LightSensor#hasLuminosityLevel"))

	_, err = r.GetRDF("raise-blinds", 1)
	require.Error(t, err)
}

func TestListFiltersAndIsStable(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Create(sampleSignifier("b-signifier"), ""))
	require.NoError(t, r.Create(sampleSignifier("a-signifier"), ""))
	require.NoError(t, r.UpdateStatus("b-signifier", model.StatusDeprecated))

	active := r.List(ListFilter{Status: model.StatusActive})
	require.Len(t, active, 1)
	require.Equal(t, "a-signifier", active[0].SignifierID)

	all := r.List(ListFilter{})
	require.Len(t, all, 2)
	require.Equal(t, "a-signifier", all[0].SignifierID)
	require.Equal(t, "b-signifier", all[1].SignifierID)
}

func TestCreateFromRDFRoundTrips(t *testing.T) {
	r := newTestRegistry(t)
	sig := sampleSignifier("raise-blinds")
	rdf := r.rep.GenerateRDF(sig, "http://example.org/signifiers")

	fresh := newTestRegistry(t)
	created, err := fresh.CreateFromRDF(rdf)
	require.NoError(t, err)
	require.Equal(t, "raise-blinds", created.SignifierID)

	got, err := fresh.Get("raise-blinds")
	require.NoError(t, err)
	require.Equal(t, sig.AffordanceURI, got.AffordanceURI)
}

func TestLoadRestoresExistingState(t *testing.T) {
	dir := t.TempDir()
	rep := representation.NewService(nil)

	r1, err := New(dir, rep, nil)
	require.NoError(t, err)
	require.NoError(t, r1.Create(sampleSignifier("raise-blinds"), ""))

	r2, err := New(dir, rep, nil)
	require.NoError(t, err)
	got, err := r2.Get("raise-blinds")
	require.NoError(t, err)
	require.Equal(t, "raise-blinds", got.SignifierID)
	require.Equal(t, []string{"raise-blinds"}, r2.FindByProperty("http://example.org/artifacts/sensor1", "http://example.org/LightSensor#hasLuminosityLevel"))
}
