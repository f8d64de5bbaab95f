// Package registry is the dual-indexed Signifier Registry (spec.md §4.2): a
// canonical JSON document plus a per-version RDF graph for every signifier,
// and a (artifact, property) -> set<signifier_id> inverted index kept
// atomically consistent with the current version of each document.
package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aimas-cs-pub-ro/cashmere/internal/model"
	"github.com/aimas-cs-pub-ro/cashmere/internal/representation"
)

const (
	jsonDir  = "json"
	rdfDir   = "rdf"
	indexDir = "indexes"
	indexFile = "property_index.json"
)

// Registry is the file-backed, in-memory-cached signifier store. All
// mutating operations hold a single write lock across the document, RDF,
// and index stores so a concurrent reader never observes an inconsistent
// triple of (doc, rdf, index) (spec.md §4.2, §5).
type Registry struct {
	root string
	rep  *representation.Service
	log  *slog.Logger

	mu    sync.RWMutex
	docs  map[string]*model.Signifier          // id -> current version
	index map[model.PropertyKey]map[string]bool // (artifact,property) -> set of ids
}

// New creates (if absent) the storage layout under root and loads any
// existing signifiers and index entries into memory.
func New(root string, rep *representation.Service, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		root:  root,
		rep:   rep,
		log:   logger,
		docs:  make(map[string]*model.Signifier),
		index: make(map[model.PropertyKey]map[string]bool),
	}
	for _, dir := range []string{jsonDir, rdfDir, indexDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", model.ErrInternal, dir, err)
		}
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	entries, err := os.ReadDir(filepath.Join(r.root, jsonDir))
	if err != nil {
		return fmt.Errorf("%w: reading json dir: %v", model.ErrInternal, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(r.root, jsonDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", model.ErrInternal, entry.Name(), err)
		}
		var sig model.Signifier
		if err := json.Unmarshal(data, &sig); err != nil {
			return fmt.Errorf("%w: decoding %s: %v", model.ErrInternal, entry.Name(), err)
		}
		r.docs[sig.SignifierID] = &sig
		r.indexAdd(&sig)
	}

	indexPath := filepath.Join(r.root, indexDir, indexFile)
	if data, err := os.ReadFile(indexPath); err == nil {
		var raw map[string][]string
		if err := json.Unmarshal(data, &raw); err == nil {
			for key, ids := range raw {
				pk, ok := parseIndexKey(key)
				if !ok {
					continue
				}
				if r.index[pk] == nil {
					r.index[pk] = make(map[string]bool)
				}
				for _, id := range ids {
					r.index[pk][id] = true
				}
			}
		}
	}
	r.log.Info("registry loaded", "signifiers", len(r.docs))
	return nil
}

// Create stores sig as a new signifier. rdfText, if non-empty, is persisted
// as-is; otherwise RDF is regenerated from the canonical document. Fails
// with model.ErrAlreadyExists if the id is already present.
func (r *Registry) Create(sig *model.Signifier, rdfText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[sig.SignifierID]; exists {
		return fmt.Errorf("%w: %s", model.ErrAlreadyExists, sig.SignifierID)
	}
	r.applyDefaults(sig)
	if err := sig.Validate(); err != nil {
		return err
	}

	if rdfText == "" {
		rdfText = r.rep.GenerateRDF(sig, "")
	}
	if err := r.persist(sig, rdfText); err != nil {
		return err
	}
	r.docs[sig.SignifierID] = sig.Clone()
	r.indexAdd(sig)
	if err := r.persistIndex(); err != nil {
		return err
	}
	return nil
}

// CreateFromRDF parses rdfText via the Representation Service and creates
// the resulting signifier.
func (r *Registry) CreateFromRDF(rdfText string) (*model.Signifier, error) {
	sig, err := r.rep.ParseSignifier(rdfText)
	if err != nil {
		return nil, err
	}
	if err := r.Create(sig, rdfText); err != nil {
		return nil, err
	}
	return sig, nil
}

// Get returns the current version of id, or model.ErrNotFound.
func (r *Registry) Get(id string) (*model.Signifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sig, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	return sig.Clone(), nil
}

// GetRDF returns the serialized RDF for id at version (0 means current).
func (r *Registry) GetRDF(id string, version int) (string, error) {
	r.mu.RLock()
	current, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	if version == 0 {
		version = current.Version
	}
	data, err := os.ReadFile(r.rdfPath(id, version))
	if err != nil {
		return "", fmt.Errorf("%w: rdf for %s v%d: %v", model.ErrNotFound, id, version, err)
	}
	return string(data), nil
}

// Update replaces the current signifier for sig.SignifierID. When
// newVersion is true, sig.Version is set to the previous current version +
// 1 and a new RDF file is written alongside the old ones; otherwise the
// existing version is overwritten in place. Fails with model.ErrNotFound if
// the id is absent.
func (r *Registry) Update(sig *model.Signifier, newVersion bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.docs[sig.SignifierID]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, sig.SignifierID)
	}
	if newVersion {
		sig.Version = existing.Version + 1
	} else {
		sig.Version = existing.Version
	}
	r.applyDefaults(sig)
	if err := sig.Validate(); err != nil {
		return err
	}

	rdfText := r.rep.GenerateRDF(sig, "")
	if err := r.persist(sig, rdfText); err != nil {
		return err
	}

	r.indexRemove(existing)
	r.docs[sig.SignifierID] = sig.Clone()
	r.indexAdd(sig)
	return r.persistIndex()
}

// UpdateStatus updates the current version's status in place, writing no
// new version.
func (r *Registry) UpdateStatus(id string, status model.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	updated := existing.Clone()
	updated.Status = status
	if err := updated.Validate(); err != nil {
		return err
	}
	if err := r.writeDoc(updated); err != nil {
		return err
	}
	r.docs[id] = updated
	return nil
}

// Delete removes all versions, all RDF files, and every index entry for id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrNotFound, id)
	}
	r.indexRemove(existing)

	if err := os.Remove(r.docPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: deleting document: %v", model.ErrInternal, err)
	}
	matches, _ := filepath.Glob(filepath.Join(r.root, rdfDir, id+"_v*.ttl"))
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: deleting rdf file %s: %v", model.ErrInternal, m, err)
		}
	}
	delete(r.docs, id)
	return r.persistIndex()
}

// ListFilter selects current-version signifiers for List.
type ListFilter struct {
	Status        model.Status // empty means any
	AffordanceURI string       // empty means any
	Limit         int          // 0 means unlimited
	Offset        int
}

// List returns current versions matching filter, ordered by signifier_id so
// repeated calls over an unchanged store return a stable sequence.
func (r *Registry) List(filter ListFilter) []*model.Signifier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.Signifier, 0, len(r.docs))
	for _, sig := range r.docs {
		if filter.Status != "" && sig.Status != filter.Status {
			continue
		}
		if filter.AffordanceURI != "" && sig.AffordanceURI != filter.AffordanceURI {
			continue
		}
		matched = append(matched, sig)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].SignifierID < matched[j].SignifierID })

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]*model.Signifier, len(matched))
	for i, sig := range matched {
		out[i] = sig.Clone()
	}
	return out
}

// FindByProperty returns the ids whose current version has a structured
// condition on (artifactURI, propertyURI), sorted for determinism.
func (r *Registry) FindByProperty(artifactURI, propertyURI string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.index[model.PropertyKey{Artifact: artifactURI, Property: propertyURI}]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) applyDefaults(sig *model.Signifier) {
	if sig.Version == 0 {
		sig.Version = 1
	}
	if sig.Status == "" {
		sig.Status = model.StatusActive
	}
	if sig.Provenance.CreatedAt.IsZero() {
		sig.Provenance.CreatedAt = time.Now().UTC()
	}
	if sig.Provenance.Source == "" {
		sig.Provenance.Source = "manual"
	}
}

func (r *Registry) indexAdd(sig *model.Signifier) {
	for _, key := range sig.PropertyKeys() {
		if r.index[key] == nil {
			r.index[key] = make(map[string]bool)
		}
		r.index[key][sig.SignifierID] = true
	}
}

func (r *Registry) indexRemove(sig *model.Signifier) {
	for _, key := range sig.PropertyKeys() {
		set, ok := r.index[key]
		if !ok {
			continue
		}
		delete(set, sig.SignifierID)
		if len(set) == 0 {
			delete(r.index, key)
		}
	}
}

func (r *Registry) persist(sig *model.Signifier, rdfText string) error {
	if err := r.writeDoc(sig); err != nil {
		return err
	}
	if err := atomicWriteFile(r.rdfPath(sig.SignifierID, sig.Version), []byte(rdfText)); err != nil {
		return fmt.Errorf("%w: writing rdf: %v", model.ErrInternal, err)
	}
	return nil
}

func (r *Registry) writeDoc(sig *model.Signifier) error {
	data, err := json.MarshalIndent(sig, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding document: %v", model.ErrInternal, err)
	}
	if err := atomicWriteFile(r.docPath(sig.SignifierID), data); err != nil {
		return fmt.Errorf("%w: writing document: %v", model.ErrInternal, err)
	}
	return nil
}

func (r *Registry) persistIndex() error {
	raw := make(map[string][]string, len(r.index))
	for key, set := range r.index {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		raw[key.Artifact+"|"+key.Property] = ids
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding index: %v", model.ErrInternal, err)
	}
	if err := atomicWriteFile(filepath.Join(r.root, indexDir, indexFile), data); err != nil {
		return fmt.Errorf("%w: writing index: %v", model.ErrInternal, err)
	}
	return nil
}

func (r *Registry) docPath(id string) string {
	return filepath.Join(r.root, jsonDir, id+".json")
}

func (r *Registry) rdfPath(id string, version int) string {
	return filepath.Join(r.root, rdfDir, fmt.Sprintf("%s_v%d.ttl", id, version))
}

func parseIndexKey(key string) (model.PropertyKey, bool) {
	idx := strings.IndexByte(key, '|')
	if idx < 0 {
		return model.PropertyKey{}, false
	}
	return model.PropertyKey{Artifact: key[:idx], Property: key[idx+1:]}, true
}

func atomicWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
