// Package registry is the append-only, deduplicated store of atomic claims.
// Every claim is bound to one source and one verbatim supporting excerpt;
// candidates whose excerpt cannot be located in the source's extracted text
// are rejected before they are ever stored.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/numeric"
)

// ErrExcerptNotFound indicates a candidate whose supporting excerpt is not
// present in the source's extracted text. This is the main guard against
// fabricated claims entering the registry.
var ErrExcerptNotFound = errors.New("supporting excerpt not found in source text")

// ErrEmptyClaim indicates a candidate with no usable text or excerpt
var ErrEmptyClaim = errors.New("claim text and excerpt are required")

// Registry holds claims in memory and persists them to a JSON file. All
// mutation serializes behind a single mutex so that two concurrent
// extractions cannot register the same claim under different identifiers.
type Registry struct {
	mu     sync.Mutex
	path   string
	store  evidence.Store
	byHash map[string]*model.Claim
	byID   map[string]*model.Claim
	claims []*model.Claim // Insertion order
}

// registryFile is the on-disk representation
type registryFile struct {
	Claims []*model.Claim `json:"claims"`
}

// Open loads a registry from path, creating an empty one if the file does
// not exist yet. The evidence store backs the excerpt-verification gate.
func Open(path string, store evidence.Store) (*Registry, error) {
	r := &Registry{
		path:   path,
		store:  store,
		byHash: make(map[string]*model.Claim),
		byID:   make(map[string]*model.Claim),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}

	for _, c := range file.Claims {
		r.byHash[c.Hash] = c
		r.byID[c.ID] = c
		r.claims = append(r.claims, c)
	}

	return r, nil
}

// Add registers a candidate claim. When a claim with the same content hash
// already exists, the existing entry is returned with created=false and the
// registry does not grow. The new claim is persisted durably before Add
// returns success.
func (r *Registry) Add(candidate model.Claim) (claim *model.Claim, created bool, err error) {
	text := collapseWhitespace(candidate.Text)
	excerpt := collapseWhitespace(candidate.Excerpt)
	if text == "" || excerpt == "" {
		return nil, false, ErrEmptyClaim
	}

	sourceText, err := r.store.Text(candidate.SourceID)
	if err != nil {
		return nil, false, err
	}

	offset, ok := locateExcerpt(sourceText, candidate.Excerpt)
	if !ok {
		return nil, false, fmt.Errorf("%w: source %s", ErrExcerptNotFound, candidate.SourceID)
	}

	hash := ContentHash(text, candidate.SourceID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, found := r.byHash[hash]; found {
		return existing, false, nil
	}

	c := &model.Claim{
		ID:       "C" + hash[:12],
		Text:     text,
		Original: candidate.Original,
		Kind:     candidate.Kind,
		Numbers:  candidate.Numbers,
		SourceID: candidate.SourceID,
		Excerpt:  excerpt,
		Offset:   offset,
		Hash:     hash,
		AddedAt:  time.Now().UTC(),
	}
	if c.Original == "" {
		c.Original = candidate.Text
	}
	if c.Kind == "" {
		c.Kind = model.ClaimKindFact
	}

	r.byHash[hash] = c
	r.byID[c.ID] = c
	r.claims = append(r.claims, c)

	if err := r.persistLocked(); err != nil {
		// Roll back the in-memory insert so a failed write cannot leave
		// the registry claiming an entry that was never durable
		delete(r.byHash, hash)
		delete(r.byID, c.ID)
		r.claims = r.claims[:len(r.claims)-1]
		return nil, false, fmt.Errorf("persist claim: %w", err)
	}

	return c, true, nil
}

// FindByID returns the claim with the given identifier.
func (r *Registry) FindByID(id string) (*model.Claim, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	return c, ok
}

// FindBySource returns every claim bound to the given source.
func (r *Registry) FindBySource(sourceID string) []*model.Claim {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Claim
	for _, c := range r.claims {
		if c.SourceID == sourceID {
			out = append(out, c)
		}
	}
	return out
}

// FindByNumericValue returns claims carrying a number within the relative
// tolerance of value.
func (r *Registry) FindByNumericValue(value float64, tolerance float64) []*model.Claim {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Claim
	for _, c := range r.claims {
		for _, n := range c.Numbers {
			if numeric.WithinRelative(value, n.Value, tolerance) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Search returns claims ranked by content-word overlap with the query.
// Claims with no overlapping words are omitted.
func (r *Registry) Search(query string) []*model.Claim {
	r.mu.Lock()
	defer r.mu.Unlock()

	queryWords := ContentWords(query)
	if len(queryWords) == 0 {
		return nil
	}

	type scored struct {
		claim *model.Claim
		score float64
	}
	var matches []scored
	for _, c := range r.claims {
		score := overlap(queryWords, ContentWords(c.Text))
		if score > 0 {
			matches = append(matches, scored{c, score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	out := make([]*model.Claim, len(matches))
	for i, m := range matches {
		out[i] = m.claim
	}
	return out
}

// All returns every claim in insertion order.
func (r *Registry) All() []*model.Claim {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.Claim(nil), r.claims...)
}

// Len returns the number of stored claims.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claims)
}

// persistLocked writes the registry to disk; callers hold the mutex.
// Write-temp-then-rename keeps the file whole under interruption.
func (r *Registry) persistLocked() error {
	data, err := json.MarshalIndent(registryFile{Claims: r.claims}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".registry-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close registry: %w", err)
	}

	return os.Rename(tmpName, r.path)
}

// ContentHash computes the dedup hash over the lowercased,
// whitespace-collapsed claim text and its source identifier.
func ContentHash(text, sourceID string) string {
	normalized := strings.ToLower(collapseWhitespace(text))
	sum := sha256.Sum256([]byte(normalized + "\x00" + sourceID))
	return hex.EncodeToString(sum[:])
}

// locateExcerpt finds the excerpt in the source text, exactly first, then
// with whitespace normalized on both sides. Returns the approximate
// character offset.
func locateExcerpt(sourceText, excerpt string) (int, bool) {
	if idx := strings.Index(sourceText, excerpt); idx >= 0 {
		return idx, true
	}

	collapsedSource := collapseWhitespace(sourceText)
	collapsedExcerpt := collapseWhitespace(excerpt)
	if collapsedExcerpt == "" {
		return 0, false
	}
	if idx := strings.Index(collapsedSource, collapsedExcerpt); idx >= 0 {
		return idx, true
	}

	// Last resort: case-insensitive after whitespace normalization
	idx := strings.Index(strings.ToLower(collapsedSource), strings.ToLower(collapsedExcerpt))
	if idx >= 0 {
		return idx, true
	}
	return 0, false
}

// collapseWhitespace trims and folds all whitespace runs to single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Stop-words excluded from keyword matching
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "from": true, "was": true, "were": true, "are": true,
	"has": true, "have": true, "had": true, "its": true, "their": true,
	"which": true, "than": true, "into": true, "over": true, "per": true,
	"not": true, "but": true, "also": true, "been": true, "more": true,
}

// ContentWords returns the lowercased content words of a text: stop-words
// and words shorter than three characters excluded, punctuation stripped.
func ContentWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?()[]{}\"'")
		if len(w) < 3 || stopWords[w] {
			continue
		}
		words[w] = true
	}
	return words
}

// overlap computes Jaccard similarity between two word sets.
func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
