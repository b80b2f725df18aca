package registry

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ssolovyev/veritrail/internal/model"
)

// fakeStore serves canned extracted text per source id
type fakeStore struct {
	texts map[string]string
}

func (f *fakeStore) Get(id string) (*model.SourceRecord, error) {
	if _, ok := f.texts[id]; !ok {
		return nil, errors.New("source not found")
	}
	return &model.SourceRecord{ID: id}, nil
}

func (f *fakeStore) Raw(id string) ([]byte, error) {
	return []byte(f.texts[id]), nil
}

func (f *fakeStore) Text(id string) (string, error) {
	text, ok := f.texts[id]
	if !ok {
		return "", errors.New("source not found")
	}
	return text, nil
}

func (f *fakeStore) List() ([]*model.SourceRecord, error) { return nil, nil }

func testStore() *fakeStore {
	return &fakeStore{texts: map[string]string{
		"S001": "The survey found that 62% of respondents favored the proposal. Fieldwork ran from March to May.",
		"S002": "Exports doubled between 2020 and 2024, reaching $3.5 billion.",
	}}
}

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "claims.json"), testStore())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}

func TestAdd_AcceptsVerbatimExcerpt(t *testing.T) {
	r := openTestRegistry(t)

	claim, created, err := r.Add(model.Claim{
		Text:     "62% of respondents favored the proposal",
		Kind:     model.ClaimKindStatistic,
		SourceID: "S001",
		Excerpt:  "62% of respondents favored the proposal",
		Numbers:  []model.NumericValue{{Value: 62, Unit: "%"}},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !created {
		t.Error("Expected created=true for a fresh claim")
	}
	if claim.ID == "" || claim.Hash == "" {
		t.Errorf("Expected id and hash to be assigned, got %+v", claim)
	}
	if claim.Offset <= 0 {
		t.Errorf("Expected a positive excerpt offset, got %d", claim.Offset)
	}
}

func TestAdd_RejectsFabricatedExcerpt(t *testing.T) {
	r := openTestRegistry(t)

	_, _, err := r.Add(model.Claim{
		Text:     "80% of respondents were against the proposal",
		SourceID: "S001",
		Excerpt:  "80% of respondents were against",
	})
	if !errors.Is(err, ErrExcerptNotFound) {
		t.Errorf("Expected ErrExcerptNotFound, got %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Rejected claim must not be stored, registry has %d entries", r.Len())
	}
}

func TestAdd_ExcerptWhitespaceNormalized(t *testing.T) {
	r := openTestRegistry(t)

	// Extra internal whitespace must not defeat the gate
	_, created, err := r.Add(model.Claim{
		Text:     "exports doubled reaching $3.5 billion",
		SourceID: "S002",
		Excerpt:  "Exports  doubled\n between 2020 and 2024",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !created {
		t.Error("Expected whitespace-normalized excerpt to be accepted")
	}
}

func TestAdd_DeduplicatesByContentHash(t *testing.T) {
	r := openTestRegistry(t)

	first, created, err := r.Add(model.Claim{
		Text:     "62% of respondents favored the proposal",
		SourceID: "S001",
		Excerpt:  "62% of respondents favored the proposal",
	})
	if err != nil || !created {
		t.Fatalf("First add failed: created=%v err=%v", created, err)
	}

	// Same text modulo case and whitespace, same source
	second, created, err := r.Add(model.Claim{
		Text:     "62%  OF respondents favored   the proposal",
		SourceID: "S001",
		Excerpt:  "62% of respondents favored the proposal",
	})
	if err != nil {
		t.Fatalf("Second add failed: %v", err)
	}
	if created {
		t.Error("Expected duplicate to return the existing entry")
	}
	if second.ID != first.ID {
		t.Errorf("Duplicate returned a different claim: %s vs %s", second.ID, first.ID)
	}
	if r.Len() != 1 {
		t.Errorf("Registry grew on duplicate add: %d entries", r.Len())
	}
}

func TestAdd_SameTextDifferentSourceIsDistinct(t *testing.T) {
	store := testStore()
	store.texts["S003"] = store.texts["S001"]
	r, err := Open(filepath.Join(t.TempDir(), "claims.json"), store)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, _, err = r.Add(model.Claim{
		Text: "62% of respondents favored the proposal", SourceID: "S001",
		Excerpt: "62% of respondents favored the proposal",
	})
	if err != nil {
		t.Fatalf("Add S001: %v", err)
	}
	_, created, err := r.Add(model.Claim{
		Text: "62% of respondents favored the proposal", SourceID: "S003",
		Excerpt: "62% of respondents favored the proposal",
	})
	if err != nil {
		t.Fatalf("Add S003: %v", err)
	}
	if !created {
		t.Error("Same text from a different source must be a distinct claim")
	}
	if r.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", r.Len())
	}
}

func TestOpen_RoundTripsPersistedClaims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claims.json")
	store := testStore()

	r1, err := Open(path, store)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	added, _, err := r1.Add(model.Claim{
		Text:     "exports doubled between 2020 and 2024",
		SourceID: "S002",
		Excerpt:  "Exports doubled between 2020 and 2024",
		Numbers:  []model.NumericValue{{Value: 2, Unit: "x"}},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	r2, err := Open(path, store)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	got, ok := r2.FindByID(added.ID)
	if !ok {
		t.Fatalf("Claim %s not found after reopen", added.ID)
	}
	if got.Text != added.Text || got.SourceID != added.SourceID {
		t.Errorf("Persisted claim differs: %+v vs %+v", got, added)
	}
}

func TestFindBySourceAndNumericValue(t *testing.T) {
	r := openTestRegistry(t)

	_, _, err := r.Add(model.Claim{
		Text: "62% of respondents favored the proposal", SourceID: "S001",
		Excerpt: "62% of respondents favored the proposal",
		Numbers: []model.NumericValue{{Value: 62, Unit: "%"}},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	_, _, err = r.Add(model.Claim{
		Text: "exports reached $3.5 billion", SourceID: "S002",
		Excerpt: "reaching $3.5 billion",
		Numbers: []model.NumericValue{{Value: 3.5e9, Unit: "USD"}},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	bySource := r.FindBySource("S001")
	if len(bySource) != 1 || bySource[0].SourceID != "S001" {
		t.Errorf("FindBySource(S001) = %+v", bySource)
	}

	byValue := r.FindByNumericValue(62, 0.01)
	if len(byValue) != 1 || byValue[0].SourceID != "S001" {
		t.Errorf("FindByNumericValue(62) = %+v", byValue)
	}

	if got := r.FindByNumericValue(99, 0.01); len(got) != 0 {
		t.Errorf("FindByNumericValue(99) = %+v, want none", got)
	}
}

func TestSearch_RankedByOverlap(t *testing.T) {
	r := openTestRegistry(t)

	_, _, err := r.Add(model.Claim{
		Text: "62% of respondents favored the proposal", SourceID: "S001",
		Excerpt: "62% of respondents favored the proposal",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	_, _, err = r.Add(model.Claim{
		Text: "exports doubled between 2020 and 2024", SourceID: "S002",
		Excerpt: "Exports doubled between 2020 and 2024",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	results := r.Search("respondents favored proposal")
	if len(results) == 0 {
		t.Fatal("Expected search results")
	}
	if results[0].SourceID != "S001" {
		t.Errorf("Expected S001 claim ranked first, got %s", results[0].SourceID)
	}
}

func TestAdd_ConcurrentDuplicatesSerialize(t *testing.T) {
	r := openTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = r.Add(model.Claim{
				Text:     "62% of respondents favored the proposal",
				SourceID: "S001",
				Excerpt:  "62% of respondents favored the proposal",
			})
		}()
	}
	wg.Wait()

	if r.Len() != 1 {
		t.Errorf("Concurrent duplicate adds produced %d entries, want 1", r.Len())
	}
}
