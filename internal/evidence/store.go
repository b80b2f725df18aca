// Package evidence reads captured source records. The store is written by
// the capture tooling and is strictly read-only here: records are immutable
// after capture and never deleted.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ssolovyev/veritrail/internal/model"
)

// ErrSourceNotFound indicates a source identifier with no record in the store
var ErrSourceNotFound = errors.New("source not found")

// Store provides read access to captured source records
type Store interface {
	// Get returns the metadata record for a source identifier
	Get(id string) (*model.SourceRecord, error)

	// Raw returns the raw captured bytes for a source
	Raw(id string) ([]byte, error)

	// Text returns the extracted text for a source. When the capture
	// produced no text sidecar, text is derived from the raw content.
	Text(id string) (string, error)

	// List returns every record in the store, ordered by identifier
	List() ([]*model.SourceRecord, error)
}

// DirStore is a filesystem-backed store: one directory per source under the
// root, each holding a record.json plus the captured files it references.
type DirStore struct {
	root  string
	texts *gocache.Cache // Derived extracted text, keyed by source id
}

// NewDirStore creates a store reading from the given root directory.
func NewDirStore(root string) *DirStore {
	return &DirStore{
		root:  root,
		texts: gocache.New(30*time.Minute, 10*time.Minute),
	}
}

// Get returns the metadata record for a source identifier.
func (s *DirStore) Get(id string) (*model.SourceRecord, error) {
	path := filepath.Join(s.root, id, "record.json")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
		}
		return nil, fmt.Errorf("read record: %w", err)
	}

	var rec model.SourceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", id, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}

	return &rec, nil
}

// Raw returns the raw captured bytes for a source.
func (s *DirStore) Raw(id string) ([]byte, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, id, rec.RawPath))
	if err != nil {
		return nil, fmt.Errorf("read raw content for %s: %w", id, err)
	}
	return data, nil
}

// Text returns the extracted text for a source, deriving it from raw HTML
// when no text sidecar was captured. Derived text is cached in memory since
// the underlying files are immutable.
func (s *DirStore) Text(id string) (string, error) {
	if cached, found := s.texts.Get(id); found {
		return cached.(string), nil
	}

	rec, err := s.Get(id)
	if err != nil {
		return "", err
	}

	var text string
	if rec.TextPath != "" {
		data, err := os.ReadFile(filepath.Join(s.root, id, rec.TextPath))
		if err != nil {
			return "", fmt.Errorf("read extracted text for %s: %w", id, err)
		}
		text = string(data)
	} else {
		raw, err := s.Raw(id)
		if err != nil {
			return "", err
		}
		text = ExtractText(string(raw))
	}

	s.texts.Set(id, text, gocache.DefaultExpiration)
	return text, nil
}

// List returns every record in the store, ordered by identifier.
func (s *DirStore) List() ([]*model.SourceRecord, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)

	records := make([]*model.SourceRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(id)
		if err != nil {
			// Directories without a record.json are not sources
			if errors.Is(err, ErrSourceNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// HashBytes returns the hex SHA-256 of raw content, the same digest the
// capture tooling records.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
