package model

// Statement is one citation-bearing sentence or clause extracted from the
// finished document. Statements are recomputed on every scan and never
// persisted outside a verification run.
type Statement struct {
	Text      string            `json:"text"`                 // Citation markup stripped
	Line      int               `json:"line"`                 // 1-based line in the document
	SourceIDs []string          `json:"source_ids,omitempty"` // Cited source identifiers
	ClaimIDs  []string          `json:"claim_ids,omitempty"`  // Direct claim references
	CitedURLs map[string]string `json:"cited_urls,omitempty"` // Source id -> explicit URL from the citation, if any
	Numbers   []NumericValue    `json:"numbers,omitempty"`
}

// Cites reports whether the statement cites the given source identifier.
func (s Statement) Cites(sourceID string) bool {
	for _, id := range s.SourceIDs {
		if id == sourceID {
			return true
		}
	}
	return false
}
