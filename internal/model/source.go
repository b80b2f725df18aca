package model

import "time"

// SourceRecord describes one captured piece of evidence. Records are created
// by the capture tooling and are read-only here; a bad record is marked
// invalid, never deleted, so identifiers stay stable.
type SourceRecord struct {
	ID            string     `json:"id"`                       // Stable sequential identifier (e.g. "S001")
	URL           string     `json:"url"`                      // Origin URL at capture time
	RetrievedAt   time.Time  `json:"retrieved_at"`             // When the capture occurred
	SHA256        string     `json:"sha256"`                   // Hex hash of the raw content
	RawPath       string     `json:"raw_path"`                 // Raw content location, relative to the store root
	TextPath      string     `json:"text_path,omitempty"`      // Extracted text location (optional)
	Type          SourceType `json:"type,omitempty"`           // How the content was obtained
	Invalid       bool       `json:"invalid,omitempty"`        // Marked invalid by a prior verification
	InvalidReason string     `json:"invalid_reason,omitempty"`
}

// SourceType classifies how a source was captured
type SourceType string

const (
	SourceTypeWeb     SourceType = "web"       // Direct web page capture
	SourceTypePDF     SourceType = "pdf"       // PDF document capture
	SourceTypeDataset SourceType = "dataset"   // Structured data download
	SourceTypeSynth   SourceType = "synthesis" // Synthesized from multiple sources (never trustworthy)
	SourceTypeAggr    SourceType = "aggregate" // Aggregated summary (never trustworthy)
)

// Synthetic reports whether the source type is a synthesized/aggregate type,
// which can never back an individual factual claim.
func (t SourceType) Synthetic() bool {
	return t == SourceTypeSynth || t == SourceTypeAggr
}
