package model

import "time"

// Claim is one atomic, verifiable factual statement extracted from exactly
// one source. The supporting excerpt was located verbatim in the source's
// extracted text at registration time; claims whose excerpt cannot be found
// are rejected before they ever reach the registry.
type Claim struct {
	ID       string         `json:"id"`                 // "C" + leading hex of the content hash
	Text     string         `json:"text"`               // Normalized text used for matching
	Original string         `json:"original"`           // Text as extracted
	Kind     ClaimKind      `json:"kind"`               // statistic, fact, attribution, event, comparison
	Numbers  []NumericValue `json:"numbers,omitempty"`  // Quantities mentioned in the claim
	SourceID string         `json:"source_id"`          // Owning source record
	Excerpt  string         `json:"excerpt"`            // Verbatim supporting excerpt from the source
	Offset   int            `json:"offset"`             // Approximate character offset of the excerpt
	Hash     string         `json:"hash"`               // Dedup hash over (normalized text, source id)
	AddedAt  time.Time      `json:"added_at"`
}

// ClaimKind categorizes the nature of the claim
type ClaimKind string

const (
	ClaimKindStatistic   ClaimKind = "statistic"   // Quantitative assertion
	ClaimKindFact        ClaimKind = "fact"        // General factual assertion
	ClaimKindAttribution ClaimKind = "attribution" // Who said/did/created something
	ClaimKindEvent       ClaimKind = "event"       // Something happened at a time/place
	ClaimKindComparison  ClaimKind = "comparison"  // Relative assertion between quantities
)

// NumericValue is one quantity extracted from claim or statement text.
// Scale words (million, billion, thousand) are already folded into Value.
type NumericValue struct {
	Value   float64 `json:"value"`
	Unit    string  `json:"unit,omitempty"`    // "%", "pp", a currency code, or a unit noun
	Context string  `json:"context,omitempty"` // Surrounding words, for diagnostics
}
