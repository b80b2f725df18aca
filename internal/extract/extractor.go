// Package extract proposes candidate claims from captured source text and
// registers them. Candidates come from deterministic patterns, optionally
// augmented by the oracle; either way the registry's excerpt gate has the
// final word on what is actually stored.
package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/numeric"
	"github.com/ssolovyev/veritrail/internal/registry"
	"github.com/ssolovyev/veritrail/internal/scan"
)

// DefaultMaxClaims bounds how many candidates one source may yield
const DefaultMaxClaims = 25

// Extractor turns source text into registered claims
type Extractor struct {
	store     evidence.Store
	registry  *registry.Registry
	oracle    OracleExtractor // nil runs patterns only
	maxClaims int
}

// Result summarizes one extraction run over a single source.
type Result struct {
	SourceID   string         `json:"source_id"`
	Added      []*model.Claim `json:"added,omitempty"`
	Duplicates int            `json:"duplicates"`
	Rejected   []Rejection    `json:"rejected,omitempty"`
}

// Rejection records a candidate the registry refused and why.
type Rejection struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// New creates an extractor. The oracle may be nil.
func New(store evidence.Store, reg *registry.Registry, oracle OracleExtractor, maxClaims int) *Extractor {
	if maxClaims <= 0 {
		maxClaims = DefaultMaxClaims
	}
	return &Extractor{
		store:     store,
		registry:  reg,
		oracle:    oracle,
		maxClaims: maxClaims,
	}
}

// ExtractSource proposes and registers claims for one source. Pattern
// candidates always run; oracle candidates are appended when a provider is
// configured and reachable. Duplicates collapse silently through the
// registry's content hash.
func (e *Extractor) ExtractSource(ctx context.Context, sourceID string) (*Result, error) {
	text, err := e.store.Text(sourceID)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", sourceID, err)
	}

	candidates := e.patternCandidates(sourceID, text)
	if e.oracle != nil {
		oracleCands, err := e.oracleCandidates(ctx, sourceID, text)
		if err == nil {
			candidates = append(candidates, oracleCands...)
		}
		// Oracle failure degrades to patterns-only; it never aborts the run
	}

	result := &Result{SourceID: sourceID}
	for _, cand := range candidates {
		if len(result.Added) >= e.maxClaims {
			break
		}

		claim, created, err := e.registry.Add(cand)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, registry.ErrExcerptNotFound) {
				reason = "excerpt not found in source text"
			}
			result.Rejected = append(result.Rejected, Rejection{Text: cand.Text, Reason: reason})
			continue
		}
		if !created {
			result.Duplicates++
			continue
		}
		result.Added = append(result.Added, claim)
	}

	return result, nil
}

// ExtractAll runs extraction over every source in the store.
func (e *Extractor) ExtractAll(ctx context.Context) ([]*Result, error) {
	records, err := e.store.List()
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, rec := range records {
		if rec.Invalid || rec.Type.Synthetic() {
			continue
		}
		result, err := e.ExtractSource(ctx, rec.ID)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// patternCandidates selects claim-worthy sentences deterministically. A
// sentence qualifies when it carries a quantitative value, an attribution
// cue, a comparison cue, or a dated event. The sentence itself serves as
// the verbatim excerpt.
func (e *Extractor) patternCandidates(sourceID, text string) []model.Claim {
	var candidates []model.Claim

	for _, sentence := range scan.SplitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if !claimWorthy(sentence) {
			continue
		}

		numbers := numeric.Extract(sentence)
		candidates = append(candidates, model.Claim{
			Text:     sentence,
			Original: sentence,
			Kind:     classifyKind(sentence, numbers),
			Numbers:  numbers,
			SourceID: sourceID,
			Excerpt:  sentence,
		})
	}

	return candidates
}

var (
	attributionRe = regexp.MustCompile(`(?i)\b(according to|said|says|stated|announced|reported|estimates|estimated|told|confirmed)\b`)
	comparisonRe  = regexp.MustCompile(`(?i)\b(more than|less than|fewer than|compared (?:to|with)|higher than|lower than|doubled|tripled|quadrupled|halved|up from|down from)\b`)
	yearRe        = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	eventVerbRe   = regexp.MustCompile(`(?i)\b(launched|founded|opened|signed|released|acquired|merged|elected|appointed|began|completed)\b`)
)

// claimWorthy filters sentences down to verifiable factual assertions.
// Questions, fragments, and signal-free prose are skipped.
func claimWorthy(sentence string) bool {
	if len(sentence) < 30 || len(sentence) > 600 {
		return false
	}
	if strings.HasSuffix(sentence, "?") {
		return false
	}

	if len(numeric.Extract(sentence)) > 0 {
		return true
	}
	if attributionRe.MatchString(sentence) {
		return true
	}
	if comparisonRe.MatchString(sentence) {
		return true
	}
	return yearRe.MatchString(sentence) && eventVerbRe.MatchString(sentence)
}

// classifyKind assigns the claim kind from the strongest signal present.
func classifyKind(sentence string, numbers []model.NumericValue) model.ClaimKind {
	switch {
	case comparisonRe.MatchString(sentence):
		return model.ClaimKindComparison
	case attributionRe.MatchString(sentence):
		return model.ClaimKindAttribution
	case len(numbers) > 0:
		return model.ClaimKindStatistic
	case yearRe.MatchString(sentence) && eventVerbRe.MatchString(sentence):
		return model.ClaimKindEvent
	default:
		return model.ClaimKindFact
	}
}
