// Package match resolves document statements against the claim registry
// using a ranked set of strategies with different confidence semantics.
// Citation correctness is never inferred, only confirmed: a good textual
// match from an uncited source is a MISMATCH, not a verification.
package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/numeric"
	"github.com/ssolovyev/veritrail/internal/oracle"
	"github.com/ssolovyev/veritrail/internal/registry"
)

// Matcher resolves statements to at most one registry claim
type Matcher struct {
	registry *registry.Registry
	store    evidence.Store
	oracle   oracle.Provider // nil when disabled
	matching model.MatchingConfig
	tol      model.ToleranceConfig
}

// NewMatcher creates a matcher over the given registry and evidence store.
// The oracle may be nil; scored strategies then decide alone.
func NewMatcher(reg *registry.Registry, store evidence.Store, provider oracle.Provider, cfg *model.Config) *Matcher {
	return &Matcher{
		registry: reg,
		store:    store,
		oracle:   provider,
		matching: cfg.Matching,
		tol:      cfg.Tolerance,
	}
}

// Match resolves one statement. Strategies run in order, first success
// wins: direct claim reference, exact/contained text, numeric agreement,
// keyword overlap with a cited-source boost, then oracle adjudication of
// the best otherwise-insufficient candidate.
func (m *Matcher) Match(ctx context.Context, stmt model.Statement) model.MatchResult {
	// 1. Direct claim reference
	for _, claimID := range stmt.ClaimIDs {
		if claim, ok := m.registry.FindByID(claimID); ok {
			return model.MatchResult{
				Statement:  stmt,
				Claim:      claim,
				Strategy:   model.StrategyDirectRef,
				Confidence: 1.0,
				Verdict:    model.VerdictVerified,
			}
		}
	}
	if len(stmt.ClaimIDs) > 0 && len(stmt.SourceIDs) == 0 {
		return model.MatchResult{
			Statement: stmt,
			Strategy:  model.StrategyNone,
			Verdict:   model.VerdictUnverified,
			Note:      fmt.Sprintf("claim reference %s not in registry", stmt.ClaimIDs[0]),
		}
	}

	// 2. Exact or contained normalized text, restricted to cited sources
	// when the statement has any
	if claim, score := m.bestTextMatch(stmt); claim != nil && score >= m.matching.Threshold {
		return m.finish(stmt, claim, model.StrategyText, score)
	}

	// 3. Numeric agreement across the whole registry: exact numbers are
	// strong evidence of identity even with different wording
	if claim, score := m.bestNumericMatch(stmt); claim != nil && score >= m.matching.Threshold {
		return m.finish(stmt, claim, model.StrategyNumeric, score)
	}

	// 4+5. Keyword overlap, boosted for citation-consistent candidates
	bestClaim, bestScore := m.bestKeywordMatch(stmt)
	if bestClaim != nil && bestScore >= m.matching.Threshold {
		return m.finish(stmt, bestClaim, model.StrategyKeyword, clamp01(bestScore))
	}

	// Oracle adjudication of the best insufficient candidate
	if m.oracle != nil && bestClaim != nil {
		if result, ok := m.adjudicate(ctx, stmt, bestClaim); ok {
			return result
		}
	}

	return model.MatchResult{
		Statement: stmt,
		Strategy:  model.StrategyNone,
		Verdict:   model.VerdictUnverified,
		Note:      "no candidate met the acceptance threshold",
	}
}

// finish applies the citation-consistency invariant: an accepted candidate
// from an uncited source downgrades to MISMATCH regardless of score.
func (m *Matcher) finish(stmt model.Statement, claim *model.Claim, strategy model.MatchStrategy, score float64) model.MatchResult {
	verdict := model.VerdictVerified
	note := ""
	if len(stmt.SourceIDs) > 0 && !stmt.Cites(claim.SourceID) {
		verdict = model.VerdictMismatch
		note = fmt.Sprintf("matching claim belongs to uncited source %s", claim.SourceID)
	}

	return model.MatchResult{
		Statement:  stmt,
		Claim:      claim,
		Strategy:   strategy,
		Confidence: score,
		Verdict:    verdict,
		Note:       note,
	}
}

// bestTextMatch scores normalized equality or containment, by length ratio
// of the shorter to the longer string.
func (m *Matcher) bestTextMatch(stmt model.Statement) (*model.Claim, float64) {
	stmtText := normalize(stmt.Text)
	if stmtText == "" {
		return nil, 0
	}

	var best *model.Claim
	bestScore := 0.0
	for _, claim := range m.candidates(stmt) {
		claimText := normalize(claim.Text)
		if claimText == "" {
			continue
		}

		var score float64
		switch {
		case stmtText == claimText:
			score = 1.0
		case strings.Contains(stmtText, claimText) || strings.Contains(claimText, stmtText):
			shorter, longer := len(stmtText), len(claimText)
			if shorter > longer {
				shorter, longer = longer, shorter
			}
			score = float64(shorter) / float64(longer)
		}

		if score > bestScore {
			best, bestScore = claim, score
		}
	}
	return best, bestScore
}

// bestNumericMatch scores the fraction of statement numbers that have a
// same-unit (or unit-less) counterpart in the claim within the match
// tolerance. The whole registry is searched so that a number lifted from
// the wrong source still surfaces, as a MISMATCH.
func (m *Matcher) bestNumericMatch(stmt model.Statement) (*model.Claim, float64) {
	if len(stmt.Numbers) == 0 {
		return nil, 0
	}

	var best *model.Claim
	bestScore := 0.0
	for _, claim := range m.registry.All() {
		if len(claim.Numbers) == 0 {
			continue
		}

		matched := 0
		for _, sn := range stmt.Numbers {
			for _, cn := range claim.Numbers {
				if numeric.UnitsCompatible(sn.Unit, cn.Unit) && numeric.WithinRelative(sn.Value, cn.Value, m.tol.MatchRelative) {
					matched++
					break
				}
			}
		}

		score := float64(matched) / float64(len(stmt.Numbers))
		if score > bestScore {
			best, bestScore = claim, score
		}
	}
	return best, bestScore
}

// bestKeywordMatch scores Jaccard similarity of content words, boosted for
// candidates whose source the statement actually cites.
func (m *Matcher) bestKeywordMatch(stmt model.Statement) (*model.Claim, float64) {
	stmtWords := registry.ContentWords(stmt.Text)
	if len(stmtWords) == 0 {
		return nil, 0
	}

	var best *model.Claim
	bestScore := 0.0
	for _, claim := range m.registry.All() {
		score := jaccard(stmtWords, registry.ContentWords(claim.Text))
		if stmt.Cites(claim.SourceID) {
			score *= m.matching.CitedSourceBoost
		}
		if score > bestScore {
			best, bestScore = claim, score
		}
	}
	return best, bestScore
}

// adjudicate asks the oracle whether the candidate's source supports the
// statement. The judgment must carry an explicit confidence and a
// supporting quote drawn from the candidate's source; anything less is a
// non-match. Oracle failure is reported in the note, never promoted to a
// pass.
func (m *Matcher) adjudicate(ctx context.Context, stmt model.Statement, claim *model.Claim) (model.MatchResult, bool) {
	sourceText, err := m.store.Text(claim.SourceID)
	if err != nil {
		return model.MatchResult{}, false
	}

	judgment, err := m.oracle.Judge(ctx, oracle.JudgeRequest{
		Statement:  stmt.Text,
		ClaimText:  claim.Text,
		SourceText: sourceText,
	})
	if err != nil {
		note := "oracle adjudication failed"
		if errors.Is(err, oracle.ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			note = "oracle unavailable"
		}
		return model.MatchResult{
			Statement: stmt,
			Strategy:  model.StrategyOracle,
			Verdict:   model.VerdictUnverified,
			Note:      note,
		}, true
	}

	if !judgment.Supported || judgment.Confidence < m.matching.Threshold {
		return model.MatchResult{}, false
	}
	if !quoteInSource(judgment.SupportingQuote, sourceText) {
		// A quote the source does not contain voids the judgment
		return model.MatchResult{}, false
	}

	result := m.finish(stmt, claim, model.StrategyOracle, judgment.Confidence)
	if result.Note == "" {
		result.Note = judgment.Reason
	}
	return result, true
}

// candidates returns claims from the statement's cited sources, or the
// whole registry when the statement cites none.
func (m *Matcher) candidates(stmt model.Statement) []*model.Claim {
	if len(stmt.SourceIDs) == 0 {
		return m.registry.All()
	}

	var out []*model.Claim
	for _, sourceID := range stmt.SourceIDs {
		out = append(out, m.registry.FindBySource(sourceID)...)
	}
	return out
}

// quoteInSource checks the quote against the source text with whitespace
// normalized on both sides.
func quoteInSource(quote, sourceText string) bool {
	q := normalize(quote)
	if q == "" {
		return false
	}
	return strings.Contains(normalize(sourceText), q)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func jaccard(a, b map[string]bool) float64 {
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

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
