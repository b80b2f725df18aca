package extract

import (
	"context"

	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/numeric"
	"github.com/ssolovyev/veritrail/internal/oracle"
)

// OracleExtractor is the slice of the oracle interface extraction needs
type OracleExtractor interface {
	Extract(ctx context.Context, req oracle.ExtractRequest) ([]oracle.ExtractedClaim, error)
}

// oracleCandidates asks the oracle for claim proposals. The oracle's quote
// becomes the candidate excerpt, so fabricated quotes die at the registry
// gate rather than being trusted here.
func (e *Extractor) oracleCandidates(ctx context.Context, sourceID, text string) ([]model.Claim, error) {
	proposals, err := e.oracle.Extract(ctx, oracle.ExtractRequest{
		SourceText: text,
		MaxClaims:  e.maxClaims,
	})
	if err != nil {
		return nil, err
	}

	var candidates []model.Claim
	for _, p := range proposals {
		numbers := p.Numbers
		if len(numbers) == 0 {
			numbers = numeric.Extract(p.Text)
		}

		candidates = append(candidates, model.Claim{
			Text:     p.Text,
			Original: p.Text,
			Kind:     kindFromString(p.Kind),
			Numbers:  numbers,
			SourceID: sourceID,
			Excerpt:  p.Quote,
		})
	}
	return candidates, nil
}

// kindFromString maps the oracle's kind label onto a ClaimKind, defaulting
// to fact for anything off-contract.
func kindFromString(s string) model.ClaimKind {
	switch model.ClaimKind(s) {
	case model.ClaimKindStatistic, model.ClaimKindFact, model.ClaimKindAttribution,
		model.ClaimKindEvent, model.ClaimKindComparison:
		return model.ClaimKind(s)
	default:
		return model.ClaimKindFact
	}
}
