package check

import (
	"errors"
	"fmt"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/urlnorm"
)

// BindingChecker verifies that every citation in the document resolves to a
// stored source and that citation URLs agree with the evidence metadata
// after normalization.
type BindingChecker struct {
	store evidence.Store
}

// NewBindingChecker creates a checker over the given store.
func NewBindingChecker(store evidence.Store) *BindingChecker {
	return &BindingChecker{store: store}
}

// Check inspects every citation across the statements. Each defect is
// reported once per source, not once per citing statement.
func (c *BindingChecker) Check(stmts []model.Statement) []model.Issue {
	var issues []model.Issue
	seen := make(map[string]bool) // issue code + source id

	report := func(issue model.Issue) {
		key := string(issue.Code) + "\x00" + issue.SourceID + "\x00" + issue.Found
		if seen[key] {
			return
		}
		seen[key] = true
		issues = append(issues, issue)
	}

	for _, stmt := range stmts {
		for _, sourceID := range stmt.SourceIDs {
			rec, err := c.store.Get(sourceID)
			if err != nil {
				if errors.Is(err, evidence.ErrSourceNotFound) {
					report(model.Issue{
						Code:      model.IssueOrphanCitation,
						Severity:  model.SeverityBlocking,
						SourceID:  sourceID,
						Statement: stmt.Text,
						Detail:    "citation refers to a source with no record in the store",
					})
					continue
				}
				report(model.Issue{
					Code:      model.IssueOrphanCitation,
					Severity:  model.SeverityBlocking,
					SourceID:  sourceID,
					Statement: stmt.Text,
					Detail:    fmt.Sprintf("source record unreadable: %v", err),
				})
				continue
			}

			// A citation carrying its own URL must agree with the record
			cited := stmt.CitedURLs[sourceID]
			if cited != "" && !urlnorm.Equal(cited, rec.URL) {
				report(model.Issue{
					Code:      model.IssueURLMismatch,
					Severity:  model.SeverityBlocking,
					SourceID:  sourceID,
					Statement: stmt.Text,
					Expected:  rec.URL,
					Found:     cited,
					Detail:    "citation URL disagrees with the captured source URL",
				})
			}
		}
	}

	return issues
}
