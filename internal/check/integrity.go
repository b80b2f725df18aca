// Package check implements the deterministic verification stages: evidence
// integrity, citation binding, and numeric consistency. Checkers return
// issues rather than errors; an error here means the check could not run,
// not that verification failed.
package check

import (
	"fmt"
	"strings"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/urlnorm"
)

// Phrases that open synthesized rather than captured content. Matched
// against the lowercased head of the extracted text.
var synthesisPrefixes = []string{
	"based on multiple sources",
	"based on available information",
	"according to various sources",
	"synthesized from",
	"compiled from",
	"drawing on several",
	"this summary combines",
	"as an ai",
	"i cannot browse",
}

// IntegrityChecker verifies that captured evidence is what the capture
// recorded: content hashes must match, and records bearing the marks of
// fabricated capture are rejected outright.
type IntegrityChecker struct {
	store evidence.Store
}

// NewIntegrityChecker creates a checker over the given store.
func NewIntegrityChecker(store evidence.Store) *IntegrityChecker {
	return &IntegrityChecker{store: store}
}

// Check verifies every listed source. Sources absent from the store are
// skipped here; the binding stage reports them as orphan citations.
func (c *IntegrityChecker) Check(sourceIDs []string) []model.Issue {
	var issues []model.Issue

	for _, id := range sourceIDs {
		rec, err := c.store.Get(id)
		if err != nil {
			continue
		}
		issues = append(issues, c.checkRecord(rec)...)
	}

	return issues
}

// checkRecord runs every integrity test against one source record.
func (c *IntegrityChecker) checkRecord(rec *model.SourceRecord) []model.Issue {
	var issues []model.Issue

	if rec.Invalid {
		issues = append(issues, model.Issue{
			Code:     model.IssueSourceInvalid,
			Severity: model.SeverityBlocking,
			SourceID: rec.ID,
			Detail:   rec.InvalidReason,
		})
	}

	if rec.SHA256 != "" {
		raw, err := c.store.Raw(rec.ID)
		if err != nil {
			issues = append(issues, model.Issue{
				Code:     model.IssueHashMismatch,
				Severity: model.SeverityBlocking,
				SourceID: rec.ID,
				Expected: rec.SHA256,
				Detail:   fmt.Sprintf("raw content unreadable: %v", err),
			})
		} else if got := evidence.HashBytes(raw); got != rec.SHA256 {
			issues = append(issues, model.Issue{
				Code:     model.IssueHashMismatch,
				Severity: model.SeverityBlocking,
				SourceID: rec.ID,
				Expected: rec.SHA256,
				Found:    got,
				Detail:   "captured content no longer matches its recorded hash",
			})
		}
	}

	issues = append(issues, c.fabricationIssues(rec)...)
	return issues
}

// fabricationIssues applies the heuristics for evidence that was invented
// rather than captured. Each fires independently; a fabricated record
// typically trips several.
func (c *IntegrityChecker) fabricationIssues(rec *model.SourceRecord) []model.Issue {
	var issues []model.Issue

	// Real captures virtually never land on an exact whole hour
	if !rec.RetrievedAt.IsZero() {
		t := rec.RetrievedAt
		if t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			issues = append(issues, model.Issue{
				Code:     model.IssueSyntheticTimestamp,
				Severity: model.SeverityBlocking,
				SourceID: rec.ID,
				Found:    t.Format("2006-01-02T15:04:05Z07:00"),
				Detail:   "capture time falls exactly on a whole hour",
			})
		}
	}

	if prefix := synthesisPrefix(c.headText(rec)); prefix != "" {
		issues = append(issues, model.Issue{
			Code:     model.IssueSynthesisLanguage,
			Severity: model.SeverityBlocking,
			SourceID: rec.ID,
			Found:    prefix,
			Detail:   "content opens with synthesis phrasing instead of captured material",
		})
	}

	if rec.URL != "" && isBareHost(rec.URL) {
		issues = append(issues, model.Issue{
			Code:     model.IssueHomepageURL,
			Severity: model.SeverityBlocking,
			SourceID: rec.ID,
			Found:    rec.URL,
			Detail:   "recorded URL is a bare host, not a document",
		})
	}

	if rec.Type.Synthetic() {
		issues = append(issues, model.Issue{
			Code:     model.IssueSyntheticSource,
			Severity: model.SeverityBlocking,
			SourceID: rec.ID,
			Found:    string(rec.Type),
			Detail:   "source type marks derived rather than captured content",
		})
	}

	return issues
}

// headText returns the first part of the source's extracted text.
func (c *IntegrityChecker) headText(rec *model.SourceRecord) string {
	text, err := c.store.Text(rec.ID)
	if err != nil {
		return ""
	}
	if len(text) > 300 {
		text = text[:300]
	}
	return text
}

// synthesisPrefix returns the matched synthesis phrase, or "".
func synthesisPrefix(head string) string {
	head = strings.ToLower(strings.TrimSpace(head))
	for _, p := range synthesisPrefixes {
		if strings.HasPrefix(head, p) {
			return p
		}
	}
	return ""
}

// isBareHost reports whether a URL points at a host root with no path,
// query or fragment. Citations to homepages cannot support specific claims.
func isBareHost(raw string) bool {
	n := urlnorm.Normalize(raw)
	rest, ok := strings.CutPrefix(n, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(n, "http://")
	}
	if !ok {
		return false
	}
	rest = strings.TrimSuffix(rest, "/")
	return !strings.ContainsAny(rest, "/?")
}
