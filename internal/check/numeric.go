package check

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/numeric"
	"github.com/ssolovyev/veritrail/internal/oracle"
)

// NumericChecker verifies that numeric assertions in the document agree
// with values computable from their cited sources. A claimed value outside
// tolerance is blocking; a number with no citation, or a cited source with
// nothing computable, is a warning for the reviewer.
type NumericChecker struct {
	store  evidence.Store
	oracle oracle.Provider // nil when disabled
	tol    model.ToleranceConfig
}

// NewNumericChecker creates a checker over the given store. The oracle may
// be nil; sources without extractable numbers then warn instead of being
// adjudicated.
func NewNumericChecker(store evidence.Store, provider oracle.Provider, tol model.ToleranceConfig) *NumericChecker {
	return &NumericChecker{store: store, oracle: provider, tol: tol}
}

// sourceValue pairs an extracted value with the source that supplied it
type sourceValue struct {
	sourceID string
	value    model.NumericValue
}

// Check verifies every numeric assertion across the statements.
func (c *NumericChecker) Check(ctx context.Context, stmts []model.Statement) []model.Issue {
	var issues []model.Issue
	sourceNumbers := make(map[string][]model.NumericValue)

	for _, stmt := range stmts {
		if len(stmt.Numbers) == 0 {
			continue
		}

		if len(stmt.SourceIDs) == 0 {
			issues = append(issues, model.Issue{
				Code:      model.IssueUncitedNumber,
				Severity:  model.SeverityWarning,
				Statement: stmt.Text,
				Found:     formatValue(stmt.Numbers[0]),
				Detail:    "numeric assertion carries no citation",
			})
			continue
		}

		candidates := c.citedNumbers(stmt.SourceIDs, sourceNumbers)
		issues = append(issues, c.checkStatement(ctx, stmt, candidates)...)
	}

	return issues
}

// checkStatement compares each claimed number against the candidate values
// extracted from the statement's cited sources.
func (c *NumericChecker) checkStatement(ctx context.Context, stmt model.Statement, candidates []sourceValue) []model.Issue {
	var issues []model.Issue

	for _, claimed := range stmt.Numbers {
		var closest *sourceValue
		matched := false

		for i := range candidates {
			found := candidates[i].value
			if !numeric.UnitsCompatible(claimed.Unit, found.Unit) {
				continue
			}
			if numeric.WithinTolerance(claimed, found, c.tol) {
				matched = true
				break
			}
			if closest == nil || closerTo(claimed.Value, found.Value, closest.value.Value) {
				closest = &candidates[i]
			}
		}
		if matched {
			continue
		}

		if closest != nil {
			delta, unit := numeric.Discrepancy(claimed, closest.value)
			issues = append(issues, model.Issue{
				Code:      model.IssueNumericDiscrepancy,
				Severity:  model.SeverityBlocking,
				Statement: stmt.Text,
				SourceID:  closest.sourceID,
				Expected:  formatValue(closest.value),
				Found:     formatValue(claimed),
				Detail:    fmt.Sprintf("claimed value differs from nearest source value by %.1f%s", delta, unit),
			})
			continue
		}

		issues = append(issues, c.noData(ctx, stmt, claimed)...)
	}

	return issues
}

// noData handles a claimed number with no comparable value in any cited
// source. With an oracle configured, the judgment decides between silence
// and a warning; oracle failure is itself surfaced, never treated as a
// pass.
func (c *NumericChecker) noData(ctx context.Context, stmt model.Statement, claimed model.NumericValue) []model.Issue {
	warn := model.Issue{
		Code:      model.IssueNoNumericData,
		Severity:  model.SeverityWarning,
		Statement: stmt.Text,
		SourceID:  stmt.SourceIDs[0],
		Found:     formatValue(claimed),
		Detail:    "cited sources contain no comparable numeric value",
	}

	if c.oracle == nil {
		return []model.Issue{warn}
	}

	text, err := c.store.Text(stmt.SourceIDs[0])
	if err != nil {
		return []model.Issue{warn}
	}

	judgment, err := c.oracle.Judge(ctx, oracle.JudgeRequest{
		Statement:  stmt.Text,
		SourceText: text,
	})
	if err != nil {
		return []model.Issue{{
			Code:      model.IssueOracleUnavailable,
			Severity:  model.SeverityWarning,
			Statement: stmt.Text,
			SourceID:  stmt.SourceIDs[0],
			Detail:    "oracle could not adjudicate a value the source does not state numerically",
		}}
	}

	if judgment.Supported {
		return nil
	}
	return []model.Issue{warn}
}

// citedNumbers extracts and caches the numeric values found in the cited
// sources' text, each tagged with the source that supplied it.
func (c *NumericChecker) citedNumbers(sourceIDs []string, cache map[string][]model.NumericValue) []sourceValue {
	var out []sourceValue
	for _, id := range sourceIDs {
		values, ok := cache[id]
		if !ok {
			text, err := c.store.Text(id)
			if err == nil {
				values = numeric.Extract(text)
			}
			cache[id] = values
		}
		for _, v := range values {
			out = append(out, sourceValue{sourceID: id, value: v})
		}
	}
	return out
}

// closerTo reports whether a is closer to target than b is.
func closerTo(target, a, b float64) bool {
	da, db := target-a, target-b
	if da < 0 {
		da = -da
	}
	if db < 0 {
		db = -db
	}
	return da < db
}

// formatValue renders a numeric value with its unit for issue output.
func formatValue(v model.NumericValue) string {
	s := strconv.FormatFloat(v.Value, 'g', -1, 64)
	if v.Unit == "" {
		return s
	}
	if v.Unit == "%" || v.Unit == "pp" {
		return s + v.Unit
	}
	return s + " " + v.Unit
}
