package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ssolovyev/veritrail/internal/model"
)

// RenderJSON serializes the record for archival or downstream tooling.
func RenderJSON(record *model.Record) ([]byte, error) {
	return json.MarshalIndent(record, "", "  ")
}

// RenderMarkdown renders a human-readable verification report. The footer
// carries the chain hash so a reviewer can pin the report to its record.
func RenderMarkdown(record *model.Record, includeFooter bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification Report: %s\n\n", record.Document)
	fmt.Fprintf(&b, "**Status:** %s  \n", record.Status)
	fmt.Fprintf(&b, "**Run:** %s  \n", record.RunID)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", record.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Stages\n\n")
	b.WriteString("| Stage | Status | Issues | Elapsed |\n")
	b.WriteString("|-------|--------|--------|---------|\n")
	for _, st := range record.Stages {
		fmt.Fprintf(&b, "| %s | %s | %d | %dms |\n", st.Stage, st.Status, len(st.Issues), st.ElapsedMS)
	}
	b.WriteString("\n")

	if issues := allIssues(record); len(issues) > 0 {
		b.WriteString("## Issues\n\n")
		for _, is := range issues {
			fmt.Fprintf(&b, "- **%s** (%s)", is.Code, is.Severity)
			if is.SourceID != "" {
				fmt.Fprintf(&b, " [%s]", is.SourceID)
			}
			if is.Detail != "" {
				fmt.Fprintf(&b, ": %s", is.Detail)
			}
			b.WriteString("\n")
			if is.Statement != "" {
				fmt.Fprintf(&b, "  - statement: %s\n", truncate(is.Statement, 120))
			}
			if is.Expected != "" || is.Found != "" {
				fmt.Fprintf(&b, "  - expected %s, found %s\n", orDash(is.Expected), orDash(is.Found))
			}
		}
		b.WriteString("\n")
	}

	if matches := semanticMatches(record); len(matches) > 0 {
		verified := 0
		for _, m := range matches {
			if m.Verdict == model.VerdictVerified {
				verified++
			}
		}
		b.WriteString("## Statements\n\n")
		fmt.Fprintf(&b, "%d of %d statements verified.\n\n", verified, len(matches))
		for _, m := range matches {
			fmt.Fprintf(&b, "- %s `%s` (%s, %.2f): %s\n",
				verdictMark(m.Verdict), m.Verdict, m.Strategy, m.Confidence, truncate(m.Statement.Text, 120))
		}
		b.WriteString("\n")
	}

	if includeFooter {
		fmt.Fprintf(&b, "---\nchain: `%s`\n", record.ChainHash)
	}

	return b.String()
}

func allIssues(record *model.Record) []model.Issue {
	var out []model.Issue
	for _, st := range record.Stages {
		out = append(out, st.Issues...)
	}
	return out
}

func semanticMatches(record *model.Record) []model.MatchResult {
	for _, st := range record.Stages {
		if st.Stage == model.StageSemantic {
			return st.Matches
		}
	}
	return nil
}

func verdictMark(v model.Verdict) string {
	switch v {
	case model.VerdictVerified:
		return "✓"
	case model.VerdictMismatch:
		return "✗"
	default:
		return "?"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
