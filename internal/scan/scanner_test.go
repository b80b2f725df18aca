package scan

import (
	"strings"
	"testing"
)

func TestScan_EmptyForDocumentWithoutCitations(t *testing.T) {
	scanner := NewScanner()

	doc := `# Quarterly Report

The economy grew steadily. Inflation remained moderate.

Nothing here carries a citation marker.`

	statements := scanner.Scan(doc)
	if len(statements) != 0 {
		t.Errorf("Expected no statements, got %d: %+v", len(statements), statements)
	}
}

func TestScan_ExtractsCitedStatements(t *testing.T) {
	scanner := NewScanner()

	doc := `# Findings

GDP grew 3.1% in 2025 [S001]. Unemployment fell to 4.2% [S002](https://stats.example.com/u).
This sentence has no citation and is skipped.`

	statements := scanner.Scan(doc)
	if len(statements) != 2 {
		t.Fatalf("Expected 2 statements, got %d: %+v", len(statements), statements)
	}

	first := statements[0]
	if len(first.SourceIDs) != 1 || first.SourceIDs[0] != "S001" {
		t.Errorf("First statement sources = %v, want [S001]", first.SourceIDs)
	}
	if strings.Contains(first.Text, "[S001]") {
		t.Errorf("Citation markup not stripped: %q", first.Text)
	}
	if len(first.Numbers) == 0 || first.Numbers[0].Value != 3.1 {
		t.Errorf("Expected 3.1%% extracted, got %+v", first.Numbers)
	}

	second := statements[1]
	if second.CitedURLs["S002"] != "https://stats.example.com/u" {
		t.Errorf("Expected cited URL captured, got %v", second.CitedURLs)
	}
}

func TestScan_DistinguishesClaimReferences(t *testing.T) {
	scanner := NewScanner()

	doc := `Exports doubled between 2020 and 2024 [C4f3a09be12cd]. Imports held steady [S003].`

	statements := scanner.Scan(doc)
	if len(statements) != 2 {
		t.Fatalf("Expected 2 statements, got %d", len(statements))
	}

	if len(statements[0].ClaimIDs) != 1 || statements[0].ClaimIDs[0] != "C4f3a09be12cd" {
		t.Errorf("Expected direct claim reference, got %+v", statements[0])
	}
	if len(statements[0].SourceIDs) != 0 {
		t.Errorf("Claim reference misclassified as source: %+v", statements[0])
	}
	if len(statements[1].SourceIDs) != 1 || statements[1].SourceIDs[0] != "S003" {
		t.Errorf("Expected source reference, got %+v", statements[1])
	}
}

func TestScan_SkipsStructuralLines(t *testing.T) {
	scanner := NewScanner()

	doc := `# Heading with marker [S001]

| col | value [S001] |
> Quoted text with marker [S001].
---

Real statement with a citation [S001].`

	statements := scanner.Scan(doc)
	if len(statements) != 1 {
		t.Fatalf("Expected 1 statement, got %d: %+v", len(statements), statements)
	}
	if statements[0].Text != "Real statement with a citation." {
		t.Errorf("Got %q", statements[0].Text)
	}
}

func TestScan_ExcludesSourceListEntries(t *testing.T) {
	scanner := NewScanner()

	doc := `The deficit widened to 5% of GDP in 2025 [S001].

## Sources

World Bank data portal [S001].
National statistics office [S002].

## Appendix

Source: Census Bureau [S003]`

	statements := scanner.Scan(doc)
	if len(statements) != 1 {
		t.Fatalf("Expected only the assertion to survive, got %d: %+v", len(statements), statements)
	}
	if !statements[0].Cites("S001") {
		t.Errorf("Surviving statement should cite S001: %+v", statements[0])
	}
}

func TestScan_MultipleCitationsOnOneStatement(t *testing.T) {
	scanner := NewScanner()

	doc := `Both agencies reported the same 62% approval figure [S001] [S002].`

	statements := scanner.Scan(doc)
	if len(statements) != 1 {
		t.Fatalf("Expected 1 statement, got %d", len(statements))
	}
	if len(statements[0].SourceIDs) != 2 {
		t.Errorf("Expected 2 cited sources, got %v", statements[0].SourceIDs)
	}
}

func TestSplitSentences_BoundaryRequiresCapital(t *testing.T) {
	units := SplitSentences("Spending hit $3.5 million in Q1. The total for e.g. small items was flat. Overall growth continued.")

	if len(units) != 3 {
		t.Fatalf("Expected 3 units, got %d: %v", len(units), units)
	}
	if !strings.HasPrefix(units[1], "The total") {
		t.Errorf("Unexpected second unit: %q", units[1])
	}
}

func TestSplitSentences_DecimalNotSplit(t *testing.T) {
	units := SplitSentences("Revenue reached 3.5 billion dollars this year.")
	if len(units) != 1 {
		t.Errorf("Decimal split a sentence: %v", units)
	}
}
