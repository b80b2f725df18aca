// Package scan extracts citation-bearing statements from a finished
// document. Statements are ephemeral: recomputed on every scan, never
// persisted outside a verification run.
package scan

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/numeric"
)

// Citation markers: [S001], [S001](https://example.com/x), or a direct
// claim reference like [C4f3a09be12cd]
var citationRe = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9_-]*)\](?:\(([^)\s]+)\))?`)

// claimIDRe matches registry claim identifiers ("C" + 12 hex digits)
var claimIDRe = regexp.MustCompile(`^C[0-9a-f]{12}$`)

// sourceHeadingRe matches headings that introduce a source/reference list
var sourceHeadingRe = regexp.MustCompile(`(?i)^#+\s*(sources|references|bibliography)\b`)

// Scanner extracts document statements
type Scanner struct{}

// NewScanner creates a new document scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan splits the document into citation-bearing statements. Structural
// lines (headings, table rows, blockquotes, rules, blanks) are skipped,
// remaining lines are sentence-split, and only units carrying at least one
// citation marker survive. Bare source-list entries are excluded: they are
// indexing metadata, not assertions to verify.
func (s *Scanner) Scan(documentText string) []model.Statement {
	var statements []model.Statement
	underSourceList := false

	for lineNo, line := range strings.Split(documentText, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "#") {
			underSourceList = sourceHeadingRe.MatchString(trimmed)
			continue
		}
		if isStructuralLine(trimmed) {
			continue
		}

		for _, unit := range SplitSentences(trimmed) {
			markers := citationRe.FindAllStringSubmatch(unit, -1)
			if len(markers) == 0 {
				continue
			}
			if looksLikeSourceEntry(unit, underSourceList) {
				continue
			}

			stmt := model.Statement{
				Text: stripCitations(unit),
				Line: lineNo + 1,
			}

			for _, m := range markers {
				id, url := m[1], m[2]
				if claimIDRe.MatchString(id) {
					stmt.ClaimIDs = appendUnique(stmt.ClaimIDs, id)
					continue
				}
				stmt.SourceIDs = appendUnique(stmt.SourceIDs, id)
				if url != "" {
					if stmt.CitedURLs == nil {
						stmt.CitedURLs = make(map[string]string)
					}
					stmt.CitedURLs[id] = url
				}
			}

			stmt.Numbers = numeric.Extract(stmt.Text)
			statements = append(statements, stmt)
		}
	}

	return statements
}

// isStructuralLine reports whether a line carries document structure rather
// than prose: blank lines, table rows, blockquotes, and rule lines.
func isStructuralLine(trimmed string) bool {
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "|") || strings.HasPrefix(trimmed, ">") {
		return true
	}
	// Rule lines: ---, ***, ___
	if len(trimmed) >= 3 && strings.Trim(trimmed, "-*_ ") == "" {
		return true
	}
	return false
}

// looksLikeSourceEntry flags units that read as source-list entries rather
// than factual assertions: anything under a Sources/References heading, and
// short colon-separated title-case lines like "Source: World Bank [S001]".
func looksLikeSourceEntry(unit string, underSourceList bool) bool {
	if underSourceList {
		return true
	}

	stripped := stripCitations(unit)
	if !strings.Contains(stripped, ":") {
		return false
	}
	return len(stripped) < 80 || mostlyTitleCased(stripped)
}

// mostlyTitleCased reports whether the majority of words start uppercase.
func mostlyTitleCased(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}
	capped := 0
	for _, w := range words {
		r := []rune(w)[0]
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			capped++
		}
	}
	return capped*2 > len(words)
}

var danglingPunctRe = regexp.MustCompile(`\s+([.,;:!?])`)

// stripCitations removes citation markers, collapses leftover whitespace,
// and reattaches punctuation orphaned by marker removal.
func stripCitations(unit string) string {
	cleaned := citationRe.ReplaceAllString(unit, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = danglingPunctRe.ReplaceAllString(cleaned, "$1")
	return strings.TrimSpace(cleaned)
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
