// Package numeric extracts quantitative assertions from text and compares
// values under a configurable tolerance policy.
package numeric

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ssolovyev/veritrail/internal/model"
)

// Scale word multipliers applied to currency amounts and bare quantities
var scaleWords = map[string]float64{
	"thousand": 1e3,
	"k":        1e3,
	"million":  1e6,
	"m":        1e6,
	"billion":  1e9,
	"bn":       1e9,
	"b":        1e9,
	"trillion": 1e12,
}

// Directional change verbs with fixed multiplier mappings
var changeVerbs = map[string]float64{
	"doubled":    2.0,
	"tripled":    3.0,
	"quadrupled": 4.0,
	"halved":     0.5,
}

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
}

var (
	percentRe  = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(?:%|percent|per cent)`)
	ppRe       = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*(?:percentage\s+points?|\bpp\b)`)
	currencyRe = regexp.MustCompile(`([$€£¥])\s?(\d[\d,]*(?:\.\d+)?)\s*(thousand|million|billion|trillion|bn|[kmb])?\b`)
	ratioRe    = regexp.MustCompile(`(?i)\b(\d[\d,]*)\s+(?:out\s+of|in\s+every|in)\s+(\d[\d,]*)\b`)
	rankRe     = regexp.MustCompile(`(?i)\brank(?:ed|s)?\s+(?:#|no\.?\s*|number\s+)?(\d+)|(\d+)(?:st|nd|rd|th)[-\s](?:largest|biggest|highest|most|place|ranked)`)
	changeRe   = regexp.MustCompile(`(?i)\b(doubled|tripled|quadrupled|halved)\b`)
	countRe    = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*(thousand|million|billion|trillion)?\s+([a-z]{3,}s)\b`)
)

// Extract finds every quantitative mention in the given text. Percentages,
// percentage points, currency amounts (scale words folded in), ratios,
// ranked positions, directional change verbs, and bare counts with a unit
// noun are recognized. Order follows first appearance in the text.
func Extract(text string) []model.NumericValue {
	var values []model.NumericValue
	claimed := make([]span, 0, 8) // Regions already consumed by a higher-priority pattern

	add := func(start, end int, v model.NumericValue) {
		for _, s := range claimed {
			if start < s.end && end > s.start {
				return
			}
		}
		claimed = append(claimed, span{start, end})
		v.Context = contextAround(text, start, end)
		values = append(values, v)
	}

	// Percentage points before plain percentages: "4 percentage points"
	// would otherwise half-match as a bare count
	for _, m := range ppRe.FindAllStringSubmatchIndex(text, -1) {
		if v, ok := parseNumber(text[m[2]:m[3]]); ok {
			add(m[0], m[1], model.NumericValue{Value: v, Unit: "pp"})
		}
	}

	for _, m := range percentRe.FindAllStringSubmatchIndex(text, -1) {
		if v, ok := parseNumber(text[m[2]:m[3]]); ok {
			add(m[0], m[1], model.NumericValue{Value: v, Unit: "%"})
		}
	}

	for _, m := range currencyRe.FindAllStringSubmatchIndex(text, -1) {
		v, ok := parseNumber(text[m[4]:m[5]])
		if !ok {
			continue
		}
		if m[6] >= 0 {
			v *= scaleWords[strings.ToLower(text[m[6]:m[7]])]
		}
		add(m[0], m[1], model.NumericValue{Value: v, Unit: currencySymbols[text[m[2]:m[3]]]})
	}

	for _, m := range ratioRe.FindAllStringSubmatchIndex(text, -1) {
		n, okN := parseNumber(text[m[2]:m[3]])
		d, okD := parseNumber(text[m[4]:m[5]])
		if !okN || !okD || d == 0 {
			continue
		}
		add(m[0], m[1], model.NumericValue{Value: n / d, Unit: "ratio"})
	}

	for _, m := range rankRe.FindAllStringSubmatchIndex(text, -1) {
		grp := 2
		if m[2] < 0 {
			grp = 4
		}
		if v, ok := parseNumber(text[m[grp]:m[grp+1]]); ok {
			add(m[0], m[1], model.NumericValue{Value: v, Unit: "rank"})
		}
	}

	for _, m := range changeRe.FindAllStringSubmatchIndex(text, -1) {
		verb := strings.ToLower(text[m[2]:m[3]])
		add(m[0], m[1], model.NumericValue{Value: changeVerbs[verb], Unit: "x"})
	}

	for _, m := range countRe.FindAllStringSubmatchIndex(text, -1) {
		v, ok := parseNumber(text[m[2]:m[3]])
		if !ok {
			continue
		}
		if m[4] >= 0 {
			v *= scaleWords[strings.ToLower(text[m[4]:m[5]])]
		}
		unit := strings.ToLower(text[m[6]:m[7]])
		if stopUnits[unit] {
			continue
		}
		add(m[0], m[1], model.NumericValue{Value: v, Unit: unit})
	}

	return values
}

// stopUnits are plural words that follow numbers without being unit nouns
var stopUnits = map[string]bool{
	"times": true, "years": true, "was": true, "has": true,
	"percents": true, "points": true, "plus": true,
}

type span struct{ start, end int }

// contextAround returns a short window of text around a match for diagnostics.
func contextAround(text string, start, end int) string {
	lo := start - 40
	if lo < 0 {
		lo = 0
	}
	hi := end + 40
	if hi > len(text) {
		hi = len(text)
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}

// parseNumber parses a number that may contain thousands separators.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// UnitsCompatible reports whether two units can be compared directly.
// A unit-less value is comparable to anything; "%" and "pp" are
// interchangeable for comparison purposes.
func UnitsCompatible(a, b string) bool {
	if a == b || a == "" || b == "" {
		return true
	}
	if (a == "%" && b == "pp") || (a == "pp" && b == "%") {
		return true
	}
	return false
}

// WithinTolerance reports whether claimed and found agree under the policy.
// Percentage-point claims compare additively (the denominator behind a point
// change is unknown); plain percentages and everything else compare
// relatively against the larger magnitude.
func WithinTolerance(claimed, found model.NumericValue, tol model.ToleranceConfig) bool {
	if !UnitsCompatible(claimed.Unit, found.Unit) {
		return false
	}

	if claimed.Unit == "pp" {
		diff := claimed.Value - found.Value
		if diff < 0 {
			diff = -diff
		}
		return diff <= tol.PercentagePoints
	}

	return relativeClose(claimed.Value, found.Value, tol.Relative)
}

// WithinRelative reports agreement under a plain relative tolerance,
// used by the matcher's exact-number strategy.
func WithinRelative(a, b, tol float64) bool {
	return relativeClose(a, b, tol)
}

func relativeClose(a, b, tol float64) bool {
	diff := math.Abs(a - b)
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return diff == 0
	}
	return diff/scale <= tol
}

// Discrepancy returns the difference between claimed and found in the most
// useful unit: percentage points for percent-like units, relative percent
// otherwise.
func Discrepancy(claimed, found model.NumericValue) (delta float64, unit string) {
	diff := claimed.Value - found.Value
	if diff < 0 {
		diff = -diff
	}
	if claimed.Unit == "%" || claimed.Unit == "pp" {
		return diff, "pp"
	}
	scale := found.Value
	if scale < 0 {
		scale = -scale
	}
	if scale == 0 {
		return diff, ""
	}
	return diff / scale * 100, "%"
}
