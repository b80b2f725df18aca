package numeric

import (
	"testing"

	"github.com/ssolovyev/veritrail/internal/model"
)

func TestExtract_Percentages(t *testing.T) {
	values := Extract("Revenue grew 12.5% year over year.")

	if len(values) != 1 {
		t.Fatalf("Expected 1 value, got %d: %+v", len(values), values)
	}
	if values[0].Value != 12.5 || values[0].Unit != "%" {
		t.Errorf("Expected 12.5%%, got %v %s", values[0].Value, values[0].Unit)
	}
}

func TestExtract_PercentagePoints(t *testing.T) {
	values := Extract("The margin fell by 4 percentage points.")

	if len(values) != 1 {
		t.Fatalf("Expected 1 value, got %d: %+v", len(values), values)
	}
	if values[0].Value != 4 || values[0].Unit != "pp" {
		t.Errorf("Expected 4pp, got %v %s", values[0].Value, values[0].Unit)
	}
}

func TestExtract_CurrencyWithScaleWords(t *testing.T) {
	tests := []struct {
		text string
		want float64
		unit string
	}{
		{"The deal was worth $3.5 million in total.", 3.5e6, "USD"},
		{"Losses reached €2 billion last year.", 2e9, "EUR"},
		{"The grant of £450 thousand was approved.", 450e3, "GBP"},
		{"Priced at $1,250 per unit.", 1250, "USD"},
	}

	for _, tt := range tests {
		values := Extract(tt.text)
		if len(values) == 0 {
			t.Errorf("Extract(%q) found nothing", tt.text)
			continue
		}
		if values[0].Value != tt.want || values[0].Unit != tt.unit {
			t.Errorf("Extract(%q) = %v %s, want %v %s", tt.text, values[0].Value, values[0].Unit, tt.want, tt.unit)
		}
	}
}

func TestExtract_Ratios(t *testing.T) {
	values := Extract("Roughly 3 out of 4 respondents agreed.")

	if len(values) != 1 {
		t.Fatalf("Expected 1 value, got %d: %+v", len(values), values)
	}
	if values[0].Unit != "ratio" || values[0].Value != 0.75 {
		t.Errorf("Expected ratio 0.75, got %v %s", values[0].Value, values[0].Unit)
	}
}

func TestExtract_DirectionalChange(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"Output doubled over the decade.", 2.0},
		{"The workforce halved after the merger.", 0.5},
		{"Traffic tripled within a year.", 3.0},
	}

	for _, tt := range tests {
		values := Extract(tt.text)
		if len(values) != 1 {
			t.Errorf("Extract(%q): expected 1 value, got %d", tt.text, len(values))
			continue
		}
		if values[0].Value != tt.want || values[0].Unit != "x" {
			t.Errorf("Extract(%q) = %v %s, want %vx", tt.text, values[0].Value, values[0].Unit, tt.want)
		}
	}
}

func TestExtract_RankAndCount(t *testing.T) {
	values := Extract("The port ranked #2 worldwide and handled 14 million containers.")

	var rank, count *model.NumericValue
	for i := range values {
		switch values[i].Unit {
		case "rank":
			rank = &values[i]
		case "containers":
			count = &values[i]
		}
	}

	if rank == nil || rank.Value != 2 {
		t.Errorf("Expected rank 2, got %+v", values)
	}
	if count == nil || count.Value != 14e6 {
		t.Errorf("Expected 14 million containers, got %+v", values)
	}
}

func TestExtract_NoOverlappingMatches(t *testing.T) {
	// "4 percentage points" must not additionally match as a percent or count
	values := Extract("Down 4 percentage points from last quarter.")

	if len(values) != 1 {
		t.Fatalf("Expected exactly 1 value, got %d: %+v", len(values), values)
	}
}

func TestWithinTolerance_PercentRelative(t *testing.T) {
	tol := model.ToleranceConfig{Relative: 0.05, PercentagePoints: 5.0}

	claimed := model.NumericValue{Value: 62, Unit: "%"}
	found := model.NumericValue{Value: 58, Unit: "%"}

	// 4 points apart is a ~6.5% relative gap: outside the 5% window
	if WithinTolerance(claimed, found, tol) {
		t.Error("Expected 62%% vs 58%% to fail a 5%% relative check")
	}

	found.Value = 60
	if !WithinTolerance(claimed, found, tol) {
		t.Error("Expected 62%% vs 60%% to pass a 5%% relative check")
	}
}

func TestWithinTolerance_PercentagePointsAdditive(t *testing.T) {
	tol := model.ToleranceConfig{Relative: 0.05, PercentagePoints: 5.0}

	claimed := model.NumericValue{Value: 8, Unit: "pp"}
	found := model.NumericValue{Value: 4, Unit: "pp"}

	// Point-change claims compare additively: 4 points apart, inside the
	// 5pp window even though 8 vs 4 fails any relative check
	if !WithinTolerance(claimed, found, tol) {
		t.Error("Expected 8pp vs 4pp to pass a 5pp additive check")
	}

	found.Value = 1.5
	if WithinTolerance(claimed, found, tol) {
		t.Error("Expected 8pp vs 1.5pp to fail a 5pp additive check")
	}
}

func TestWithinTolerance_Relative(t *testing.T) {
	tol := model.ToleranceConfig{Relative: 0.05, PercentagePoints: 5.0}

	claimed := model.NumericValue{Value: 1000, Unit: "USD"}
	found := model.NumericValue{Value: 1040, Unit: "USD"}
	if !WithinTolerance(claimed, found, tol) {
		t.Error("Expected 4%% apart to pass a 5%% relative check")
	}

	found.Value = 1100
	if WithinTolerance(claimed, found, tol) {
		t.Error("Expected ~10%% apart to fail a 5%% relative check")
	}
}

func TestWithinTolerance_IncompatibleUnits(t *testing.T) {
	tol := model.ToleranceConfig{Relative: 0.05, PercentagePoints: 5.0}

	claimed := model.NumericValue{Value: 10, Unit: "USD"}
	found := model.NumericValue{Value: 10, Unit: "EUR"}
	if WithinTolerance(claimed, found, tol) {
		t.Error("Expected different currencies to be incomparable")
	}
}

func TestDiscrepancy(t *testing.T) {
	delta, unit := Discrepancy(
		model.NumericValue{Value: 62, Unit: "%"},
		model.NumericValue{Value: 58, Unit: "%"},
	)
	if unit != "pp" || delta != 4 {
		t.Errorf("Expected 4pp, got %v %s", delta, unit)
	}

	delta, unit = Discrepancy(
		model.NumericValue{Value: 110, Unit: "USD"},
		model.NumericValue{Value: 100, Unit: "USD"},
	)
	if unit != "%" || delta < 9.99 || delta > 10.01 {
		t.Errorf("Expected ~10%% relative discrepancy, got %v %s", delta, unit)
	}
}
