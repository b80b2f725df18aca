package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/registry"
)

// writeSource lays out one captured source under the store root.
func writeSource(t *testing.T, root, id, url, text string) {
	t.Helper()

	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	raw := []byte("<html><body>" + text + "</body></html>")
	if err := os.WriteFile(filepath.Join(dir, "raw.html"), raw, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "text.txt"), []byte(text), 0644); err != nil {
		t.Fatal(err)
	}

	rec := model.SourceRecord{
		ID:          id,
		URL:         url,
		RetrievedAt: time.Date(2026, 2, 3, 9, 17, 42, 0, time.UTC),
		SHA256:      evidence.HashBytes(raw),
		RawPath:     "raw.html",
		TextPath:    "text.txt",
		Type:        model.SourceTypeWeb,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "record.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

const surveyText = "The survey found 62% of respondents favored the proposal. " +
	"Fieldwork covered 2,000 households across three regions."

// newFixture builds a store with one clean source, a registry holding its
// survey claim, and a pipeline over both.
func newFixture(t *testing.T, cfg *model.Config) (*Pipeline, *evidence.DirStore, string) {
	t.Helper()

	root := t.TempDir()
	writeSource(t, root, "S001", "https://example.com/surveys/2026/q1", surveyText)
	writeSource(t, root, "S002", "https://example.com/weather/report", "Weather patterns shifted across the hemisphere.")

	store := evidence.NewDirStore(root)
	reg, err := registry.Open(filepath.Join(root, "claims.json"), store)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := reg.Add(model.Claim{
		Text:     "The survey found 62% of respondents favored the proposal",
		Kind:     model.ClaimKindStatistic,
		Numbers:  []model.NumericValue{{Value: 62, Unit: "%"}},
		SourceID: "S001",
		Excerpt:  "The survey found 62% of respondents favored the proposal",
	}); err != nil {
		t.Fatal(err)
	}

	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	return New(cfg, store, reg, nil, nil), store, root
}

const reviewDocument = `# Findings

The survey found 62% of respondents favored the proposal [S001].
Analysts expect broad adoption across the sector [S001].
Roughly 60% of respondents favored the proposal [S001].
`

func TestVerify_EndToEndNeedsReview(t *testing.T) {
	p, _, _ := newFixture(t, nil)

	record, err := p.Verify(context.Background(), "findings.md", reviewDocument)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if record.Status != model.StatusNeedsReview {
		t.Fatalf("Status = %s, want NEEDS_REVIEW: %+v", record.Status, record.Blocking)
	}
	if len(record.Stages) != 4 {
		t.Fatalf("Got %d stages, want 4", len(record.Stages))
	}

	byStage := make(map[model.StageName]model.StageResult)
	for _, st := range record.Stages {
		byStage[st.Stage] = st
	}

	if byStage[model.StageIntegrity].Status != model.StagePass {
		t.Errorf("integrity = %s, want pass: %+v", byStage[model.StageIntegrity].Status, byStage[model.StageIntegrity].Issues)
	}
	if byStage[model.StageBinding].Status != model.StagePass {
		t.Errorf("binding = %s, want pass: %+v", byStage[model.StageBinding].Status, byStage[model.StageBinding].Issues)
	}
	if byStage[model.StageSemantic].Status != model.StageWarn {
		t.Errorf("semantic = %s, want warn", byStage[model.StageSemantic].Status)
	}

	matches := byStage[model.StageSemantic].Matches
	if len(matches) != 3 {
		t.Fatalf("Got %d matches, want 3", len(matches))
	}
	if matches[0].Verdict != model.VerdictVerified {
		t.Errorf("First statement = %s, want VERIFIED (%s)", matches[0].Verdict, matches[0].Note)
	}
	if matches[1].Verdict != model.VerdictUnverified {
		t.Errorf("Second statement = %s, want UNVERIFIED", matches[1].Verdict)
	}

	// 60% claimed vs 62% in the source is inside the 5% relative policy
	if byStage[model.StageNumeric].Status != model.StagePass {
		t.Errorf("numeric = %s, want pass: %+v", byStage[model.StageNumeric].Status, byStage[model.StageNumeric].Issues)
	}

	if record.ChainHash == "" {
		t.Error("Chain hash missing")
	}
	if len(record.Blocking) != 0 {
		t.Errorf("Blocking = %+v, want none", record.Blocking)
	}
}

func TestVerify_Deterministic(t *testing.T) {
	p, _, _ := newFixture(t, nil)

	first, err := p.Verify(context.Background(), "findings.md", reviewDocument)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Verify(context.Background(), "findings.md", reviewDocument)
	if err != nil {
		t.Fatal(err)
	}

	if first.ChainHash != second.ChainHash {
		t.Errorf("Chain hashes differ across identical runs:\n%s\n%s", first.ChainHash, second.ChainHash)
	}
	for i := range first.Stages {
		if first.Stages[i].Hash != second.Stages[i].Hash {
			t.Errorf("Stage %s hash differs across identical runs", first.Stages[i].Stage)
		}
	}
	if first.RunID == second.RunID {
		t.Error("Run identifiers must be unique per run")
	}
}

func TestVerify_ChangedDocumentChangesChain(t *testing.T) {
	p, _, _ := newFixture(t, nil)

	first, err := p.Verify(context.Background(), "findings.md", reviewDocument)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Verify(context.Background(), "findings.md",
		"The survey found 62% of respondents favored the proposal [S001].\n")
	if err != nil {
		t.Fatal(err)
	}

	if first.ChainHash == second.ChainHash {
		t.Error("Different documents must not share a chain hash")
	}
}

func TestVerify_TamperedEvidenceFailsAndStops(t *testing.T) {
	p, _, root := newFixture(t, nil)

	// Tamper with the captured bytes after the hash was recorded
	if err := os.WriteFile(filepath.Join(root, "S001", "raw.html"), []byte("<html>rewritten</html>"), 0644); err != nil {
		t.Fatal(err)
	}

	record, err := p.Verify(context.Background(), "findings.md", reviewDocument)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if record.Status != model.StatusFailed {
		t.Fatalf("Status = %s, want FAILED", record.Status)
	}
	if record.Stages[0].Status != model.StageFail {
		t.Errorf("integrity = %s, want fail", record.Stages[0].Status)
	}
	for _, st := range record.Stages[1:] {
		if st.Status != model.StageSkipped {
			t.Errorf("stage %s = %s, want skipped under stop-on-fail", st.Stage, st.Status)
		}
		if st.Hash == "" {
			t.Errorf("skipped stage %s must still extend the chain", st.Stage)
		}
	}

	found := false
	for _, is := range record.Blocking {
		if is.Code == model.IssueHashMismatch {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected HASH_MISMATCH among blocking issues: %+v", record.Blocking)
	}
}

func TestVerify_FullRunWithoutStopOnFail(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Pipeline.StopOnFail = false
	p, _, root := newFixture(t, cfg)

	if err := os.WriteFile(filepath.Join(root, "S001", "raw.html"), []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}

	record, err := p.Verify(context.Background(), "findings.md", reviewDocument)
	if err != nil {
		t.Fatal(err)
	}

	if record.Status != model.StatusFailed {
		t.Errorf("Status = %s, want FAILED", record.Status)
	}
	for _, st := range record.Stages {
		if st.Status == model.StageSkipped {
			t.Errorf("stage %s skipped despite stop_on_fail=false", st.Stage)
		}
	}
}

func TestVerify_CitationMismatchBlocks(t *testing.T) {
	p, _, _ := newFixture(t, nil)

	// Exact wording of the S001 claim, cited against S002
	doc := "The survey found 62% of respondents favored the proposal [S002].\n"

	record, err := p.Verify(context.Background(), "findings.md", doc)
	if err != nil {
		t.Fatal(err)
	}

	if record.Status != model.StatusFailed {
		t.Fatalf("Status = %s, want FAILED", record.Status)
	}

	var semantic model.StageResult
	for _, st := range record.Stages {
		if st.Stage == model.StageSemantic {
			semantic = st
		}
	}
	if semantic.Status != model.StageFail {
		t.Fatalf("semantic = %s, want fail: %+v", semantic.Status, semantic.Issues)
	}
	if len(semantic.Matches) != 1 || semantic.Matches[0].Verdict != model.VerdictMismatch {
		t.Errorf("Expected a MISMATCH verdict, got %+v", semantic.Matches)
	}
	if len(semantic.Issues) != 1 || semantic.Issues[0].Code != model.IssueCitationMismatch {
		t.Errorf("Expected CITATION_MISMATCH, got %+v", semantic.Issues)
	}
}

func TestVerify_CitationMismatchConfigurableAsWarning(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Matching.MismatchIsWarning = true
	p, _, _ := newFixture(t, cfg)

	doc := "The survey found 62% of respondents favored the proposal [S002].\n"

	record, err := p.Verify(context.Background(), "findings.md", doc)
	if err != nil {
		t.Fatal(err)
	}

	if record.Status != model.StatusNeedsReview {
		t.Errorf("Status = %s, want NEEDS_REVIEW with mismatch downgraded", record.Status)
	}
}

func TestVerify_OrphanCitationFailsBinding(t *testing.T) {
	p, _, _ := newFixture(t, nil)

	doc := "The survey found 62% of respondents favored the proposal [S404].\n"

	record, err := p.Verify(context.Background(), "findings.md", doc)
	if err != nil {
		t.Fatal(err)
	}

	if record.Status != model.StatusFailed {
		t.Fatalf("Status = %s, want FAILED", record.Status)
	}
	if record.Stages[1].Stage != model.StageBinding || record.Stages[1].Status != model.StageFail {
		t.Errorf("binding stage = %+v, want fail", record.Stages[1])
	}
}

func TestVerify_PercentDiscrepancyFails(t *testing.T) {
	root := t.TempDir()
	sourceText := "The survey found 58% of respondents favored the proposal."
	writeSource(t, root, "S001", "https://example.com/surveys/2026/q1", sourceText)

	store := evidence.NewDirStore(root)
	reg, err := registry.Open(filepath.Join(root, "claims.json"), store)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := reg.Add(model.Claim{
		Text:     "The survey found 58% of respondents favored the proposal",
		Kind:     model.ClaimKindStatistic,
		Numbers:  []model.NumericValue{{Value: 58, Unit: "%"}},
		SourceID: "S001",
		Excerpt:  "The survey found 58% of respondents favored the proposal",
	}); err != nil {
		t.Fatal(err)
	}

	p := New(model.DefaultConfig(), store, reg, nil, nil)

	// Document overstates the surveyed share by 4 percentage points
	doc := "The survey found 62% of respondents favored the proposal [S001].\n"
	record, err := p.Verify(context.Background(), "findings.md", doc)
	if err != nil {
		t.Fatal(err)
	}

	if record.Status != model.StatusFailed {
		t.Fatalf("Status = %s, want FAILED: %+v", record.Status, record.Blocking)
	}

	found := false
	for _, is := range record.Blocking {
		if is.Code == model.IssueNumericDiscrepancy {
			found = true
			if is.SourceID != "S001" {
				t.Errorf("Discrepancy should name S001, got %q", is.SourceID)
			}
		}
	}
	if !found {
		t.Errorf("Expected NUMERIC_DISCREPANCY among blocking issues: %+v", record.Blocking)
	}
}

func TestVerify_CancelledContextReturnsNoRecord(t *testing.T) {
	p, _, _ := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	record, err := p.Verify(ctx, "findings.md", reviewDocument)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if record != nil {
		t.Errorf("Cancelled run must not produce a record: %+v", record)
	}
}

func TestRenderMarkdown(t *testing.T) {
	p, _, _ := newFixture(t, nil)

	record, err := p.Verify(context.Background(), "findings.md", reviewDocument)
	if err != nil {
		t.Fatal(err)
	}

	out := RenderMarkdown(record, true)
	for _, want := range []string{"# Verification Report: findings.md", "NEEDS_REVIEW", "| integrity |", record.ChainHash} {
		if !strings.Contains(out, want) {
			t.Errorf("Markdown output missing %q", want)
		}
	}

	without := RenderMarkdown(record, false)
	if strings.Contains(without, record.ChainHash) {
		t.Error("Footer should be omitted when disabled")
	}
}
