// Package pipeline orchestrates the verification stages and assembles the
// tamper-evident record. Stages run in a fixed order: integrity, binding,
// semantic, numeric. Each stage's hash commits its inputs, outputs and the
// previous hash, and the chain hash commits the ordered stage hashes.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ssolovyev/veritrail/internal/check"
	"github.com/ssolovyev/veritrail/internal/evidence"
	"github.com/ssolovyev/veritrail/internal/match"
	"github.com/ssolovyev/veritrail/internal/model"
	"github.com/ssolovyev/veritrail/internal/oracle"
	"github.com/ssolovyev/veritrail/internal/registry"
	"github.com/ssolovyev/veritrail/internal/scan"
	"github.com/ssolovyev/veritrail/internal/worker"
)

// Pipeline runs the verification stages over one document
type Pipeline struct {
	cfg       *model.Config
	store     evidence.Store
	registry  *registry.Registry
	matcher   *match.Matcher
	integrity *check.IntegrityChecker
	binding   *check.BindingChecker
	numeric   *check.NumericChecker
	scanner   *scan.Scanner
	logw      io.Writer // Verbose progress; io.Discard when quiet
}

// New assembles a pipeline. The oracle provider may be nil.
func New(cfg *model.Config, store evidence.Store, reg *registry.Registry, provider oracle.Provider, logw io.Writer) *Pipeline {
	if logw == nil {
		logw = io.Discard
	}
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		registry:  reg,
		matcher:   match.NewMatcher(reg, store, provider, cfg),
		integrity: check.NewIntegrityChecker(store),
		binding:   check.NewBindingChecker(store),
		numeric:   check.NewNumericChecker(store, provider, cfg.Tolerance),
		scanner:   scan.NewScanner(),
		logw:      logw,
	}
}

// Verify runs the full stage sequence over a document and returns the
// verification record. With stop-on-fail enabled (the default), a failed
// stage skips the remaining stages; the skipped stages still appear in the
// record and in the hash chain. A cancelled run returns the context error
// and no record: partial stage results are discarded, never persisted.
func (p *Pipeline) Verify(ctx context.Context, documentName, documentText string) (*model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stmts := p.scanner.Scan(documentText)
	sourceIDs := citedSources(stmts)
	p.logf("scanned %d statements citing %d sources\n", len(stmts), len(sourceIDs))

	record := &model.Record{
		RunID:       uuid.NewString(),
		Document:    documentName,
		GeneratedAt: time.Now().UTC(),
	}

	prev := ""
	stopped := false
	for _, stage := range []model.StageName{model.StageIntegrity, model.StageBinding, model.StageSemantic, model.StageNumeric} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if stopped {
			result := skippedStage(stage, prev)
			prev = result.Hash
			record.Stages = append(record.Stages, result)
			continue
		}

		result := p.runStage(ctx, stage, stmts, sourceIDs, prev)
		prev = result.Hash
		record.Stages = append(record.Stages, result)
		p.logf("stage %s: %s (%d issues)\n", stage, result.Status, len(result.Issues))

		if result.Status == model.StageFail && p.cfg.Pipeline.StopOnFail {
			stopped = true
		}
	}

	// Cancellation during the final stage must not yield a complete-looking
	// record either
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record.ChainHash = chainHash(record.Stages)
	record.Status = overallStatus(record.Stages)
	record.Blocking = record.BlockingIssues()
	return record, nil
}

// runStage dispatches one stage and wraps its issues into a hashed result.
func (p *Pipeline) runStage(ctx context.Context, stage model.StageName, stmts []model.Statement, sourceIDs []string, prev string) model.StageResult {
	started := time.Now()

	var issues []model.Issue
	var matches []model.MatchResult
	var inputs any

	switch stage {
	case model.StageIntegrity:
		inputs = sourceIDs
		issues = p.integrity.Check(sourceIDs)
	case model.StageBinding:
		inputs = stmts
		issues = p.binding.Check(stmts)
	case model.StageSemantic:
		inputs = stmts
		matches = p.matchStatements(ctx, stmts)
		issues = p.semanticIssues(matches)
	case model.StageNumeric:
		inputs = stmts
		issues = p.checkNumbers(ctx, stmts)
	}

	result := model.StageResult{
		Stage:     stage,
		Status:    stageStatus(issues),
		Issues:    issues,
		Matches:   matches,
		ElapsedMS: time.Since(started).Milliseconds(),
	}
	result.Hash = stageHash(stage, inputs, stageOutputs{Issues: issues, Matches: matches}, prev)
	return result
}

// stageOutputs is the hashed output payload of a stage
type stageOutputs struct {
	Issues  []model.Issue       `json:"issues"`
	Matches []model.MatchResult `json:"matches,omitempty"`
}

// skippedStage records a stage that did not run. It still extends the hash
// chain so the record shows exactly where verification stopped.
func skippedStage(stage model.StageName, prev string) model.StageResult {
	return model.StageResult{
		Stage:  stage,
		Status: model.StageSkipped,
		Hash:   stageHash(stage, nil, stageOutputs{}, prev),
	}
}

// matchJob resolves one statement inside the worker pool. The run context
// is carried in the job so oracle timeouts observe the caller's deadline.
type matchJob struct {
	ctx     context.Context
	index   int
	stmt    model.Statement
	matcher *match.Matcher
}

type matchOutcome struct {
	index  int
	result model.MatchResult
}

func (o *matchOutcome) Err() error { return nil }

func (j *matchJob) Execute(_ context.Context) worker.Result {
	return &matchOutcome{index: j.index, result: j.matcher.Match(j.ctx, j.stmt)}
}

// matchStatements fans statement resolution out across the pool and
// restores document order so the stage hash is independent of scheduling.
func (p *Pipeline) matchStatements(ctx context.Context, stmts []model.Statement) []model.MatchResult {
	if len(stmts) == 0 {
		return nil
	}

	pool := worker.NewPool(p.cfg.Concurrency.MatchWorkers)
	pool.Start()
	for i, stmt := range stmts {
		pool.Submit(&matchJob{ctx: ctx, index: i, stmt: stmt, matcher: p.matcher})
	}

	matches := make([]model.MatchResult, len(stmts))
	for _, r := range pool.Wait() {
		o := r.(*matchOutcome)
		matches[o.index] = o.result
	}
	return matches
}

// semanticIssues converts match verdicts into issues. A MISMATCH blocks
// unless configured down to a warning; UNVERIFIED always warrants review.
func (p *Pipeline) semanticIssues(matches []model.MatchResult) []model.Issue {
	var issues []model.Issue
	for _, m := range matches {
		switch m.Verdict {
		case model.VerdictMismatch:
			severity := model.SeverityBlocking
			if p.cfg.Matching.MismatchIsWarning {
				severity = model.SeverityWarning
			}
			issue := model.Issue{
				Code:      model.IssueCitationMismatch,
				Severity:  severity,
				Statement: m.Statement.Text,
				Detail:    m.Note,
			}
			if m.Claim != nil {
				issue.SourceID = m.Claim.SourceID
			}
			issues = append(issues, issue)

		case model.VerdictUnverified:
			code := model.IssueUnverified
			if m.Note == "oracle unavailable" {
				code = model.IssueOracleUnavailable
			}
			issues = append(issues, model.Issue{
				Code:      code,
				Severity:  model.SeverityWarning,
				Statement: m.Statement.Text,
				Detail:    m.Note,
			})
		}
	}
	return issues
}

// numericJob checks one statement's numbers inside the worker pool
type numericJob struct {
	ctx     context.Context
	index   int
	stmt    model.Statement
	checker *check.NumericChecker
}

type numericOutcome struct {
	index  int
	issues []model.Issue
}

func (o *numericOutcome) Err() error { return nil }

func (j *numericJob) Execute(_ context.Context) worker.Result {
	return &numericOutcome{index: j.index, issues: j.checker.Check(j.ctx, []model.Statement{j.stmt})}
}

// checkNumbers fans the numeric checks out and restores document order.
func (p *Pipeline) checkNumbers(ctx context.Context, stmts []model.Statement) []model.Issue {
	if len(stmts) == 0 {
		return nil
	}

	pool := worker.NewPool(p.cfg.Concurrency.NumericWorkers)
	pool.Start()
	for i, stmt := range stmts {
		pool.Submit(&numericJob{ctx: ctx, index: i, stmt: stmt, checker: p.numeric})
	}

	perStatement := make([][]model.Issue, len(stmts))
	for _, r := range pool.Wait() {
		o := r.(*numericOutcome)
		perStatement[o.index] = o.issues
	}

	var issues []model.Issue
	for _, batch := range perStatement {
		issues = append(issues, batch...)
	}
	return issues
}

// stageStatus derives a stage outcome from its issues.
func stageStatus(issues []model.Issue) model.StageStatus {
	status := model.StagePass
	for _, is := range issues {
		if is.Severity == model.SeverityBlocking {
			return model.StageFail
		}
		status = model.StageWarn
	}
	return status
}

// overallStatus folds stage outcomes into the record status. Failure wins;
// otherwise skipped stages make the run incomplete, warnings ask for
// review, and only a clean sweep verifies.
func overallStatus(stages []model.StageResult) model.Status {
	failed, skipped, warned := false, false, false
	for _, st := range stages {
		switch st.Status {
		case model.StageFail:
			failed = true
		case model.StageSkipped:
			skipped = true
		case model.StageWarn:
			warned = true
		}
	}

	switch {
	case failed:
		return model.StatusFailed
	case skipped:
		return model.StatusIncomplete
	case warned:
		return model.StatusNeedsReview
	default:
		return model.StatusVerified
	}
}

// citedSources returns the sorted union of source identifiers cited across
// the statements. Sorting keeps the integrity stage's hash input stable.
func citedSources(stmts []model.Statement) []string {
	set := make(map[string]bool)
	for _, stmt := range stmts {
		for _, id := range stmt.SourceIDs {
			set[id] = true
		}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Pipeline) logf(format string, args ...any) {
	fmt.Fprintf(p.logw, format, args...)
}
