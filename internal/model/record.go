package model

import "time"

// Verdict is the outcome of resolving one statement against the registry
type Verdict string

const (
	VerdictVerified   Verdict = "VERIFIED"   // Matched a claim from a cited source
	VerdictUnverified Verdict = "UNVERIFIED" // No candidate met the acceptance threshold
	VerdictMismatch   Verdict = "MISMATCH"   // Matched a claim, but from an uncited source
	VerdictSkipped    Verdict = "SKIPPED"    // Statement excluded or stage skipped
)

// MatchStrategy identifies which resolution strategy produced a match
type MatchStrategy string

const (
	StrategyDirectRef MatchStrategy = "direct_ref" // Statement cites the claim id itself
	StrategyText      MatchStrategy = "text"       // Normalized text equality/containment
	StrategyNumeric   MatchStrategy = "numeric"    // Same-unit numeric agreement
	StrategyKeyword   MatchStrategy = "keyword"    // Content-word Jaccard overlap
	StrategyOracle    MatchStrategy = "oracle"     // Semantic oracle adjudication
	StrategyNone      MatchStrategy = "none"
)

// MatchResult is the outcome of resolving one document statement.
// VERIFIED always implies a non-nil Claim whose source is among the
// statement's cited identifiers; a match from an uncited source is
// recorded as MISMATCH regardless of score.
type MatchResult struct {
	Statement  Statement     `json:"statement"`
	Claim      *Claim        `json:"claim,omitempty"`
	Strategy   MatchStrategy `json:"strategy"`
	Confidence float64       `json:"confidence"` // [0,1]
	Verdict    Verdict       `json:"verdict"`
	Note       string        `json:"note,omitempty"`
}

// Severity tags an issue as blocking or merely worth review
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityWarning  Severity = "warning"
)

// IssueCode identifies a class of verification defect
type IssueCode string

const (
	IssueHashMismatch       IssueCode = "HASH_MISMATCH"       // Raw content hash differs from the recorded hash
	IssueURLMismatch        IssueCode = "URL_MISMATCH"        // Citation, registry and evidence URLs disagree
	IssueOrphanCitation     IssueCode = "ORPHAN_CITATION"     // Citation id has no source record
	IssueNumericDiscrepancy IssueCode = "NUMERIC_DISCREPANCY" // Computed value outside tolerance
	IssueOracleUnavailable  IssueCode = "ORACLE_UNAVAILABLE"  // Oracle call failed or violated its contract
	IssueSyntheticTimestamp IssueCode = "SYNTHETIC_TIMESTAMP" // Capture time falls exactly on a whole hour
	IssueSynthesisLanguage  IssueCode = "SYNTHESIS_LANGUAGE"  // Content opens with compilation/synthesis phrasing
	IssueHomepageURL        IssueCode = "HOMEPAGE_URL"        // Recorded URL is a bare host, not a document
	IssueSyntheticSource    IssueCode = "SYNTHETIC_SOURCE"    // Source type is synthesized/aggregate
	IssueCitationMismatch   IssueCode = "CITATION_MISMATCH"   // Statement matches a claim from an uncited source
	IssueUnverified         IssueCode = "UNVERIFIED_STATEMENT"
	IssueUncitedNumber      IssueCode = "UNCITED_NUMBER"  // Numeric assertion with no citation on its statement
	IssueNoNumericData      IssueCode = "NO_NUMERIC_DATA" // Cited source has nothing computable for the claim
	IssueSourceInvalid      IssueCode = "SOURCE_INVALID"  // Cited source was previously marked invalid
)

// Issue is one verification defect with enough context to drive a fix
// without re-deriving the problem.
type Issue struct {
	Code      IssueCode `json:"code"`
	Severity  Severity  `json:"severity"`
	SourceID  string    `json:"source_id,omitempty"`
	Statement string    `json:"statement,omitempty"`
	Expected  string    `json:"expected,omitempty"`
	Found     string    `json:"found,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// StageName identifies one pipeline stage
type StageName string

const (
	StageIntegrity StageName = "integrity"
	StageBinding   StageName = "binding"
	StageSemantic  StageName = "semantic"
	StageNumeric   StageName = "numeric"
)

// StageStatus is the outcome of one pipeline stage
type StageStatus string

const (
	StagePass    StageStatus = "pass"
	StageWarn    StageStatus = "warn"
	StageFail    StageStatus = "fail"
	StageSkipped StageStatus = "skipped"
)

// StageResult is the output of one pipeline stage. Hash is computed over
// (stage name, serialized inputs, serialized outputs, previous stage hash);
// Elapsed is recorded for diagnostics but excluded from the hash so that
// re-running on unchanged inputs reproduces identical hashes.
type StageResult struct {
	Stage     StageName     `json:"stage"`
	Status    StageStatus   `json:"status"`
	Issues    []Issue       `json:"issues,omitempty"`
	Matches   []MatchResult `json:"matches,omitempty"` // Populated by the semantic stage
	Hash      string        `json:"hash"`
	ElapsedMS int64         `json:"elapsed_ms"`
}

// Status is the overall outcome of a verification run
type Status string

const (
	StatusVerified    Status = "VERIFIED"     // Every stage passed
	StatusNeedsReview Status = "NEEDS_REVIEW" // At least one stage warned, none failed
	StatusFailed      Status = "FAILED"       // At least one stage failed
	StatusIncomplete  Status = "INCOMPLETE"   // Stages skipped without a failing stage
)

// Record is the final verification artifact. ChainHash is derived from the
// ordered list of stage hashes, so any change to stage inputs, outputs or
// ordering changes it. Previous records are superseded, never mutated.
type Record struct {
	RunID       string        `json:"run_id"`
	Document    string        `json:"document"`
	GeneratedAt time.Time     `json:"generated_at"`
	Stages      []StageResult `json:"stages"`
	ChainHash   string        `json:"chain_hash"`
	Status      Status        `json:"status"`
	Blocking    []Issue       `json:"blocking,omitempty"`
}

// BlockingIssues collects every blocking issue across all stages.
func (r *Record) BlockingIssues() []Issue {
	var out []Issue
	for _, st := range r.Stages {
		for _, is := range st.Issues {
			if is.Severity == SeverityBlocking {
				out = append(out, is)
			}
		}
	}
	return out
}
