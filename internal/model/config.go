package model

import "time"

// Config is the complete veritrail configuration
type Config struct {
	Store       StoreConfig       `yaml:"store" json:"store"`
	Matching    MatchingConfig    `yaml:"matching" json:"matching"`
	Tolerance   ToleranceConfig   `yaml:"tolerance" json:"tolerance"`
	Pipeline    PipelineConfig    `yaml:"pipeline" json:"pipeline"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Oracle      OracleConfig      `yaml:"oracle" json:"oracle"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// StoreConfig locates the evidence store and the claim registry
type StoreConfig struct {
	EvidenceDir  string `yaml:"evidence_dir" json:"evidence_dir"`   // Directory of captured source records
	RegistryPath string `yaml:"registry_path" json:"registry_path"` // Claim registry JSON file
}

// MatchingConfig controls statement-to-claim resolution
type MatchingConfig struct {
	Threshold         float64 `yaml:"threshold" json:"threshold"`                     // Minimum accepted candidate score
	CitedSourceBoost  float64 `yaml:"cited_source_boost" json:"cited_source_boost"`   // Multiplier for citation-consistent candidates
	MismatchIsWarning bool    `yaml:"mismatch_is_warning" json:"mismatch_is_warning"` // Downgrade MISMATCH from blocking to warning
}

// ToleranceConfig is the numeric comparison policy. The exact values are a
// policy choice, not a derived constant; percentage-point claims are compared
// additively rather than relatively because the denominator is unknown.
type ToleranceConfig struct {
	Relative         float64 `yaml:"relative" json:"relative"`                   // Relative tolerance for plain quantities and percentages
	PercentagePoints float64 `yaml:"percentage_points" json:"percentage_points"` // Absolute tolerance for percentage-point claims
	MatchRelative    float64 `yaml:"match_relative" json:"match_relative"`       // Tighter tolerance used by the matcher
}

// PipelineConfig controls stage sequencing
type PipelineConfig struct {
	StopOnFail bool `yaml:"stop_on_fail" json:"stop_on_fail"` // Skip remaining stages after a failed stage
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	MatchWorkers   int `yaml:"match_workers" json:"match_workers"`     // Semantic stage fan-out
	NumericWorkers int `yaml:"numeric_workers" json:"numeric_workers"` // Numeric stage fan-out
}

// OracleConfig configures the external semantic oracle
type OracleConfig struct {
	Provider          string  `yaml:"provider" json:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model             string  `yaml:"model" json:"model"`
	APIKey            string  `yaml:"-" json:"-"` // Never serialized; environment only
	BaseURL           string  `yaml:"base_url" json:"base_url"`
	Timeout           int     `yaml:"timeout" json:"timeout"` // Seconds, per call
	MaxTokens         int     `yaml:"max_tokens" json:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" json:"verbose"`
	IncludeFooter bool `yaml:"include_footer" json:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			EvidenceDir:  "evidence",
			RegistryPath: "claims.json",
		},
		Matching: MatchingConfig{
			Threshold:         0.5,
			CitedSourceBoost:  1.2,
			MismatchIsWarning: false,
		},
		Tolerance: ToleranceConfig{
			Relative:         0.05,
			PercentagePoints: 5.0,
			MatchRelative:    0.01,
		},
		Pipeline: PipelineConfig{
			StopOnFail: true,
		},
		Concurrency: ConcurrencyConfig{
			MatchWorkers:   8,
			NumericWorkers: 4,
		},
		Oracle: OracleConfig{
			Provider:          "",
			Timeout:           30,
			MaxTokens:         1000,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// OracleTimeout returns the per-call oracle timeout as a duration.
func (c *Config) OracleTimeout() time.Duration {
	if c.Oracle.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Oracle.Timeout) * time.Second
}
