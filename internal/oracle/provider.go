// Package oracle wraps the external semantic judgment capability behind a
// narrow interface with a strict response contract. An oracle is never
// trusted beyond that contract: responses missing required fields are
// rejected as unavailable, not partially used.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ssolovyev/veritrail/internal/model"
)

// ErrUnavailable indicates an oracle call that failed, timed out, or
// returned a response violating the contract. Callers must treat this as a
// non-match, never as a pass.
var ErrUnavailable = errors.New("oracle unavailable")

// Provider defines the interface for semantic oracle backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Judge decides whether the source text supports the statement
	Judge(ctx context.Context, req JudgeRequest) (*Judgment, error)

	// Extract proposes candidate claims from source text
	Extract(ctx context.Context, req ExtractRequest) ([]ExtractedClaim, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// JudgeRequest asks whether SourceText supports Statement. ClaimText, when
// set, names the registry candidate under adjudication.
type JudgeRequest struct {
	Statement  string
	ClaimText  string
	SourceText string
	Model      string
}

// Judgment is the structured verdict. Every field is required by the
// contract except SupportingQuote for unsupported judgments.
type Judgment struct {
	Supported       bool    `json:"supported"`
	Confidence      float64 `json:"confidence"`
	SupportingQuote string  `json:"supporting_quote,omitempty"`
	Reason          string  `json:"reason"`
}

// ExtractRequest asks for candidate claims from source text
type ExtractRequest struct {
	SourceText string
	MaxClaims  int
	Model      string
}

// ExtractedClaim is one oracle-proposed candidate. Quote must be verbatim
// from the source; candidates violating that are dropped individually while
// the rest are still considered.
type ExtractedClaim struct {
	Text     string               `json:"text"`
	Kind     string               `json:"kind"`
	Numbers  []model.NumericValue `json:"numbers,omitempty"`
	Entities []string             `json:"entities,omitempty"`
	Quote    string               `json:"quote"`
	Location string               `json:"location,omitempty"`
}

// Config holds oracle provider configuration
type Config struct {
	Provider  string  // "openai", "anthropic", "ollama", "" (disabled)
	Model     string
	APIKey    string
	BaseURL   string
	Timeout   int // Seconds, per call
	MaxTokens int
}

// FromModel converts the application config into a provider config.
func FromModel(cfg model.OracleConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}

// judgeSystemPrompt pins the wire contract for Judge calls
const judgeSystemPrompt = `You verify whether a source text supports a factual statement. Respond with strict JSON only, no prose:
{"supported": bool, "confidence": number 0..1, "supporting_quote": string or null, "reason": string}
supporting_quote MUST be copied verbatim from the source text when supported is true. Never invent quotes. If the source does not address the statement, set supported=false and explain in reason.`

// extractSystemPrompt pins the wire contract for Extract calls
const extractSystemPrompt = `You extract atomic, verifiable factual claims from source text. Respond with strict JSON only, no prose:
{"claims":[{"text": string, "kind": "statistic|fact|attribution|event|comparison", "numbers":[{"value": number, "unit": string}], "entities":[string], "quote": string, "location": string}]}
quote MUST be copied verbatim from the source text. Extract at most the requested number of claims. Skip opinions and predictions.`

func buildJudgeUserPrompt(req JudgeRequest) string {
	var b strings.Builder
	b.WriteString("Statement to verify:\n")
	b.WriteString(req.Statement)
	if req.ClaimText != "" {
		b.WriteString("\n\nRegistered claim under consideration:\n")
		b.WriteString(req.ClaimText)
	}
	b.WriteString("\n\nSource text:\n")
	b.WriteString(req.SourceText)
	return b.String()
}

func buildExtractUserPrompt(req ExtractRequest) string {
	max := req.MaxClaims
	if max <= 0 {
		max = 10
	}
	return fmt.Sprintf("Extract up to %d claims from this source text:\n\n%s", max, req.SourceText)
}

// judgmentWire uses pointers so that absent required fields are
// distinguishable from zero values.
type judgmentWire struct {
	Supported       *bool    `json:"supported"`
	Confidence      *float64 `json:"confidence"`
	SupportingQuote *string  `json:"supporting_quote"`
	Reason          string   `json:"reason"`
}

// parseJudgment validates a raw oracle response against the contract.
// Missing required fields, out-of-range confidence, or a supported verdict
// without a quote all reject the whole response.
func parseJudgment(raw string) (*Judgment, error) {
	raw = trimCodeFence(raw)

	var wire judgmentWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: malformed judgment: %v", ErrUnavailable, err)
	}
	if wire.Supported == nil || wire.Confidence == nil {
		return nil, fmt.Errorf("%w: judgment missing required fields", ErrUnavailable)
	}
	if *wire.Confidence < 0 || *wire.Confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %v out of range", ErrUnavailable, *wire.Confidence)
	}

	j := &Judgment{
		Supported:  *wire.Supported,
		Confidence: *wire.Confidence,
		Reason:     wire.Reason,
	}
	if wire.SupportingQuote != nil {
		j.SupportingQuote = strings.TrimSpace(*wire.SupportingQuote)
	}
	if j.Supported && j.SupportingQuote == "" {
		return nil, fmt.Errorf("%w: supported judgment lacks a supporting quote", ErrUnavailable)
	}

	return j, nil
}

type extractWire struct {
	Claims []ExtractedClaim `json:"claims"`
}

// parseExtraction validates a raw extraction response. A malformed envelope
// rejects everything; individual candidates are filtered later against the
// source text by the registry's excerpt gate.
func parseExtraction(raw string) ([]ExtractedClaim, error) {
	raw = trimCodeFence(raw)

	var wire extractWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: malformed extraction: %v", ErrUnavailable, err)
	}

	var out []ExtractedClaim
	for _, c := range wire.Claims {
		if strings.TrimSpace(c.Text) == "" || strings.TrimSpace(c.Quote) == "" {
			continue // Contract violation drops this candidate only
		}
		out = append(out, c)
	}
	return out, nil
}

// trimCodeFence strips markdown code fences some models wrap JSON in.
func trimCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
	}
	return strings.TrimSpace(raw)
}
