package oracle

import (
	"errors"
	"testing"
)

func TestParseJudgment_Valid(t *testing.T) {
	raw := `{"supported": true, "confidence": 0.85, "supporting_quote": "62% of respondents favored the proposal", "reason": "direct statement"}`

	j, err := parseJudgment(raw)
	if err != nil {
		t.Fatalf("parseJudgment: %v", err)
	}
	if !j.Supported || j.Confidence != 0.85 {
		t.Errorf("Got %+v", j)
	}
	if j.SupportingQuote == "" {
		t.Error("Expected supporting quote to be preserved")
	}
}

func TestParseJudgment_CodeFenced(t *testing.T) {
	raw := "```json\n{\"supported\": false, \"confidence\": 0.2, \"supporting_quote\": null, \"reason\": \"not addressed\"}\n```"

	j, err := parseJudgment(raw)
	if err != nil {
		t.Fatalf("parseJudgment: %v", err)
	}
	if j.Supported {
		t.Error("Expected unsupported judgment")
	}
}

func TestParseJudgment_MissingFieldsRejected(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing supported", `{"confidence": 0.9, "reason": "x"}`},
		{"missing confidence", `{"supported": true, "supporting_quote": "q", "reason": "x"}`},
		{"confidence out of range", `{"supported": true, "confidence": 1.4, "supporting_quote": "q", "reason": "x"}`},
		{"supported without quote", `{"supported": true, "confidence": 0.9, "reason": "x"}`},
		{"not json", `the source supports this claim`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseJudgment(tt.raw)
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("Expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestParseExtraction_DropsContractViolations(t *testing.T) {
	raw := `{"claims":[
		{"text": "GDP grew 3% in 2025", "kind": "statistic", "quote": "GDP grew 3%"},
		{"text": "claim with no quote", "kind": "fact", "quote": ""},
		{"text": "", "kind": "fact", "quote": "orphan quote"}
	]}`

	claims, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parseExtraction: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("Expected 1 surviving candidate, got %d", len(claims))
	}
	if claims[0].Text != "GDP grew 3% in 2025" {
		t.Errorf("Wrong survivor: %+v", claims[0])
	}
}

func TestParseExtraction_MalformedEnvelopeRejectedEntirely(t *testing.T) {
	_, err := parseExtraction(`not json at all`)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestNewProvider_Factory(t *testing.T) {
	p, err := NewProvider(Config{Provider: ""})
	if err != nil || p != nil {
		t.Errorf("Empty provider should disable the oracle, got %v %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "openai"}); err == nil {
		t.Error("OpenAI without API key should fail")
	}

	if _, err := NewProvider(Config{Provider: "carrier-pigeon"}); err == nil {
		t.Error("Unknown provider should fail")
	}

	p, err = NewProvider(Config{Provider: "ollama", Model: "llama3.1:8b"})
	if err != nil || p == nil {
		t.Errorf("Ollama provider should construct without a key, got %v", err)
	}
}
