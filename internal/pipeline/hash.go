package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/ssolovyev/veritrail/internal/model"
)

// stageHash commits one stage to the chain: the stage name, its canonical
// JSON inputs and outputs, and the previous stage's hash. Timing and run
// identifiers never enter the hash, so re-running on unchanged inputs
// reproduces it exactly.
func stageHash(name model.StageName, inputs, outputs any, prev string) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write(canonicalJSON(inputs))
	h.Write([]byte{0})
	h.Write(canonicalJSON(outputs))
	h.Write([]byte{0})
	h.Write([]byte(prev))
	return hex.EncodeToString(h.Sum(nil))
}

// chainHash commits the ordered list of stage hashes. Any change to a
// stage's inputs, outputs, or position changes the chain.
func chainHash(stages []model.StageResult) string {
	h := sha256.New()
	for _, st := range stages {
		h.Write([]byte(st.Hash))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON serializes a value deterministically: encoding/json emits
// struct fields in declaration order and sorts map keys.
func canonicalJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Only unmarshalable types can fail here; none of our stage
		// payloads contain them
		return []byte("null")
	}
	return b
}
