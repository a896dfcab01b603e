package cache

import (
	"encoding/json"
	"strings"
)

// Key builds a deterministic cache key from an operation name, a caller
// fingerprint and a normalized filter set. encoding/json serializes map
// keys in sorted order, so two logically identical filter sets produce the
// same key regardless of how they were assembled.
func Key(operation, callerFP string, filters map[string]string) string {
	encoded, err := json.Marshal(filters)
	if err != nil {
		// map[string]string cannot fail to marshal; keep the compiler happy.
		encoded = []byte("{}")
	}

	var b strings.Builder
	b.Grow(len(operation) + len(callerFP) + len(encoded) + 2)
	b.WriteString(operation)
	b.WriteByte(':')
	b.WriteString(callerFP)
	b.WriteByte(':')
	b.Write(encoded)
	return b.String()
}
