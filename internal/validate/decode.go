package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jackzampolin/dcpr/internal/types"
)

// Decode reads rule records from JSON: a bare array, a single object, or an
// object with a "rules" array.
func Decode(data []byte) ([]types.Rule, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	if data[0] == '[' {
		var rules []types.Rule
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, fmt.Errorf("decode rule array: %w", err)
		}
		return rules, nil
	}

	var wrapped struct {
		Rules *[]types.Rule `json:"rules"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if wrapped.Rules != nil {
		return *wrapped.Rules, nil
	}

	var single types.Rule
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("decode rule: %w", err)
	}
	return []types.Rule{single}, nil
}
