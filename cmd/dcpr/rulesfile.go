package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackzampolin/dcpr/internal/types"
	"github.com/jackzampolin/dcpr/internal/validate"
)

// readRules loads rule records from a JSON file: an array of rules, one
// rule, or an object with a "rules" array such as an extract report.
func readRules(path string) ([]types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrSourceUnavailable, path, err)
	}
	rules, err := validate.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// writeRules writes rules as an indented JSON array.
func writeRules(path string, rules []types.Rule) error {
	if rules == nil {
		rules = []types.Rule{}
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling rules: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
