package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackzampolin/dcpr/internal/types"
)

// UniqueReferences suffixes colliding references with "#2", "#3", ... in
// encounter order so every reference in rules is distinct. Returns the
// number of renamed records.
func UniqueReferences(rules []types.Rule) int {
	taken := make(map[string]bool, len(rules))
	for i := range rules {
		taken[rules[i].Reference] = true
	}

	first := make(map[string]bool, len(rules))
	next := make(map[string]int)
	renamed := 0
	for i := range rules {
		ref := rules[i].Reference
		if !first[ref] {
			first[ref] = true
			continue
		}
		n := next[ref]
		if n == 0 {
			n = 1
		}
		for {
			n++
			candidate := fmt.Sprintf("%s#%d", ref, n)
			if !taken[candidate] {
				rules[i].Reference = candidate
				taken[candidate] = true
				break
			}
		}
		next[ref] = n
		renamed++
	}
	return renamed
}

// Comparison contrasts the references found by two strategies.
type Comparison struct {
	A      string   `json:"a"`
	B      string   `json:"b"`
	OnlyA  []string `json:"only_a"`
	OnlyB  []string `json:"only_b"`
	Shared []string `json:"shared"`
}

// Compare contrasts the clause references produced by strategies a and b.
// District scopes and uniqueness suffixes are ignored.
func Compare(rules []types.Rule, a, b string) *Comparison {
	refsA := referencesOf(rules, a)
	refsB := referencesOf(rules, b)

	c := &Comparison{A: a, B: b, OnlyA: []string{}, OnlyB: []string{}, Shared: []string{}}
	for ref := range refsA {
		if refsB[ref] {
			c.Shared = append(c.Shared, ref)
		} else {
			c.OnlyA = append(c.OnlyA, ref)
		}
	}
	for ref := range refsB {
		if !refsA[ref] {
			c.OnlyB = append(c.OnlyB, ref)
		}
	}
	sort.Strings(c.OnlyA)
	sort.Strings(c.OnlyB)
	sort.Strings(c.Shared)
	return c
}

func referencesOf(rules []types.Rule, strategy string) map[string]bool {
	out := make(map[string]bool)
	for _, r := range rules {
		if r.Origin == nil || r.Origin.Strategy != strategy {
			continue
		}
		out[baseReference(r.Reference)] = true
	}
	return out
}

func baseReference(ref string) string {
	if i := strings.IndexAny(ref, "@#"); i >= 0 {
		return ref[:i]
	}
	return ref
}
