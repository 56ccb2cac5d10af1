// Package dedup collapses near-identical rule records.
package dedup

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jackzampolin/dcpr/internal/types"
)

// PrefixRunes is the length of the normalized fullText prefix in a key.
const PrefixRunes = 100

// Key is the derived identity of a rule: two rules with the same key are
// duplicates.
type Key struct {
	District string
	Category string
	Prefix   string
}

func (k Key) String() string {
	return k.District + "|" + k.Category + "|" + k.Prefix
}

// KeyOf computes the dedup key of r.
func KeyOf(r *types.Rule) Key {
	return Key{
		District: r.DistrictKey(),
		Category: r.CategoryName(),
		Prefix:   Normalize(r.FullText, PrefixRunes),
	}
}

// Normalize applies NFKC, lower-cases, collapses whitespace and keeps the
// first n runes.
func Normalize(s string, n int) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	runes := []rune(s)
	if n > 0 && len(runes) > n {
		return string(runes[:n])
	}
	return s
}

// Result is the outcome of a dedup pass.
type Result struct {
	Rules   []types.Rule
	Dropped []Dropped
}

// Dropped records a discarded duplicate and the index of the surviving
// record it collided with.
type Dropped struct {
	Rule   types.Rule
	KeptAt int
}

// Dedup keeps the first record per key in encounter order. Evidence of
// discarded records is not merged into the survivor.
func Dedup(rules []types.Rule) Result {
	res := Result{Rules: make([]types.Rule, 0, len(rules))}
	seen := make(map[Key]int, len(rules))
	for _, r := range rules {
		k := KeyOf(&r)
		if at, ok := seen[k]; ok {
			res.Dropped = append(res.Dropped, Dropped{Rule: r, KeptAt: at})
			continue
		}
		seen[k] = len(res.Rules)
		res.Rules = append(res.Rules, r)
	}
	return res
}
