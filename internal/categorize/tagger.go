package categorize

import (
	"fmt"

	"github.com/jackzampolin/dcpr/internal/types"
)

// Tagger is a per-run categorization session. It numbers placeholder
// clause ids so every window gets a derivable reference.
type Tagger struct {
	cat      *Categorizer
	counters map[string]int
}

// NewTagger starts a session. Placeholder numbering restarts per session.
func (c *Categorizer) NewTagger() *Tagger {
	return &Tagger{cat: c, counters: make(map[string]int)}
}

// Tag categorizes the window and fills Clause with a placeholder of the
// form "<category>-<n>" when no clause number could be recovered.
func (t *Tagger) Tag(w Window) (Match, bool) {
	m := t.cat.Categorize(w)
	if m.Clause != "" {
		return m, false
	}
	t.counters[m.Category]++
	m.Clause = fmt.Sprintf("%s-%d", m.Category, t.counters[m.Category])
	return m, true
}

// Apply copies the match's category, zones and evidence onto a rule.
func Apply(r *types.Rule, m Match) {
	r.Category = types.StringPtr(m.Category)
	r.ApplicableZones = append([]string{}, m.Zones...)
	r.IsMumbaiSpecific = m.MumbaiSpecific
	if r.Origin == nil {
		r.Origin = &types.Origin{}
	}
	r.Origin.Evidence = append([]string(nil), m.Evidence...)
}

// Expand fans a rule out to one record per district of the match. Each
// record shares text, category and evidence; references are scoped by
// district so they stay unique.
func Expand(base types.Rule, m Match) []types.Rule {
	districts := m.Districts
	if len(districts) == 0 {
		districts = []string{types.DistrictAll}
	}

	out := make([]types.Rule, 0, len(districts))
	for _, d := range districts {
		r := base
		r.ApplicableDistricts = []string{d}
		r.ApplicableZones = append([]string{}, base.ApplicableZones...)
		if base.Origin != nil {
			origin := *base.Origin
			r.Origin = &origin
		}
		if len(districts) > 1 {
			r.Reference = types.ScopedReference(base.Reference, d)
		}
		out = append(out, r)
	}
	return out
}
