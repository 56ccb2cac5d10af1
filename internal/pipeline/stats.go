package pipeline

import "github.com/jackzampolin/dcpr/internal/types"

// Stats summarizes a run.
type Stats struct {
	Chapters   int `json:"chapters"`
	Sections   int `json:"sections"`
	Candidates int `json:"candidates"`
	Duplicates int `json:"duplicates"`
	Renamed    int `json:"renamed_references"`
	Rules      int `json:"rules"`
	Ready      int `json:"ready"`

	Chunks        int `json:"chunks,omitempty"`
	ChunkFailures int `json:"chunk_failures,omitempty"`

	Noise      map[types.SpanClass]int `json:"noise"`
	ByStrategy map[string]int          `json:"by_strategy"`
	ByChapter  map[string]int          `json:"by_chapter"`
	ByCategory map[string]int          `json:"by_category"`
	ByDistrict map[string]int          `json:"by_district"`
}

func newStats() Stats {
	return Stats{
		Noise:      make(map[types.SpanClass]int),
		ByStrategy: make(map[string]int),
		ByChapter:  make(map[string]int),
		ByCategory: make(map[string]int),
		ByDistrict: make(map[string]int),
	}
}

// count tallies the final rule set.
func (s *Stats) count(rules []types.Rule) {
	s.Rules = len(rules)
	for i := range rules {
		r := &rules[i]
		if r.Origin != nil {
			s.ByStrategy[r.Origin.Strategy]++
		}
		s.ByChapter[r.Chapter]++
		category := r.CategoryName()
		if category == "" {
			category = "(none)"
		}
		s.ByCategory[category]++
		if len(r.ApplicableDistricts) == 0 {
			s.ByDistrict[types.DistrictAll]++
		}
		for _, d := range r.ApplicableDistricts {
			s.ByDistrict[d]++
		}
	}
}
