// Package patterns holds the pattern library: ordered category patterns,
// the chapter and category enumerations and the jurisdiction table.
//
// A Library is built once per process (Default or Load) and passed
// explicitly to every component that needs it. It has no setters.
package patterns

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/dcpr/internal/types"
)

//go:embed default.yaml
var defaultYAML []byte

// Category is a named, ordered list of case-insensitive patterns.
type Category struct {
	Name     string
	Patterns []*regexp.Regexp
}

// DistrictSet is a named jurisdiction: when any trigger matches a text,
// the text applies to every member district.
type DistrictSet struct {
	Name           string
	MumbaiSpecific bool
	Triggers       []*regexp.Regexp
	Members        []string
}

// Library is the immutable pattern configuration.
type Library struct {
	categories []Category
	districts  []DistrictSet
	zones      *regexp.Regexp
	chapterMin int
	chapterMax int
	known      map[string]struct{}
}

// file is the on-disk YAML shape.
type file struct {
	Chapters struct {
		Min int `yaml:"min"`
		Max int `yaml:"max"`
	} `yaml:"chapters"`
	Categories []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"categories"`
	Districts []struct {
		Name           string   `yaml:"name"`
		MumbaiSpecific bool     `yaml:"mumbai_specific"`
		Triggers       []string `yaml:"triggers"`
		Members        []string `yaml:"members"`
	} `yaml:"districts"`
	Zones string `yaml:"zones"`
}

var defaultLibrary = sync.OnceValues(func() (*Library, error) {
	return Parse(defaultYAML)
})

// Default returns the embedded library. It is parsed once per process.
func Default() (*Library, error) {
	return defaultLibrary()
}

// Load reads a library from a YAML file.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern library: %w", err)
	}
	return Parse(data)
}

// Parse builds a library from YAML, compiling every pattern.
func Parse(data []byte) (*Library, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse pattern library: %w", err)
	}
	if f.Chapters.Min <= 0 || f.Chapters.Max < f.Chapters.Min {
		return nil, fmt.Errorf("invalid chapter range %d..%d", f.Chapters.Min, f.Chapters.Max)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("pattern library has no categories")
	}

	lib := &Library{
		chapterMin: f.Chapters.Min,
		chapterMax: f.Chapters.Max,
		known:      map[string]struct{}{types.CategoryGeneral: {}},
	}

	for _, c := range f.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if _, dup := lib.known[c.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", c.Name)
		}
		compiled, err := compileAll(c.Patterns)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		lib.categories = append(lib.categories, Category{Name: c.Name, Patterns: compiled})
		lib.known[c.Name] = struct{}{}
	}

	for _, d := range f.Districts {
		if len(d.Members) == 0 {
			return nil, fmt.Errorf("district set %q has no members", d.Name)
		}
		triggers, err := compileAll(d.Triggers)
		if err != nil {
			return nil, fmt.Errorf("district set %q: %w", d.Name, err)
		}
		lib.districts = append(lib.districts, DistrictSet{
			Name:           d.Name,
			MumbaiSpecific: d.MumbaiSpecific,
			Triggers:       triggers,
			Members:        append([]string(nil), d.Members...),
		})
	}

	if f.Zones != "" {
		re, err := regexp.Compile(f.Zones)
		if err != nil {
			return nil, fmt.Errorf("zone pattern: %w", err)
		}
		lib.zones = re
	}

	return lib, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Categories returns the categories in match order.
func (l *Library) Categories() []Category {
	return append([]Category(nil), l.categories...)
}

// CategoryNames returns the category enumeration, General last.
func (l *Library) CategoryNames() []string {
	names := make([]string, 0, len(l.categories)+1)
	for _, c := range l.categories {
		names = append(names, c.Name)
	}
	return append(names, types.CategoryGeneral)
}

// Districts returns the district sets in match order.
func (l *Library) Districts() []DistrictSet {
	return append([]DistrictSet(nil), l.districts...)
}

// Zones returns the zone-code pattern, nil if none is configured.
func (l *Library) Zones() *regexp.Regexp {
	return l.zones
}

// ChapterRange returns the inclusive chapter enumeration bounds.
func (l *Library) ChapterRange() (int, int) {
	return l.chapterMin, l.chapterMax
}

// IsChapterNumber reports whether n is in the chapter enumeration.
func (l *Library) IsChapterNumber(n int) bool {
	return n >= l.chapterMin && n <= l.chapterMax
}

// IsChapter reports whether s is a chapter label in the enumeration.
// Only canonical decimal labels ("3", not "03") are accepted.
func (l *Library) IsChapter(s string) bool {
	n, err := strconv.Atoi(s)
	if err != nil || strconv.Itoa(n) != s {
		return false
	}
	return l.IsChapterNumber(n)
}

// IsCategory reports whether s is in the category enumeration.
func (l *Library) IsCategory(s string) bool {
	_, ok := l.known[s]
	return ok
}
