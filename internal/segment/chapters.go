// Package segment splits raw document text into chapter and section spans.
package segment

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/types"
)

// maxTitleRunes caps chapter titles taken from the heading line.
const maxTitleRunes = 120

var (
	// chapterPattern matches a chapter heading anywhere in the text, since
	// page headers and footers reflow headings into running prose. The
	// numeral must sit on the same line as the keyword; roman numerals stop
	// at L so words such as "mix" or "did" never parse.
	chapterPattern = regexp.MustCompile(`(?i)\bchapter[ \t]*[-–:.]?[ \t]*([0-9]{1,3}|[ivxl]{1,8})\b`)

	// ClauseMarker matches a dotted clause number followed by separator
	// punctuation or whitespace and an uppercase letter. Group 1 is the id.
	ClauseMarker = regexp.MustCompile(`(?:^|[^\d.])(\d{1,3}(?:\.\d{1,3})+)(?:[.:)]|\s*[-–—])?\s+[A-Z]`)

	// TOCLine matches an index line: a dot leader ending in a bare number.
	TOCLine = regexp.MustCompile(`(?m)(?:\.{3,}|(?:\.\s){3,}|…+)\s*\d{1,4}\s*$`)

	dotLeader = regexp.MustCompile(`\.{2,}|…`)
)

// Segmenter finds chapter and section spans.
type Segmenter struct {
	lib    *patterns.Library
	logger *slog.Logger
}

// New creates a segmenter. The library supplies the chapter enumeration
// used to flag out-of-range chapter numbers.
func New(lib *patterns.Library, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{lib: lib, logger: logger}
}

type heading struct {
	pos    int
	number int
	title  string
}

// Chapters returns ordered, non-overlapping chapter spans. Chapter numbers
// strictly increase by position: a heading whose number is not above the
// last accepted one (running headers, cross references such as "subject to
// Chapter 2") stays inside the current chapter's span. Returns an empty
// slice when no heading is found.
func (s *Segmenter) Chapters(text string) []types.Chapter {
	last := 0
	var heads []heading

	for _, m := range chapterPattern.FindAllStringSubmatchIndex(text, -1) {
		number := parseNumeral(text[m[2]:m[3]])
		if number == 0 {
			continue
		}

		lineEnd := strings.IndexByte(text[m[1]:], '\n')
		if lineEnd < 0 {
			lineEnd = len(text)
		} else {
			lineEnd += m[1]
		}
		if TOCLine.MatchString(text[m[0]:lineEnd]) {
			s.logger.Debug("skipping table-of-contents heading", "chapter", number, "offset", m[0])
			continue
		}
		if number <= last {
			s.logger.Debug("skipping non-increasing chapter reference", "chapter", number, "current", last, "offset", m[0])
			continue
		}
		last = number

		heads = append(heads, heading{
			pos:    m[0],
			number: number,
			title:  cleanTitle(text[m[1]:lineEnd]),
		})
	}

	chapters := make([]types.Chapter, 0, len(heads))
	for i, h := range heads {
		end := len(text)
		if i+1 < len(heads) {
			end = heads[i+1].pos
		}
		ch := types.Chapter{
			Number: h.number,
			Title:  h.title,
			Span:   types.Span{Start: h.pos, End: end},
		}
		if s.lib != nil && !s.lib.IsChapterNumber(h.number) {
			ch.Flagged = true
			s.logger.Warn("chapter number outside enumeration", "chapter", h.number, "offset", h.pos)
		}
		chapters = append(chapters, ch)
	}
	return chapters
}

// ImplicitChapter spans the whole document as chapter 0. Used when a
// document has no detectable headings.
func ImplicitChapter(text string) types.Chapter {
	return types.Chapter{
		Number:  0,
		Title:   "",
		Span:    types.Span{Start: 0, End: len(text)},
		Flagged: true,
	}
}

// cleanTitle reduces the rest of a heading line to the chapter title.
func cleanTitle(rest string) string {
	if loc := ClauseMarker.FindStringSubmatchIndex(rest); loc != nil {
		rest = rest[:loc[2]]
	}
	if loc := dotLeader.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	rest = strings.Join(strings.Fields(rest), " ")
	rest = strings.Trim(rest, " \t:-–—.|")

	if utf8.RuneCountInString(rest) > maxTitleRunes {
		rest = strings.TrimSpace(string([]rune(rest)[:maxTitleRunes]))
	}
	return rest
}
