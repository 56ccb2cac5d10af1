package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/dcpr/internal/patterns"
	"github.com/jackzampolin/dcpr/internal/types"
)

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	lib, err := patterns.Default()
	require.NoError(t, err)
	return New(lib, nil)
}

func assertOrderedDisjoint(t *testing.T, spans []types.Span) {
	t.Helper()
	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].Start, spans[i].Start, "spans sorted by start")
		assert.False(t, spans[i-1].Overlaps(spans[i]), "spans %v and %v overlap", spans[i-1], spans[i])
	}
}

const sampleCode = `Table of Contents
Chapter 1 Preliminary ............ 3
Chapter 2 Definitions ............ 9

CHAPTER 1: Preliminary
1.1 Short title. These Regulations may be called the DCPR.
1.2 Extent. They apply to Greater Mumbai.

page 4

CHAPTER II - Definitions
2.1 Meaning. In these Regulations the following terms apply.
Chapter 2 Definitions (continued)
2.2 Building. A building means any structure.

CHAPTER 16 Stray
Nothing numbered here.
`

func TestChapters_Sample(t *testing.T) {
	seg := newTestSegmenter(t)
	chapters := seg.Chapters(sampleCode)

	require.Len(t, chapters, 3)
	assert.Equal(t, 1, chapters[0].Number)
	assert.Equal(t, "Preliminary", chapters[0].Title)
	assert.Equal(t, 2, chapters[1].Number)
	assert.Equal(t, "Definitions", chapters[1].Title)
	assert.Equal(t, 16, chapters[2].Number)
	assert.True(t, chapters[2].Flagged, "chapter 16 is outside the enumeration")
	assert.False(t, chapters[0].Flagged)

	// The table of contents is excluded from every span.
	assert.Greater(t, chapters[0].Span.Start, strings.Index(sampleCode, "Chapter 2 Definitions ..."))

	// The repeated running header stays inside chapter 2.
	repeat := strings.Index(sampleCode, "Chapter 2 Definitions (continued)")
	assert.True(t, chapters[1].Span.Contains(types.Span{Start: repeat, End: repeat + 1}))

	assert.Equal(t, len(sampleCode), chapters[2].Span.End)

	spans := make([]types.Span, len(chapters))
	for i, c := range chapters {
		spans[i] = c.Span
	}
	assertOrderedDisjoint(t, spans)
}

func TestChapters_MidParagraphHeading(t *testing.T) {
	seg := newTestSegmenter(t)
	text := "front matter text CHAPTER 3: Development Control Rules ... 3.2.1 Basic FSI shall be 1.5 for Residential zones"

	chapters := seg.Chapters(text)
	require.Len(t, chapters, 1)
	assert.Equal(t, 3, chapters[0].Number)
	assert.Equal(t, "Development Control Rules", chapters[0].Title)
	assert.Equal(t, strings.Index(text, "CHAPTER"), chapters[0].Span.Start)
}

func TestChapters_None(t *testing.T) {
	seg := newTestSegmenter(t)
	assert.Empty(t, seg.Chapters("no headings at all in this text"))

	implicit := ImplicitChapter("abc")
	assert.Equal(t, 0, implicit.Number)
	assert.Equal(t, types.Span{Start: 0, End: 3}, implicit.Span)
	assert.True(t, implicit.Flagged)
}

func TestChapters_IgnoresNonNumerals(t *testing.T) {
	seg := newTestSegmenter(t)
	chapters := seg.Chapters("This chapter civil matters are covered. CHAPTER IV Parking")
	require.Len(t, chapters, 1)
	assert.Equal(t, 4, chapters[0].Number)
	assert.Equal(t, "Parking", chapters[0].Title)
}

func TestChapters_BackReferenceStaysInChapter(t *testing.T) {
	seg := newTestSegmenter(t)
	text := "CHAPTER 3: Development Control Rules\n" +
		"3.1 General. Development is subject to Chapter 2 of these regulations.\n" +
		"3.2 Parking. Parking shall be provided.\n" +
		"CHAPTER 4 Fire Safety\n" +
		"4.1 Exits. Exits shall be kept clear.\n"

	chapters := seg.Chapters(text)
	require.Len(t, chapters, 2)
	assert.Equal(t, 3, chapters[0].Number)
	assert.Equal(t, 4, chapters[1].Number)

	clause := strings.Index(text, "3.2 Parking")
	assert.True(t, chapters[0].Span.Contains(types.Span{Start: clause, End: clause + 1}))

	sections := seg.Sections(text, chapters[0])
	require.Len(t, sections, 2)
	assert.Equal(t, "3.2", sections[1].ID)
}

func TestChapters_NumeralOnHeadingLine(t *testing.T) {
	seg := newTestSegmenter(t)

	assert.Empty(t, seg.Chapters("Rules in this chapter\nI. General provisions apply."))
	assert.Empty(t, seg.Chapters("The chapter mix of uses is described here."))

	chapters := seg.Chapters("CHAPTER\tII - Definitions")
	require.Len(t, chapters, 1)
	assert.Equal(t, 2, chapters[0].Number)
}

func TestSections(t *testing.T) {
	seg := newTestSegmenter(t)
	chapters := seg.Chapters(sampleCode)
	require.Len(t, chapters, 3)

	t.Run("numbered clauses", func(t *testing.T) {
		sections := seg.Sections(sampleCode, chapters[0])
		require.Len(t, sections, 2)
		assert.Equal(t, "1.1", sections[0].ID)
		assert.Equal(t, "1.2", sections[1].ID)
		assert.Equal(t, chapters[0].Span.End, sections[1].Span.End)
		assert.True(t, strings.HasPrefix(sampleCode[sections[0].BodyStart:], "Short title."))

		spans := make([]types.Span, len(sections))
		for i, s := range sections {
			assert.True(t, chapters[0].Span.Contains(s.Span))
			spans[i] = s.Span
		}
		assertOrderedDisjoint(t, spans)
	})

	t.Run("unstructured chapter", func(t *testing.T) {
		sections := seg.Sections(sampleCode, chapters[2])
		require.Len(t, sections, 1)
		assert.True(t, sections[0].Unstructured)
		assert.Equal(t, chapters[2].Span, sections[0].Span)
	})

	t.Run("decimal values are not clause markers", func(t *testing.T) {
		text := "CHAPTER 3: Development Control Rules ... 3.2.1 Basic FSI shall be 1.5 for Residential zones"
		ch := seg.Chapters(text)[0]
		sections := seg.Sections(text, ch)
		require.Len(t, sections, 1)
		assert.Equal(t, "3.2.1", sections[0].ID)
		assert.False(t, sections[0].Unstructured)
	})
}

func TestParseNumeral(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{"14", 14},
		{"III", 3},
		{"iv", 4},
		{"XIV", 14},
		{"IIII", 0},
		{"civil", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseNumeral(tt.in), "parseNumeral(%q)", tt.in)
	}
}
