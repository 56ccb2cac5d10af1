package segment

import "github.com/jackzampolin/dcpr/internal/types"

// Sections returns ordered, non-overlapping clause spans inside the chapter.
// Text before the first marker is the chapter heading and belongs to no
// section. A chapter without markers yields a single unstructured section
// spanning the whole chapter, never zero sections.
func (s *Segmenter) Sections(text string, ch types.Chapter) []types.Section {
	body := ch.Span.Slice(text)
	base := ch.Span.Start

	matches := ClauseMarker.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return []types.Section{{
			Span:         ch.Span,
			Unstructured: true,
			BodyStart:    ch.Span.Start,
		}}
	}

	sections := make([]types.Section, 0, len(matches))
	for i, m := range matches {
		start := base + m[2]
		end := ch.Span.End
		if i+1 < len(matches) {
			end = base + matches[i+1][2]
		}
		sections = append(sections, types.Section{
			ID:   body[m[2]:m[3]],
			Span: types.Span{Start: start, End: end},
			// The match ends on the single-byte uppercase letter that opens
			// the clause text.
			BodyStart: base + m[1] - 1,
		})
	}
	return sections
}
