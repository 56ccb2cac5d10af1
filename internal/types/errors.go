package types

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is returned when the input document cannot be read.
// It is fatal: the run aborts with a non-zero status.
var ErrSourceUnavailable = errors.New("source unavailable")

// SpanClass is the outcome of noise classification for an extracted span.
type SpanClass string

const (
	SpanValid           SpanClass = "valid"
	SpanEmpty           SpanClass = "empty"
	SpanTooShort        SpanClass = "tooShort"
	SpanTableOfContents SpanClass = "tableOfContents"
	SpanPageNumber      SpanClass = "pageNumber"
)

// SpanClasses lists every class in classification precedence order.
var SpanClasses = []SpanClass{SpanEmpty, SpanTooShort, SpanTableOfContents, SpanPageNumber, SpanValid}

// IsNoise reports whether the class keeps a span from becoming a rule.
func (c SpanClass) IsNoise() bool {
	return c != SpanValid
}

// ChunkStatus is the outcome of one external extraction call.
type ChunkStatus string

const (
	ChunkOK     ChunkStatus = "ok"
	ChunkFailed ChunkStatus = "failed"
)

// ExternalServiceError describes a failed chunk call. It never crosses the
// chunk boundary: it is recorded on the chunk result and the batch continues.
type ExternalServiceError struct {
	Chunk  int
	Offset int
	Err    error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("chunk %d (offset %d): %v", e.Chunk, e.Offset, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
