package llmcall

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/dcpr/internal/llmextract"
	"github.com/jackzampolin/dcpr/internal/metrics"
	"github.com/jackzampolin/dcpr/internal/providers"
)

// Sink persists recorded calls.
type Sink interface {
	InsertCall(ctx context.Context, call *Call) error
}

// Recorder records chunk calls to a sink and metrics. Recording failures
// are logged and never affect extraction.
type Recorder struct {
	sink    Sink
	metrics *metrics.Metrics
	runID   string
	logger  *slog.Logger

	calls []*Call
}

// NewRecorder creates a recorder for one run. sink and m may be nil.
func NewRecorder(runID string, sink Sink, m *metrics.Metrics, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, metrics: m, runID: runID, logger: logger}
}

// RecordCall implements llmextract.CallRecorder.
func (r *Recorder) RecordCall(ctx context.Context, chunk llmextract.Chunk, promptKey string, result *providers.ChatResult) {
	call := FromChatResult(result, RecordOptions{
		RunID:       r.runID,
		ChunkIndex:  chunk.Index,
		ChunkOffset: chunk.Offset,
		PromptKey:   promptKey,
	})
	if call == nil {
		return
	}
	r.calls = append(r.calls, call)
	r.metrics.ObserveCall(call.Provider, call.Success, call.InputTokens, call.OutputTokens, result.ExecutionTime)

	if r.sink == nil {
		return
	}
	if err := r.sink.InsertCall(ctx, call); err != nil {
		r.logger.Warn("failed to record llm call", "chunk", chunk.Index, "error", err)
	}
}

// Calls returns the calls recorded so far.
func (r *Recorder) Calls() []*Call {
	return append([]*Call(nil), r.calls...)
}

var _ llmextract.CallRecorder = (*Recorder)(nil)
