package llmcall

import (
	"sort"
	"time"
)

// Summary aggregates a set of calls.
type Summary struct {
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	TotalCostUSD float64 `json:"total_cost_usd"`

	TotalInputTokens     int `json:"total_input_tokens"`
	TotalOutputTokens    int `json:"total_output_tokens"`
	TotalReasoningTokens int `json:"total_reasoning_tokens"`

	// Latency percentiles (seconds)
	LatencyP50 float64 `json:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95"`
	LatencyMax float64 `json:"latency_max"`

	ByErrorType map[string]int `json:"by_error_type,omitempty"`
}

// Summarize computes totals and latency percentiles over calls.
func Summarize(calls []*Call) *Summary {
	s := &Summary{Count: len(calls)}
	if len(calls) == 0 {
		return s
	}

	latencies := make([]float64, 0, len(calls))
	for _, c := range calls {
		if c.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
			if s.ByErrorType == nil {
				s.ByErrorType = make(map[string]int)
			}
			s.ByErrorType[c.ErrorType]++
		}
		s.TotalCostUSD += c.CostUSD
		s.TotalInputTokens += c.InputTokens
		s.TotalOutputTokens += c.OutputTokens
		s.TotalReasoningTokens += c.ReasoningTokens
		latencies = append(latencies, (time.Duration(c.LatencyMs) * time.Millisecond).Seconds())
	}

	sort.Float64s(latencies)
	s.LatencyP50 = percentile(latencies, 50)
	s.LatencyP95 = percentile(latencies, 95)
	s.LatencyMax = latencies[len(latencies)-1]
	return s
}

// percentile calculates the p-th percentile from sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100) * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
