package trace

// Summary aggregates statistics from a ProposalTrace.
type Summary struct {
	Strategy      string         `json:"strategy"`
	Total         int            `json:"total"`
	FromStrategy  int            `json:"from_strategy"`
	Fallbacks     int            `json:"fallbacks"`
	Clamped       int            `json:"clamped"`
	FallbackRate  float64        `json:"fallback_rate"`
	FailureReason map[string]int `json:"failure_reasons,omitempty"` // fallback reason → count
}

// Summarize computes aggregate statistics from a ProposalTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(pt *ProposalTrace) *Summary {
	summary := &Summary{
		FailureReason: make(map[string]int),
	}
	if pt == nil {
		return summary
	}
	summary.Strategy = pt.Strategy

	for _, p := range pt.Proposals {
		switch p.Source {
		case SourceSeed:
			continue
		case SourceStrategy:
			summary.FromStrategy++
		case SourceFallback:
			summary.Fallbacks++
			summary.FailureReason[p.Reason]++
		}
		summary.Total++
		if p.Clamped {
			summary.Clamped++
		}
	}
	if summary.Total > 0 {
		summary.FallbackRate = float64(summary.Fallbacks) / float64(summary.Total)
	}
	return summary
}
