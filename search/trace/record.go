// Package trace records where each trial's parameters came from during a search run.
// This package has no dependencies on search/; it stores pure data types.
package trace

// Proposal sources.
const (
	SourceSeed     = "seed"
	SourceStrategy = "strategy"
	SourceFallback = "fallback"
)

// ProposalRecord captures how the parameters for one trial were produced.
type ProposalRecord struct {
	Trial    int    `json:"trial"`
	Source   string `json:"source"`           // seed, strategy or fallback
	Strategy string `json:"strategy"`         // name of the active strategy
	Reason   string `json:"reason,omitempty"` // proposal error text for fallbacks, model note otherwise
	Clamped  bool   `json:"clamped"`          // true if sanitization changed the proposal
}
