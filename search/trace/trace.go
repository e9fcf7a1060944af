package trace

// ProposalTrace collects proposal records during a trial loop run.
type ProposalTrace struct {
	Strategy  string
	Proposals []ProposalRecord
}

// NewProposalTrace creates a ProposalTrace ready for recording.
func NewProposalTrace(strategy string) *ProposalTrace {
	return &ProposalTrace{
		Strategy:  strategy,
		Proposals: make([]ProposalRecord, 0),
	}
}

// Record appends a proposal record.
func (pt *ProposalTrace) Record(record ProposalRecord) {
	if record.Strategy == "" {
		record.Strategy = pt.Strategy
	}
	pt.Proposals = append(pt.Proposals, record)
}
