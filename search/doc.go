// Package search provides the parameter-search core for the SSEP thrust optimizer.
//
// # Reading Guide
//
// Start with these files:
//   - params.go: ParameterSet, the hard safety envelope and Clamp
//   - strategy.go: ProposalStrategy, the heuristic decay strategy and the best-neighbourhood fallback
//   - loop.go: TrialLoop, which drives propose → evaluate → record → track best
//
// # Architecture
//
// The search package defines the data model and the collaborator interfaces;
// implementations live in sub-packages:
//   - search/executor/: simulation executors (external process, deterministic mock)
//   - search/geometry/: content-addressed point-cloud generation
//   - search/assistant/: language-model proposal strategy, search-space translator, chat session
//   - search/optimizer/: range-based black-box optimizer with pruning and a CSV trial log
//   - search/trace/: proposal trace recording
//
// # Error Model
//
// A simulation failure (*SimulationError) is fatal to a run. A proposal failure
// (*ProposalError) is recoverable: the loop falls back to a perturbation of the
// best observation so far. ErrPruned is a control signal, not a failure.
package search
