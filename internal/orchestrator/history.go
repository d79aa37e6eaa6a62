package orchestrator

// SuggestionHistory is the set of raw proposals a run has already seen.
// Both refinement loops share one history, so a proposal repeated in either
// loop counts as convergence. Not safe for concurrent use.
type SuggestionHistory struct {
	seen map[string]struct{}
}

// NewSuggestionHistory returns an empty history.
func NewSuggestionHistory() *SuggestionHistory {
	return &SuggestionHistory{seen: make(map[string]struct{})}
}

// Contains reports whether proposal was recorded before. Comparison is exact.
func (h *SuggestionHistory) Contains(proposal string) bool {
	_, ok := h.seen[proposal]
	return ok
}

// Add records proposal.
func (h *SuggestionHistory) Add(proposal string) {
	h.seen[proposal] = struct{}{}
}

// Len returns the number of distinct proposals recorded.
func (h *SuggestionHistory) Len() int {
	return len(h.seen)
}

// Clear forgets every proposal.
func (h *SuggestionHistory) Clear() {
	clear(h.seen)
}
