package domain

// legalTransitions encodes the canonical status state machine. The
// repository layer never consults this table; enforcement belongs to
// the calling layer, which always loads current state before writing.
var legalTransitions = map[LicenceStatus][]LicenceStatus{
	StatusBrouillon: {StatusEnAttente},
	StatusEnAttente: {StatusValidee, StatusRefusee},
	StatusValidee:   {StatusExpiree},
	StatusRefusee:   {},
	StatusExpiree:   {},
}

// CanTransition reports whether moving from old to next is a legal
// status transition.
func CanTransition(old, next LicenceStatus) bool {
	for _, allowed := range legalTransitions[old] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionsFrom returns the statuses reachable from the given state.
func TransitionsFrom(old LicenceStatus) []LicenceStatus {
	allowed := legalTransitions[old]
	out := make([]LicenceStatus, len(allowed))
	copy(out, allowed)
	return out
}
