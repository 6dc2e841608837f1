package workflow

// AvailableTransitions returns the statuses that may be recorded next for an
// application that has already passed through current.
//
// Only the set of statuses matters: order, duplicates and timestamps are
// ignored. Once a terminal status (Rejected, Offer, Withdrawn, NoOffer) is
// present nothing more can be added; otherwise the most advanced stage
// present decides the answer. A nil or empty input means a fresh
// application. The result is never nil.
func AvailableTransitions(current []Status) []Status {
	var hasApplied, hasScreen, hasInterview, closed bool
	for _, st := range current {
		switch st {
		case StatusApplied:
			hasApplied = true
		case StatusScreen:
			hasScreen = true
		case StatusInterview:
			hasInterview = true
		case StatusRejected, StatusOffer, StatusWithdrawn, StatusNoOffer:
			closed = true
		}
	}

	switch {
	case closed:
		return []Status{}
	case hasInterview:
		return []Status{StatusOffer, StatusNoOffer, StatusWithdrawn}
	case hasScreen:
		return []Status{StatusInterview}
	case hasApplied:
		return []Status{StatusRejected, StatusScreen}
	case len(current) == 0:
		return []Status{StatusApplied}
	default:
		return []Status{}
	}
}

// IsTerminal reports whether s ends an application.
func IsTerminal(s Status) bool {
	switch s {
	case StatusRejected, StatusOffer, StatusWithdrawn, StatusNoOffer:
		return true
	case StatusApplied, StatusScreen, StatusInterview:
		return false
	}
	return false
}

// CanTransition reports whether next is offered by AvailableTransitions for current.
func CanTransition(current []Status, next Status) bool {
	for _, st := range AvailableTransitions(current) {
		if st == next {
			return true
		}
	}
	return false
}
