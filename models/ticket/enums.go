package ticket

// Status represents the lifecycle state of a ticket
type Status string

const (
	StatusValid    Status = "valid"
	StatusUsed     Status = "used"
	StatusRefunded Status = "refunded"
	StatusBanned   Status = "banned"
)

// String returns the string form of the status
func (s Status) String() string {
	return string(s)
}

// IsKnown reports whether the status is one of the modeled states
func (s Status) IsKnown() bool {
	switch s {
	case StatusValid, StatusUsed, StatusRefunded, StatusBanned:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further scan or transfer is permitted.
// Every state except valid is terminal.
func (s Status) IsTerminal() bool {
	return s != StatusValid
}

// CanTransitionTo reports whether the monotonic lifecycle permits moving to
// the given state. valid may move to used, refunded or banned; terminal
// states never move.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusValid {
		return false
	}
	switch next {
	case StatusUsed, StatusRefunded, StatusBanned:
		return true
	default:
		return false
	}
}

// AdmissibleStatuses are the statuses a check-in candidate lookup may match.
// Refunded and banned tickets are never candidates.
func AdmissibleStatuses() []Status {
	return []Status{StatusValid, StatusUsed}
}
