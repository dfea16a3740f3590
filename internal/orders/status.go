package orders

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
)

var validNext = map[Status]map[Status]bool{
	StatusPending: {StatusPaid: true, StatusFailed: true},
	StatusPaid:    {},
	StatusFailed:  {},
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool { return s.Valid() && len(validNext[s]) == 0 }

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
