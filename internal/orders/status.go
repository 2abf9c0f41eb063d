package orders

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	// StatusFailed is part of the stored enumeration but nothing sets it yet.
	StatusFailed Status = "failed"
)

// paid -> paid is allowed so a redelivered completion event stays harmless.
var validNext = map[Status]map[Status]bool{
	StatusPending: {StatusPaid: true, StatusFailed: true},
	StatusPaid:    {StatusPaid: true},
	StatusFailed:  {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}
