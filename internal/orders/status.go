package orders

// Status is shared by orders and order items.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

var statusRank = map[Status]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusReady:      2,
	StatusCompleted:  3,
}

func ValidStatus(s Status) bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition: the pipeline only moves forward
// (PENDING -> IN_PROGRESS -> READY -> COMPLETED, skipping steps is fine),
// CANCELLED is reachable from any non-terminal state, terminal states are frozen.
func CanTransition(from, to Status) bool {
	if Terminal(from) {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return statusRank[to] >= statusRank[from]
}

// InitialItemStatus: buffet items need no kitchen prep, so they start READY.
func InitialItemStatus(isBuffet bool) Status {
	if isBuffet {
		return StatusReady
	}
	return StatusInProgress
}
