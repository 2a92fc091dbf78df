package booking

// transitionMap lists the reachable statuses from each state. completed and
// cancelled are terminal.
var transitionMap = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCancelled: {},
	StatusCompleted: {},
}

func ValidTransition(from, to Status) bool {
	for _, next := range transitionMap[from] {
		if next == to {
			return true
		}
	}
	return false
}
