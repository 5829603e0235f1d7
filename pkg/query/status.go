package query

// Status is the lifecycle state of a cache entry.
type Status uint8

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// transitions lists every allowed status change.
var transitions = map[Status][]Status{
	StatusIdle:    {StatusLoading},
	StatusLoading: {StatusSuccess, StatusError},
	StatusSuccess: {StatusLoading},
	StatusError:   {StatusLoading},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
