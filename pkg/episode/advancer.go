package episode

// Step is one state in an event-driven sequence.
type Step interface {
	CompletionEvent() string
}

// Advance scans steps in order from current and stops at the first step whose
// completion event matches. Only the current step may transition, so a match
// further ahead leaves the sequence where it is. It returns the new index and
// whether a transition happened; an index equal to len(steps) means the
// sequence finished.
func Advance[S Step](steps []S, current int, event string) (int, bool) {
	if event == "" || current < 0 || current >= len(steps) {
		return current, false
	}
	for i := current; i < len(steps); i++ {
		if steps[i].CompletionEvent() != event {
			continue
		}
		if i == current {
			return current + 1, true
		}
		return current, false
	}
	return current, false
}
