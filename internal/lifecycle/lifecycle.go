package lifecycle

import (
	"fmt"
	"slices"
)

// Status is the lifecycle state of a posting. Values match the backend enum.
type Status string

const (
	LostOwn   Status = "PERDIDO_PROPIO"
	LostOther Status = "PERDIDO_AJENO"
	Recovered Status = "RECUPERADO"
	Adopted   Status = "ADOPTADO"
)

// All lists every status in display order.
var All = []Status{LostOwn, LostOther, Recovered, Adopted}

// validTransitions defines allowed status changes, self-transitions excluded.
var validTransitions = map[Status][]Status{
	LostOwn:   {Recovered},
	LostOther: {Recovered, Adopted},
	Recovered: {LostOwn, LostOther},
	Adopted:   {},
}

var labels = map[Status]string{
	LostOwn:   "Lost (own)",
	LostOther: "Lost (someone else's)",
	Recovered: "Recovered",
	Adopted:   "Adopted",
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// Parse converts a wire value into a Status.
func Parse(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown posting status %q", v)
	}
	return s, nil
}

// Label returns the human label for a status.
func Label(s Status) string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// IsValidTransition reports whether a posting in current may move to next.
// Staying in the same status is always allowed.
func IsValidTransition(current, next Status) bool {
	if !current.Valid() || !next.Valid() {
		return false
	}
	if current == next {
		return true
	}
	return slices.Contains(validTransitions[current], next)
}

// TransitionError is returned by Check for a rejected status change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// Check returns a *TransitionError when current -> next is not allowed.
func Check(current, next Status) error {
	if !IsValidTransition(current, next) {
		return &TransitionError{From: current, To: next}
	}
	return nil
}

// RequiresConfirmation reports whether the change reverts a recovered pet
// back to lost. The caller must ask the user before committing it.
func RequiresConfirmation(current, next Status) bool {
	return current == Recovered && (next == LostOwn || next == LostOther)
}

// Allowed returns current followed by every status reachable from it.
func Allowed(current Status) []Status {
	if !current.Valid() {
		return nil
	}
	out := []Status{current}
	return append(out, validTransitions[current]...)
}

// Terminal reports whether no transition leaves s.
func Terminal(s Status) bool {
	return s.Valid() && len(validTransitions[s]) == 0
}

// StatusChange is the payload for posting.status_changed events.
type StatusChange struct {
	PostingID int64
	From      Status
	To        Status
}
