package models

import "time"

// ResolvedWindow is a draft's start and end expressed as absolute instants.
type ResolvedWindow struct {
	Start             time.Time    `json:"start"`
	End               time.Time    `json:"end"`
	Mode              DurationMode `json:"mode"`
	IsSameCalendarDay bool         `json:"isSameCalendarDay"`
	SpanDays          int          `json:"spanDays"`
}

// Equal reports whether both windows denote the same instants in the same mode.
func (w ResolvedWindow) Equal(o ResolvedWindow) bool {
	return w.Mode == o.Mode && w.Start.Equal(o.Start) && w.End.Equal(o.End)
}

// Verdict is the availability outcome for one specific resolved window.
type Verdict string

const (
	VerdictUnknown     Verdict = "unknown"
	VerdictAvailable   Verdict = "available"
	VerdictUnavailable Verdict = "unavailable"
)

// WorkflowState is the position of a draft in the booking form state machine.
type WorkflowState string

const (
	StateEditing     WorkflowState = "editing"
	StateChecking    WorkflowState = "checking"
	StateAvailable   WorkflowState = "available"
	StateUnavailable WorkflowState = "unavailable"
	StateSubmitting  WorkflowState = "submitting"
	StateAccepted    WorkflowState = "accepted"
)
