package booking

import (
	"errors"
	"fmt"
	"strings"

	"campusbook/models"
)

// WindowErrorKind names why a draft's date and time fields do not form a bookable window.
type WindowErrorKind string

const (
	MissingField                 WindowErrorKind = "missing_field"
	UnparsableDateTime           WindowErrorKind = "unparsable_date_time"
	EndBeforeOrEqualStart        WindowErrorKind = "end_before_or_equal_start"
	SingleDaySpanCrossesMidnight WindowErrorKind = "single_day_span_crosses_midnight"
	MultiDaySpanTooShort         WindowErrorKind = "multi_day_span_too_short"
	StartNotFuture               WindowErrorKind = "start_not_future"
	StartTooFarAhead             WindowErrorKind = "start_too_far_ahead"
)

// WindowError is a user-fixable problem with the draft's booking window.
type WindowError struct {
	Kind    WindowErrorKind
	Field   string
	Message string
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Problem renders the error the way the form shows it inline.
func (e *WindowError) Problem() models.FieldProblem {
	return models.FieldProblem{Field: e.Field, Code: string(e.Kind), Message: e.Message}
}

func newWindowError(kind WindowErrorKind, field, msg string) error {
	return &WindowError{Kind: kind, Field: field, Message: msg}
}

// AsWindowError unwraps err into a *WindowError when it is one.
func AsWindowError(err error) (*WindowError, bool) {
	var we *WindowError
	ok := errors.As(err, &we)
	return we, ok
}

var (
	ErrDraftNotFound  = errors.New("booking draft not found or expired")
	ErrDraftFinalized = errors.New("booking draft has already been submitted")
	ErrSubmitInFlight = errors.New("booking submission already in progress")
	ErrNotSubmittable = errors.New("booking draft is not ready for submission")
	ErrTooManyDrafts  = errors.New("too many open booking drafts")
)

// SubmitBlockedError lists what stops a draft from being submitted.
type SubmitBlockedError struct {
	Blockers []models.FieldProblem
}

func (e *SubmitBlockedError) Error() string {
	msgs := make([]string, 0, len(e.Blockers))
	for _, b := range e.Blockers {
		msgs = append(msgs, b.Field+": "+b.Message)
	}
	return ErrNotSubmittable.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *SubmitBlockedError) Unwrap() error { return ErrNotSubmittable }
