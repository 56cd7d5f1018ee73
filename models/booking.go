package models

import "time"

// ConflictingBooking is an existing booking the backend reports as colliding with a request.
type ConflictingBooking struct {
	UserName  string    `json:"user_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// BookingPayload is the request body sent to the booking submission service.
type BookingPayload struct {
	ResourceID  string      `json:"resource_id"`
	StartTime   string      `json:"start_time"` // ISO-8601, UTC
	EndTime     string      `json:"end_time"`   // ISO-8601, UTC
	Purpose     string      `json:"purpose"`
	BookingType BookingType `json:"booking_type"`
	Priority    *int        `json:"priority,omitempty"`

	Document *SupportingDocument `json:"-"`
}

// SubmissionKind enumerates the outcomes of a booking submission.
type SubmissionKind string

const (
	SubmissionAccepted           SubmissionKind = "accepted"
	SubmissionValidationRejected SubmissionKind = "validation_rejected"
	SubmissionConflict           SubmissionKind = "conflict"
	SubmissionUnauthorized       SubmissionKind = "unauthorized"
	SubmissionRateLimited        SubmissionKind = "rate_limited"
	SubmissionServerError        SubmissionKind = "server_error"
	SubmissionNetworkFailure     SubmissionKind = "network_failure"
)

// SubmissionResult is the classified response of the booking submission service.
type SubmissionResult struct {
	Kind                SubmissionKind       `json:"kind"`
	Message             string               `json:"message"`
	PreemptedCount      int                  `json:"preemptedCount,omitempty"`
	FieldErrors         map[string][]string  `json:"fieldErrors,omitempty"`
	ConflictingBookings []ConflictingBooking `json:"conflictingBookings,omitempty"`
	StatusCode          int                  `json:"statusCode,omitempty"`
}

// Accepted reports whether the backend created the booking.
func (r SubmissionResult) Accepted() bool {
	return r.Kind == SubmissionAccepted
}
