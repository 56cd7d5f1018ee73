package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// AvailabilityRequest is the body of POST /bookings/check-availability.
type AvailabilityRequest struct {
	ResourceID string `json:"resource_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// AvailabilityResult is a definitive answer from the availability service.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// FormatInstant renders an instant in the canonical wire format (ISO-8601, UTC).
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// CheckAvailability asks whether a resource is free for the window.
// A 200 answer and the request-level rejections (400, 409, 422) are definitive;
// anything else comes back as an *Error so the caller never mistakes it for availability.
func (c *Client) CheckAvailability(ctx context.Context, token, resourceID string, start, end time.Time) (AvailabilityResult, error) {
	const op = "check availability"
	status, raw, err := c.doJSON(ctx, op, http.MethodPost, "/bookings/check-availability", token, AvailabilityRequest{
		ResourceID: resourceID,
		StartTime:  FormatInstant(start),
		EndTime:    FormatInstant(end),
	})
	if err != nil {
		return AvailabilityResult{}, err
	}

	switch status {
	case http.StatusOK:
		var out AvailabilityResult
		if err := json.Unmarshal(raw, &out); err != nil {
			return AvailabilityResult{}, &Error{Op: op, Kind: KindDecode, StatusCode: status, Err: err}
		}
		return out, nil
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		msg := serverMessage(raw)
		if msg == "" {
			msg = "Resource is not available for the selected time."
		}
		return AvailabilityResult{Available: false, Message: msg}, nil
	default:
		return AvailabilityResult{}, &Error{Op: op, Kind: KindStatus, StatusCode: status, Message: serverMessage(raw)}
	}
}
