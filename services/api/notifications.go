package api

import (
	"context"
	"net/http"

	"campusbook/models"
)

// SendBookingNotification posts a booking notification. Callers treat failures as best effort.
func (c *Client) SendBookingNotification(ctx context.Context, token string, n models.BookingNotification) error {
	const op = "send notification"
	status, raw, err := c.doJSON(ctx, op, http.MethodPost, "/notifications", token, n)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &Error{Op: op, Kind: KindStatus, StatusCode: status, Message: serverMessage(raw)}
	}
	return nil
}
