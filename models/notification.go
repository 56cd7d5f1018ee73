package models

import "time"

// BookingNotification is sent to the notification service after a booking is accepted.
type BookingNotification struct {
	UserID      string      `json:"user_id"`
	ResourceID  string      `json:"resource_id"`
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Body        string      `json:"body"`
	BookingType BookingType `json:"booking_type"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	// AuthToken is used by in-process delivery only and never serialized.
	AuthToken   string      `json:"-"`
}

const NotificationBookingRequested = "booking_requested"
