package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"campusbook/models"

	"github.com/hibiken/asynq"
)

const TypeBookingNotify = "booking:notify"

// NewBookingNotificationTask wraps a booking notification for the async worker.
func NewBookingNotificationTask(n models.BookingNotification) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingNotify, b)
	opts := []asynq.Option{
		asynq.MaxRetry(3),
		asynq.Timeout(30 * time.Second),
		asynq.Retention(time.Hour),
	}
	return task, opts, nil
}

// ParseBookingNotification decodes the payload of a TypeBookingNotify task.
func ParseBookingNotification(t *asynq.Task) (models.BookingNotification, error) {
	var n models.BookingNotification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return n, fmt.Errorf("invalid %s payload: %w", TypeBookingNotify, err)
	}
	return n, nil
}
