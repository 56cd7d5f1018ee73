package notification

import (
	"context"
	"time"

	"campusbook/models"
	"campusbook/services/tasks"
	"campusbook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const defaultSendTimeout = 30 * time.Second

// Sender delivers a notification to the backend notification service.
type Sender interface {
	SendBookingNotification(ctx context.Context, token string, n models.BookingNotification) error
}

// Enqueuer is the part of *asynq.Client the queue notifier uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DirectNotifier calls the notification service from a detached goroutine.
type DirectNotifier struct {
	Sender  Sender
	Timeout time.Duration

	// done, when set, receives the delivery error (or nil) once the send finishes.
	done chan<- error
}

func NewDirectNotifier(sender Sender, timeout time.Duration) *DirectNotifier {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &DirectNotifier{Sender: sender, Timeout: timeout}
}

func (d *DirectNotifier) NotifyBookingAccepted(ctx context.Context, n models.BookingNotification) {
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.Timeout)
		defer cancel()
		err := d.Sender.SendBookingNotification(sendCtx, n.AuthToken, n)
		if err != nil {
			utils.GetLogger().Warn("booking notification not delivered",
				zap.String("userID", n.UserID), zap.String("resourceID", n.ResourceID), zap.Error(err))
		}
		if d.done != nil {
			d.done <- err
		}
	}()
}

// QueueNotifier hands notifications to the asynq worker. When enqueueing
// fails it falls back to the direct notifier, if one is set.
type QueueNotifier struct {
	Queue    Enqueuer
	Fallback *DirectNotifier
}

func (q *QueueNotifier) NotifyBookingAccepted(ctx context.Context, n models.BookingNotification) {
	logger := utils.GetLogger()

	task, opts, err := tasks.NewBookingNotificationTask(n)
	if err == nil {
		var info *asynq.TaskInfo
		if info, err = q.Queue.EnqueueContext(ctx, task, opts...); err == nil {
			logger.Debug("booking notification queued", zap.String("taskID", info.ID))
			return
		}
	}

	logger.Warn("could not queue booking notification", zap.String("userID", n.UserID), zap.Error(err))
	if q.Fallback != nil {
		q.Fallback.NotifyBookingAccepted(ctx, n)
	}
}
