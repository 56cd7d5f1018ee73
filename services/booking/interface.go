package booking

import (
	"context"
	"time"

	"campusbook/models"
	"campusbook/services/api"
	"campusbook/utils"

	"go.uber.org/zap"
)

// AvailabilityChecker is the booking availability service.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, token, resourceID string, start, end time.Time) (api.AvailabilityResult, error)
}

// BookingSubmitter is the booking submission service.
type BookingSubmitter interface {
	CreateBooking(ctx context.Context, token string, p models.BookingPayload) (models.SubmissionResult, error)
}

// Notifier delivers the post-submission notification. Implementations must not
// block the caller on delivery and must swallow their own failures.
type Notifier interface {
	NotifyBookingAccepted(ctx context.Context, n models.BookingNotification)
}

// Deps are the collaborators shared by every draft session.
type Deps struct {
	Validator    *Validator
	Availability AvailabilityChecker
	Submitter    BookingSubmitter
	Notifier     Notifier
	Clock        utils.Clock
	Logger       *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = utils.RealClock{}
	}
	if d.Validator == nil {
		d.Validator = NewValidator(DefaultWindowRules(), time.Local, d.Clock)
	}
	if d.Logger == nil {
		d.Logger = utils.GetLogger()
	}
	return d
}
