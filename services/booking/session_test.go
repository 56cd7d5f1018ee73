package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campusbook/models"
	"campusbook/services/api"
	"campusbook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAvailability struct{ mock.Mock }

func (m *mockAvailability) CheckAvailability(ctx context.Context, token, resourceID string, start, end time.Time) (api.AvailabilityResult, error) {
	args := m.Called(ctx, token, resourceID, start, end)
	return args.Get(0).(api.AvailabilityResult), args.Error(1)
}

type mockSubmitter struct{ mock.Mock }

func (m *mockSubmitter) CreateBooking(ctx context.Context, token string, p models.BookingPayload) (models.SubmissionResult, error) {
	args := m.Called(ctx, token, p)
	return args.Get(0).(models.SubmissionResult), args.Error(1)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.BookingNotification
}

func (r *recordingNotifier) NotifyBookingAccepted(_ context.Context, n models.BookingNotification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

var staff = models.AuthContext{UserID: "u-1", Role: models.RoleStaff, AuthToken: "tok"}

func testDeps(avail AvailabilityChecker, sub BookingSubmitter, n Notifier) Deps {
	clock := utils.FixedClock{T: testNow}
	return Deps{
		Validator:    NewValidator(DefaultWindowRules(), time.UTC, clock),
		Availability: avail,
		Submitter:    sub,
		Notifier:     n,
		Clock:        clock,
		Logger:       zap.NewNop(),
	}
}

func strp(s string) *string { return &s }

func fillEdit() models.DraftEdit {
	d := singleDayDraft()
	bt := d.BookingType
	return models.DraftEdit{
		StartDate:   strp(d.StartDate),
		StartTime:   strp(d.StartTime),
		EndTime:     strp(d.EndTime),
		Purpose:     strp(d.Purpose),
		BookingType: &bt,
	}
}

var (
	scenarioStart = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	scenarioEnd   = time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)
)

func TestSession_CheckAndSubmit(t *testing.T) {
	avail := &mockAvailability{}
	sub := &mockSubmitter{}
	notifier := &recordingNotifier{}

	avail.On("CheckAvailability", mock.Anything, "tok", "room-101", scenarioStart, scenarioEnd).
		Return(api.AvailabilityResult{Available: true}, nil).Once()
	sub.On("CreateBooking", mock.Anything, "tok", mock.AnythingOfType("models.BookingPayload")).
		Return(models.SubmissionResult{Kind: models.SubmissionAccepted, Message: "ok"}, nil).Once()

	s := NewSession("d-1", "room-101", &models.Resource{ID: "room-101", Name: "Room 101"}, testDeps(avail, sub, notifier))

	verdict, err := s.Check(context.Background(), staff, fillEdit())
	require.NoError(t, err)
	assert.Equal(t, models.VerdictAvailable, verdict)
	assert.Equal(t, models.StateAvailable, s.State())

	view := s.View(staff.Role)
	assert.True(t, view.CanSubmit)
	assert.Empty(t, view.Blockers)

	result, err := s.Submit(context.Background(), staff)
	require.NoError(t, err)
	assert.True(t, result.Accepted())
	assert.Equal(t, models.StateAccepted, s.State())

	payload := sub.Calls[0].Arguments.Get(2).(models.BookingPayload)
	assert.Equal(t, "2025-06-10T09:00:00Z", payload.StartTime)
	assert.Equal(t, "2025-06-10T10:00:00Z", payload.EndTime)
	assert.Equal(t, "room-101", payload.ResourceID)
	assert.Nil(t, payload.Priority)
	assert.Nil(t, payload.Document)

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, "u-1", notifier.sent[0].UserID)
	assert.Contains(t, notifier.sent[0].Body, "Room 101")

	_, err = s.Edit(models.DraftEdit{Purpose: strp("Another team meeting")})
	assert.ErrorIs(t, err, ErrDraftFinalized)

	avail.AssertExpectations(t)
	sub.AssertExpectations(t)
}

func TestSession_InvalidWindowMakesNoCall(t *testing.T) {
	avail := &mockAvailability{}
	s := NewSession("d-1", "room-101", nil, testDeps(avail, &mockSubmitter{}, nil))

	edit := fillEdit()
	edit.EndTime = strp("08:30")
	ticket, err := s.Edit(edit)
	require.NoError(t, err)
	assert.Nil(t, ticket)

	view := s.View(staff.Role)
	require.NotNil(t, view.WindowError)
	assert.Equal(t, string(EndBeforeOrEqualStart), view.WindowError.Code)
	assert.Equal(t, models.StateEditing, view.State)
	assert.False(t, view.CanSubmit)

	assert.Equal(t, models.VerdictUnknown, s.RunCheck(context.Background(), staff, ticket))
	avail.AssertNotCalled(t, "CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_UnavailableBlocksSubmit(t *testing.T) {
	avail := &mockAvailability{}
	sub := &mockSubmitter{}
	avail.On("CheckAvailability", mock.Anything, "tok", "room-101", scenarioStart, scenarioEnd).
		Return(api.AvailabilityResult{Available: false, Message: "Already booked"}, nil)

	s := NewSession("d-1", "room-101", nil, testDeps(avail, sub, nil))
	verdict, err := s.Check(context.Background(), staff, fillEdit())
	require.NoError(t, err)
	assert.Equal(t, models.VerdictUnavailable, verdict)

	view := s.View(staff.Role)
	assert.False(t, view.CanSubmit)
	assert.Equal(t, "Already booked", view.CheckMessage)

	_, err = s.Submit(context.Background(), staff)
	var blocked *SubmitBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.ErrorIs(t, err, ErrNotSubmittable)
	assert.Equal(t, "unavailable", blocked.Blockers[0].Code)
	sub.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_FailedCheckLeavesVerdictUnknown(t *testing.T) {
	avail := &mockAvailability{}
	avail.On("CheckAvailability", mock.Anything, "tok", "room-101", scenarioStart, scenarioEnd).
		Return(api.AvailabilityResult{}, &api.Error{Op: "check availability", Kind: api.KindTimeout}).Once()
	avail.On("CheckAvailability", mock.Anything, "tok", "room-101", scenarioStart, scenarioEnd).
		Return(api.AvailabilityResult{Available: true}, nil).Once()

	s := NewSession("d-1", "room-101", nil, testDeps(avail, &mockSubmitter{}, nil))
	verdict, err := s.Check(context.Background(), staff, fillEdit())
	require.NoError(t, err)
	assert.Equal(t, models.VerdictUnknown, verdict)

	view := s.View(staff.Role)
	assert.False(t, view.CanSubmit)
	assert.Contains(t, view.CheckMessage, "did not respond in time")

	ticket, err := s.Recheck()
	require.NoError(t, err)
	assert.Equal(t, models.VerdictAvailable, s.RunCheck(context.Background(), staff, ticket))
}

// gatedAvailability holds every check until the test releases it.
type gatedAvailability struct {
	calls chan gatedCall
}

type gatedCall struct {
	start time.Time
	end   time.Time
	reply chan api.AvailabilityResult
}

func (g *gatedAvailability) CheckAvailability(ctx context.Context, token, resourceID string, start, end time.Time) (api.AvailabilityResult, error) {
	call := gatedCall{start: start, end: end, reply: make(chan api.AvailabilityResult)}
	g.calls <- call
	return <-call.reply, nil
}

func TestSession_StaleAnswerIsDiscarded(t *testing.T) {
	gate := &gatedAvailability{calls: make(chan gatedCall)}
	s := NewSession("d-1", "room-101", nil, testDeps(gate, &mockSubmitter{}, nil))

	first, err := s.Edit(fillEdit())
	require.NoError(t, err)
	require.NotNil(t, first)

	firstDone := make(chan models.Verdict)
	go func() { firstDone <- s.RunCheck(context.Background(), staff, first) }()
	firstCall := <-gate.calls

	second, err := s.Edit(models.DraftEdit{StartTime: strp("09:30")})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Greater(t, second.Seq, first.Seq)

	secondDone := make(chan models.Verdict)
	go func() { secondDone <- s.RunCheck(context.Background(), staff, second) }()
	secondCall := <-gate.calls
	assert.Equal(t, 30, secondCall.start.Minute())

	// The newer check answers first; the older answer arrives afterwards.
	secondCall.reply <- api.AvailabilityResult{Available: true}
	assert.Equal(t, models.VerdictAvailable, <-secondDone)

	firstCall.reply <- api.AvailabilityResult{Available: false}
	<-firstDone

	assert.Equal(t, models.VerdictAvailable, s.Verdict())
	assert.Equal(t, models.StateAvailable, s.State())
}

func TestSession_ModeSwitchDuringCheckDiscardsAnswer(t *testing.T) {
	gate := &gatedAvailability{calls: make(chan gatedCall)}
	s := NewSession("d-1", "room-101", nil, testDeps(gate, &mockSubmitter{}, nil))

	first, err := s.Edit(fillEdit())
	require.NoError(t, err)
	require.NotNil(t, first)

	firstDone := make(chan models.Verdict)
	go func() { firstDone <- s.RunCheck(context.Background(), staff, first) }()
	firstCall := <-gate.calls
	assert.Equal(t, scenarioEnd, firstCall.end)

	multi := models.MultiDay
	second, err := s.Edit(models.DraftEdit{DurationMode: &multi, EndDate: strp("2025-06-12")})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, models.VerdictUnknown, s.Verdict())

	// The single-day answer lands after the switch and must not count.
	firstCall.reply <- api.AvailabilityResult{Available: true}
	<-firstDone
	assert.Equal(t, models.VerdictUnknown, s.Verdict())
	assert.Equal(t, models.StateChecking, s.State())
	assert.False(t, s.View(staff.Role).CanSubmit)

	secondDone := make(chan models.Verdict)
	go func() { secondDone <- s.RunCheck(context.Background(), staff, second) }()
	secondCall := <-gate.calls
	assert.Equal(t, time.Date(2025, 6, 12, 10, 0, 0, 0, time.UTC), secondCall.end)

	secondCall.reply <- api.AvailabilityResult{Available: false}
	assert.Equal(t, models.VerdictUnavailable, <-secondDone)

	view := s.View(staff.Role)
	assert.Equal(t, models.VerdictUnavailable, view.Verdict)
	require.NotNil(t, view.Window)
	assert.Equal(t, models.MultiDay, view.Window.Mode)
	assert.Equal(t, 2, view.Window.SpanDays)
	assert.False(t, view.CanSubmit)
}

func TestSession_EditResetsVerdict(t *testing.T) {
	avail := &mockAvailability{}
	avail.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(api.AvailabilityResult{Available: true}, nil)

	s := NewSession("d-1", "room-101", nil, testDeps(avail, &mockSubmitter{}, nil))
	_, err := s.Check(context.Background(), staff, fillEdit())
	require.NoError(t, err)
	require.Equal(t, models.VerdictAvailable, s.Verdict())

	ticket, err := s.Edit(models.DraftEdit{EndTime: strp("10:30")})
	require.NoError(t, err)
	assert.NotNil(t, ticket)
	assert.Equal(t, models.VerdictUnknown, s.Verdict())
	assert.Equal(t, models.StateChecking, s.State())
	assert.False(t, s.View(staff.Role).CanSubmit)
}

func TestSession_ModeSwitchClearsEndDate(t *testing.T) {
	s := NewSession("d-1", "room-101", nil, testDeps(&mockAvailability{}, &mockSubmitter{}, nil))

	multi := models.MultiDay
	_, err := s.Edit(models.DraftEdit{DurationMode: &multi, EndDate: strp("2025-06-12")})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-12", s.Draft().EndDate)

	single := models.SingleDay
	_, err = s.Edit(models.DraftEdit{DurationMode: &single})
	require.NoError(t, err)
	assert.Empty(t, s.Draft().EndDate)
}

func TestSession_ConflictKeepsFields(t *testing.T) {
	avail := &mockAvailability{}
	sub := &mockSubmitter{}
	avail.On("CheckAvailability", mock.Anything, "tok", "room-101", scenarioStart, scenarioEnd).
		Return(api.AvailabilityResult{Available: true}, nil)
	conflict := models.SubmissionResult{
		Kind:       models.SubmissionConflict,
		Message:    "Time slot conflicts with existing bookings",
		StatusCode: 409,
		ConflictingBookings: []models.ConflictingBooking{
			{UserName: "Alice", StartTime: scenarioStart, EndTime: scenarioEnd},
			{UserName: "Bob", StartTime: scenarioStart.Add(30 * time.Minute), EndTime: scenarioEnd},
		},
	}
	sub.On("CreateBooking", mock.Anything, "tok", mock.Anything).Return(conflict, nil).Once()

	s := NewSession("d-1", "room-101", nil, testDeps(avail, sub, nil))
	_, err := s.Check(context.Background(), staff, fillEdit())
	require.NoError(t, err)
	before := s.Draft()

	result, err := s.Submit(context.Background(), staff)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionConflict, result.Kind)
	require.Len(t, result.ConflictingBookings, 2)
	assert.Equal(t, "Alice", result.ConflictingBookings[0].UserName)
	assert.Equal(t, "Bob", result.ConflictingBookings[1].UserName)

	assert.Equal(t, before, s.Draft())
	assert.Equal(t, models.VerdictUnavailable, s.Verdict())
	assert.Equal(t, models.StateUnavailable, s.State())

	view := s.View(staff.Role)
	assert.False(t, view.CanSubmit)
	require.NotNil(t, view.LastResult)
	assert.Equal(t, models.SubmissionConflict, view.LastResult.Kind)
}

func TestSession_TransportFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.SubmissionKind
	}{
		{"network", &api.Error{Kind: api.KindNetwork, Err: errors.New("connection refused")}, models.SubmissionNetworkFailure},
		{"timeout", &api.Error{Kind: api.KindTimeout, Err: context.DeadlineExceeded}, models.SubmissionServerError},
		{"other", errors.New("boom"), models.SubmissionServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avail := &mockAvailability{}
			sub := &mockSubmitter{}
			avail.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(api.AvailabilityResult{Available: true}, nil)
			sub.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).
				Return(models.SubmissionResult{}, tt.err)

			s := NewSession("d-1", "room-101", nil, testDeps(avail, sub, nil))
			_, err := s.Check(context.Background(), staff, fillEdit())
			require.NoError(t, err)

			result, err := s.Submit(context.Background(), staff)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Kind)
			assert.NotEmpty(t, result.Message)
			assert.Equal(t, models.StateAvailable, s.State())
			assert.Equal(t, "Team sync meeting", s.Draft().Purpose)
		})
	}
}

func TestSession_ValidationRejectedReturnsToEditing(t *testing.T) {
	avail := &mockAvailability{}
	sub := &mockSubmitter{}
	avail.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(api.AvailabilityResult{Available: true}, nil)
	sub.On("CreateBooking", mock.Anything, mock.Anything, mock.Anything).
		Return(models.SubmissionResult{
			Kind:        models.SubmissionValidationRejected,
			Message:     "The given data was invalid.",
			FieldErrors: map[string][]string{"purpose": {"The purpose field is required."}},
		}, nil)

	s := NewSession("d-1", "room-101", nil, testDeps(avail, sub, nil))
	_, err := s.Check(context.Background(), staff, fillEdit())
	require.NoError(t, err)

	result, err := s.Submit(context.Background(), staff)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionValidationRejected, result.Kind)
	assert.Equal(t, models.StateEditing, s.State())
	assert.Equal(t, models.VerdictAvailable, s.Verdict())
}

// blockingSubmitter parks CreateBooking until release is closed.
type blockingSubmitter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSubmitter) CreateBooking(ctx context.Context, token string, p models.BookingPayload) (models.SubmissionResult, error) {
	close(b.entered)
	<-b.release
	return models.SubmissionResult{Kind: models.SubmissionAccepted}, nil
}

func TestSession_SingleSubmissionInFlight(t *testing.T) {
	avail := &mockAvailability{}
	avail.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(api.AvailabilityResult{Available: true}, nil)
	sub := &blockingSubmitter{entered: make(chan struct{}), release: make(chan struct{})}

	s := NewSession("d-1", "room-101", nil, testDeps(avail, sub, nil))
	_, err := s.Check(context.Background(), staff, fillEdit())
	require.NoError(t, err)

	done := make(chan models.SubmissionResult)
	go func() {
		res, _ := s.Submit(context.Background(), staff)
		done <- res
	}()
	<-sub.entered
	assert.Equal(t, models.StateSubmitting, s.State())

	_, err = s.Submit(context.Background(), staff)
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	_, err = s.Edit(models.DraftEdit{EndTime: strp("11:00")})
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.False(t, s.View(staff.Role).CanSubmit)

	close(sub.release)
	assert.True(t, (<-done).Accepted())
}

func TestSession_SubmitRevalidatesWindow(t *testing.T) {
	avail := &mockAvailability{}
	sub := &mockSubmitter{}
	avail.On("CheckAvailability", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(api.AvailabilityResult{Available: true}, nil)

	// Time passes the booked start between the check and the submit.
	deps := testDeps(avail, sub, nil)
	clock := &movingClock{t: testNow}
	deps.Clock = clock
	deps.Validator = NewValidator(DefaultWindowRules(), time.UTC, clock)

	s := NewSession("d-1", "room-101", nil, deps)
	_, err := s.Check(context.Background(), staff, fillEdit())
	require.NoError(t, err)

	clock.set(time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC))
	_, err = s.Submit(context.Background(), staff)
	var blocked *SubmitBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Contains(t, codes(blocked.Blockers), string(StartNotFuture))
	sub.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

type movingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *movingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *movingClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func TestBuildPayload(t *testing.T) {
	d := singleDayDraft()
	p := 1
	d.Priority = &p
	d.SupportingDocument = &models.SupportingDocument{FileName: "a.pdf", Data: []byte("%PDF")}
	w, err := resolve(d)
	require.NoError(t, err)

	admin := BuildPayload(d, w, models.RoleAdmin)
	require.NotNil(t, admin.Priority)
	assert.Equal(t, 1, *admin.Priority)
	assert.NotNil(t, admin.Document)

	student := BuildPayload(d, w, models.RoleStudent)
	assert.Nil(t, student.Priority)

	d.SupportingDocument = &models.SupportingDocument{FileName: "empty.pdf"}
	assert.Nil(t, BuildPayload(d, w, models.RoleStaff).Document)
}
