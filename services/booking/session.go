package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campusbook/models"
	"campusbook/services/api"

	"go.uber.org/zap"
)

// CheckTicket identifies one availability check. Only the ticket carrying the
// latest sequence number may change the session's verdict.
type CheckTicket struct {
	Seq        uint64
	ResourceID string
	Window     models.ResolvedWindow
}

// Session is the booking form state machine for one draft:
// Editing -> Checking -> Available|Unavailable -> Submitting -> Accepted.
type Session struct {
	ID        string
	Owner     string
	OwnerRole models.Role
	deps      Deps

	mu           sync.Mutex
	draft        models.Draft
	resource     *models.Resource
	state        models.WorkflowState
	verdict      models.Verdict
	window       *models.ResolvedWindow
	windowErr    *WindowError
	checkMessage string
	seq          uint64
	lastResult   *models.SubmissionResult
	updatedAt    time.Time
}

// NewSession mounts an empty draft for the resource.
func NewSession(id string, resourceID string, resource *models.Resource, deps Deps) *Session {
	deps = deps.withDefaults()
	return &Session{
		ID:        id,
		deps:      deps,
		draft:     models.NewDraft(resourceID),
		resource:  resource,
		state:     models.StateEditing,
		verdict:   models.VerdictUnknown,
		updatedAt: deps.Clock.Now(),
	}
}

func (s *Session) editableLocked() error {
	switch s.state {
	case models.StateSubmitting:
		return ErrSubmitInFlight
	case models.StateAccepted:
		return ErrDraftFinalized
	}
	return nil
}

// invalidateLocked drops the current verdict and re-resolves the window. It
// returns a ticket when the window is locally valid and a check should be issued.
func (s *Session) invalidateLocked() *CheckTicket {
	s.seq++
	s.verdict = models.VerdictUnknown
	s.state = models.StateEditing
	s.checkMessage = ""
	s.window = nil
	s.windowErr = nil
	s.updatedAt = s.deps.Clock.Now()

	w, err := s.deps.Validator.Resolve(s.draft)
	if err != nil {
		if we, ok := AsWindowError(err); ok {
			s.windowErr = we
		}
		return nil
	}
	s.window = &w
	s.state = models.StateChecking
	return &CheckTicket{Seq: s.seq, ResourceID: s.draft.ResourceID, Window: w}
}

// Edit applies a field change. Every change resets the verdict to unknown; a
// ticket is returned when the new window is locally valid.
func (s *Session) Edit(edit models.DraftEdit) (*CheckTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return nil, err
	}

	prevMode := s.draft.DurationMode
	edit.Apply(&s.draft)
	if prevMode == models.MultiDay && s.draft.DurationMode == models.SingleDay && edit.EndDate == nil {
		s.draft.EndDate = ""
	}
	return s.invalidateLocked(), nil
}

// AttachDocument sets the supporting document. It counts as a field change.
func (s *Session) AttachDocument(doc *models.SupportingDocument) (*CheckTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return nil, err
	}
	s.draft.SupportingDocument = doc
	return s.invalidateLocked(), nil
}

// RemoveDocument clears the supporting document.
func (s *Session) RemoveDocument() (*CheckTicket, error) {
	return s.AttachDocument(nil)
}

// Recheck issues a fresh ticket for the unchanged draft, e.g. after a failed check.
func (s *Session) Recheck() (*CheckTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(); err != nil {
		return nil, err
	}
	return s.invalidateLocked(), nil
}

// RunCheck calls the availability service for the ticket's window and applies
// the answer only if no newer ticket was issued meanwhile. A failed call leaves
// the verdict unknown; it is never reported as available.
func (s *Session) RunCheck(ctx context.Context, auth models.AuthContext, t *CheckTicket) models.Verdict {
	if t == nil {
		return s.Verdict()
	}
	res, err := s.deps.Availability.CheckAvailability(ctx, auth.AuthToken, t.ResourceID, t.Window.Start, t.Window.End)

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Seq != s.seq {
		s.deps.Logger.Debug("discarding stale availability answer",
			zap.String("draftID", s.ID), zap.Uint64("ticket", t.Seq), zap.Uint64("latest", s.seq))
		return s.verdict
	}

	s.updatedAt = s.deps.Clock.Now()
	if err != nil {
		s.verdict = models.VerdictUnknown
		s.state = models.StateEditing
		s.checkMessage = availabilityErrorMessage(err)
		s.deps.Logger.Warn("availability check failed",
			zap.String("draftID", s.ID), zap.String("resourceID", t.ResourceID), zap.Error(err))
		return s.verdict
	}

	if res.Available {
		s.verdict = models.VerdictAvailable
		s.state = models.StateAvailable
		s.checkMessage = res.Message
	} else {
		s.verdict = models.VerdictUnavailable
		s.state = models.StateUnavailable
		s.checkMessage = res.Message
		if s.checkMessage == "" {
			s.checkMessage = "The resource is not available for the selected time."
		}
	}
	return s.verdict
}

// Check applies an edit and waits for the resulting availability check, if any.
func (s *Session) Check(ctx context.Context, auth models.AuthContext, edit models.DraftEdit) (models.Verdict, error) {
	t, err := s.Edit(edit)
	if err != nil {
		return models.VerdictUnknown, err
	}
	return s.RunCheck(ctx, auth, t), nil
}

func availabilityErrorMessage(err error) string {
	switch {
	case api.IsTimeout(err):
		return "Could not verify availability: the booking service did not respond in time."
	case api.IsNetwork(err):
		return "Could not verify availability: the booking service is unreachable."
	default:
		return "Could not verify availability. Please try again."
	}
}

// Submit re-validates the draft synchronously, sends it to the submission
// service and moves the state machine according to the answer. Field values are
// kept on every outcome. Only one submission per draft may be in flight.
func (s *Session) Submit(ctx context.Context, auth models.AuthContext) (models.SubmissionResult, error) {
	s.mu.Lock()
	if err := s.editableLocked(); err != nil {
		s.mu.Unlock()
		return models.SubmissionResult{}, err
	}

	blockers := s.deps.Validator.Blockers(s.draft, s.verdict, auth.Role)
	window, werr := s.deps.Validator.Resolve(s.draft)
	if werr == nil && (s.window == nil || !window.Equal(*s.window)) {
		blockers = append(blockers, models.FieldProblem{
			Field:   "availability",
			Code:    "availability_stale",
			Message: "Availability was confirmed for a different time. Please check again.",
		})
	}
	if len(blockers) > 0 {
		s.mu.Unlock()
		return models.SubmissionResult{}, &SubmitBlockedError{Blockers: blockers}
	}

	payload := BuildPayload(s.draft, window, auth.Role)
	draft := s.draft
	resource := s.resource
	s.state = models.StateSubmitting
	s.updatedAt = s.deps.Clock.Now()
	s.mu.Unlock()

	result, err := s.deps.Submitter.CreateBooking(ctx, auth.AuthToken, payload)
	if err != nil {
		result = failureResult(err)
		s.deps.Logger.Warn("booking submission failed",
			zap.String("draftID", s.ID), zap.String("kind", string(result.Kind)), zap.Error(err))
	}

	s.mu.Lock()
	s.applyResultLocked(result)
	s.mu.Unlock()

	if result.Accepted() {
		s.deps.Logger.Info("booking submitted",
			zap.String("draftID", s.ID),
			zap.String("resourceID", draft.ResourceID),
			zap.Int("preempted", result.PreemptedCount))
		if s.deps.Notifier != nil {
			s.deps.Notifier.NotifyBookingAccepted(context.WithoutCancel(ctx), acceptedNotification(auth, draft, window, resource))
		}
	}
	return result, nil
}

func (s *Session) applyResultLocked(result models.SubmissionResult) {
	r := result
	s.lastResult = &r
	s.updatedAt = s.deps.Clock.Now()

	switch result.Kind {
	case models.SubmissionAccepted:
		s.state = models.StateAccepted
	case models.SubmissionConflict:
		s.verdict = models.VerdictUnavailable
		s.state = models.StateUnavailable
		s.checkMessage = result.Message
	case models.SubmissionValidationRejected:
		s.state = models.StateEditing
	default:
		s.state = stateForVerdict(s.verdict)
	}
}

func stateForVerdict(v models.Verdict) models.WorkflowState {
	switch v {
	case models.VerdictAvailable:
		return models.StateAvailable
	case models.VerdictUnavailable:
		return models.StateUnavailable
	}
	return models.StateEditing
}

func failureResult(err error) models.SubmissionResult {
	switch {
	case api.IsTimeout(err):
		return models.SubmissionResult{
			Kind:    models.SubmissionServerError,
			Message: "The booking service did not respond in time. Your booking may not have been created; please check before retrying.",
		}
	case api.IsNetwork(err):
		return models.SubmissionResult{
			Kind:    models.SubmissionNetworkFailure,
			Message: api.DefaultMessage(models.SubmissionNetworkFailure),
		}
	}
	return models.SubmissionResult{
		Kind:    models.SubmissionServerError,
		Message: api.DefaultMessage(models.SubmissionServerError),
	}
}

// BuildPayload renders the draft as a submission request. Priority is only sent for admins.
func BuildPayload(d models.Draft, w models.ResolvedWindow, role models.Role) models.BookingPayload {
	p := models.BookingPayload{
		ResourceID:  d.ResourceID,
		StartTime:   api.FormatInstant(w.Start),
		EndTime:     api.FormatInstant(w.End),
		Purpose:     d.Purpose,
		BookingType: d.BookingType,
	}
	if role == models.RoleAdmin && d.Priority != nil {
		prio := *d.Priority
		p.Priority = &prio
	}
	if d.SupportingDocument.Size() > 0 {
		p.Document = d.SupportingDocument
	}
	return p
}

func acceptedNotification(auth models.AuthContext, d models.Draft, w models.ResolvedWindow, res *models.Resource) models.BookingNotification {
	name := d.ResourceID
	if res != nil && res.Name != "" {
		name = res.Name
	}
	return models.BookingNotification{
		UserID:      auth.UserID,
		ResourceID:  d.ResourceID,
		Type:        models.NotificationBookingRequested,
		Title:       "Booking request submitted",
		Body:        fmt.Sprintf("Your booking of %s from %s to %s was submitted.", name, w.Start.Format("Mon 2 Jan 15:04"), w.End.Format("Mon 2 Jan 15:04")),
		BookingType: d.BookingType,
		StartTime:   w.Start,
		EndTime:     w.End,
		AuthToken:   auth.AuthToken,
	}
}

// View renders the session for the booking screen.
func (s *Session) View(role models.Role) models.DraftView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := models.DraftView{
		DraftID:      s.ID,
		Draft:        s.draft,
		Resource:     s.resource,
		State:        s.state,
		Verdict:      s.verdict,
		CheckMessage: s.checkMessage,
		LastResult:   s.lastResult,
		UpdatedAt:    s.updatedAt,
	}
	if s.window != nil {
		w := *s.window
		v.Window = &w
	}
	if s.windowErr != nil {
		p := s.windowErr.Problem()
		v.WindowError = &p
	}
	if s.state != models.StateSubmitting && s.state != models.StateAccepted {
		v.Blockers = s.deps.Validator.Blockers(s.draft, s.verdict, role)
		v.CanSubmit = len(v.Blockers) == 0
	}
	return v
}

func (s *Session) State() models.WorkflowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Verdict() models.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verdict
}

func (s *Session) Draft() models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) ResourceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.ResourceID
}

func (s *Session) Resource() *models.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resource
}

// LastTouched is the time of the most recent change to the session.
func (s *Session) LastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}
