package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"campusbook/models"
)

var submissionMessages = map[models.SubmissionKind]string{
	models.SubmissionAccepted:           "Booking request submitted successfully.",
	models.SubmissionValidationRejected: "Please correct the highlighted fields and try again.",
	models.SubmissionConflict:           "The resource is already booked for part of the selected time.",
	models.SubmissionUnauthorized:       "Your session has expired or you are not allowed to book this resource. Please sign in again.",
	models.SubmissionRateLimited:        "Too many booking requests. Please wait a moment and try again.",
	models.SubmissionServerError:        "The booking service is unavailable right now. Please try again later.",
	models.SubmissionNetworkFailure:     "Could not reach the booking service. Check your connection and try again.",
}

// DefaultMessage returns the user-facing message for a submission outcome.
func DefaultMessage(kind models.SubmissionKind) string {
	return submissionMessages[kind]
}

type wireBooking struct {
	ID        string `json:"id"`
	UserName  string `json:"user_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type submissionBody struct {
	Message             string              `json:"message"`
	PreemptedBookings   []wireBooking       `json:"preempted_bookings"`
	ConflictingBookings []wireBooking       `json:"conflicting_bookings"`
	Errors              map[string][]string `json:"errors"`
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

func parseInstant(s string) time.Time {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CreateBooking submits a booking and classifies the backend's answer.
// The returned error is non-nil only when no answer was received.
func (c *Client) CreateBooking(ctx context.Context, token string, p models.BookingPayload) (models.SubmissionResult, error) {
	const op = "create booking"

	var (
		status int
		raw    []byte
		err    error
	)
	if p.Document != nil {
		body, contentType, encErr := encodeMultipart(p)
		if encErr != nil {
			return models.SubmissionResult{}, fmt.Errorf("%s: %w", op, encErr)
		}
		status, raw, err = c.do(ctx, op, http.MethodPost, "/bookings", token, body, contentType)
	} else {
		status, raw, err = c.doJSON(ctx, op, http.MethodPost, "/bookings", token, p)
	}
	if err != nil {
		return models.SubmissionResult{}, err
	}
	return classifySubmission(status, raw), nil
}

func classifySubmission(status int, raw []byte) models.SubmissionResult {
	var body submissionBody
	_ = json.Unmarshal(raw, &body)

	res := models.SubmissionResult{StatusCode: status, Message: body.Message}
	switch {
	case status == http.StatusCreated || status == http.StatusOK:
		res.Kind = models.SubmissionAccepted
		res.PreemptedCount = len(body.PreemptedBookings)
	case status == http.StatusConflict:
		res.Kind = models.SubmissionConflict
		for _, b := range body.ConflictingBookings {
			res.ConflictingBookings = append(res.ConflictingBookings, models.ConflictingBooking{
				UserName:  b.UserName,
				StartTime: parseInstant(b.StartTime),
				EndTime:   parseInstant(b.EndTime),
			})
		}
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		res.Kind = models.SubmissionValidationRejected
		res.FieldErrors = body.Errors
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		res.Kind = models.SubmissionUnauthorized
	case status == http.StatusTooManyRequests:
		res.Kind = models.SubmissionRateLimited
	default:
		res.Kind = models.SubmissionServerError
	}
	if res.Message == "" {
		res.Message = DefaultMessage(res.Kind)
	}
	return res
}

func encodeMultipart(p models.BookingPayload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := [][2]string{
		{"resource_id", p.ResourceID},
		{"start_time", p.StartTime},
		{"end_time", p.EndTime},
		{"purpose", p.Purpose},
		{"booking_type", string(p.BookingType)},
	}
	if p.Priority != nil {
		fields = append(fields, [2]string{"priority", strconv.Itoa(*p.Priority)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="supporting_document"; filename=%q`, p.Document.FileName))
	contentType := p.Document.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(p.Document.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
