package models

// DurationMode selects how the end of a booking window is entered.
type DurationMode string

const (
	SingleDay DurationMode = "single_day"
	MultiDay  DurationMode = "multi_day"
)

// BookingType is the category a booking is requested under.
type BookingType string

const (
	BookingAcademic       BookingType = "academic"
	BookingAdministrative BookingType = "administrative"
	BookingEvent          BookingType = "event"
	BookingSports         BookingType = "sports"
	BookingStudentMeeting BookingType = "student_meeting"
	BookingChurchMeeting  BookingType = "church_meeting"
	BookingOther          BookingType = "other"
)

// BookingTypes lists every accepted booking type in display order.
var BookingTypes = []BookingType{
	BookingAcademic,
	BookingAdministrative,
	BookingEvent,
	BookingSports,
	BookingStudentMeeting,
	BookingChurchMeeting,
	BookingOther,
}

// RequiresDocument reports whether students must attach a supporting document for this type.
func (t BookingType) RequiresDocument() bool {
	return t == BookingStudentMeeting || t == BookingChurchMeeting
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleStudent Role = "student"
)

// Priority bounds, settable by admins only.
const (
	MinPriority = 1
	MaxPriority = 4
)

// Purpose length bounds.
const (
	MinPurposeLength = 10
	MaxPurposeLength = 500
)

// SupportingDocument is an attachment forwarded to the backend with the booking.
type SupportingDocument struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Size returns the attachment size in bytes.
func (d *SupportingDocument) Size() int {
	if d == nil {
		return 0
	}
	return len(d.Data)
}

// Draft is the mutable booking form state owned by a single form session.
type Draft struct {
	ResourceID   string       `json:"resourceId"`
	DurationMode DurationMode `json:"durationMode"`
	StartDate    string       `json:"startDate"`         // "YYYY-MM-DD"
	StartTime    string       `json:"startTime"`         // "HH:MM"
	EndDate      string       `json:"endDate,omitempty"` // multi-day only
	EndTime      string       `json:"endTime"`           // "HH:MM"
	Purpose      string       `json:"purpose" validate:"required,min=10,max=500"`
	BookingType  BookingType  `json:"bookingType" validate:"required,booking_type"`
	Priority     *int         `json:"priority,omitempty" validate:"omitempty,min=1,max=4"`

	SupportingDocument *SupportingDocument `json:"supportingDocument,omitempty"`
}

// NewDraft returns the empty draft created when a booking form mounts.
func NewDraft(resourceID string) Draft {
	return Draft{
		ResourceID:   resourceID,
		DurationMode: SingleDay,
	}
}

// DraftEdit carries a partial update from the form; nil fields are left untouched.
type DraftEdit struct {
	DurationMode  *DurationMode `json:"durationMode,omitempty"`
	StartDate     *string       `json:"startDate,omitempty"`
	StartTime     *string       `json:"startTime,omitempty"`
	EndDate       *string       `json:"endDate,omitempty"`
	EndTime       *string       `json:"endTime,omitempty"`
	Purpose       *string       `json:"purpose,omitempty"`
	BookingType   *BookingType  `json:"bookingType,omitempty"`
	Priority      *int          `json:"priority,omitempty"`
	ClearPriority bool          `json:"clearPriority,omitempty"`
}

// Apply copies every set field of the edit onto the draft.
func (e DraftEdit) Apply(d *Draft) {
	if e.DurationMode != nil {
		d.DurationMode = *e.DurationMode
	}
	if e.StartDate != nil {
		d.StartDate = *e.StartDate
	}
	if e.StartTime != nil {
		d.StartTime = *e.StartTime
	}
	if e.EndDate != nil {
		d.EndDate = *e.EndDate
	}
	if e.EndTime != nil {
		d.EndTime = *e.EndTime
	}
	if e.Purpose != nil {
		d.Purpose = *e.Purpose
	}
	if e.BookingType != nil {
		d.BookingType = *e.BookingType
	}
	if e.Priority != nil {
		p := *e.Priority
		d.Priority = &p
	}
	if e.ClearPriority {
		d.Priority = nil
	}
}

// AuthContext is the caller identity passed explicitly into the workflow.
type AuthContext struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role"`
	AuthToken string `json:"-"`
}
