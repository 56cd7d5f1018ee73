package booking

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"campusbook/models"
	"campusbook/utils"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func draftValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("booking_type", func(fl validator.FieldLevel) bool {
			return slices.Contains(models.BookingTypes, models.BookingType(fl.Field().String()))
		})
	})
	return validate
}

var fieldNames = map[string]string{
	"Purpose":     "purpose",
	"BookingType": "bookingType",
	"Priority":    "priority",
}

// Validator applies the window rules and static field checks of a booking draft.
type Validator struct {
	Rules    WindowRules
	Location *time.Location
	Clock    utils.Clock
}

func NewValidator(rules WindowRules, loc *time.Location, clock utils.Clock) *Validator {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Validator{Rules: rules, Location: loc, Clock: clock}
}

// Resolve resolves the draft's window against the current time.
func (v *Validator) Resolve(d models.Draft) (models.ResolvedWindow, error) {
	return ResolveWindow(d, v.Clock.Now(), v.Location, v.Rules)
}

// ValidateFields runs the static checks on everything but the window.
func ValidateFields(d models.Draft, role models.Role) []models.FieldProblem {
	var problems []models.FieldProblem

	checked := d
	checked.Purpose = strings.TrimSpace(d.Purpose)
	if err := draftValidator().Struct(checked); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				problems = append(problems, fieldProblem(fe))
			}
		} else {
			problems = append(problems, models.FieldProblem{Field: "draft", Code: "invalid", Message: err.Error()})
		}
	}

	if d.Priority != nil && role != models.RoleAdmin {
		problems = append(problems, models.FieldProblem{
			Field:   "priority",
			Code:    "priority_admin_only",
			Message: "Only administrators can set a booking priority.",
		})
	}

	if role == models.RoleStudent && d.BookingType.RequiresDocument() && d.SupportingDocument.Size() == 0 {
		problems = append(problems, models.FieldProblem{
			Field:   "supportingDocument",
			Code:    "document_required",
			Message: fmt.Sprintf("A supporting document is required for %s bookings.", strings.ReplaceAll(string(d.BookingType), "_", " ")),
		})
	}
	return problems
}

func fieldProblem(fe validator.FieldError) models.FieldProblem {
	field := fieldNames[fe.StructField()]
	if field == "" {
		field = fe.Field()
	}
	p := models.FieldProblem{Field: field, Code: fe.Tag()}
	switch field {
	case "purpose":
		p.Message = fmt.Sprintf("Purpose must be between %d and %d characters.", models.MinPurposeLength, models.MaxPurposeLength)
	case "bookingType":
		p.Message = "Select a valid booking type."
	case "priority":
		p.Message = fmt.Sprintf("Priority must be between %d and %d.", models.MinPriority, models.MaxPriority)
	default:
		p.Message = fmt.Sprintf("%s is invalid (%s).", field, fe.Tag())
	}
	return p
}

// Blockers lists everything that prevents submission of the draft under the given verdict.
func (v *Validator) Blockers(d models.Draft, verdict models.Verdict, role models.Role) []models.FieldProblem {
	var blockers []models.FieldProblem
	if _, err := v.Resolve(d); err != nil {
		if we, ok := AsWindowError(err); ok {
			blockers = append(blockers, we.Problem())
		} else {
			blockers = append(blockers, models.FieldProblem{Field: "window", Code: "invalid", Message: err.Error()})
		}
	}
	blockers = append(blockers, ValidateFields(d, role)...)

	switch verdict {
	case models.VerdictAvailable:
	case models.VerdictUnavailable:
		blockers = append(blockers, models.FieldProblem{
			Field:   "availability",
			Code:    "unavailable",
			Message: "The resource is not available for the selected time.",
		})
	default:
		blockers = append(blockers, models.FieldProblem{
			Field:   "availability",
			Code:    "availability_unknown",
			Message: "Availability has not been confirmed for the selected time.",
		})
	}
	return blockers
}

// CanSubmit is true when the draft is locally valid, confirmed available and complete for the role.
func (v *Validator) CanSubmit(d models.Draft, verdict models.Verdict, role models.Role) bool {
	return len(v.Blockers(d, verdict, role)) == 0
}
