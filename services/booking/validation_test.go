package booking

import (
	"strings"
	"testing"
	"time"

	"campusbook/models"
	"campusbook/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testValidator() *Validator {
	return NewValidator(DefaultWindowRules(), time.UTC, utils.FixedClock{T: testNow})
}

func codes(problems []models.FieldProblem) []string {
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		out = append(out, p.Code)
	}
	return out
}

func TestValidateFields_Valid(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleStaff, models.RoleStudent} {
		assert.Empty(t, ValidateFields(singleDayDraft(), role), role)
	}
}

func TestValidateFields_Purpose(t *testing.T) {
	d := singleDayDraft()
	d.Purpose = "   short   "
	problems := ValidateFields(d, models.RoleStaff)
	require.Len(t, problems, 1)
	assert.Equal(t, "purpose", problems[0].Field)
	assert.Equal(t, "min", problems[0].Code)

	d.Purpose = strings.Repeat("x", models.MaxPurposeLength+1)
	problems = ValidateFields(d, models.RoleStaff)
	require.Len(t, problems, 1)
	assert.Equal(t, "max", problems[0].Code)

	d.Purpose = ""
	problems = ValidateFields(d, models.RoleStaff)
	require.Len(t, problems, 1)
	assert.Equal(t, "required", problems[0].Code)

	d.Purpose = strings.Repeat("x", models.MinPurposeLength)
	assert.Empty(t, ValidateFields(d, models.RoleStaff))
}

func TestValidateFields_BookingType(t *testing.T) {
	d := singleDayDraft()
	d.BookingType = "party"
	problems := ValidateFields(d, models.RoleStaff)
	require.Len(t, problems, 1)
	assert.Equal(t, "bookingType", problems[0].Field)
	assert.Equal(t, "booking_type", problems[0].Code)

	d.BookingType = ""
	problems = ValidateFields(d, models.RoleStaff)
	require.Len(t, problems, 1)
	assert.Equal(t, "required", problems[0].Code)
}

func TestValidateFields_Priority(t *testing.T) {
	d := singleDayDraft()
	p := 2
	d.Priority = &p

	assert.Empty(t, ValidateFields(d, models.RoleAdmin))

	problems := ValidateFields(d, models.RoleStaff)
	require.Len(t, problems, 1)
	assert.Equal(t, "priority_admin_only", problems[0].Code)

	bad := 5
	d.Priority = &bad
	problems = ValidateFields(d, models.RoleAdmin)
	require.Len(t, problems, 1)
	assert.Equal(t, "priority", problems[0].Field)
	assert.Equal(t, "max", problems[0].Code)
}

func TestValidateFields_StudentDocument(t *testing.T) {
	d := singleDayDraft()
	d.BookingType = models.BookingStudentMeeting

	problems := ValidateFields(d, models.RoleStudent)
	require.Len(t, problems, 1)
	assert.Equal(t, "supportingDocument", problems[0].Field)
	assert.Equal(t, "document_required", problems[0].Code)
	assert.Contains(t, problems[0].Message, "supporting document")

	// Staff may book the same type without a document.
	assert.Empty(t, ValidateFields(d, models.RoleStaff))

	d.BookingType = models.BookingChurchMeeting
	assert.Len(t, ValidateFields(d, models.RoleStudent), 1)

	d.SupportingDocument = &models.SupportingDocument{FileName: "letter.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
	assert.Empty(t, ValidateFields(d, models.RoleStudent))

	d.SupportingDocument = &models.SupportingDocument{FileName: "empty.pdf"}
	assert.Len(t, ValidateFields(d, models.RoleStudent), 1)
}

func TestBlockers(t *testing.T) {
	v := testValidator()
	d := singleDayDraft()

	assert.Empty(t, v.Blockers(d, models.VerdictAvailable, models.RoleStaff))
	assert.True(t, v.CanSubmit(d, models.VerdictAvailable, models.RoleStaff))

	assert.Equal(t, []string{"availability_unknown"}, codes(v.Blockers(d, models.VerdictUnknown, models.RoleStaff)))
	assert.Equal(t, []string{"unavailable"}, codes(v.Blockers(d, models.VerdictUnavailable, models.RoleStaff)))
	assert.False(t, v.CanSubmit(d, models.VerdictUnavailable, models.RoleStaff))

	d.EndTime = "08:30"
	assert.Contains(t, codes(v.Blockers(d, models.VerdictAvailable, models.RoleStaff)), string(EndBeforeOrEqualStart))
}

func TestBlockers_StudentMeetingWithoutDocument(t *testing.T) {
	v := testValidator()
	d := singleDayDraft()
	d.BookingType = models.BookingStudentMeeting

	blockers := v.Blockers(d, models.VerdictAvailable, models.RoleStudent)
	require.Len(t, blockers, 1)
	assert.Equal(t, "supportingDocument", blockers[0].Field)
	assert.False(t, v.CanSubmit(d, models.VerdictAvailable, models.RoleStudent))
}
