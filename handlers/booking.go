package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"

	"campusbook/middleware"
	"campusbook/models"
	"campusbook/services/api"
	"campusbook/services/booking"
	"campusbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMaxDocumentBytes = 5 << 20

var allowedDocumentTypes = []string{"application/pdf", "image/png", "image/jpeg"}

// ResourceLookup resolves resource metadata for a booking form.
type ResourceLookup interface {
	GetResource(ctx context.Context, token, id string) (*models.Resource, error)
}

// BookingHandler serves the booking form screens. Every screen that books a
// resource goes through the same draft workflow.
type BookingHandler struct {
	Registry         *booking.Registry
	Resources        ResourceLookup
	MaxDocumentBytes int64
}

func NewBookingHandler(reg *booking.Registry, resources ResourceLookup, maxDocumentBytes int64) *BookingHandler {
	if maxDocumentBytes <= 0 {
		maxDocumentBytes = defaultMaxDocumentBytes
	}
	return &BookingHandler{Registry: reg, Resources: resources, MaxDocumentBytes: maxDocumentBytes}
}

func (h *BookingHandler) session(c *gin.Context) (*booking.Session, models.AuthContext, bool) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, auth, false
	}
	s, err := h.Registry.Lookup(c.Param("draftID"), auth.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, auth, false
	}
	return s, auth, true
}

// runCheck issues the availability check for a ticket. Unless the caller asked
// to wait, it runs detached from the request and the screen polls the draft.
func (h *BookingHandler) runCheck(c *gin.Context, s *booking.Session, auth models.AuthContext, t *booking.CheckTicket) {
	if t == nil {
		return
	}
	if c.Query("wait") == "true" {
		s.RunCheck(c.Request.Context(), auth, t)
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	go s.RunCheck(ctx, auth, t)
}

func (h *BookingHandler) editError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrSubmitInFlight), errors.Is(err, booking.ErrDraftFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		getLogger(c).Error("draft update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update draft"})
	}
}

// OpenDraft mounts an empty booking form for a resource.
func (h *BookingHandler) OpenDraft(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	var input struct {
		ResourceID string `json:"resource_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	var resource *models.Resource
	if h.Resources != nil {
		res, err := h.Resources.GetResource(c.Request.Context(), auth.AuthToken, input.ResourceID)
		switch {
		case errors.Is(err, api.ErrResourceNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		case err != nil:
			// The form still works without metadata; availability is checked by id.
			getLogger(c).Warn("resource lookup failed", zap.String("resourceID", input.ResourceID), zap.Error(err))
		default:
			resource = res
		}
	}

	s, err := h.Registry.Open(auth, input.ResourceID, resource)
	if err != nil {
		if errors.Is(err, booking.ErrTooManyDrafts) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		getLogger(c).Error("could not open draft", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open draft"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"draft": s.View(auth.Role)})
}

// GetDraft returns the current form state.
func (h *BookingHandler) GetDraft(c *gin.Context) {
	s, auth, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": s.View(auth.Role)})
}

// EditDraft applies field edits and starts an availability check when the window is valid.
func (h *BookingHandler) EditDraft(c *gin.Context) {
	s, auth, ok := h.session(c)
	if !ok {
		return
	}
	var edit models.DraftEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	ticket, err := s.Edit(edit)
	if err != nil {
		h.editError(c, err)
		return
	}
	h.runCheck(c, s, auth, ticket)
	c.JSON(http.StatusOK, gin.H{"draft": s.View(auth.Role)})
}

// RecheckDraft retries the availability check for the unchanged draft.
func (h *BookingHandler) RecheckDraft(c *gin.Context) {
	s, auth, ok := h.session(c)
	if !ok {
		return
	}
	ticket, err := s.Recheck()
	if err != nil {
		h.editError(c, err)
		return
	}
	h.runCheck(c, s, auth, ticket)
	c.JSON(http.StatusOK, gin.H{"draft": s.View(auth.Role)})
}

// AttachDocument stores the supporting document sent as multipart field "document".
func (h *BookingHandler) AttachDocument(c *gin.Context) {
	s, auth, ok := h.session(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document file is required", "details": err.Error()})
		return
	}
	if fh.Size > h.MaxDocumentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document is too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read document", "details": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.MaxDocumentBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read document", "details": err.Error()})
		return
	}
	if int64(len(data)) > h.MaxDocumentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document is too large"})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document is empty"})
		return
	}
	contentType := http.DetectContentType(data)
	if !slices.Contains(allowedDocumentTypes, contentType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "document must be a PDF, PNG or JPEG file"})
		return
	}

	ticket, err := s.AttachDocument(&models.SupportingDocument{
		FileName:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.editError(c, err)
		return
	}
	h.runCheck(c, s, auth, ticket)
	c.JSON(http.StatusOK, gin.H{"draft": s.View(auth.Role)})
}

// RemoveDocument clears the supporting document.
func (h *BookingHandler) RemoveDocument(c *gin.Context) {
	s, auth, ok := h.session(c)
	if !ok {
		return
	}
	ticket, err := s.RemoveDocument()
	if err != nil {
		h.editError(c, err)
		return
	}
	h.runCheck(c, s, auth, ticket)
	c.JSON(http.StatusOK, gin.H{"draft": s.View(auth.Role)})
}

var submissionStatus = map[models.SubmissionKind]int{
	models.SubmissionAccepted:           http.StatusCreated,
	models.SubmissionValidationRejected: http.StatusUnprocessableEntity,
	models.SubmissionConflict:           http.StatusConflict,
	models.SubmissionUnauthorized:       http.StatusUnauthorized,
	models.SubmissionRateLimited:        http.StatusTooManyRequests,
	models.SubmissionServerError:        http.StatusBadGateway,
	models.SubmissionNetworkFailure:     http.StatusServiceUnavailable,
}

// SubmitDraft submits the booking. An accepted draft is replaced by a fresh one.
func (h *BookingHandler) SubmitDraft(c *gin.Context) {
	s, auth, ok := h.session(c)
	if !ok {
		return
	}

	// A client hanging up must not turn an answered submission into a network failure.
	result, err := s.Submit(context.WithoutCancel(c.Request.Context()), auth)
	if err != nil {
		var blocked *booking.SubmitBlockedError
		switch {
		case errors.As(err, &blocked):
			fields := make(map[string][]string)
			for _, b := range blocked.Blockers {
				fields[b.Field] = append(fields[b.Field], b.Message)
			}
			utils.JSONFieldErrors(c, http.StatusUnprocessableEntity, "Booking is not ready to submit", fields)
		default:
			h.editError(c, err)
		}
		return
	}

	status := submissionStatus[result.Kind]
	if status == 0 {
		status = http.StatusBadGateway
	}
	if result.Accepted() {
		next, err := h.Registry.Renew(s.ID)
		if err != nil {
			c.JSON(status, gin.H{"result": result})
			return
		}
		c.JSON(status, gin.H{"result": result, "next": next.View(auth.Role)})
		return
	}
	c.JSON(status, gin.H{"result": result, "draft": s.View(auth.Role)})
}

// DiscardDraft drops the draft when the user leaves the form.
func (h *BookingHandler) DiscardDraft(c *gin.Context) {
	s, _, ok := h.session(c)
	if !ok {
		return
	}
	h.Registry.Discard(s.ID)
	c.Status(http.StatusNoContent)
}
