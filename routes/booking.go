package routes

import (
	"campusbook/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking form endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	booking := r.Group("/api/booking")
	{
		booking.Use(hb.Auth)
		booking.POST("/drafts", hb.OpenDraft)
		booking.GET("/drafts/:draftID", hb.GetDraft)
		booking.PATCH("/drafts/:draftID", hb.EditDraft)
		booking.POST("/drafts/:draftID/check", hb.RecheckDraft)
		booking.PUT("/drafts/:draftID/document", hb.AttachDocument)
		booking.DELETE("/drafts/:draftID/document", hb.RemoveDocument)
		booking.POST("/drafts/:draftID/submit", hb.SubmitDraft)
		booking.DELETE("/drafts/:draftID", hb.DiscardDraft)
	}
}
