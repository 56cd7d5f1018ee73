// File: campusbook/handlers/bundle.go
package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Resource endpoints
	ListResourcesHandler gin.HandlerFunc
	GetResourceHandler   gin.HandlerFunc

	// Booking draft endpoints
	OpenDraft      gin.HandlerFunc
	GetDraft       gin.HandlerFunc
	EditDraft      gin.HandlerFunc
	RecheckDraft   gin.HandlerFunc
	AttachDocument gin.HandlerFunc
	RemoveDocument gin.HandlerFunc
	SubmitDraft    gin.HandlerFunc
	DiscardDraft   gin.HandlerFunc

	// Middleware applied to every /api route.
	Auth gin.HandlerFunc
}
