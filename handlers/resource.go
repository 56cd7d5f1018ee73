package handlers

import (
	"context"
	"errors"
	"net/http"

	"campusbook/middleware"
	"campusbook/models"
	"campusbook/services/api"
	"campusbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResourceDirectory lists and resolves bookable resources.
type ResourceDirectory interface {
	ResourceLookup
	ListResources(ctx context.Context, token, resourceType string) ([]models.Resource, error)
}

// ResourceHandler exposes resource metadata to the booking screens.
type ResourceHandler struct {
	Resources ResourceDirectory
}

func NewResourceHandler(resources ResourceDirectory) *ResourceHandler {
	return &ResourceHandler{Resources: resources}
}

// ListResources serves the resource picker; ?type= narrows it to one kind.
func (h *ResourceHandler) ListResources(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	list, err := h.Resources.ListResources(c.Request.Context(), auth.AuthToken, c.Query("type"))
	if err != nil {
		getLogger(c).Error("resource listing failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Failed to load resources", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": list})
}

func (h *ResourceHandler) GetResource(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	res, err := h.Resources.GetResource(c.Request.Context(), auth.AuthToken, c.Param("id"))
	if err != nil {
		if errors.Is(err, api.ErrResourceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
			return
		}
		getLogger(c).Error("resource lookup failed", zap.String("resourceID", c.Param("id")), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "Failed to load resource", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": res})
}
