package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davyreactiv/ufsc-licence-service/internal/usecase"
)

// ClubHandler exposes the club quota lookup.
type ClubHandler struct {
	licences *usecase.LicenceService
}

// NewClubHandler constructs a club handler.
func NewClubHandler(licences *usecase.LicenceService) *ClubHandler {
	return &ClubHandler{licences: licences}
}

// RegisterRoutes binds club routes to the provided router group.
func (h *ClubHandler) RegisterRoutes(r *gin.RouterGroup) {
	if r == nil {
		return
	}

	r.GET("/:id/quota", h.Quota)
}

// Quota handles GET /api/v1/clubs/:id/quota. Advisory only: a race
// can under- or over-admit by at most one licence.
func (h *ClubHandler) Quota(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "club id must be a positive integer"))
		return
	}

	remaining, err := h.licences.HasRemainingIncludedQuota(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to check quota"))
		return
	}

	c.JSON(http.StatusOK, QuotaResponse{ClubID: id, HasRemaining: remaining})
}
