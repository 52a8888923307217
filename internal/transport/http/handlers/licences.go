package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
	"github.com/davyreactiv/ufsc-licence-service/internal/repository"
	"github.com/davyreactiv/ufsc-licence-service/internal/transport/http/middleware"
	"github.com/davyreactiv/ufsc-licence-service/internal/usecase"
)

// LicenceHandler exposes the licence store's REST surface.
type LicenceHandler struct {
	licences *usecase.LicenceService
}

// NewLicenceHandler constructs a licence handler.
func NewLicenceHandler(licences *usecase.LicenceService) *LicenceHandler {
	return &LicenceHandler{licences: licences}
}

// RegisterRoutes binds licence routes to the provided router group.
func (h *LicenceHandler) RegisterRoutes(r *gin.RouterGroup) {
	if r == nil {
		return
	}

	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
	r.PUT("/:id/status", h.UpdateStatus)
	r.GET("/:id/history", h.History)
	r.POST("/duplicates", h.CheckDuplicate)
}

// Create handles POST /api/v1/licences.
func (h *LicenceHandler) Create(c *gin.Context) {
	var req LicenceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "club_id, nom, prenom, and date_naissance are required"))
		return
	}

	licence, err := h.licences.Create(c.Request.Context(), usecase.CreateLicenceInput{
		ClubID:        req.ClubID,
		Nom:           req.Nom,
		Prenom:        req.Prenom,
		DateNaissance: req.DateNaissance,
		Email:         req.Email,
		Categorie:     req.Categorie,
		Statut:        domain.LicenceStatus(req.Statut),
		IsIncluded:    req.IsIncluded,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrDuplicateLicence):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "an active licence already exists for this person in this club"))
		case errors.Is(err, usecase.ErrQuotaExceeded):
			c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(c, "club included quota exhausted"))
		case errors.Is(err, usecase.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown licence status"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create licence"))
		}
		return
	}

	c.JSON(http.StatusCreated, newLicencePayload(*licence))
}

// Get handles GET /api/v1/licences/:id.
func (h *LicenceHandler) Get(c *gin.Context) {
	id, ok := licenceID(c)
	if !ok {
		return
	}

	licence, err := h.licences.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrLicenceNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "licence not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load licence"))
		return
	}

	c.JSON(http.StatusOK, newLicencePayload(*licence))
}

// List handles GET /api/v1/licences?club_id=&search=.
func (h *LicenceHandler) List(c *gin.Context) {
	clubID, err := strconv.ParseInt(c.Query("club_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "club_id query parameter is required"))
		return
	}

	licences, err := h.licences.List(c.Request.Context(), port.LicenceFilter{
		ClubID: clubID,
		Search: c.Query("search"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list licences"))
		return
	}

	payloads := make([]LicencePayload, 0, len(licences))
	for _, licence := range licences {
		payloads = append(payloads, newLicencePayload(licence))
	}

	c.JSON(http.StatusOK, payloads)
}

// Update handles PUT /api/v1/licences/:id.
func (h *LicenceHandler) Update(c *gin.Context) {
	id, ok := licenceID(c)
	if !ok {
		return
	}

	var req LicenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "nom, prenom, and date_naissance are required"))
		return
	}

	licence, err := h.licences.Update(c.Request.Context(), id, usecase.UpdateLicenceInput{
		Nom:           req.Nom,
		Prenom:        req.Prenom,
		DateNaissance: req.DateNaissance,
		Email:         req.Email,
		Categorie:     req.Categorie,
		IsIncluded:    req.IsIncluded,
	})
	if err != nil {
		respondWriteError(c, err, "failed to update licence")
		return
	}

	c.JSON(http.StatusOK, newLicencePayload(*licence))
}

// UpdateStatus handles PUT /api/v1/licences/:id/status.
func (h *LicenceHandler) UpdateStatus(c *gin.Context) {
	id, ok := licenceID(c)
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "statut is required"))
		return
	}

	actor := middleware.GetActor(c)

	licence, err := h.licences.UpdateStatus(c.Request.Context(), id, domain.LicenceStatus(req.Statut), req.Reason, actor)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrActorRequired):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "X-Actor header is required"))
		case errors.Is(err, usecase.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown licence status"))
		case errors.Is(err, usecase.ErrInvalidTransition):
			c.JSON(http.StatusUnprocessableEntity, NewErrorResponse(c, "illegal status transition"))
		default:
			respondWriteError(c, err, "failed to update licence status")
		}
		return
	}

	c.JSON(http.StatusOK, newLicencePayload(*licence))
}

// Delete handles DELETE /api/v1/licences/:id.
func (h *LicenceHandler) Delete(c *gin.Context) {
	id, ok := licenceID(c)
	if !ok {
		return
	}

	if err := h.licences.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, usecase.ErrLicenceNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "licence not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to delete licence"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "licence deleted"})
}

// History handles GET /api/v1/licences/:id/history.
func (h *LicenceHandler) History(c *gin.Context) {
	id, ok := licenceID(c)
	if !ok {
		return
	}

	entries, err := h.licences.History(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrLicenceNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "licence not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load history"))
		return
	}

	payloads := make([]TransitionPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, newTransitionPayload(entry))
	}

	c.JSON(http.StatusOK, payloads)
}

// CheckDuplicate handles POST /api/v1/licences/duplicates. Advisory:
// callers decide whether a match blocks creation.
func (h *LicenceHandler) CheckDuplicate(c *gin.Context) {
	var req struct {
		ClubID        int64  `json:"club_id" binding:"required"`
		Nom           string `json:"nom" binding:"required"`
		Prenom        string `json:"prenom" binding:"required"`
		DateNaissance string `json:"date_naissance" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "club_id, nom, prenom, and date_naissance are required"))
		return
	}

	id, found, err := h.licences.FindDuplicate(c.Request.Context(), domain.DuplicateCandidate{
		ClubID:        req.ClubID,
		Nom:           req.Nom,
		Prenom:        req.Prenom,
		DateNaissance: req.DateNaissance,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to check duplicates"))
		return
	}

	c.JSON(http.StatusOK, DuplicateResponse{Duplicate: found, ExistingID: id})
}

func licenceID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "licence id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// respondWriteError maps the shared write-path outcomes. A version
// conflict is an ordinary, retryable outcome and maps to 409 so
// callers can re-read and reapply.
func respondWriteError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrLicenceNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "licence not found"))
	case errors.Is(err, repository.ErrVersionConflict):
		c.JSON(http.StatusConflict, NewErrorResponse(c, "licence was modified concurrently, reload and retry"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallback))
	}
}
