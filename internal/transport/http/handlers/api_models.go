package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LicenceCreateRequest defines the payload for licence creation.
type LicenceCreateRequest struct {
	ClubID        int64   `json:"club_id" binding:"required"`
	Nom           string  `json:"nom" binding:"required"`
	Prenom        string  `json:"prenom" binding:"required"`
	DateNaissance string  `json:"date_naissance" binding:"required"`
	Email         string  `json:"email"`
	Categorie     *string `json:"categorie,omitempty"`
	Statut        string  `json:"statut"`
	IsIncluded    bool    `json:"is_included"`
}

// LicenceUpdateRequest defines the payload for a field update. Status
// changes are not accepted here; they go through the status endpoint.
type LicenceUpdateRequest struct {
	Nom           string  `json:"nom" binding:"required"`
	Prenom        string  `json:"prenom" binding:"required"`
	DateNaissance string  `json:"date_naissance" binding:"required"`
	Email         string  `json:"email"`
	Categorie     *string `json:"categorie,omitempty"`
	IsIncluded    bool    `json:"is_included"`
}

// StatusUpdateRequest defines the payload for a status transition.
type StatusUpdateRequest struct {
	Statut string `json:"statut" binding:"required"`
	Reason string `json:"reason"`
}

// LicencePayload is the API view of a licence record.
type LicencePayload struct {
	ID            int64     `json:"id"`
	ClubID        int64     `json:"club_id"`
	ClubName      string    `json:"club_name,omitempty"`
	Nom           string    `json:"nom"`
	Prenom        string    `json:"prenom"`
	DateNaissance string    `json:"date_naissance"`
	Email         string    `json:"email,omitempty"`
	Categorie     *string   `json:"categorie,omitempty"`
	Statut        string    `json:"statut"`
	IsIncluded    bool      `json:"is_included"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newLicencePayload(licence domain.Licence) LicencePayload {
	return LicencePayload{
		ID:            licence.ID,
		ClubID:        licence.ClubID,
		ClubName:      licence.ClubName,
		Nom:           licence.Nom,
		Prenom:        licence.Prenom,
		DateNaissance: licence.DateNaissance,
		Email:         licence.Email,
		Categorie:     licence.Categorie,
		Statut:        string(licence.Statut),
		IsIncluded:    licence.IsIncluded,
		Version:       licence.Version,
		CreatedAt:     licence.CreatedAt,
		UpdatedAt:     licence.UpdatedAt,
	}
}

// TransitionPayload is the API view of one audit entry.
type TransitionPayload struct {
	ID        int64     `json:"id"`
	LicenceID int64     `json:"licence_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Reason    string    `json:"reason,omitempty"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

func newTransitionPayload(entry domain.StatusTransition) TransitionPayload {
	return TransitionPayload{
		ID:        entry.ID,
		LicenceID: entry.LicenceID,
		OldStatus: string(entry.OldStatus),
		NewStatus: string(entry.NewStatus),
		Reason:    entry.Reason,
		ChangedBy: entry.ChangedBy,
		ChangedAt: entry.ChangedAt,
	}
}

// QuotaResponse reports a club's included quota headroom.
type QuotaResponse struct {
	ClubID       int64 `json:"club_id"`
	HasRemaining bool  `json:"has_remaining"`
}

// DuplicateResponse reports the advisory duplicate check result.
type DuplicateResponse struct {
	Duplicate  bool  `json:"duplicate"`
	ExistingID int64 `json:"existing_id,omitempty"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
