package port

import (
	"context"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
)

// LicenceFilter narrows ListByFilters results. ClubID is mandatory;
// Search applies a case-insensitive substring match across nom,
// prenom, and email.
type LicenceFilter struct {
	ClubID int64
	Search string
}

// LicenceRepository owns the durable licences table. Every write is a
// conditional, version-checked statement; a write whose expected
// version no longer matches stored state fails with
// repository.ErrVersionConflict and has zero effect.
type LicenceRepository interface {
	Create(ctx context.Context, licence domain.Licence) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Licence, error)
	UpdateFields(ctx context.Context, licence domain.Licence, expectedVersion int64) error
	UpdateStatus(ctx context.Context, id int64, newStatus domain.LicenceStatus, reason, changedBy string, expectedVersion int64) error
	Delete(ctx context.Context, id int64) error
	FindDuplicate(ctx context.Context, candidate domain.DuplicateCandidate) (int64, error)
	ListByFilters(ctx context.Context, filter LicenceFilter) ([]domain.Licence, error)
}
