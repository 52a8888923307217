package port

import (
	"context"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
)

// ClubRepository is a read-only view over clubs. The licence store
// never creates or deletes clubs.
type ClubRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Club, error)
	GetName(ctx context.Context, id int64) (string, error)
	CountIncludedLicences(ctx context.Context, clubID int64) (int, error)
	HasRemainingIncludedQuota(ctx context.Context, clubID int64) (bool, error)
}
