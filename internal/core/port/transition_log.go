package port

import (
	"context"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
)

// TransitionLog is the append-only audit trail of status changes.
// No update or delete operation exists: immutability is part of the
// contract, not a convention.
type TransitionLog interface {
	Append(ctx context.Context, entry domain.StatusTransition) error
	ListByLicence(ctx context.Context, licenceID int64) ([]domain.StatusTransition, error)
}
