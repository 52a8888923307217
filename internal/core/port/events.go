package port

import (
	"context"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
)

// EventPublisher emits licence lifecycle events to downstream
// consumers. Publishing failures never roll back a committed write.
type EventPublisher interface {
	PublishLicenceCreated(ctx context.Context, event domain.LicenceCreatedEvent) error
	PublishLicenceStatusChanged(ctx context.Context, event domain.LicenceStatusChangedEvent) error
	PublishLicenceDeleted(ctx context.Context, event domain.LicenceDeletedEvent) error
}
