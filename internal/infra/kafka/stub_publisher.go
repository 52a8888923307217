package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful
// for development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

var _ port.EventPublisher = (*StubPublisher)(nil)

func (p *StubPublisher) logEvent(eventType string, licenceID int64, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.Int64("licence_id", licenceID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishLicenceCreated logs licence.created events.
func (p *StubPublisher) PublishLicenceCreated(_ context.Context, event domain.LicenceCreatedEvent) error {
	payload := map[string]any{
		"club_id":     event.ClubID,
		"statut":      event.Statut,
		"is_included": event.IsIncluded,
	}
	p.logEvent("licence.created", event.LicenceID, event.CreatedAt, payload)
	return nil
}

// PublishLicenceStatusChanged logs licence.status.changed events.
func (p *StubPublisher) PublishLicenceStatusChanged(_ context.Context, event domain.LicenceStatusChangedEvent) error {
	payload := map[string]any{
		"club_id":    event.ClubID,
		"old_status": event.OldStatus,
		"new_status": event.NewStatus,
		"reason":     event.Reason,
		"changed_by": event.ChangedBy,
	}
	p.logEvent("licence.status.changed", event.LicenceID, event.ChangedAt, payload)
	return nil
}

// PublishLicenceDeleted logs licence.deleted events.
func (p *StubPublisher) PublishLicenceDeleted(_ context.Context, event domain.LicenceDeletedEvent) error {
	payload := map[string]any{
		"club_id": event.ClubID,
	}
	p.logEvent("licence.deleted", event.LicenceID, event.DeletedAt, payload)
	return nil
}
