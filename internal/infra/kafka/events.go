package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
	"github.com/davyreactiv/ufsc-licence-service/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

var _ port.EventPublisher = (*EventPublisher)(nil)

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	LicenceID string           `json:"licence_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, licenceID int64, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		LicenceID: strconv.FormatInt(licenceID, 10),
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Key:   sarama.StringEncoder(strconv.FormatInt(licenceID, 10)),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishLicenceCreated publishes licence.created events.
func (p *EventPublisher) PublishLicenceCreated(ctx context.Context, event domain.LicenceCreatedEvent) error {
	payload := struct {
		LicenceID  int64          `json:"licence_id"`
		ClubID     int64          `json:"club_id"`
		Statut     string         `json:"statut"`
		IsIncluded bool           `json:"is_included"`
		CreatedAt  time.Time      `json:"created_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		LicenceID:  event.LicenceID,
		ClubID:     event.ClubID,
		Statut:     string(event.Statut),
		IsIncluded: event.IsIncluded,
		CreatedAt:  event.CreatedAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "licence.created", event.LicenceID, event.CreatedAt, payload)
}

// PublishLicenceStatusChanged publishes licence.status.changed events.
func (p *EventPublisher) PublishLicenceStatusChanged(ctx context.Context, event domain.LicenceStatusChangedEvent) error {
	payload := struct {
		LicenceID int64          `json:"licence_id"`
		ClubID    int64          `json:"club_id"`
		OldStatus string         `json:"old_status"`
		NewStatus string         `json:"new_status"`
		Reason    string         `json:"reason,omitempty"`
		ChangedBy string         `json:"changed_by"`
		ChangedAt time.Time      `json:"changed_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		LicenceID: event.LicenceID,
		ClubID:    event.ClubID,
		OldStatus: string(event.OldStatus),
		NewStatus: string(event.NewStatus),
		Reason:    event.Reason,
		ChangedBy: event.ChangedBy,
		ChangedAt: event.ChangedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "licence.status.changed", event.LicenceID, event.ChangedAt, payload)
}

// PublishLicenceDeleted publishes licence.deleted events.
func (p *EventPublisher) PublishLicenceDeleted(ctx context.Context, event domain.LicenceDeletedEvent) error {
	payload := struct {
		LicenceID int64     `json:"licence_id"`
		ClubID    int64     `json:"club_id"`
		DeletedAt time.Time `json:"deleted_at"`
	}{
		LicenceID: event.LicenceID,
		ClubID:    event.ClubID,
		DeletedAt: event.DeletedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "licence.deleted", event.LicenceID, event.DeletedAt, payload)
}
