package domain

import "time"

// LicenceCreatedEvent represents the payload for licence.created messages.
type LicenceCreatedEvent struct {
	EventID    string
	LicenceID  int64
	ClubID     int64
	Statut     LicenceStatus
	IsIncluded bool
	CreatedAt  time.Time
	Metadata   map[string]any
}

// LicenceStatusChangedEvent represents the payload for licence.status.changed messages.
type LicenceStatusChangedEvent struct {
	EventID   string
	LicenceID int64
	ClubID    int64
	OldStatus LicenceStatus
	NewStatus LicenceStatus
	Reason    string
	ChangedBy string
	ChangedAt time.Time
	Metadata  map[string]any
}

// LicenceDeletedEvent represents the payload for licence.deleted messages.
type LicenceDeletedEvent struct {
	EventID   string
	LicenceID int64
	ClubID    int64
	DeletedAt time.Time
}
