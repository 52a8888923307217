package domain

import "time"

// LicenceStatus enumerates the states a licence record can be in.
type LicenceStatus string

const (
	StatusBrouillon LicenceStatus = "brouillon"
	StatusEnAttente LicenceStatus = "en_attente"
	StatusValidee   LicenceStatus = "validee"
	StatusRefusee   LicenceStatus = "refusee"
	StatusExpiree   LicenceStatus = "expiree"
)

// Valid reports whether the status belongs to the closed enumeration.
func (s LicenceStatus) Valid() bool {
	switch s {
	case StatusBrouillon, StatusEnAttente, StatusValidee, StatusRefusee, StatusExpiree:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s LicenceStatus) Terminal() bool {
	return s == StatusRefusee || s == StatusExpiree
}

// Licence mirrors the persisted representation in the licences table.
// Version starts at 1 and is incremented by exactly one on every
// successful write; it is the sole lost-update detection mechanism.
type Licence struct {
	ID            int64
	ClubID        int64
	Nom           string
	Prenom        string
	DateNaissance string
	Email         string
	Categorie     *string
	Statut        LicenceStatus
	IsIncluded    bool
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// ClubName is populated by list decoration only, never persisted
	// on the licence row.
	ClubName string
}

// StatusTransition is one immutable audit entry per successful status
// change. Entries are never updated or deleted.
type StatusTransition struct {
	ID        int64
	LicenceID int64
	OldStatus LicenceStatus
	NewStatus LicenceStatus
	Reason    string
	ChangedBy string
	ChangedAt time.Time
}

// DuplicateCandidate is the identity tuple used for near-duplicate
// detection at creation time.
type DuplicateCandidate struct {
	ClubID        int64
	Nom           string
	Prenom        string
	DateNaissance string
}

// Complete reports whether every field of the tuple is present.
func (c DuplicateCandidate) Complete() bool {
	return c.ClubID > 0 && c.Nom != "" && c.Prenom != "" && c.DateNaissance != ""
}
