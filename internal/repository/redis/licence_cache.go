package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	red "github.com/redis/go-redis/v9"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
)

const defaultLicencePrefix = "ufsc:licence"

// LicenceCache stores the last successfully written snapshot of a
// licence record. Entries are valid until explicitly invalidated by a
// write; TTL is a safety net, not a coherence mechanism.
type LicenceCache struct {
	client *red.Client
	prefix string
}

// NewLicenceCache constructs the licence snapshot cache.
func NewLicenceCache(client *red.Client, keyPrefix string) *LicenceCache {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultLicencePrefix
	}

	return &LicenceCache{client: client, prefix: prefix}
}

var _ port.LicenceCache = (*LicenceCache)(nil)

type cachedLicence struct {
	ID            int64     `json:"id"`
	ClubID        int64     `json:"club_id"`
	Nom           string    `json:"nom"`
	Prenom        string    `json:"prenom"`
	DateNaissance string    `json:"date_naissance"`
	Email         string    `json:"email"`
	Categorie     *string   `json:"categorie,omitempty"`
	Statut        string    `json:"statut"`
	IsIncluded    bool      `json:"is_included"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Get fetches the cached snapshot. A missing key is a miss, not an
// error.
func (c *LicenceCache) Get(ctx context.Context, id int64) (*domain.Licence, bool, error) {
	if id <= 0 {
		return nil, false, fmt.Errorf("licence id must be positive")
	}

	payload, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get licence: %w", err)
	}

	var cached cachedLicence
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false, fmt.Errorf("decode cached licence: %w", err)
	}

	licence := domain.Licence{
		ID:            cached.ID,
		ClubID:        cached.ClubID,
		Nom:           cached.Nom,
		Prenom:        cached.Prenom,
		DateNaissance: cached.DateNaissance,
		Email:         cached.Email,
		Categorie:     cached.Categorie,
		Statut:        domain.LicenceStatus(cached.Statut),
		IsIncluded:    cached.IsIncluded,
		Version:       cached.Version,
		CreatedAt:     cached.CreatedAt,
		UpdatedAt:     cached.UpdatedAt,
	}

	return &licence, true, nil
}

// Set stores a durable snapshot with TTL.
func (c *LicenceCache) Set(ctx context.Context, licence domain.Licence, ttl time.Duration) error {
	if licence.ID <= 0 {
		return fmt.Errorf("licence id must be positive")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	payload, err := json.Marshal(cachedLicence{
		ID:            licence.ID,
		ClubID:        licence.ClubID,
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
	})
	if err != nil {
		return fmt.Errorf("encode cached licence: %w", err)
	}

	if err := c.client.Set(ctx, c.key(licence.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set licence: %w", err)
	}

	return nil
}

// Delete invalidates the cached snapshot.
func (c *LicenceCache) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("licence id must be positive")
	}

	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete licence: %w", err)
	}

	return nil
}

func (c *LicenceCache) key(id int64) string {
	return fmt.Sprintf("%s:%d", c.prefix, id)
}
