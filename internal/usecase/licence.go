package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
	"github.com/davyreactiv/ufsc-licence-service/internal/infra/telemetry"
	"github.com/davyreactiv/ufsc-licence-service/internal/repository"
)

const defaultCacheTTL = 15 * time.Minute

var (
	// ErrLicenceNotFound indicates the targeted licence does not exist.
	ErrLicenceNotFound = errors.New("licence not found")
	// ErrDuplicateLicence indicates an active record already exists for the same person in the same club.
	ErrDuplicateLicence = errors.New("duplicate licence")
	// ErrQuotaExceeded indicates the club's included allotment is exhausted.
	ErrQuotaExceeded = errors.New("included quota exhausted")
	// ErrInvalidTransition indicates the requested status change is not a legal edge of the state machine.
	ErrInvalidTransition = errors.New("illegal status transition")
	// ErrInvalidStatus indicates a status value outside the closed enumeration.
	ErrInvalidStatus = errors.New("unknown licence status")
	// ErrActorRequired indicates a status change without an actor identity; the store never invents one.
	ErrActorRequired = errors.New("actor identity is required")
)

// CreateLicenceInput captures the caller-supplied fields for a new
// licence. Identity, version, and timestamps are store-assigned.
type CreateLicenceInput struct {
	ClubID        int64
	Nom           string
	Prenom        string
	DateNaissance string
	Email         string
	Categorie     *string
	Statut        domain.LicenceStatus
	IsIncluded    bool
}

// UpdateLicenceInput captures a field update. Status is deliberately
// absent: status changes go through UpdateStatus so they are audited.
type UpdateLicenceInput struct {
	Nom           string
	Prenom        string
	DateNaissance string
	Email         string
	Categorie     *string
	IsIncluded    bool
}

// LicenceService orchestrates the versioned licence store: read-through
// caching, duplicate and quota gates at creation, and the status state
// machine. Version conflicts from the repository pass through
// untouched; retrying is the caller's decision.
type LicenceService struct {
	licences    port.LicenceRepository
	transitions port.TransitionLog
	clubs       port.ClubRepository
	cache       port.LicenceCache
	events      port.EventPublisher
	metrics     *telemetry.StoreMetrics
	logger      *zap.Logger
	cacheTTL    time.Duration
}

// NewLicenceService constructs LicenceService.
func NewLicenceService(licences port.LicenceRepository, transitions port.TransitionLog, clubs port.ClubRepository, cache port.LicenceCache, logger *zap.Logger) *LicenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LicenceService{
		licences:    licences,
		transitions: transitions,
		clubs:       clubs,
		cache:       cache,
		logger:      logger,
		cacheTTL:    defaultCacheTTL,
	}
}

// WithEventPublisher attaches a lifecycle event publisher.
func (s *LicenceService) WithEventPublisher(events port.EventPublisher) *LicenceService {
	s.events = events
	return s
}

// WithMetrics attaches store instrumentation.
func (s *LicenceService) WithMetrics(metrics *telemetry.StoreMetrics) *LicenceService {
	s.metrics = metrics
	return s
}

// WithCacheTTL overrides the snapshot cache TTL.
func (s *LicenceService) WithCacheTTL(ttl time.Duration) *LicenceService {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
	return s
}

// Create validates the input, applies the duplicate and quota gates,
// persists the record with version 1, and primes the cache with the
// resulting snapshot.
func (s *LicenceService) Create(ctx context.Context, input CreateLicenceInput) (*domain.Licence, error) {
	input.Nom = strings.TrimSpace(input.Nom)
	input.Prenom = strings.TrimSpace(input.Prenom)
	input.DateNaissance = strings.TrimSpace(input.DateNaissance)
	input.Email = strings.TrimSpace(input.Email)

	if input.ClubID <= 0 {
		return nil, fmt.Errorf("club id is required")
	}
	if input.Nom == "" || input.Prenom == "" || input.DateNaissance == "" {
		return nil, fmt.Errorf("nom, prenom, and date_naissance are required")
	}

	statut := input.Statut
	if statut == "" {
		statut = domain.StatusEnAttente
	}
	if !statut.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, input.Statut)
	}

	existingID, err := s.licences.FindDuplicate(ctx, domain.DuplicateCandidate{
		ClubID:        input.ClubID,
		Nom:           input.Nom,
		Prenom:        input.Prenom,
		DateNaissance: input.DateNaissance,
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if err == nil {
		return nil, fmt.Errorf("%w: existing licence %d", ErrDuplicateLicence, existingID)
	}

	if input.IsIncluded {
		remaining, err := s.clubs.HasRemainingIncludedQuota(ctx, input.ClubID)
		if err != nil {
			return nil, fmt.Errorf("check included quota: %w", err)
		}
		if !remaining {
			return nil, fmt.Errorf("%w: club %d", ErrQuotaExceeded, input.ClubID)
		}
	}

	id, err := s.licences.Create(ctx, domain.Licence{
		ClubID:        input.ClubID,
		Nom:           input.Nom,
		Prenom:        input.Prenom,
		DateNaissance: input.DateNaissance,
		Email:         input.Email,
		Categorie:     input.Categorie,
		Statut:        statut,
		IsIncluded:    input.IsIncluded,
	})
	if err != nil {
		return nil, fmt.Errorf("create licence: %w", err)
	}

	s.metrics.RecordWrite("create")

	created, err := s.licences.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload created licence: %w", err)
	}

	s.primeCache(ctx, *created)
	s.publishCreated(ctx, *created)

	return created, nil
}

// Get serves the licence through the snapshot cache, falling back to
// durable storage on a miss and repopulating the cache afterwards.
func (s *LicenceService) Get(ctx context.Context, id int64) (*domain.Licence, error) {
	if id <= 0 {
		return nil, ErrLicenceNotFound
	}

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn("licence cache read failed", zap.Int64("licence_id", id), zap.Error(err))
		} else if found {
			s.metrics.RecordCacheHit()
			return cached, nil
		}
	}
	s.metrics.RecordCacheMiss()

	licence, err := s.licences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLicenceNotFound
		}
		return nil, fmt.Errorf("load licence: %w", err)
	}

	s.primeCache(ctx, *licence)

	return licence, nil
}

// Update applies a field update under optimistic concurrency: the
// current snapshot supplies the expected version, and the conditional
// write either moves the record to version+1 or fails with a version
// conflict and zero effect. The cache is only invalidated after a
// successful commit.
func (s *LicenceService) Update(ctx context.Context, id int64, input UpdateLicenceInput) (*domain.Licence, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Nom = strings.TrimSpace(input.Nom)
	updated.Prenom = strings.TrimSpace(input.Prenom)
	updated.DateNaissance = strings.TrimSpace(input.DateNaissance)
	updated.Email = strings.TrimSpace(input.Email)
	updated.Categorie = input.Categorie
	updated.IsIncluded = input.IsIncluded

	if updated.Nom == "" || updated.Prenom == "" || updated.DateNaissance == "" {
		return nil, fmt.Errorf("nom, prenom, and date_naissance are required")
	}

	if err := s.licences.UpdateFields(ctx, updated, current.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordConflict("update")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLicenceNotFound
		}
		return nil, err
	}

	s.metrics.RecordWrite("update")
	s.invalidateCache(ctx, id)

	fresh, err := s.licences.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload updated licence: %w", err)
	}

	s.primeCache(ctx, *fresh)

	return fresh, nil
}

// UpdateStatus transitions the licence's status. The current state is
// always loaded before writing so the transition policy sees the real
// old value; the repository then commits the conditional write and the
// audit entry atomically. The returned record is a fresh storage read,
// never the stale in-memory copy.
func (s *LicenceService) UpdateStatus(ctx context.Context, id int64, newStatus domain.LicenceStatus, reason, changedBy string) (*domain.Licence, error) {
	changedBy = strings.TrimSpace(changedBy)
	if changedBy == "" {
		return nil, ErrActorRequired
	}
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(current.Statut, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Statut, newStatus)
	}

	if err := s.licences.UpdateStatus(ctx, id, newStatus, reason, changedBy, current.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordConflict("update_status")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLicenceNotFound
		}
		return nil, err
	}

	s.metrics.RecordWrite("update_status")
	s.invalidateCache(ctx, id)

	fresh, err := s.licences.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload transitioned licence: %w", err)
	}

	s.primeCache(ctx, *fresh)
	s.publishStatusChanged(ctx, *fresh, current.Statut, reason, changedBy)

	return fresh, nil
}

// Delete removes the licence and evicts its cache entry. Transition
// log entries survive the delete.
func (s *LicenceService) Delete(ctx context.Context, id int64) error {
	current, err := s.licences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLicenceNotFound
		}
		return fmt.Errorf("load licence: %w", err)
	}

	if err := s.licences.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLicenceNotFound
		}
		return fmt.Errorf("delete licence: %w", err)
	}

	s.metrics.RecordWrite("delete")
	s.invalidateCache(ctx, id)
	s.publishDeleted(ctx, *current)

	return nil
}

// List returns a club's licences, optionally narrowed by a
// case-insensitive search across nom, prenom, and email.
func (s *LicenceService) List(ctx context.Context, filter port.LicenceFilter) ([]domain.Licence, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.licences.ListByFilters(ctx, filter)
}

// History returns the licence's status transition audit trail in
// chronological order.
func (s *LicenceService) History(ctx context.Context, id int64) ([]domain.StatusTransition, error) {
	if id <= 0 {
		return nil, ErrLicenceNotFound
	}
	return s.transitions.ListByLicence(ctx, id)
}

// FindDuplicate applies the advisory duplicate query and reports the
// first matching id, if any.
func (s *LicenceService) FindDuplicate(ctx context.Context, candidate domain.DuplicateCandidate) (int64, bool, error) {
	id, err := s.licences.FindDuplicate(ctx, candidate)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("find duplicate: %w", err)
	}
	return id, true, nil
}

// HasRemainingIncludedQuota reports whether the club may still create
// included licences. Advisory: tolerates slight staleness.
func (s *LicenceService) HasRemainingIncludedQuota(ctx context.Context, clubID int64) (bool, error) {
	return s.clubs.HasRemainingIncludedQuota(ctx, clubID)
}

func (s *LicenceService) primeCache(ctx context.Context, licence domain.Licence) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, licence, s.cacheTTL); err != nil {
		s.logger.Warn("licence cache write failed", zap.Int64("licence_id", licence.ID), zap.Error(err))
	}
}

func (s *LicenceService) invalidateCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("licence cache invalidation failed", zap.Int64("licence_id", id), zap.Error(err))
	}
}

func (s *LicenceService) publishCreated(ctx context.Context, licence domain.Licence) {
	if s.events == nil {
		return
	}
	event := domain.LicenceCreatedEvent{
		EventID:    uuid.NewString(),
		LicenceID:  licence.ID,
		ClubID:     licence.ClubID,
		Statut:     licence.Statut,
		IsIncluded: licence.IsIncluded,
		CreatedAt:  licence.CreatedAt,
	}
	if err := s.events.PublishLicenceCreated(ctx, event); err != nil {
		s.logger.Warn("publish licence created failed", zap.Int64("licence_id", licence.ID), zap.Error(err))
	}
}

func (s *LicenceService) publishStatusChanged(ctx context.Context, licence domain.Licence, oldStatus domain.LicenceStatus, reason, changedBy string) {
	if s.events == nil {
		return
	}
	event := domain.LicenceStatusChangedEvent{
		EventID:   uuid.NewString(),
		LicenceID: licence.ID,
		ClubID:    licence.ClubID,
		OldStatus: oldStatus,
		NewStatus: licence.Statut,
		Reason:    reason,
		ChangedBy: changedBy,
		ChangedAt: licence.UpdatedAt,
	}
	if err := s.events.PublishLicenceStatusChanged(ctx, event); err != nil {
		s.logger.Warn("publish status changed failed", zap.Int64("licence_id", licence.ID), zap.Error(err))
	}
}

func (s *LicenceService) publishDeleted(ctx context.Context, licence domain.Licence) {
	if s.events == nil {
		return
	}
	event := domain.LicenceDeletedEvent{
		EventID:   uuid.NewString(),
		LicenceID: licence.ID,
		ClubID:    licence.ClubID,
		DeletedAt: time.Now().UTC(),
	}
	if err := s.events.PublishLicenceDeleted(ctx, event); err != nil {
		s.logger.Warn("publish licence deleted failed", zap.Int64("licence_id", licence.ID), zap.Error(err))
	}
}
