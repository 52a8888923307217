package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
	"github.com/davyreactiv/ufsc-licence-service/internal/repository"
)

// stubStore mimics the conditional-write semantics of the postgres
// repository: version-checked mutations and a transactional audit
// append that only happens when the status write wins.
type stubStore struct {
	nextID   int64
	licences map[int64]domain.Licence
	log      []domain.StatusTransition
}

func newStubStore() *stubStore {
	return &stubStore{licences: make(map[int64]domain.Licence)}
}

var _ port.LicenceRepository = (*stubStore)(nil)
var _ port.TransitionLog = (*stubStore)(nil)

func (s *stubStore) Create(_ context.Context, licence domain.Licence) (int64, error) {
	s.nextID++
	now := time.Now().UTC()
	licence.ID = s.nextID
	licence.Version = 1
	licence.CreatedAt = now
	licence.UpdatedAt = now
	s.licences[licence.ID] = licence
	return licence.ID, nil
}

func (s *stubStore) GetByID(_ context.Context, id int64) (*domain.Licence, error) {
	licence, ok := s.licences[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := licence
	return &copy, nil
}

func (s *stubStore) UpdateFields(_ context.Context, licence domain.Licence, expectedVersion int64) error {
	stored, ok := s.licences[licence.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.Nom = licence.Nom
	stored.Prenom = licence.Prenom
	stored.DateNaissance = licence.DateNaissance
	stored.Email = licence.Email
	stored.Categorie = licence.Categorie
	stored.IsIncluded = licence.IsIncluded
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now().UTC()
	s.licences[licence.ID] = stored
	return nil
}

func (s *stubStore) UpdateStatus(_ context.Context, id int64, newStatus domain.LicenceStatus, reason, changedBy string, expectedVersion int64) error {
	stored, ok := s.licences[id]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	oldStatus := stored.Statut
	stored.Statut = newStatus
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now().UTC()
	s.licences[id] = stored
	s.log = append(s.log, domain.StatusTransition{
		ID:        int64(len(s.log) + 1),
		LicenceID: id,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Reason:    reason,
		ChangedBy: changedBy,
		ChangedAt: stored.UpdatedAt,
	})
	return nil
}

func (s *stubStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.licences[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.licences, id)
	return nil
}

func (s *stubStore) FindDuplicate(_ context.Context, candidate domain.DuplicateCandidate) (int64, error) {
	if !candidate.Complete() {
		return 0, repository.ErrNotFound
	}
	var matchID int64
	for id, licence := range s.licences {
		if licence.ClubID != candidate.ClubID || licence.Statut == domain.StatusRefusee {
			continue
		}
		if licence.Nom == candidate.Nom && licence.Prenom == candidate.Prenom && licence.DateNaissance == candidate.DateNaissance {
			if matchID == 0 || id < matchID {
				matchID = id
			}
		}
	}
	if matchID == 0 {
		return 0, repository.ErrNotFound
	}
	return matchID, nil
}

func (s *stubStore) ListByFilters(_ context.Context, filter port.LicenceFilter) ([]domain.Licence, error) {
	if filter.ClubID <= 0 {
		return []domain.Licence{}, nil
	}
	out := make([]domain.Licence, 0)
	needle := strings.ToLower(filter.Search)
	for _, licence := range s.licences {
		if licence.ClubID != filter.ClubID {
			continue
		}
		if needle != "" {
			haystack := strings.ToLower(licence.Nom + " " + licence.Prenom + " " + licence.Email)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		out = append(out, licence)
	}
	return out, nil
}

func (s *stubStore) Append(_ context.Context, entry domain.StatusTransition) error {
	entry.ID = int64(len(s.log) + 1)
	s.log = append(s.log, entry)
	return nil
}

func (s *stubStore) ListByLicence(_ context.Context, licenceID int64) ([]domain.StatusTransition, error) {
	out := make([]domain.StatusTransition, 0)
	for _, entry := range s.log {
		if entry.LicenceID == licenceID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type stubCache struct {
	entries map[int64]domain.Licence
	getErr  error
	sets    int
	deletes int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[int64]domain.Licence)}
}

var _ port.LicenceCache = (*stubCache)(nil)

func (c *stubCache) Get(_ context.Context, id int64) (*domain.Licence, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	licence, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}
	copy := licence
	return &copy, true, nil
}

func (c *stubCache) Set(_ context.Context, licence domain.Licence, _ time.Duration) error {
	c.entries[licence.ID] = licence
	c.sets++
	return nil
}

func (c *stubCache) Delete(_ context.Context, id int64) error {
	delete(c.entries, id)
	c.deletes++
	return nil
}

type stubClubs struct {
	clubs map[int64]domain.Club
	count int
}

func newStubClubs() *stubClubs {
	return &stubClubs{clubs: make(map[int64]domain.Club)}
}

var _ port.ClubRepository = (*stubClubs)(nil)

func (c *stubClubs) GetByID(_ context.Context, id int64) (*domain.Club, error) {
	club, ok := c.clubs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := club
	return &copy, nil
}

func (c *stubClubs) GetName(ctx context.Context, id int64) (string, error) {
	club, err := c.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return club.Nom, nil
}

func (c *stubClubs) CountIncludedLicences(_ context.Context, _ int64) (int, error) {
	return c.count, nil
}

func (c *stubClubs) HasRemainingIncludedQuota(_ context.Context, clubID int64) (bool, error) {
	club, ok := c.clubs[clubID]
	if !ok {
		return false, nil
	}
	return c.count < club.QuotaIncluses, nil
}

type stubPublisher struct {
	created       []domain.LicenceCreatedEvent
	statusChanged []domain.LicenceStatusChangedEvent
	deleted       []domain.LicenceDeletedEvent
}

var _ port.EventPublisher = (*stubPublisher)(nil)

func (p *stubPublisher) PublishLicenceCreated(_ context.Context, event domain.LicenceCreatedEvent) error {
	p.created = append(p.created, event)
	return nil
}

func (p *stubPublisher) PublishLicenceStatusChanged(_ context.Context, event domain.LicenceStatusChangedEvent) error {
	p.statusChanged = append(p.statusChanged, event)
	return nil
}

func (p *stubPublisher) PublishLicenceDeleted(_ context.Context, event domain.LicenceDeletedEvent) error {
	p.deleted = append(p.deleted, event)
	return nil
}
