package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
	"github.com/davyreactiv/ufsc-licence-service/internal/repository"
)

type licenceFixture struct {
	store   *stubStore
	cache   *stubCache
	clubs   *stubClubs
	events  *stubPublisher
	service *LicenceService
}

func newLicenceFixture() *licenceFixture {
	store := newStubStore()
	cache := newStubCache()
	clubs := newStubClubs()
	clubs.clubs[5] = domain.Club{ID: 5, Nom: "Club Alpha", QuotaIncluses: 10}
	events := &stubPublisher{}

	service := NewLicenceService(store, store, clubs, cache, zap.NewNop()).
		WithEventPublisher(events)

	return &licenceFixture{
		store:   store,
		cache:   cache,
		clubs:   clubs,
		events:  events,
		service: service,
	}
}

func validInput() CreateLicenceInput {
	return CreateLicenceInput{
		ClubID:        5,
		Nom:           "Martin",
		Prenom:        "Alice",
		DateNaissance: "1990-01-01",
		Email:         "alice.martin@example.com",
	}
}

func TestLicenceService_Create(t *testing.T) {
	f := newLicenceFixture()

	licence, err := f.service.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if licence.Version != 1 {
		t.Fatalf("new licence must start at version 1, got %d", licence.Version)
	}
	if licence.Statut != domain.StatusEnAttente {
		t.Fatalf("default statut must be en_attente, got %s", licence.Statut)
	}
	if _, ok := f.cache.entries[licence.ID]; !ok {
		t.Fatalf("snapshot cache was not primed after create")
	}
	if len(f.events.created) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(f.events.created))
	}
	if f.events.created[0].LicenceID != licence.ID {
		t.Fatalf("created event carries wrong licence id %d", f.events.created[0].LicenceID)
	}
}

func TestLicenceService_CreateRejectsDuplicate(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	if _, err := f.service.Create(ctx, validInput()); err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}

	_, err := f.service.Create(ctx, validInput())
	if !errors.Is(err, ErrDuplicateLicence) {
		t.Fatalf("expected ErrDuplicateLicence, got %v", err)
	}
}

func TestLicenceService_RejectedRecordDoesNotBlockRecreation(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	first, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("first Create returned error: %v", err)
	}
	if _, err := f.service.UpdateStatus(ctx, first.ID, domain.StatusRefusee, "dossier incomplet", "admin1"); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	second, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create after rejection returned error: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a fresh record, got the rejected one")
	}
}

func TestLicenceService_CreateEnforcesIncludedQuota(t *testing.T) {
	f := newLicenceFixture()
	f.clubs.count = 10

	input := validInput()
	input.IsIncluded = true

	_, err := f.service.Create(context.Background(), input)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if len(f.store.licences) != 0 {
		t.Fatalf("quota rejection must not persist anything")
	}
}

func TestLicenceService_QuotaIgnoredForNonIncluded(t *testing.T) {
	f := newLicenceFixture()
	f.clubs.count = 10

	if _, err := f.service.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("non-included create must bypass the quota gate: %v", err)
	}
}

func TestLicenceService_GetReadsThroughCache(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Divergence between cache and storage is observable until the next
	// invalidation: the cached snapshot wins.
	stored := f.store.licences[created.ID]
	stored.Email = "changed-behind-cache@example.com"
	f.store.licences[created.ID] = stored

	got, err := f.service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Email != created.Email {
		t.Fatalf("expected cached snapshot, got storage copy")
	}

	if err := f.cache.Delete(ctx, created.ID); err != nil {
		t.Fatalf("cache delete returned error: %v", err)
	}

	got, err = f.service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get after invalidation returned error: %v", err)
	}
	if got.Email != "changed-behind-cache@example.com" {
		t.Fatalf("expected storage copy after invalidation, got %s", got.Email)
	}
	if cached, ok := f.cache.entries[created.ID]; !ok || cached.Email != got.Email {
		t.Fatalf("cache was not repopulated after the miss")
	}
}

func TestLicenceService_GetDegradesOnCacheFailure(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	f.cache.getErr = errors.New("connection refused")

	got, err := f.service.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get must fall back to storage on cache failure: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("unexpected record %d", got.ID)
	}
}

func TestLicenceService_GetNotFound(t *testing.T) {
	f := newLicenceFixture()

	if _, err := f.service.Get(context.Background(), 404); !errors.Is(err, ErrLicenceNotFound) {
		t.Fatalf("expected ErrLicenceNotFound, got %v", err)
	}
	if _, err := f.service.Get(context.Background(), 0); !errors.Is(err, ErrLicenceNotFound) {
		t.Fatalf("expected ErrLicenceNotFound for non-positive id, got %v", err)
	}
}

func TestLicenceService_UpdateIncrementsVersionByOne(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := f.service.Update(ctx, created.ID, UpdateLicenceInput{
		Nom:           "Martin",
		Prenom:        "Alice",
		DateNaissance: "1990-01-01",
		Email:         "new-address@example.com",
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Version != created.Version+1 {
		t.Fatalf("expected version %d, got %d", created.Version+1, updated.Version)
	}
	if updated.Email != "new-address@example.com" {
		t.Fatalf("field update not applied")
	}
	if cached := f.cache.entries[created.ID]; cached.Version != updated.Version {
		t.Fatalf("cache holds version %d after write, want %d", cached.Version, updated.Version)
	}
}

func TestLicenceService_StaleUpdateConflicts(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// A concurrent writer moves storage to version 2 while the cache
	// still serves the version-1 snapshot.
	if err := f.store.UpdateStatus(ctx, created.ID, domain.StatusValidee, "dossier complet", "admin1", created.Version); err != nil {
		t.Fatalf("concurrent status write returned error: %v", err)
	}

	_, err = f.service.Update(ctx, created.ID, UpdateLicenceInput{
		Nom:           "Martin",
		Prenom:        "Alice",
		DateNaissance: "1990-01-01",
		Email:         "stale-writer@example.com",
	})
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// The losing write has zero effect: storage keeps the winner's
	// state and no extra audit entry appears.
	stored := f.store.licences[created.ID]
	if stored.Version != 2 {
		t.Fatalf("conflict must not move the version, got %d", stored.Version)
	}
	if stored.Email == "stale-writer@example.com" {
		t.Fatalf("losing write leaked into storage")
	}
	if len(f.store.log) != 1 {
		t.Fatalf("expected exactly 1 audit entry, got %d", len(f.store.log))
	}
}

func TestLicenceService_UpdateStatus(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	fresh, err := f.service.UpdateStatus(ctx, created.ID, domain.StatusValidee, "dossier complet", "admin1")
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if fresh.Statut != domain.StatusValidee {
		t.Fatalf("expected statut validee, got %s", fresh.Statut)
	}
	if fresh.Version != created.Version+1 {
		t.Fatalf("expected version %d, got %d", created.Version+1, fresh.Version)
	}

	history, err := f.service.History(ctx, created.ID)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(history))
	}
	entry := history[0]
	if entry.OldStatus != domain.StatusEnAttente || entry.NewStatus != domain.StatusValidee {
		t.Fatalf("audit entry records %s -> %s", entry.OldStatus, entry.NewStatus)
	}
	if entry.ChangedBy != "admin1" || entry.Reason != "dossier complet" {
		t.Fatalf("audit entry lost actor or reason: %+v", entry)
	}

	if len(f.events.statusChanged) != 1 {
		t.Fatalf("expected 1 status changed event, got %d", len(f.events.statusChanged))
	}
	event := f.events.statusChanged[0]
	if event.OldStatus != domain.StatusEnAttente || event.NewStatus != domain.StatusValidee {
		t.Fatalf("event records %s -> %s", event.OldStatus, event.NewStatus)
	}
}

func TestLicenceService_UpdateStatusRequiresActor(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := f.service.UpdateStatus(ctx, created.ID, domain.StatusValidee, "", ""); !errors.Is(err, ErrActorRequired) {
		t.Fatalf("expected ErrActorRequired, got %v", err)
	}
	if _, err := f.service.UpdateStatus(ctx, created.ID, domain.StatusValidee, "", "   "); !errors.Is(err, ErrActorRequired) {
		t.Fatalf("expected ErrActorRequired for blank actor, got %v", err)
	}
	if len(f.store.log) != 0 {
		t.Fatalf("rejected transition must not be audited")
	}
}

func TestLicenceService_UpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := f.service.UpdateStatus(ctx, created.ID, domain.LicenceStatus("annulee"), "", "admin1"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestLicenceService_UpdateStatusRejectsIllegalTransition(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.service.UpdateStatus(ctx, created.ID, domain.StatusValidee, "dossier complet", "admin1"); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	_, err = f.service.UpdateStatus(ctx, created.ID, domain.StatusEnAttente, "retour arriere", "admin1")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	stored := f.store.licences[created.ID]
	if stored.Statut != domain.StatusValidee {
		t.Fatalf("rejected transition mutated statut to %s", stored.Statut)
	}
	if len(f.store.log) != 1 {
		t.Fatalf("rejected transition must not be audited, log has %d entries", len(f.store.log))
	}
}

func TestLicenceService_AuditTrailMatchesTransitionCount(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	steps := []domain.LicenceStatus{domain.StatusValidee, domain.StatusExpiree}
	for _, next := range steps {
		if _, err := f.service.UpdateStatus(ctx, created.ID, next, "", "admin1"); err != nil {
			t.Fatalf("UpdateStatus to %s returned error: %v", next, err)
		}
	}

	history, err := f.service.History(ctx, created.ID)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != len(steps) {
		t.Fatalf("expected %d audit entries, got %d", len(steps), len(history))
	}
}

func TestLicenceService_DeletePreservesHistory(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.service.UpdateStatus(ctx, created.ID, domain.StatusValidee, "", "admin1"); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	if err := f.service.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := f.service.Get(ctx, created.ID); !errors.Is(err, ErrLicenceNotFound) {
		t.Fatalf("expected ErrLicenceNotFound after delete, got %v", err)
	}
	if _, ok := f.cache.entries[created.ID]; ok {
		t.Fatalf("cache entry survived the delete")
	}

	history, err := f.service.History(ctx, created.ID)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("audit trail must survive the delete, got %d entries", len(history))
	}
	if len(f.events.deleted) != 1 {
		t.Fatalf("expected 1 deleted event, got %d", len(f.events.deleted))
	}
}

func TestLicenceService_FindDuplicate(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	created, err := f.service.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	id, found, err := f.service.FindDuplicate(ctx, domain.DuplicateCandidate{
		ClubID:        5,
		Nom:           "Martin",
		Prenom:        "Alice",
		DateNaissance: "1990-01-01",
	})
	if err != nil {
		t.Fatalf("FindDuplicate returned error: %v", err)
	}
	if !found || id != created.ID {
		t.Fatalf("expected match on licence %d, got id=%d found=%v", created.ID, id, found)
	}

	_, found, err = f.service.FindDuplicate(ctx, domain.DuplicateCandidate{
		ClubID:        5,
		Nom:           "Durand",
		Prenom:        "Paul",
		DateNaissance: "1985-06-15",
	})
	if err != nil {
		t.Fatalf("FindDuplicate returned error: %v", err)
	}
	if found {
		t.Fatalf("unexpected duplicate match")
	}
}

func TestLicenceService_List(t *testing.T) {
	f := newLicenceFixture()
	ctx := context.Background()

	if _, err := f.service.Create(ctx, validInput()); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	other := validInput()
	other.Nom = "Durand"
	other.Prenom = "Paul"
	other.Email = "paul.durand@example.com"
	if _, err := f.service.Create(ctx, other); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	all, err := f.service.List(ctx, port.LicenceFilter{ClubID: 5})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 licences, got %d", len(all))
	}

	narrowed, err := f.service.List(ctx, port.LicenceFilter{ClubID: 5, Search: "durand"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(narrowed) != 1 || narrowed[0].Nom != "Durand" {
		t.Fatalf("search narrowing failed: %+v", narrowed)
	}
}
