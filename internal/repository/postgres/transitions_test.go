package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
)

func TestTransitionLogRepository_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTransitionLogRepository(mock)

	entry := domain.StatusTransition{
		LicenceID: 7,
		OldStatus: domain.StatusEnAttente,
		NewStatus: domain.StatusValidee,
		Reason:    "dossier complet",
		ChangedBy: "admin1",
		ChangedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO ufsc\.licence_status_log`).
		WithArgs(entry.LicenceID, entry.OldStatus, entry.NewStatus, entry.Reason, entry.ChangedBy, entry.ChangedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransitionLogRepository_ListByLicence_ChronologicalOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTransitionLogRepository(mock)

	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	rows := pgxmock.NewRows([]string{"id", "licence_id", "old_status", "new_status", "reason", "changed_by", "changed_at"}).
		AddRow(int64(1), int64(7), domain.StatusBrouillon, domain.StatusEnAttente, "", "system", first).
		AddRow(int64(2), int64(7), domain.StatusEnAttente, domain.StatusValidee, "dossier complet", "admin1", second)

	mock.ExpectQuery(`SELECT .* FROM ufsc\.licence_status_log WHERE licence_id = \$1 ORDER BY changed_at ASC, id ASC`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	entries, err := repo.ListByLicence(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListByLicence returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].NewStatus != domain.StatusEnAttente || entries[1].NewStatus != domain.StatusValidee {
		t.Fatalf("entries out of order: %v then %v", entries[0].NewStatus, entries[1].NewStatus)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
