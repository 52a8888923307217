package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
)

// TransitionLogRepository persists status transition audit entries in
// PostgreSQL. The table is append-only: no update or delete statement
// exists anywhere in this package.
type TransitionLogRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTransitionLogRepository constructs the repository from a generic executor.
func NewTransitionLogRepository(exec pgExecutor) *TransitionLogRepository {
	repo := &TransitionLogRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx binds the repository to execute statements within the supplied transaction.
func (r *TransitionLogRepository) WithTx(tx pgx.Tx) *TransitionLogRepository {
	if tx == nil {
		return r
	}
	return &TransitionLogRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var _ port.TransitionLog = (*TransitionLogRepository)(nil)

// transitionInsert builds the append statement. Shared with
// LicenceRepository.UpdateStatus so the transactional append and the
// standalone one cannot drift apart.
func transitionInsert(builder squirrel.StatementBuilderType, entry domain.StatusTransition) (string, []any, error) {
	return builder.Insert("ufsc.licence_status_log").
		Columns(
			"licence_id",
			"old_status",
			"new_status",
			"reason",
			"changed_by",
			"changed_at",
		).
		Values(
			entry.LicenceID,
			entry.OldStatus,
			entry.NewStatus,
			entry.Reason,
			entry.ChangedBy,
			entry.ChangedAt,
		).
		ToSql()
}

// Append writes one immutable audit entry.
func (r *TransitionLogRepository) Append(ctx context.Context, entry domain.StatusTransition) error {
	stmt, args, err := transitionInsert(r.builder, entry)
	if err != nil {
		return fmt.Errorf("build insert transition sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}

	return nil
}

// ListByLicence returns a licence's transition history in
// chronological order.
func (r *TransitionLogRepository) ListByLicence(ctx context.Context, licenceID int64) ([]domain.StatusTransition, error) {
	stmt, args, err := r.builder.
		Select(
			"id",
			"licence_id",
			"old_status",
			"new_status",
			"reason",
			"changed_by",
			"changed_at",
		).
		From("ufsc.licence_status_log").
		Where(squirrel.Eq{"licence_id": licenceID}).
		OrderBy("changed_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select transitions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.StatusTransition, 0)
	for rows.Next() {
		var entry domain.StatusTransition
		if err := rows.Scan(
			&entry.ID,
			&entry.LicenceID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.Reason,
			&entry.ChangedBy,
			&entry.ChangedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}

	return entries, nil
}
