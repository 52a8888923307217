package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
	"github.com/davyreactiv/ufsc-licence-service/internal/repository"
)

type pgExecutor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LicenceRepository implements port.LicenceRepository backed by
// PostgreSQL. Every mutation is a conditional write keyed on the
// record's current version; losers of a write race observe zero
// affected rows and receive repository.ErrVersionConflict.
type LicenceRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewLicenceRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewLicenceRepository(exec pgExecutor) *LicenceRepository {
	repo := &LicenceRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

// WithTx returns a repository instance that executes statements within the supplied transaction.
func (r *LicenceRepository) WithTx(tx pgx.Tx) *LicenceRepository {
	if tx == nil {
		return r
	}
	return &LicenceRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

var _ port.LicenceRepository = (*LicenceRepository)(nil)

var licenceColumns = []string{
	"id",
	"club_id",
	"nom",
	"prenom",
	"date_naissance",
	"email",
	"categorie",
	"statut",
	"is_included",
	"version",
	"created_at",
	"updated_at",
}

// Create inserts a new licence row. Version, created_at, and
// updated_at are assigned by the store, never by the caller.
func (r *LicenceRepository) Create(ctx context.Context, licence domain.Licence) (int64, error) {
	now := time.Now().UTC()

	var categorieValue any
	if licence.Categorie != nil && *licence.Categorie != "" {
		categorieValue = *licence.Categorie
	}

	stmt, args, err := r.builder.Insert("ufsc.licences").
		Columns(
			"club_id",
			"nom",
			"prenom",
			"date_naissance",
			"email",
			"categorie",
			"statut",
			"is_included",
			"version",
			"created_at",
			"updated_at",
		).
		Values(
			licence.ClubID,
			licence.Nom,
			licence.Prenom,
			licence.DateNaissance,
			licence.Email,
			categorieValue,
			licence.Statut,
			licence.IsIncluded,
			1,
			now,
			now,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert licence sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert licence: %w", err)
	}

	return id, nil
}

// GetByID retrieves a licence by identifier. A non-positive id is a
// precondition violation and reports not-found without touching
// storage.
func (r *LicenceRepository) GetByID(ctx context.Context, id int64) (*domain.Licence, error) {
	if id <= 0 {
		return nil, repository.ErrNotFound
	}

	stmt, args, err := r.builder.
		Select(licenceColumns...).
		From("ufsc.licences").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select licence sql: %w", err)
	}

	licence, err := scanLicence(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan licence: %w", err)
	}

	return licence, nil
}

// UpdateFields applies a full field update as a conditional write:
// the statement only matches when the stored version still equals
// expectedVersion. Status changes are excluded; they go through
// UpdateStatus so every one of them is audited.
func (r *LicenceRepository) UpdateFields(ctx context.Context, licence domain.Licence, expectedVersion int64) error {
	if licence.ID <= 0 {
		return repository.ErrNotFound
	}

	var categorieValue any
	if licence.Categorie != nil && *licence.Categorie != "" {
		categorieValue = *licence.Categorie
	}

	stmt, args, err := r.builder.Update("ufsc.licences").
		Set("nom", licence.Nom).
		Set("prenom", licence.Prenom).
		Set("date_naissance", licence.DateNaissance).
		Set("email", licence.Email).
		Set("categorie", categorieValue).
		Set("is_included", licence.IsIncluded).
		Set("version", expectedVersion+1).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": licence.ID, "version": expectedVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update licence sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update licence: %w", err)
	}

	if ct.RowsAffected() == 0 {
		// Zero rows is ambiguous: the row may be gone, or the version
		// may have moved. Probe existence to report the right failure.
		checkStmt, checkArgs, err := r.builder.
			Select("1").
			From("ufsc.licences").
			Where(squirrel.Eq{"id": licence.ID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build check licence sql: %w", err)
		}

		var one int
		if err := r.exec.QueryRow(ctx, checkStmt, checkArgs...).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("check licence existence: %w", err)
		}

		return repository.ErrVersionConflict
	}

	return nil
}

// UpdateStatus transitions the record's status and appends exactly one
// audit entry, both inside a single transaction. On a version conflict
// the transaction is rolled back: no log entry, no mutation.
func (r *LicenceRepository) UpdateStatus(ctx context.Context, id int64, newStatus domain.LicenceStatus, reason, changedBy string, expectedVersion int64) error {
	if id <= 0 {
		return repository.ErrNotFound
	}

	tx, err := r.exec.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin status transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	selectStmt, selectArgs, err := r.builder.
		Select("statut").
		From("ufsc.licences").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select statut sql: %w", err)
	}

	var oldStatus domain.LicenceStatus
	if err := tx.QueryRow(ctx, selectStmt, selectArgs...).Scan(&oldStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("scan statut: %w", err)
	}

	changedAt := time.Now().UTC()

	updateStmt, updateArgs, err := r.builder.Update("ufsc.licences").
		Set("statut", newStatus).
		Set("version", expectedVersion+1).
		Set("updated_at", changedAt).
		Where(squirrel.Eq{"id": id, "version": expectedVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update statut sql: %w", err)
	}

	ct, err := tx.Exec(ctx, updateStmt, updateArgs...)
	if err != nil {
		return fmt.Errorf("update statut: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}

	logStmt, logArgs, err := transitionInsert(r.builder, domain.StatusTransition{
		LicenceID: id,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Reason:    reason,
		ChangedBy: changedBy,
		ChangedAt: changedAt,
	})
	if err != nil {
		return fmt.Errorf("build insert transition sql: %w", err)
	}

	if _, err := tx.Exec(ctx, logStmt, logArgs...); err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit status transaction: %w", err)
	}

	return nil
}

// Delete removes a licence row. Historical transition log entries are
// deliberately left intact.
func (r *LicenceRepository) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return repository.ErrNotFound
	}

	stmt, args, err := r.builder.Delete("ufsc.licences").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete licence sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete licence: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// FindDuplicate looks for an existing record with the same identity
// tuple inside the same club. Rejected records never block recreation
// of the same person. Duplicate checks always hit storage directly:
// staleness here would let real duplicates through.
func (r *LicenceRepository) FindDuplicate(ctx context.Context, candidate domain.DuplicateCandidate) (int64, error) {
	if !candidate.Complete() {
		return 0, repository.ErrNotFound
	}

	stmt, args, err := r.builder.
		Select("id").
		From("ufsc.licences").
		Where(squirrel.Eq{
			"club_id":        candidate.ClubID,
			"nom":            candidate.Nom,
			"prenom":         candidate.Prenom,
			"date_naissance": candidate.DateNaissance,
		}).
		Where(squirrel.NotEq{"statut": domain.StatusRefusee}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build select duplicate sql: %w", err)
	}

	var id int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("scan duplicate: %w", err)
	}

	return id, nil
}

// ListByFilters returns a club's licences, newest created first, each
// decorated with the owning club's display name. An empty club scope
// is vacuous, not malformed: a non-positive club id yields an empty
// list without querying.
func (r *LicenceRepository) ListByFilters(ctx context.Context, filter port.LicenceFilter) ([]domain.Licence, error) {
	if filter.ClubID <= 0 {
		return []domain.Licence{}, nil
	}

	query := r.builder.
		Select(
			"l.id",
			"l.club_id",
			"l.nom",
			"l.prenom",
			"l.date_naissance",
			"l.email",
			"l.categorie",
			"l.statut",
			"l.is_included",
			"l.version",
			"l.created_at",
			"l.updated_at",
			"c.nom AS club_name",
		).
		From("ufsc.licences l").
		LeftJoin("ufsc.clubs c ON c.id = l.club_id").
		Where(squirrel.Eq{"l.club_id": filter.ClubID}).
		OrderBy("l.created_at DESC", "l.id DESC")

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"l.nom": pattern},
			squirrel.ILike{"l.prenom": pattern},
			squirrel.ILike{"l.email": pattern},
		})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list licences sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query licences: %w", err)
	}
	defer rows.Close()

	licences := make([]domain.Licence, 0)
	for rows.Next() {
		var (
			licence   domain.Licence
			categorie sql.NullString
			clubName  sql.NullString
		)

		if err := rows.Scan(
			&licence.ID,
			&licence.ClubID,
			&licence.Nom,
			&licence.Prenom,
			&licence.DateNaissance,
			&licence.Email,
			&categorie,
			&licence.Statut,
			&licence.IsIncluded,
			&licence.Version,
			&licence.CreatedAt,
			&licence.UpdatedAt,
			&clubName,
		); err != nil {
			return nil, fmt.Errorf("scan licence: %w", err)
		}

		if categorie.Valid {
			value := categorie.String
			licence.Categorie = &value
		}
		if clubName.Valid {
			licence.ClubName = clubName.String
		}

		licences = append(licences, licence)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate licences: %w", err)
	}

	return licences, nil
}

func scanLicence(row pgx.Row) (*domain.Licence, error) {
	var (
		licence   domain.Licence
		categorie sql.NullString
	)

	if err := row.Scan(
		&licence.ID,
		&licence.ClubID,
		&licence.Nom,
		&licence.Prenom,
		&licence.DateNaissance,
		&licence.Email,
		&categorie,
		&licence.Statut,
		&licence.IsIncluded,
		&licence.Version,
		&licence.CreatedAt,
		&licence.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if categorie.Valid {
		value := categorie.String
		licence.Categorie = &value
	}

	return &licence, nil
}
