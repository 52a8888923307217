package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
	"github.com/davyreactiv/ufsc-licence-service/internal/core/port"
	"github.com/davyreactiv/ufsc-licence-service/internal/repository"
)

// ClubRepository is a read-only query surface over clubs, used for
// list decoration and included-quota checks.
type ClubRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewClubRepository constructs the repository from a generic executor.
func NewClubRepository(exec pgExecutor) *ClubRepository {
	repo := &ClubRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if pool, ok := exec.(*pgxpool.Pool); ok {
		repo.pool = pool
	}
	return repo
}

var _ port.ClubRepository = (*ClubRepository)(nil)

// GetByID retrieves a club by identifier.
func (r *ClubRepository) GetByID(ctx context.Context, id int64) (*domain.Club, error) {
	if id <= 0 {
		return nil, repository.ErrNotFound
	}

	stmt, args, err := r.builder.
		Select("id", "nom", "quota_incluses").
		From("ufsc.clubs").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select club sql: %w", err)
	}

	var club domain.Club
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&club.ID, &club.Nom, &club.QuotaIncluses); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan club: %w", err)
	}

	return &club, nil
}

// GetName returns the club's display name.
func (r *ClubRepository) GetName(ctx context.Context, id int64) (string, error) {
	club, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return club.Nom, nil
}

// CountIncludedLicences counts the club's licences marked as covered
// by the bundled allotment.
func (r *ClubRepository) CountIncludedLicences(ctx context.Context, clubID int64) (int, error) {
	if clubID <= 0 {
		return 0, nil
	}

	stmt, args, err := r.builder.
		Select("COUNT(*)").
		From("ufsc.licences").
		Where(squirrel.Eq{"club_id": clubID, "is_included": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count included sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan included count: %w", err)
	}

	return int(count), nil
}

// HasRemainingIncludedQuota compares the club's configured quota
// against its current included-licence count. Advisory only: the read
// takes no lock, so a race can under- or over-admit by at most one
// licence.
func (r *ClubRepository) HasRemainingIncludedQuota(ctx context.Context, clubID int64) (bool, error) {
	if clubID <= 0 {
		return false, nil
	}

	club, err := r.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	count, err := r.CountIncludedLicences(ctx, clubID)
	if err != nil {
		return false, err
	}

	return count < club.QuotaIncluses, nil
}
