package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Licences    *LicenceRepository
	Transitions *TransitionLogRepository
	Clubs       *ClubRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Licences:    NewLicenceRepository(pool),
		Transitions: NewTransitionLogRepository(pool),
		Clubs:       NewClubRepository(pool),
	}
}
