package domain

// Club is owned externally; the licence store only reads it for
// display names and quota checks.
type Club struct {
	ID            int64
	Nom           string
	QuotaIncluses int
}
