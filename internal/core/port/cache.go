package port

import (
	"context"
	"time"

	"github.com/davyreactiv/ufsc-licence-service/internal/core/domain"
)

// LicenceCache holds the last-known-good snapshot of a licence record.
// A miss is reported as found=false, never as an error. Only the
// service layer mutates the cache: populate-on-read-miss and
// invalidate-on-successful-write.
type LicenceCache interface {
	Get(ctx context.Context, id int64) (*domain.Licence, bool, error)
	Set(ctx context.Context, licence domain.Licence, ttl time.Duration) error
	Delete(ctx context.Context, id int64) error
}
