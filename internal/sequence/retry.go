package sequence

import (
	"context"
	"fmt"
	"time"

	"ms-backoffice/internal/apperr"
	"ms-backoffice/internal/database"
)

const MaxAttempts = 3

// WithRetry runs fn, a whole transaction that allocates an identifier of kind for now and inserts
// the row carrying it. A collision with an existing identifier rolls the counter back together with
// the transaction, so the counter is resynced past the stored identifiers before fn runs again.
// After MaxAttempts collisions it gives up with a ConflictError.
func (a *Allocator) WithRetry(ctx context.Context, kind Kind, now time.Time, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if err = fn(ctx); err == nil || !database.IsUniqueViolation(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		floor, rerr := a.Resync(ctx, kind, now)
		if rerr != nil {
			return rerr
		}
		if a.Logger != nil {
			a.Logger.Warn("SEQUENCE", fmt.Sprintf("%s identifier collided, counter resynced to %d (attempt %d)", kind, floor, attempt+1))
		}
	}
	return &apperr.ConflictError{Msg: "could not allocate a unique " + string(kind) + " identifier", Err: err}
}
