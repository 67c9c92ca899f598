package builder

import (
	"context"
	"time"

	"github.com/annstore/vecdb/cmn"
	"github.com/annstore/vecdb/store"
)

// lockDoc is the advisory builder lease persisted at
// indexes/<name>/.builder.lock (§4.6 "Concurrency", §5 "Locking"). It has
// no compare-and-swap behind it — the object store offers none — so
// acquisition is optimistic: read, check expiry, write, re-read to catch
// a racing writer that also just wrote.
type lockDoc struct {
	Owner   string    `json:"owner"`
	Expires time.Time `json:"expires"`
}

// acquireLease takes the builder's advisory lock for index, or returns a
// Dependency error (retryable, not fatal, per §4.6 "contention is a
// retryable error, not a fatal one") if another owner holds a live lease.
func acquireLease(ctx context.Context, s store.Adapter, vectorBucket, index, owner string, ttl time.Duration) error {
	key := store.BuilderLockKey(index)
	now := time.Now()

	var existing lockDoc
	if err := s.GetJSON(ctx, vectorBucket, key, &existing); err == nil {
		if existing.Owner != owner && existing.Expires.After(now) {
			return cmn.WrapError(cmn.KindDependency, nil, "index %q builder lease held by %q until %s", index, existing.Owner, existing.Expires)
		}
	} else if cmn.AsError(err).Kind != cmn.KindNotFound {
		return err
	}

	mine := lockDoc{Owner: owner, Expires: now.Add(ttl)}
	if err := s.PutJSON(ctx, vectorBucket, key, mine); err != nil {
		return err
	}

	// Re-read to catch a writer that raced us between the check above and
	// our own write (observed-and-re-read, same reconciliation idiom the
	// schema engine uses for racing column adds).
	var after lockDoc
	if err := s.GetJSON(ctx, vectorBucket, key, &after); err != nil {
		return err
	}
	if after.Owner != owner {
		return cmn.WrapError(cmn.KindDependency, nil, "index %q builder lease lost to a racing writer", index)
	}
	return nil
}

func releaseLease(ctx context.Context, s store.Adapter, vectorBucket, index, owner string) {
	key := store.BuilderLockKey(index)
	var existing lockDoc
	if err := s.GetJSON(ctx, vectorBucket, key, &existing); err != nil {
		return
	}
	if existing.Owner != owner {
		return // someone else's lease already replaced ours (TTL expired); leave it alone
	}
	_ = s.DeleteObject(ctx, vectorBucket, key)
}
