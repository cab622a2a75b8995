// Package retry implements the small bounded retry loop the engine
// wraps around the batched edge writes of one set-edges or delete-edges
// call (Engine.applyWrites; §4.3.6, §5, §9). Only the writes are
// repeated: the edges are read and the inserts, replacements and
// deletions planned once, before the loop. A retry happens only for
// dicterr.ErrConflict, which the pkg/store implementations do not
// return.
//
// Grounded on the teacher's apoc/atomic (CompareAndSwap — a single
// optimistic-update primitive) and apoc/lock (WithLock — "do this under
// a guard, return a value or an error"); the dictionary core has no
// in-process lock manager to borrow (the store provides the only
// atomicity, per §4.3.6), so WithLock's retry-until-you-get-it shape is
// adapted into a fixed-attempt optimistic loop instead of pessimistic
// locking.
package retry

import (
	"errors"

	"github.com/orneryd/dictionarydb/internal/dicterr"
)

// MaxAttempts is the bound named in §9's design note.
const MaxAttempts = 3

// Do runs fn up to MaxAttempts times, retrying only while fn reports a
// conflict (errors.Is(err, dicterr.ErrConflict)). Any other error, or
// success, returns immediately. Exhausting all attempts on conflicts
// surfaces dicterr.WriteConflict.
func Do(fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !errors.Is(err, dicterr.ErrConflict) {
			return err
		}
	}
	return dicterr.Wrap(dicterr.WriteConflict, "exceeded retry attempts on edge write", lastErr)
}
