package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
)

// Commits on the same entity are serialized across instances so two racing
// commits cannot interleave their upload and write phases. Document content is
// still last-writer-wins.
const commitLockTTL = 45 * time.Second

var ErrCommitInProgress = errors.New("another save for this record is already in progress")

func acquireCommitLock(ctx context.Context, locker *redislock.Client, collection string, id string) (*redislock.Lock, error) {
	lock, err := locker.Obtain(ctx, "commit:"+collection+":"+id, commitLockTTL, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, ErrCommitInProgress
		}
		return nil, err
	}
	return lock, nil
}
