package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

func TestKeyLocker_MutualExclusion(t *testing.T) {
	locker := NewKeyLocker()
	key := shared.ProgressKey{UserID: "user-1", RoadmapID: "roadmap-go"}

	unlock, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), key)
	assert.ErrorIs(t, err, shared.ErrKeyLocked)

	unlock()

	unlock2, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)
	unlock2()
}

func TestKeyLocker_IndependentKeys(t *testing.T) {
	locker := NewKeyLocker()

	unlockA, err := locker.Acquire(context.Background(), shared.ProgressKey{UserID: "a", RoadmapID: "r"})
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := locker.Acquire(context.Background(), shared.ProgressKey{UserID: "b", RoadmapID: "r"})
	require.NoError(t, err)
	defer unlockB()
}

func TestKeyLocker_UnlockIsIdempotent(t *testing.T) {
	locker := NewKeyLocker()
	key := shared.ProgressKey{UserID: "user-1", RoadmapID: "roadmap-go"}

	unlock, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)

	unlock()
	unlock() // double release must not free a successor's lock

	unlock2, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)
	defer unlock2()

	_, err = locker.Acquire(context.Background(), key)
	assert.ErrorIs(t, err, shared.ErrKeyLocked)
}
