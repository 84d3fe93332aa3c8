package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := newKeyedMutex()
	ctx := context.Background()

	release, err := km.Acquire(ctx, "k1")
	require.NoError(t, err)

	blocked, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = km.Acquire(blocked, "k1")
	assert.ErrorIs(t, err, ErrConcurrencyTimeout)

	release()
	release2, err := km.Acquire(ctx, "k1")
	require.NoError(t, err)
	release2()
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := newKeyedMutex()
	ctx := context.Background()

	release1, err := km.Acquire(ctx, "k1")
	require.NoError(t, err)
	defer release1()

	release2, err := km.Acquire(ctx, "k2")
	require.NoError(t, err)
	release2()
}

func TestKeyedMutexDropsIdleEntries(t *testing.T) {
	km := newKeyedMutex()
	ctx := context.Background()

	release, err := km.Acquire(ctx, "k1")
	require.NoError(t, err)
	release()

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.entries, "released keys do not accumulate")
}
