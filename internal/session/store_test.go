package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todovault/internal/kv"
	"todovault/internal/pkg/signature"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	signer, err := signature.New("test-secret-123")
	assert.NoError(t, err)

	store, err := New(kv.NewMemory(), signer, time.Hour)
	assert.NoError(t, err)
	return store
}

func TestNew_InvalidTTL(t *testing.T) {
	signer, _ := signature.New("test-secret-123")

	_, err := New(kv.NewMemory(), signer, 0)
	assert.Error(t, err)
}

func TestPutMatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Put(ctx, "u1", "token-abc"))

	ok, err := store.Matches(ctx, "u1", "token-abc")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_NoRecordMeansRevoked(t *testing.T) {
	store := newTestStore(t)

	ok, err := store.Matches(context.Background(), "u1", "token-abc")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMatches_StaleTokenAfterNewLogin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.Put(ctx, "u1", "token-old")
	_ = store.Put(ctx, "u1", "token-new")

	ok, _ := store.Matches(ctx, "u1", "token-old")
	assert.False(t, ok)

	ok, _ = store.Matches(ctx, "u1", "token-new")
	assert.True(t, ok)
}

func TestDelete_RevokesSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.Put(ctx, "u1", "token-abc")
	assert.NoError(t, store.Delete(ctx, "u1"))

	ok, err := store.Matches(ctx, "u1", "token-abc")
	assert.NoError(t, err)
	assert.False(t, ok)
}

type failingKV struct{}

func (failingKV) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("connection refused")
}
func (failingKV) Put(ctx context.Context, key, value string, expireAt time.Time) error {
	return errors.New("connection refused")
}
func (failingKV) Delete(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func TestMatches_StoreFailurePropagates(t *testing.T) {
	signer, _ := signature.New("test-secret-123")
	store, _ := New(failingKV{}, signer, time.Hour)

	_, err := store.Matches(context.Background(), "u1", "token-abc")
	assert.Error(t, err)
}
