package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"todovault/internal/kv"
)

func testPolicies() map[string]Policy {
	return map[string]Policy{
		ActionLogin:    {MaxAttempts: 5, Window: 60 * time.Second, BlockDuration: 15 * time.Minute},
		ActionRegister: {MaxAttempts: 3, Window: 60 * time.Second, BlockDuration: 30 * time.Minute},
		ActionAPI:      {MaxAttempts: 100, Window: 60 * time.Second, BlockDuration: 60 * time.Second},
	}
}

func TestCheck_AllowsUpToCeiling(t *testing.T) {
	limiter := New(kv.NewMemory(), testPolicies())
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		result, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
		assert.NoError(t, err)
		assert.True(t, result.Allowed, "attempt %d should be allowed", i)
		assert.Equal(t, 5-i, result.Remaining)
	}

	result, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.NoError(t, err)
	assert.False(t, result.Allowed, "6th attempt should be rejected")
}

func TestCheck_BlockUsesBlockDurationNotWindow(t *testing.T) {
	limiter := New(kv.NewMemory(), testPolicies())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = limiter.Check(ctx, ActionLogin, "1.2.3.4")
	}

	result, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.NoError(t, err)
	assert.False(t, result.Allowed)
	// 15m block, not the 60s window
	assert.Greater(t, result.RetryAfter, 10*time.Minute)
}

func TestCheck_BlockedAttemptsDoNotInflateCounter(t *testing.T) {
	store := kv.NewMemory()
	limiter := New(store, testPolicies())
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = limiter.Check(ctx, ActionLogin, "1.2.3.4")
	}

	raw, err := store.Get(ctx, "ratelimit:login:1.2.3.4")
	assert.NoError(t, err)

	// hammer while blocked
	for i := 0; i < 10; i++ {
		result, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
		assert.NoError(t, err)
		assert.False(t, result.Allowed)
	}

	after, err := store.Get(ctx, "ratelimit:login:1.2.3.4")
	assert.NoError(t, err)
	assert.Equal(t, raw, after, "blocked attempts must not rewrite the record")
}

func TestCheck_IndependentCompositeKeys(t *testing.T) {
	limiter := New(kv.NewMemory(), testPolicies())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = limiter.Check(ctx, ActionRegister, "1.2.3.4")
	}
	blocked, _ := limiter.Check(ctx, ActionRegister, "1.2.3.4")
	assert.False(t, blocked.Allowed)

	// fresh identity, same action
	other, err := limiter.Check(ctx, ActionRegister, "5.6.7.8")
	assert.NoError(t, err)
	assert.True(t, other.Allowed)

	// same identity, different action
	login, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.NoError(t, err)
	assert.True(t, login.Allowed)
}

func TestReset_ZeroesCounter(t *testing.T) {
	limiter := New(kv.NewMemory(), testPolicies())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = limiter.Check(ctx, ActionLogin, "1.2.3.4")
	}

	assert.NoError(t, limiter.Reset(ctx, ActionLogin, "1.2.3.4"))

	result, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 4, result.Remaining)
}

func TestCheck_ElapsedWindowStartsFresh(t *testing.T) {
	policies := testPolicies()
	policies[ActionLogin] = Policy{MaxAttempts: 2, Window: 10 * time.Millisecond, BlockDuration: 15 * time.Minute}
	limiter := New(kv.NewMemory(), policies)
	ctx := context.Background()

	_, _ = limiter.Check(ctx, ActionLogin, "1.2.3.4")
	_, _ = limiter.Check(ctx, ActionLogin, "1.2.3.4")

	time.Sleep(20 * time.Millisecond)

	result, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Remaining)
}

func TestCheck_ElapsedBlockUnblocksAndZeroes(t *testing.T) {
	policies := testPolicies()
	policies[ActionLogin] = Policy{MaxAttempts: 1, Window: 10 * time.Millisecond, BlockDuration: 20 * time.Millisecond}
	limiter := New(kv.NewMemory(), policies)
	ctx := context.Background()

	_, _ = limiter.Check(ctx, ActionLogin, "1.2.3.4")
	blocked, _ := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.False(t, blocked.Allowed)

	time.Sleep(30 * time.Millisecond)

	result, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestCheck_BlockOutlivesOriginalWindow(t *testing.T) {
	policies := testPolicies()
	policies[ActionLogin] = Policy{MaxAttempts: 1, Window: 10 * time.Millisecond, BlockDuration: time.Hour}
	limiter := New(kv.NewMemory(), policies)
	ctx := context.Background()

	_, _ = limiter.Check(ctx, ActionLogin, "1.2.3.4")
	blocked, _ := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.False(t, blocked.Allowed)

	// wait past the point where the pre-block window would have reset
	time.Sleep(20 * time.Millisecond)

	result, err := limiter.Check(ctx, ActionLogin, "1.2.3.4")
	assert.NoError(t, err)
	assert.False(t, result.Allowed, "block clock replaced the window clock")
}

func TestCheck_UnknownActionFallsBackToAPIPolicy(t *testing.T) {
	limiter := New(kv.NewMemory(), testPolicies())

	result, err := limiter.Check(context.Background(), "export", "1.2.3.4")
	assert.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 99, result.Remaining)
}

func TestCheck_NoPolicyAtAll(t *testing.T) {
	limiter := New(kv.NewMemory(), map[string]Policy{})

	_, err := limiter.Check(context.Background(), "export", "1.2.3.4")
	assert.Error(t, err)
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

func TestCheck_StoreFailureIsNotFailOpen(t *testing.T) {
	limiter := New(failingKV{}, testPolicies())

	_, err := limiter.Check(context.Background(), ActionLogin, "1.2.3.4")
	assert.Error(t, err)
}
