package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"todovault/internal/kv"
)

// Actions with dedicated budgets. Anything else falls back to ActionAPI.
const (
	ActionLogin    = "login"
	ActionRegister = "register"
	ActionAPI      = "api"
)

// Policy is the budget for one action: how many attempts fit in a window and
// how long the penalty lasts once the ceiling is exceeded.
type Policy struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

// DefaultPolicies returns the reference budgets.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		ActionLogin:    {MaxAttempts: 5, Window: 60 * time.Second, BlockDuration: 15 * time.Minute},
		ActionRegister: {MaxAttempts: 3, Window: 60 * time.Second, BlockDuration: 30 * time.Minute},
		ActionAPI:      {MaxAttempts: 100, Window: 60 * time.Second, BlockDuration: 60 * time.Second},
	}
}

// Record is the per-key counter persisted in the store. Once Blocked flips,
// WindowResetAt holds the end of the block period instead of the window end.
type Record struct {
	Attempts      int       `json:"attempts"`
	WindowResetAt time.Time `json:"window_reset_at"`
	Blocked       bool      `json:"blocked"`
}

// Result is what a caller needs to either proceed or build a 429.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

var errNoPolicy = errors.New("ratelimit: no policy configured for action")

// Limiter counts attempts per action and client identity in a fixed window
// and escalates to a block once the ceiling is exceeded. State lives in the
// shared key-value store; the read-modify-write below is not transactional,
// so truly simultaneous hits on one key can overshoot the ceiling by a small
// bounded margin before the block lands.
type Limiter struct {
	store    kv.Store
	policies map[string]Policy
}

func New(store kv.Store, policies map[string]Policy) *Limiter {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Limiter{store: store, policies: policies}
}

func (l *Limiter) policy(action string) (Policy, error) {
	if p, ok := l.policies[action]; ok {
		return p, nil
	}
	if p, ok := l.policies[ActionAPI]; ok {
		return p, nil
	}
	return Policy{}, fmt.Errorf("%w: %s", errNoPolicy, action)
}

func compositeKey(action, clientID string) string {
	return "ratelimit:" + action + ":" + clientID
}

// Check records one attempt for (action, clientID) and decides whether it is
// within budget. A store failure is returned as-is; the caller must fail the
// request rather than let it through unmetered.
func (l *Limiter) Check(ctx context.Context, action, clientID string) (Result, error) {
	policy, err := l.policy(action)
	if err != nil {
		return Result{}, err
	}

	now := time.Now()
	key := compositeKey(action, clientID)

	record, err := l.load(ctx, key)
	if err != nil {
		return Result{}, err
	}
	if record == nil || now.After(record.WindowResetAt) {
		// Fresh window. A blocked record whose block period has elapsed
		// lands here too: it unblocks and starts from zero.
		record = &Record{WindowResetAt: now.Add(policy.Window)}
	}

	if record.Blocked {
		// Still inside the block period. Do not increment: retries while
		// blocked must not inflate the counter.
		return Result{Allowed: false, RetryAfter: record.WindowResetAt.Sub(now)}, nil
	}

	record.Attempts++
	if record.Attempts > policy.MaxAttempts {
		record.Blocked = true
		record.WindowResetAt = now.Add(policy.BlockDuration)
	}

	if err := l.persist(ctx, key, record, now); err != nil {
		return Result{}, err
	}

	result := Result{Allowed: !record.Blocked}
	if record.Blocked {
		result.RetryAfter = record.WindowResetAt.Sub(now)
	} else {
		result.Remaining = policy.MaxAttempts - record.Attempts
	}
	return result, nil
}

// Reset zeroes the counter for (action, clientID). Handlers call this when
// the action actually succeeded, so one mistyped password does not keep
// counting against the user across otherwise-successful sessions.
func (l *Limiter) Reset(ctx context.Context, action, clientID string) error {
	policy, err := l.policy(action)
	if err != nil {
		return err
	}

	now := time.Now()
	record := &Record{WindowResetAt: now.Add(policy.Window)}
	return l.persist(ctx, compositeKey(action, clientID), record, now)
}

func (l *Limiter) load(ctx context.Context, key string) (*Record, error) {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		// Unreadable state is indistinguishable from no state.
		return nil, nil
	}
	return &record, nil
}

func (l *Limiter) persist(ctx context.Context, key string, record *Record, now time.Time) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// The record must outlive both its window and any block, but the store
	// refuses expirations under its minimum TTL.
	expireAt := record.WindowResetAt
	if floor := now.Add(kv.MinTTL); expireAt.Before(floor) {
		expireAt = floor
	}
	return l.store.Put(ctx, key, string(data), expireAt)
}
