// Package shadowlimit mirrors the server's fixed-window rate limiting on the
// client side so a caller can disable a doomed submit and show a countdown
// before wasting a network round trip. It is never authoritative: the server
// decides, this package only predicts.
package shadowlimit

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Policy mirrors the server-side budget for one action.
type Policy struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

// DefaultPolicies matches the server's reference budgets.
func DefaultPolicies() map[string]Policy {
	return map[string]Policy{
		"login":    {MaxAttempts: 5, Window: 60 * time.Second, BlockDuration: 15 * time.Minute},
		"register": {MaxAttempts: 3, Window: 60 * time.Second, BlockDuration: 30 * time.Minute},
		"api":      {MaxAttempts: 100, Window: 60 * time.Second, BlockDuration: 60 * time.Second},
	}
}

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type record struct {
	Attempts      int       `json:"attempts"`
	WindowResetAt time.Time `json:"window_reset_at"`
	Blocked       bool      `json:"blocked"`
}

// Limiter keeps its state in a local JSON file keyed by action name only:
// the client represents a single identity, so no composite key is needed.
// All persistence is best effort; a missing, unreadable or unwritable state
// file never blocks the caller.
type Limiter struct {
	mu       sync.Mutex
	path     string
	policies map[string]Policy
}

func New(path string, policies map[string]Policy) *Limiter {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Limiter{path: path, policies: policies}
}

// Check records a local attempt for action and predicts whether the server
// would accept it. Actions without a policy are always allowed.
func (l *Limiter) Check(action string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy, ok := l.policies[action]
	if !ok {
		return Result{Allowed: true}
	}

	now := time.Now()
	state := l.load()

	rec := state[action]
	if rec == nil || now.After(rec.WindowResetAt) {
		rec = &record{WindowResetAt: now.Add(policy.Window)}
		state[action] = rec
	}

	if rec.Blocked {
		return Result{Allowed: false, RetryAfter: rec.WindowResetAt.Sub(now)}
	}

	rec.Attempts++
	if rec.Attempts > policy.MaxAttempts {
		rec.Blocked = true
		rec.WindowResetAt = now.Add(policy.BlockDuration)
	}
	l.save(state)

	if rec.Blocked {
		return Result{Allowed: false, RetryAfter: rec.WindowResetAt.Sub(now)}
	}
	return Result{Allowed: true, Remaining: policy.MaxAttempts - rec.Attempts}
}

// RecordSuccess zeroes the counter for action after the server confirmed the
// action succeeded, mirroring the server's reset-on-success rule.
func (l *Limiter) RecordSuccess(action string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	policy, ok := l.policies[action]
	if !ok {
		return
	}

	state := l.load()
	state[action] = &record{WindowResetAt: time.Now().Add(policy.Window)}
	l.save(state)
}

// load reads the state file. Any failure yields a clean slate.
func (l *Limiter) load() map[string]*record {
	state := make(map[string]*record)

	data, err := os.ReadFile(l.path)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return make(map[string]*record)
	}
	return state
}

func (l *Limiter) save(state map[string]*record) {
	data, err := json.Marshal(state)
	if err != nil {
		return
	}
	_ = os.WriteFile(l.path, data, 0o600)
}
