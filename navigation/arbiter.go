// Package navigation gates orbit-style camera controls while an object is
// being dragged.
package navigation

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Arbiter reports navigation as enabled when no holder has acquired it.
// Acquire and Release are idempotent per holder, so a release that follows
// a missed pointer and a regular pointer-up does not double count.
type Arbiter struct {
	mu       sync.Mutex
	holders  map[any]struct{}
	onChange func(enabled bool)
}

func NewArbiter() *Arbiter {
	return &Arbiter{holders: make(map[any]struct{})}
}

// OnChange sets the callback invoked whenever Enabled flips.
func (a *Arbiter) OnChange(fn func(enabled bool)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// Acquire disables navigation on behalf of holder.
func (a *Arbiter) Acquire(holder any) {
	a.update(func() { a.holders[holder] = struct{}{} })
}

// Release drops holder's claim.
func (a *Arbiter) Release(holder any) {
	a.update(func() { delete(a.holders, holder) })
}

func (a *Arbiter) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.holders) == 0
}

func (a *Arbiter) update(fn func()) {
	a.mu.Lock()
	before := len(a.holders) == 0
	fn()
	after := len(a.holders) == 0
	cb := a.onChange
	a.mu.Unlock()

	if before == after {
		return
	}
	logrus.WithField("enabled", after).Debug("Camera navigation toggled")
	if cb != nil {
		cb(after)
	}
}
