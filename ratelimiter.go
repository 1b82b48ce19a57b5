package orbix

import (
	"sync"
	"time"
)

// Rate-limit method groups. Groups bundle logically related operations
// under one trailing-window budget; the limiter looks a group's limit up
// by name at check time.
const (
	GroupUsers      = "users"
	GroupFriends    = "friends"
	GroupThumbnails = "thumbnails"
	GroupCounts     = "counts"
	GroupBadges     = "badges"
	GroupPresence   = "presence"
	GroupGames      = "games"
	GroupAvatar     = "avatar"
	GroupInventory  = "inventory"
)

// DefaultRateLimits holds the per-minute call budgets applied when no
// override is configured. General reads get 120/min, avatar thumbnails
// 180/min and the aggregate count endpoints 60/min.
var DefaultRateLimits = map[string]int{
	GroupUsers:      120,
	GroupFriends:    120,
	GroupThumbnails: 180,
	GroupCounts:     60,
	GroupBadges:     120,
	GroupPresence:   120,
	GroupGames:      120,
	GroupAvatar:     120,
	GroupInventory:  120,
}

// rateWindow tracks call timestamps for one group over a trailing window.
// Each group has its own mutex so unrelated groups never serialize.
type rateWindow struct {
	mu    sync.Mutex
	limit int
	span  time.Duration
	calls []time.Time // oldest first
	now   func() time.Time
}

// check prunes timestamps that left the window, then admits and records
// the call if the budget allows. On rejection it returns the time until
// the oldest in-window call expires.
func (w *rateWindow) check() (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	cutoff := now.Add(-w.span)

	drop := 0
	for drop < len(w.calls) && !w.calls[drop].After(cutoff) {
		drop++
	}
	if drop > 0 {
		w.calls = append(w.calls[:0], w.calls[drop:]...)
	}

	if len(w.calls) < w.limit {
		w.calls = append(w.calls, now)
		return true, 0
	}

	return false, w.calls[0].Add(w.span).Sub(now)
}

func (w *rateWindow) inWindow() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := w.now().Add(-w.span)
	n := 0
	for _, t := range w.calls {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}

// RateLimiterRegistry maps method-group names to independent
// trailing-window limiters. Groups without a configured limit are
// admitted unconditionally. Safe for concurrent use.
type RateLimiterRegistry struct {
	mu     sync.RWMutex
	groups map[string]*rateWindow
	span   time.Duration
	now    func() time.Time
}

// NewRateLimiterRegistry creates a registry with the given window span
// and per-group limits. A zero span defaults to one minute.
func NewRateLimiterRegistry(span time.Duration, limits map[string]int) *RateLimiterRegistry {
	if span <= 0 {
		span = time.Minute
	}
	r := &RateLimiterRegistry{
		groups: make(map[string]*rateWindow, len(limits)),
		span:   span,
		now:    time.Now,
	}
	for group, limit := range limits {
		r.SetLimit(group, limit)
	}
	return r
}

// SetLimit registers or replaces the budget for a group. The group's
// recorded calls are kept when only the limit changes.
func (r *RateLimiterRegistry) SetLimit(group string, limit int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.groups[group]; ok {
		w.mu.Lock()
		w.limit = limit
		w.mu.Unlock()
		return
	}
	r.groups[group] = &rateWindow{limit: limit, span: r.span, now: r.now}
}

// Check admits or rejects a call for the group. On rejection the second
// return value is the suggested wait before the next attempt. The caller
// decides whether to wait or propagate; Check never blocks.
func (r *RateLimiterRegistry) Check(group string) (bool, time.Duration) {
	r.mu.RLock()
	w, ok := r.groups[group]
	r.mu.RUnlock()

	if !ok {
		return true, 0
	}
	return w.check()
}

// Usage returns the number of calls currently counted against the group.
func (r *RateLimiterRegistry) Usage(group string) int {
	r.mu.RLock()
	w, ok := r.groups[group]
	r.mu.RUnlock()

	if !ok {
		return 0
	}
	return w.inWindow()
}
