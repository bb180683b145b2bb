// Package conversation maps inbound messaging identities to pipeline runs so
// concurrent messages from the same sender reuse one run instead of spawning
// duplicates.
package conversation

import "sync"

// Tracker associates a conversation key, typically the sender's WhatsApp
// number, with the run currently serving it. All operations are safe for
// concurrent use.
type Tracker struct {
	mu     sync.Mutex
	active map[string]string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]string)}
}

// Claim atomically binds key to runID unless another run already holds the
// key and stillActive reports it as live. It returns the run id that owns the
// key and whether the claim succeeded. The check and the swap happen under
// one lock, so two concurrent claims for the same key cannot both win.
func (t *Tracker) Claim(key, runID string, stillActive func(existingRunID string) bool) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.active[key]; ok {
		if stillActive != nil && stillActive(existing) {
			return existing, false
		}
	}
	t.active[key] = runID
	return runID, true
}

// Lookup returns the run currently bound to the key, if any.
func (t *Tracker) Lookup(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	runID, ok := t.active[key]
	return runID, ok
}

// Release unbinds the key. Safe to call for keys that were never claimed.
func (t *Tracker) Release(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, key)
}
