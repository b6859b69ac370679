package notifier

import (
	"sync"

	"github.com/google/uuid"
)

// ErrorIDGenerator produces the correlation ID stamped onto every
// notified Error under the "error_id" tag, so operators can correlate a
// single event across the Fatal/Error/Warning stream it may be reported
// through more than once.
type ErrorIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 error IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, making IDs
// sortable by creation time, which helps when eyeballing a raw log of
// notified errors.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined IDs for deterministic tests.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal
// mutex.
type FixedGenerator struct {
	mu   sync.Mutex
	ids  []string
	next int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Panics immediately if called with no ids. Unlike a flow token, an
// error ID is not optional metadata a caller can choose to skip: Notify
// stamps one onto every Error it delivers to its listeners, so a test
// double with nothing to hand back is a
// misconfiguration worth catching before the first Notify call rather
// than at it.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	if len(ids) == 0 {
		panic("notifier: NewFixedGenerator requires at least one id")
	}
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all ids have been consumed, to fail fast on test
// misconfiguration rather than silently wrapping around.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.next >= len(g.ids) {
		panic("notifier: FixedGenerator ids exhausted")
	}
	id := g.ids[g.next]
	g.next++
	return id
}
