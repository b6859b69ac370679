// Package notifier implements the process-wide error/corruption dispatch
// fabric the repair assembler reports progress and failures through,
// independent of any one assembler's latched error slot. It is the Go
// rendition of WCDB's Notifier singleton.
package notifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wcdbgo/repair/internal/repair"
)

// CorruptionPathTag is the key under which a corruption event's absolute
// destination path is carried.
const CorruptionPathTag = "path"

// DefaultLogListenerName is the well-known listener name reserved for the
// default logging sink. It is part of the external contract: an
// unmodified upstream driver registers against this literal string, and
// a sibling implementation that renamed it would silently stop receiving
// that driver's diagnostics.
const DefaultLogListenerName = "com.Tencent.WCDB.Notifier.Log"

// Callback receives every notified Error.
type Callback func(repair.Error)

// CorruptionCallback receives the absolute path of a database detected
// as corrupted.
type CorruptionCallback func(path string)

// Registry is the process-wide dispatcher: a keyed map of listeners and
// an optional distinguished corruption sink, guarded by a
// readers-writer lock. Delivery (Notify) takes the shared lock;
// registration (SetListener, SetCorruptionListener) takes the exclusive
// lock.
type Registry struct {
	mu                 sync.RWMutex
	listeners          map[string]Callback
	corruptionListener CorruptionCallback
	idGen              ErrorIDGenerator
}

var shared = newRegistry()

// Shared returns the process-wide Registry singleton.
func Shared() *Registry { return shared }

func newRegistry() *Registry {
	r := &Registry{
		listeners: make(map[string]Callback),
		idGen:     UUIDv7Generator{},
	}
	r.listeners[DefaultLogListenerName] = logListener
	return r
}

// SetIDGenerator overrides the generator used to stamp outgoing errors'
// "error_id" tag. Exposed for deterministic tests; production code never
// needs to call this.
func (r *Registry) SetIDGenerator(g ErrorIDGenerator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idGen = g
}

// Notify dispatches err to every registered listener under the shared
// lock, then, if err is classified as a corruption event (Code ==
// repair.CodeOpenFailure is NOT sufficient; corruption is carried purely
// via the CorruptionPathTag), also invokes the corruption callback.
//
// Delivery ordering across listeners is unspecified (Go map iteration
// order), but each call to Notify delivers to each listener exactly
// once, so any one listener sees a single sequential stream of events
// across successive Notify calls.
//
// Listener panics are recovered individually so one broken sink cannot
// take down notification for the others or unwind into the caller.
func (r *Registry) Notify(err repair.Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.idGen != nil {
		err = err.WithTag("error_id", r.idGen.Generate())
	}

	for _, cb := range r.listeners {
		dispatch(cb, err)
	}

	if path, ok := err.Tags[CorruptionPathTag]; ok && path != "" && r.corruptionListener != nil {
		dispatchCorruption(r.corruptionListener, path)
	}
}

func dispatch(cb Callback, err repair.Error) {
	defer func() { recover() }()
	cb(err)
}

func dispatchCorruption(cb CorruptionCallback, path string) {
	defer func() { recover() }()
	cb(path)
}

// SetListener registers or overwrites the listener named name. Listeners
// must not call SetListener/SetCorruptionListener from within a
// callback: doing so would attempt to take the exclusive lock while
// Notify still holds the shared lock, deadlocking. Listeners are
// contractually pure sinks.
func (r *Registry) SetListener(name string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[name] = cb
}

// RemoveListener unregisters the listener named name, if any.
func (r *Registry) RemoveListener(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, name)
}

// SetCorruptionListener installs the single corruption callback,
// replacing any previously installed one.
func (r *Registry) SetCorruptionListener(cb CorruptionCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.corruptionListener = cb
}

// logListener is the DefaultLogListenerName sink: it writes Fatal, Error
// and Warning events to the structured logger at a matching level. Debug
// and Ignore events are dropped, mirroring the original's intent that
// the default sink is for operator-visible diagnostics, not a firehose.
func logListener(err repair.Error) {
	var level slog.Level
	switch err.Level {
	case repair.LevelFatal:
		level = slog.LevelError + 4 // above Error, there is no stdlib Fatal level
	case repair.LevelError:
		level = slog.LevelError
	case repair.LevelWarning:
		level = slog.LevelWarn
	default:
		return
	}

	attrs := make([]any, 0, 2+2*len(err.Tags))
	attrs = append(attrs, "code", err.Code.String())
	if cause := err.Unwrap(); cause != nil {
		attrs = append(attrs, "cause", cause.Error())
	}
	for k, v := range err.Tags {
		attrs = append(attrs, k, v)
	}
	slog.Log(context.Background(), level, err.Message, attrs...)
}
