package notifier

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcdbgo/repair/internal/repair"
)

func newTestRegistry() *Registry {
	r := &Registry{
		listeners: make(map[string]Callback),
		idGen:     NewFixedGenerator("fixed-id"),
	}
	return r
}

func TestNotify_DeliversToEveryListenerExactlyOnce(t *testing.T) {
	r := newTestRegistry()

	var mu sync.Mutex
	counts := map[string]int{}
	for _, name := range []string{"a", "b", "c"} {
		n := name
		r.SetListener(n, func(repair.Error) {
			mu.Lock()
			defer mu.Unlock()
			counts[n]++
		})
	}

	r.Notify(repair.New(repair.LevelError, repair.CodeStepFailure, "boom", nil))

	for _, name := range []string{"a", "b", "c"} {
		assert.Equal(t, 1, counts[name], "listener %s should have received exactly one notification", name)
	}
}

func TestNotify_StampsErrorID(t *testing.T) {
	r := newTestRegistry()

	var got repair.Error
	r.SetListener("capture", func(e repair.Error) { got = e })

	r.Notify(repair.New(repair.LevelWarning, repair.CodeSequenceRestoreFailure, "seq", nil))

	assert.Equal(t, "fixed-id", got.Tags["error_id"])
}

func TestNotify_InvokesCorruptionListenerOnPathTag(t *testing.T) {
	r := newTestRegistry()

	var corruptedPath string
	r.SetCorruptionListener(func(path string) { corruptedPath = path })

	e := repair.New(repair.LevelFatal, repair.CodeNone, "corrupt", nil).WithTag(CorruptionPathTag, "/tmp/db.sqlite")
	r.Notify(e)

	assert.Equal(t, "/tmp/db.sqlite", corruptedPath)
}

func TestNotify_DoesNotInvokeCorruptionListenerWithoutPathTag(t *testing.T) {
	r := newTestRegistry()

	invoked := false
	r.SetCorruptionListener(func(string) { invoked = true })

	r.Notify(repair.New(repair.LevelError, repair.CodeStepFailure, "ordinary failure", nil))

	assert.False(t, invoked, "corruption listener must not fire for non-corruption errors")
}

func TestNotify_SwallowsListenerPanic(t *testing.T) {
	r := newTestRegistry()

	r.SetListener("broken", func(repair.Error) { panic("listener bug") })

	var otherInvoked bool
	r.SetListener("other", func(repair.Error) { otherInvoked = true })

	require.NotPanics(t, func() {
		r.Notify(repair.New(repair.LevelError, repair.CodeStepFailure, "x", nil))
	})
	assert.True(t, otherInvoked, "a panicking listener must not prevent delivery to others")
}

func TestRemoveListener(t *testing.T) {
	r := newTestRegistry()

	invoked := false
	r.SetListener("temp", func(repair.Error) { invoked = true })
	r.RemoveListener("temp")

	r.Notify(repair.New(repair.LevelError, repair.CodeStepFailure, "x", nil))
	assert.False(t, invoked, "removed listener must not receive notifications")
}

func TestSharedIsSingleton(t *testing.T) {
	assert.Same(t, Shared(), Shared())
}
