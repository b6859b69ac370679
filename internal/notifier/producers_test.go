package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wcdbgo/repair/internal/repair"
)

func captureOne(t *testing.T, emit func()) repair.Error {
	t.Helper()

	captured := make(chan repair.Error, 1)
	Shared().SetListener("producers_test", func(e repair.Error) {
		captured <- e
	})
	t.Cleanup(func() { Shared().RemoveListener("producers_test") })

	emit()

	select {
	case e := <-captured:
		return e
	default:
		require.Fail(t, "emit() did not notify any listener")
		return repair.Error{}
	}
}

func TestFatalf_NotifiesFatalWithFileAndLineTags(t *testing.T) {
	e := captureOne(t, func() { Fatalf("disk full") })

	assert.Equal(t, repair.LevelFatal, e.Level)
	assert.Equal(t, "disk full", e.Message)
	assert.Equal(t, "producers_test.go", e.Tags["file"])
	assert.NotEqual(t, "0", e.Tags["line"])
}

func TestErrorf_NotifiesErrorLevel(t *testing.T) {
	e := captureOne(t, func() { Errorf("step %d failed", 3) })

	assert.Equal(t, repair.LevelError, e.Level)
	assert.Equal(t, "step 3 failed", e.Message)
}

func TestWarningf_NotifiesWarningLevel(t *testing.T) {
	e := captureOne(t, func() { Warningf("retrying") })

	assert.Equal(t, repair.LevelWarning, e.Level)
	assert.Equal(t, "retrying", e.Message)
}

func TestNotifyf_FormatsMessageOnlyWhenArgsGiven(t *testing.T) {
	e := captureOne(t, func() { Errorf("no args here") })
	assert.Equal(t, "no args here", e.Message)

	e = captureOne(t, func() { Errorf("count=%d name=%s", 5, "x") })
	assert.Equal(t, "count=5 name=x", e.Message)
}
