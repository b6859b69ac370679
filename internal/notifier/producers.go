package notifier

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/wcdbgo/repair/internal/repair"
)

// Fatalf notifies a Fatal-level error, formatting message with args.
// Equivalent to the original's fatal(message, file, line), except the
// call site is recovered automatically via runtime.Caller instead of
// requiring every caller to thread __FILE__/__LINE__ through.
func Fatalf(message string, args ...any) {
	notifyf(repair.LevelFatal, message, args...)
}

// Errorf notifies an Error-level error.
func Errorf(message string, args ...any) {
	notifyf(repair.LevelError, message, args...)
}

// Warningf notifies a Warning-level error.
func Warningf(message string, args ...any) {
	notifyf(repair.LevelWarning, message, args...)
}

func notifyf(level repair.Level, format string, args ...any) {
	file, line := callerLocation()
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	e := repair.New(level, repair.CodeNone, msg, nil)
	e = e.WithTag("file", file)
	e = e.WithTag("line", strconv.Itoa(line))
	Shared().Notify(e)
}

// callerLocation reports the file (basename) and line of notifyf's
// caller's caller, i.e. the Fatalf/Errorf/Warningf call site.
func callerLocation() (file string, line int) {
	_, fullPath, ln, ok := runtime.Caller(3)
	if !ok {
		return "unknown", 0
	}
	return filepath.Base(fullPath), ln
}
