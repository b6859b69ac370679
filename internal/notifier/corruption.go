package notifier

import "github.com/wcdbgo/repair/internal/repair"

// NotifyCorruption reports a database at path as corrupted. Corruption
// detection itself (checksum verification, page-level scanning) happens
// upstream of this module; NotifyCorruption is the entry point that
// upstream code calls to route the finding through the notifier fabric
// instead of through any one assembler's latched error slot — corruption
// is a property of the source file, not of one assembler invocation.
func NotifyCorruption(path string) {
	e := repair.New(repair.LevelFatal, repair.CodeNone, "database corruption detected", nil)
	e = e.WithTag(CorruptionPathTag, path)
	Shared().Notify(e)
}
