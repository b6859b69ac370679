package sqliterepair

// Options configures the pragmas a SQLiteAssembler applies when it opens
// its destination. Defaults reproduce the bulk-load contract exactly;
// only BusyTimeout may be overridden without breaking that contract.
type Options struct {
	// JournalMode is applied as `PRAGMA journal_mode = <value>` on open.
	// Fixed at "OFF": durability is managed at the coarser granularity of
	// milestone commits, and the destination is reconstructable from the
	// source being repaired, so per-statement journaling buys nothing.
	JournalMode string

	// MmapSize is applied as `PRAGMA mmap_size=<value>` on open. Fixed at
	// 2147418112 (2 GiB minus a small margin) to give the bulk insert a
	// large memory-mapped window.
	MmapSize int64

	// BusyTimeout is applied as `PRAGMA busy_timeout=<value>` on open, in
	// milliseconds. Not part of the original contract; added because the
	// assembler is specified as the sole writer against a freshly created
	// destination, but diagnostic tooling (e.g. a progress monitor) may
	// still open read-only connections against the same file while a
	// milestone transaction is in flight.
	BusyTimeout int
}

// Option mutates an Options value.
type Option func(*Options)

// WithBusyTimeout overrides the busy-timeout pragma, in milliseconds.
func WithBusyTimeout(ms int) Option {
	return func(o *Options) { o.BusyTimeout = ms }
}

// defaultOptions returns the bulk-load pragma values used when no Option
// overrides them.
func defaultOptions() Options {
	return Options{
		JournalMode: "OFF",
		MmapSize:    2147418112,
		BusyTimeout: 5000,
	}
}
