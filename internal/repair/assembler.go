// Package repair defines the abstract assembler contract: the pipeline a
// higher-level repair driver pushes a reconstructed schema and a stream of
// recovered rows into. The concrete, SQL-backed implementation lives in
// internal/sqliterepair; this package only names the capability set.
package repair

import "github.com/wcdbgo/repair/internal/cell"

// Assembler is the capability set a repair driver drives: set a
// destination, open it, declare tables and push cells into them,
// checkpoint with milestones, restore autoincrement sequences, and close.
//
// Every operation returns a boolean success indicator and latches the
// failure reason into Error() on false. The latched error is overwritten
// by the next failing operation.
type Assembler interface {
	// SetPath sets the destination file path. Must be called before
	// BeginAssembly.
	SetPath(path string)
	// Path returns the destination file path.
	Path() string

	// BeginAssembly opens the destination, installs the bulk-load
	// pragmas, and prepares the sqlite_sequence marker table. Transitions
	// Closed -> Assembling.
	BeginAssembly() bool
	// EndAssembly finalizes any open statement, drops the sequence
	// marker, commits or rolls back the outstanding milestone transaction
	// depending on whether an error is latched, and closes the
	// destination. Transitions Assembling/InTransaction -> Closed.
	EndAssembly() bool

	// Milestone commits the open transaction, if any, and begins a new
	// IMMEDIATE transaction. This is the unit of durability.
	Milestone() bool

	// DeclareTable finalizes any prior prepared insert, clears the
	// current table binding, executes ddl against the destination, and
	// records name as the currently open table.
	DeclareTable(name, ddl string) bool
	// InsertCell lazily prepares this table's insert statement, binds c's
	// values per the Assembler's binding protocol, executes, and resets
	// the statement for reuse.
	InsertCell(c cell.Cell) bool
	// RestoreSequence ensures sqlite_sequence has a row (table, seq). A
	// no-op if seq <= 0.
	RestoreSequence(table string, seq int64) bool

	// SetDuplicated toggles between strict insert (false) and
	// insert-or-ignore (true) semantics for subsequent InsertCell calls.
	SetDuplicated(duplicated bool)

	// ExecuteSQL is an escape hatch for catalog DDL/DML this interface
	// does not otherwise model.
	ExecuteSQL(sql string) bool

	// Error returns the most recently latched error. Zero value means no
	// error is latched.
	Error() Error
}

// Holder composes an Assembler into a higher-level repair driver without
// requiring the driver to implement Assembler itself.
type Holder struct {
	assembler Assembler
}

// SetAssembler installs the Assembler this holder drives.
func (h *Holder) SetAssembler(a Assembler) { h.assembler = a }

// Assembler returns the currently installed Assembler, or nil if none has
// been set.
func (h *Holder) Assembler() Assembler { return h.assembler }
