// Package sqliterepair implements repair.Assembler over a real SQLite
// engine (github.com/mattn/go-sqlite3), binding the abstract assembler
// pipeline to a transactional SQL engine: per-table prepared-statement
// caching, per-cell binding with primary-key synthesis, milestone
// transaction bracketing, and sqlite_sequence reconstruction.
package sqliterepair

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wcdbgo/repair/internal/notifier"
	"github.com/wcdbgo/repair/internal/repair"
)

const dummySequenceTable = "wcdb_dummy_sqlite_sequence"

// tableBinding is ephemeral state scoped to the "currently open" table:
// the destination columns as introspected after DDL execution, the
// rowid-alias column index (if any), and the lazily prepared insert
// statement for this table. It is created on the first InsertCell after
// DeclareTable and finalized on the next DeclareTable or on EndAssembly.
type tableBinding struct {
	name           string
	columnNames    []string
	primaryIndex   int // -1 means "no single-column rowid alias"
	preparedStmt   *sql.Stmt
	stmtDuplicated bool // duplicated mode the cached preparedStmt was built for
}

// SQLiteAssembler implements repair.Assembler over database/sql +
// go-sqlite3. A SQLiteAssembler is single-threaded cooperative: one
// driver owns it for the full BeginAssembly...EndAssembly span.
type SQLiteAssembler struct {
	opts Options

	path string
	db   *sql.DB
	tx   *sql.Tx

	state      repair.State
	table      tableBinding
	duplicated bool

	err repair.Error
}

// New constructs a SQLiteAssembler with the given options applied over
// the default bulk-load pragma values.
func New(opts ...Option) *SQLiteAssembler {
	o := defaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	a := &SQLiteAssembler{opts: o, state: repair.Closed}
	a.table.primaryIndex = -1
	return a
}

// SetPath sets the destination file path.
func (a *SQLiteAssembler) SetPath(path string) { a.path = path }

// Path returns the destination file path.
func (a *SQLiteAssembler) Path() string { return a.path }

// SetDuplicated toggles insert-or-ignore semantics for subsequent
// InsertCell calls.
func (a *SQLiteAssembler) SetDuplicated(duplicated bool) { a.duplicated = duplicated }

// Error returns the most recently latched error.
func (a *SQLiteAssembler) Error() repair.Error { return a.err }

// latch records err as the assembler's most recent failure, overwriting
// whatever was latched before, and returns false for convenience at call
// sites (`return a.latch(...)`).
func (a *SQLiteAssembler) latch(level repair.Level, code repair.Code, message string, cause error) bool {
	e := repair.New(level, code, message, cause)
	if a.path != "" {
		// "destination", not notifier.CorruptionPathTag: this is the
		// assembler's own diagnostic context, not a corruption report.
		// Tagging it under the corruption key would make Notify fire the
		// corruption listener for plain open/transaction failures.
		e = e.WithTag("destination", a.path)
	}
	if a.table.name != "" {
		e = e.WithTag("table", a.table.name)
	}
	a.err = e
	if level == repair.LevelFatal {
		// Fatal failures (open/transaction) poison the assembler, so in
		// addition to the per-operation latched error they are pushed to
		// the process-wide notifier fabric, the same diagnostic channel
		// a repair driver's crash logging subscribes to.
		notifier.Shared().Notify(e)
	}
	return false
}

// querier is satisfied by both *sql.DB and *sql.Tx: whichever backs the
// currently open milestone transaction, if any, or the bare connection
// otherwise. Every DML/DDL call against the destination goes through
// this so DeclareTable and InsertCell are oblivious to whether a
// milestone transaction is open.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Prepare(query string) (*sql.Stmt, error)
}

func (a *SQLiteAssembler) conn() querier {
	if a.tx != nil {
		return a.tx
	}
	return a.db
}

// BeginAssembly opens the destination, installs the bulk-load pragmas,
// and creates the sqlite_sequence marker table. Transitions
// Closed -> Assembling.
func (a *SQLiteAssembler) BeginAssembly() bool {
	// _txlock=immediate makes every db.Begin() on this connection issue
	// `BEGIN IMMEDIATE` rather than the driver's default `BEGIN
	// DEFERRED`, which is how go-sqlite3 exposes SQLite's three lock
	// modes through database/sql's lock-mode-agnostic Tx API.
	db, err := sql.Open("sqlite3", a.path+"?_txlock=immediate")
	if err != nil {
		return a.latch(repair.LevelFatal, repair.CodeOpenFailure, "open destination", err)
	}
	// SQLite is a single-writer engine and the assembler is the sole
	// writer against a freshly created destination; a pool bigger than
	// one connection would let database/sql hand out a second connection
	// and violate the milestone transaction invariant.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return a.latch(repair.LevelFatal, repair.CodeOpenFailure, "connect to destination", err)
	}

	a.db = db
	if !a.applyPragmas() {
		a.db.Close()
		a.db = nil
		return false
	}
	if !a.markSequenceAsAssembling() {
		a.db.Close()
		a.db = nil
		return false
	}

	a.state = repair.Assembling
	return true
}

// applyPragmas installs the contractual bulk-load pragmas.
func (a *SQLiteAssembler) applyPragmas() bool {
	pragmas := []string{
		fmt.Sprintf("PRAGMA journal_mode = %s", a.opts.JournalMode),
		fmt.Sprintf("PRAGMA mmap_size=%d", a.opts.MmapSize),
		fmt.Sprintf("PRAGMA busy_timeout=%d", a.opts.BusyTimeout),
	}
	for _, pragma := range pragmas {
		if _, err := a.db.Exec(pragma); err != nil {
			return a.latch(repair.LevelFatal, repair.CodeOpenFailure,
				fmt.Sprintf("apply pragma %q", pragma), err)
		}
	}
	return true
}

// markSequenceAsAssembling creates the dummy autoincrement table that
// guarantees sqlite_sequence exists and is writable regardless of the
// order in which autoincrement tables are later restored.
func (a *SQLiteAssembler) markSequenceAsAssembling() bool {
	_, err := a.db.Exec(fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s(i INTEGER PRIMARY KEY AUTOINCREMENT)", dummySequenceTable))
	if err != nil {
		return a.latch(repair.LevelFatal, repair.CodeOpenFailure, "create sequence marker", err)
	}
	return true
}

// markSequenceAsAssembled drops the dummy autoincrement table.
func (a *SQLiteAssembler) markSequenceAsAssembled() bool {
	_, err := a.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", dummySequenceTable))
	if err != nil {
		return a.latch(repair.LevelError, repair.CodeOpenFailure, "drop sequence marker", err)
	}
	return true
}

// EndAssembly finalizes any open statement, commits or rolls back the
// outstanding milestone transaction depending on whether an error is
// latched, drops the sequence marker, then closes the destination.
// Transitions Assembling/InTransaction -> Closed. On an assembler that is
// already Closed it latches an error and returns false.
func (a *SQLiteAssembler) EndAssembly() bool {
	if a.state == repair.Closed {
		return a.latch(repair.LevelError, repair.CodeStepFailure,
			fmt.Sprintf("end assembly outside assembling state (state=%s)", a.state), nil)
	}
	hadError := !a.err.IsZero()

	a.finalizeTable()

	// The destination connection pool is capped at one connection
	// (BeginAssembly): while a.tx holds it, a.db.Exec cannot acquire a
	// second connection to drop the sequence marker, so the open
	// milestone transaction must be resolved first.
	txOK := true
	if a.tx != nil {
		if a.err.IsZero() {
			if err := a.tx.Commit(); err != nil {
				txOK = a.latch(repair.LevelFatal, repair.CodeTransactionFailure, "commit final milestone", err)
			}
		} else {
			if err := a.tx.Rollback(); err != nil {
				txOK = a.latch(repair.LevelError, repair.CodeTransactionFailure, "rollback final milestone", err)
			}
		}
		a.tx = nil
	}

	sequenceOK := a.markSequenceAsAssembled()

	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
	a.state = repair.Closed
	return sequenceOK && txOK && !hadError
}

// ExecuteSQL is an escape hatch for catalog DDL/DML this interface does
// not otherwise model. Any non-zero driver error is latched and returned
// as failure unconditionally.
func (a *SQLiteAssembler) ExecuteSQL(sqlText string) bool {
	if a.state != repair.Assembling && a.state != repair.InTransaction {
		return a.latch(repair.LevelError, repair.CodeStepFailure,
			fmt.Sprintf("execute sql outside assembling state (state=%s)", a.state), nil)
	}
	if _, err := a.conn().Exec(sqlText); err != nil {
		return a.latch(repair.LevelError, repair.CodeStepFailure, "execute sql", err)
	}
	return true
}
