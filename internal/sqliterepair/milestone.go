package sqliterepair

import (
	"fmt"

	"github.com/wcdbgo/repair/internal/repair"
)

// Milestone commits the current transaction, if any, and opens a new
// IMMEDIATE transaction. This is the unit of durability: data preceding
// the most recent successful Milestone survives any later crash.
//
// BeginAssembly does not open a transaction; the first Milestone call
// opens one. If either the commit or the begin step fails, the failure
// is latched and no transaction is left open. InsertCell does not check
// for this, so later cells are not rejected on that ground.
//
// IMMEDIATE is requested because the assembler is the sole writer
// against a freshly created destination: DEFERRED would add a needless
// upgrade path on the first write, and EXCLUSIVE would needlessly block
// read probes from diagnostic tooling.
func (a *SQLiteAssembler) Milestone() bool {
	if a.state != repair.Assembling && a.state != repair.InTransaction {
		return a.latch(repair.LevelError, repair.CodeStepFailure,
			fmt.Sprintf("milestone outside assembling state (state=%s)", a.state), nil)
	}
	if !a.commitOpenTransaction() {
		return false
	}
	// Prepared statements bound to the committed transaction are no
	// longer valid; the next InsertCell re-prepares against the new one.
	a.invalidatePreparedStmt()
	return a.beginImmediateTransaction()
}

func (a *SQLiteAssembler) commitOpenTransaction() bool {
	if a.tx == nil {
		return true
	}
	err := a.tx.Commit()
	a.tx = nil
	if err != nil {
		return a.latch(repair.LevelFatal, repair.CodeTransactionFailure, "commit milestone", err)
	}
	return true
}

func (a *SQLiteAssembler) beginImmediateTransaction() bool {
	tx, err := a.db.Begin()
	if err != nil {
		return a.latch(repair.LevelFatal, repair.CodeTransactionFailure, "begin milestone transaction", err)
	}
	a.tx = tx
	a.state = repair.InTransaction
	return true
}
