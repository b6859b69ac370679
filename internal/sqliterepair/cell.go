package sqliterepair

import (
	"fmt"

	"github.com/wcdbgo/repair/internal/cell"
	"github.com/wcdbgo/repair/internal/repair"
)

// InsertCell lazily prepares this table's insert statement on first use,
// binds c's values per the assembler's binding protocol, executes, and
// resets the statement for reuse across cells of the same table.
//
// Binding protocol: parameter 1 is always row_id.
// Parameter i+2 for i in [0, count) is bound by c.ValueType(i):
//   - Integer/Real bind directly.
//   - Text/Blob bind a transient copy (the source buffer is not assumed
//     to outlive the step).
//   - Null binds row_id as the primary-key synthesis when i is the
//     rowid-alias column, SQL NULL otherwise.
func (a *SQLiteAssembler) InsertCell(c cell.Cell) bool {
	if a.state != repair.Assembling && a.state != repair.InTransaction {
		return a.latch(repair.LevelError, repair.CodeStepFailure,
			fmt.Sprintf("insert cell outside assembling state (state=%s)", a.state), nil)
	}
	if !a.lazyPrepareInsert() {
		return false
	}
	if a.table.columnCount() != c.Count() {
		return a.latch(repair.LevelError, repair.CodeSchemaMismatch,
			fmt.Sprintf("cell has %d columns, table %s has %d", c.Count(), a.table.name, a.table.columnCount()), nil)
	}

	args := make([]any, 0, c.Count()+1)
	args = append(args, c.RowID())
	for i := 0; i < c.Count(); i++ {
		args = append(args, bindArg(c, i, i == a.table.primaryIndex))
	}

	if _, err := a.table.preparedStmt.Exec(args...); err != nil {
		return a.latch(repair.LevelError, repair.CodeStepFailure, "insert cell", err)
	}
	return true
}

// bindArg computes the driver-bound value for column i of cell c.
// isPrimaryIndex is true when i is the table's single-column rowid
// alias, in which case a Null value synthesizes row_id rather than
// binding SQL NULL.
func bindArg(c cell.Cell, i int, isPrimaryIndex bool) any {
	switch c.ValueType(i) {
	case cell.Integer:
		return c.Integer(i)
	case cell.Real:
		return c.Real(i)
	case cell.Text:
		// The copy means the source buffer does not need to outlive
		// Exec; passing a string makes the driver bind TEXT, not BLOB.
		b := c.Text(i)
		cp := make([]byte, len(b))
		copy(cp, b)
		return string(cp)
	case cell.Blob:
		b := c.Blob(i)
		cp := make([]byte, len(b))
		copy(cp, b)
		return cp
	case cell.Null:
		if isPrimaryIndex {
			return c.RowID()
		}
		return nil
	default:
		return nil
	}
}

func (tb *tableBinding) columnCount() int { return len(tb.columnNames) }

// lazyPrepareInsert prepares this table's INSERT statement on first use
// after DeclareTable or after a Milestone invalidates the cached
// statement.
func (a *SQLiteAssembler) lazyPrepareInsert() bool {
	if a.table.name == "" {
		return a.latch(repair.LevelError, repair.CodeSchemaMismatch, "insert cell with no table declared", nil)
	}
	if a.table.preparedStmt != nil && a.table.stmtDuplicated == a.duplicated {
		return true
	}
	a.invalidatePreparedStmt()

	columnNames, primaryIndex, ok := a.introspect(a.table.name)
	if !ok {
		return false
	}
	a.table.columnNames = columnNames
	a.table.primaryIndex = primaryIndex

	stmt, err := a.conn().Prepare(insertSQL(a.table.name, a.duplicated, columnNames))
	if err != nil {
		return a.latch(repair.LevelError, repair.CodePrepareFailure, "prepare insert", err)
	}
	a.table.preparedStmt = stmt
	a.table.stmtDuplicated = a.duplicated
	return true
}
