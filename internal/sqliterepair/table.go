package sqliterepair

import (
	"fmt"

	"github.com/wcdbgo/repair/internal/repair"
)

// DeclareTable finalizes any prior prepared insert, clears the current
// table binding, executes ddl against the destination, and records name
// as the currently open table. The DDL is the CREATE TABLE reconstructed
// by the upstream catalog scan; DeclareTable does not parse it.
func (a *SQLiteAssembler) DeclareTable(name, ddl string) bool {
	if a.state != repair.Assembling && a.state != repair.InTransaction {
		return a.latch(repair.LevelError, repair.CodeStepFailure,
			fmt.Sprintf("declare table outside assembling state (state=%s)", a.state), nil)
	}

	a.finalizeTable()

	if _, err := a.conn().Exec(ddl); err != nil {
		return a.latch(repair.LevelError, repair.CodeStepFailure, "execute table ddl", err)
	}
	a.table.name = name
	return true
}

// finalizeTable closes the cached prepared statement, if any, and clears
// the table binding. Called on DeclareTable and EndAssembly, per the
// "prepared-statement lifetime" design note: forgetting to finalize
// leaks a statement handle and, in some engines, prevents transaction
// commit.
func (a *SQLiteAssembler) finalizeTable() {
	a.invalidatePreparedStmt()
	a.table = tableBinding{primaryIndex: -1}
}

func (a *SQLiteAssembler) invalidatePreparedStmt() {
	if a.table.preparedStmt != nil {
		_ = a.table.preparedStmt.Close()
		a.table.preparedStmt = nil
	}
}

// introspect issues `PRAGMA table_info(<name>)` against the destination
// (the DDL has just been applied there) and computes the column names
// and the single-column rowid-alias index, if any.
func (a *SQLiteAssembler) introspect(name string) (columnNames []string, primaryIndex int, ok bool) {
	rows, err := a.conn().Query(fmt.Sprintf("PRAGMA table_info(%s)", name))
	if err != nil {
		a.latch(repair.LevelError, repair.CodeSchemaMismatch, "introspect table", err)
		return nil, -1, false
	}
	defer rows.Close()

	primary := -1
	maxPK := 0
	for rows.Next() {
		var (
			cid       int
			colName   string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dfltValue, &pk); err != nil {
			a.latch(repair.LevelError, repair.CodeSchemaMismatch, "scan table_info row", err)
			return nil, -1, false
		}
		columnNames = append(columnNames, colName)
		if pk > maxPK {
			maxPK = pk
		}
		if pk == 1 {
			primary = len(columnNames) - 1
		}
	}
	if err := rows.Err(); err != nil {
		a.latch(repair.LevelError, repair.CodeSchemaMismatch, "iterate table_info", err)
		return nil, -1, false
	}
	if len(columnNames) == 0 {
		a.latch(repair.LevelError, repair.CodeSchemaMismatch, "table_info returned no columns", nil)
		return nil, -1, false
	}

	// Only a single-column primary key makes the rowid-alias
	// substitution valid; a composite key (max_pk_tag >= 2) must never
	// be synthesized from row_id.
	if maxPK != 1 {
		primary = -1
	}
	return columnNames, primary, true
}

// insertSQL builds the stable INSERT template:
//
//	INSERT [OR IGNORE] INTO <name>(rowid, c1, c2, ..., cN) VALUES(?, ?, ..., ?)
//
// Column names are inserted verbatim as returned from introspection; this
// does not quote or validate them, the same tolerance SQLiteAssembler.cpp
// has for callers that provide well-formed DDL.
func insertSQL(table string, duplicated bool, columnNames []string) string {
	verb := "INSERT INTO"
	if duplicated {
		verb = "INSERT OR IGNORE INTO"
	}
	sql := fmt.Sprintf("%s %s(rowid", verb, table)
	values := "VALUES(?"
	for _, c := range columnNames {
		sql += ", " + c
		values += ", ?"
	}
	return sql + ") " + values + ")"
}
