package sqliterepair

import "github.com/wcdbgo/repair/internal/repair"

// RestoreSequence ensures sqlite_sequence has a row (table, seq). A
// no-op if seq <= 0. Tries an UPDATE first; if zero rows were affected
// (no prior autoincrement activity touched this table), falls back to
// an INSERT. Failure here is non-fatal to the destination: the table
// remains usable, autoincrement may simply restart at a lower value.
func (a *SQLiteAssembler) RestoreSequence(table string, seq int64) bool {
	if seq <= 0 {
		return true
	}

	updated, ok := a.updateSequence(table, seq)
	if !ok {
		return false
	}
	if updated {
		return true
	}
	return a.insertSequence(table, seq)
}

func (a *SQLiteAssembler) updateSequence(table string, seq int64) (updated, ok bool) {
	result, err := a.conn().Exec("UPDATE sqlite_sequence SET seq = ?1 WHERE name = ?2", seq, table)
	if err != nil {
		return false, a.latch(repair.LevelWarning, repair.CodeSequenceRestoreFailure, "update sqlite_sequence", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, a.latch(repair.LevelWarning, repair.CodeSequenceRestoreFailure, "read sqlite_sequence update result", err)
	}
	return n > 0, true
}

func (a *SQLiteAssembler) insertSequence(table string, seq int64) bool {
	if _, err := a.conn().Exec("INSERT INTO sqlite_sequence(name, seq) VALUES(?1, ?2)", table, seq); err != nil {
		return a.latch(repair.LevelWarning, repair.CodeSequenceRestoreFailure, "insert sqlite_sequence", err)
	}
	return true
}
