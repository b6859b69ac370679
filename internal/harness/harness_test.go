package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_SimpleInsertPasses(t *testing.T) {
	scenario := &Scenario{
		Name:        "simple_insert",
		Description: "single row insert with no autoincrement",
		Steps: []Step{
			{Op: OpDeclareTable, Table: "t", DDL: "CREATE TABLE t(a INTEGER, b TEXT)"},
			{Op: OpInsertCell, Cell: &CellSpec{RowID: 1, Values: []ValueSpec{
				{Type: "integer", Int: 10},
				{Type: "text", Text: "x"},
			}}},
			{Op: OpMilestone},
		},
		Assertions: []Assertion{
			{Type: AssertRowCount, Table: "t", Count: 1},
			{Type: AssertFinalState, Table: "t", Where: map[string]interface{}{"rowid": 1},
				Expect: map[string]interface{}{"a": 10, "b": "x"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
	require.Len(t, result.Trace, 3)
	for _, e := range result.Trace {
		require.True(t, e.OK, "step %s failed: %s", e.Op, e.Error)
	}
}

func TestRun_RowidAliasSynthesis(t *testing.T) {
	scenario := &Scenario{
		Name:        "rowid_alias",
		Description: "null primary key column synthesizes row_id",
		Steps: []Step{
			{Op: OpDeclareTable, Table: "t", DDL: "CREATE TABLE t(id INTEGER PRIMARY KEY, v REAL)"},
			{Op: OpInsertCell, Cell: &CellSpec{RowID: 42, Values: []ValueSpec{
				{Type: "null"},
				{Type: "real", Real: 3.5},
			}}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Table: "t", Expect: map[string]interface{}{"id": 42, "v": 3.5}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_RestoreSequence(t *testing.T) {
	scenario := &Scenario{
		Name:        "restore_sequence",
		Description: "sqlite_sequence reflects the restored value",
		Steps: []Step{
			{Op: OpDeclareTable, Table: "t", DDL: "CREATE TABLE t(id INTEGER PRIMARY KEY AUTOINCREMENT, v INT)"},
			{Op: OpInsertCell, Cell: &CellSpec{RowID: 1, Values: []ValueSpec{{Type: "null"}, {Type: "integer", Int: 10}}}},
			{Op: OpRestoreSequence, Table: "t", Sequence: 1000},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Table: "sqlite_sequence", Where: map[string]interface{}{"name": "t"},
				Expect: map[string]interface{}{"seq": 1000}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_AssertionFailureMarksResultFailed(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expectation",
		Description: "an intentionally incorrect assertion fails the result",
		Steps: []Step{
			{Op: OpDeclareTable, Table: "t", DDL: "CREATE TABLE t(v TEXT)"},
			{Op: OpInsertCell, Cell: &CellSpec{RowID: 1, Values: []ValueSpec{{Type: "text", Text: "actual"}}}},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Table: "t", Expect: map[string]interface{}{"v": "wrong"}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
}

func TestRun_StepFailureIsTracedAndFailsResult(t *testing.T) {
	scenario := &Scenario{
		Name:        "schema_mismatch",
		Description: "a cell with the wrong column count fails its step",
		Steps: []Step{
			{Op: OpDeclareTable, Table: "t", DDL: "CREATE TABLE t(a INT, b INT)"},
			{Op: OpInsertCell, Cell: &CellSpec{RowID: 1, Values: []ValueSpec{{Type: "integer", Int: 1}}}},
		},
		Assertions: []Assertion{
			{Type: AssertRowCount, Table: "t", Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.False(t, result.Pass)

	var sawFailedInsert bool
	for _, e := range result.Trace {
		if e.Op == OpInsertCell && !e.OK {
			sawFailedInsert = true
		}
	}
	require.True(t, sawFailedInsert, "expected a failed insert_cell trace event")
}
