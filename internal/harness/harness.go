// Package harness provides a conformance testing framework for an
// Assembler implementation.
//
// The harness loads a scenario describing a sequence of assembler
// operations against a fresh destination file, executes it, and
// validates the resulting rows against a set of assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	steps:
//	  - op: declare_table
//	    table: t
//	    ddl: "CREATE TABLE t(id INTEGER PRIMARY KEY, v REAL)"
//	  - op: insert_cell
//	    cell:
//	      row_id: 42
//	      values:
//	        - type: null
//	        - type: real
//	          real: 3.5
//	  - op: milestone
//	assertions:
//	  - type: final_state
//	    table: t
//	    where: { id: 42 }
//	    expect: { v: 3.5 }
//
// # Operation Types
//
// The following step operations are supported:
//
//   - declare_table: calls Assembler.DeclareTable
//   - insert_cell: calls Assembler.InsertCell
//   - milestone: calls Assembler.Milestone
//   - set_duplicated: calls Assembler.SetDuplicated
//   - restore_sequence: calls Assembler.RestoreSequence
//   - execute_sql: calls Assembler.ExecuteSQL
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - final_state: queries a destination table and verifies expected field values
//   - row_count: verifies the number of matching rows in a destination table
//
// # Determinism
//
// Each scenario runs against a fresh destination file in its own
// temporary directory, so scenarios never interfere with each other.
// The resulting trace of step outcomes is suitable for golden-file
// comparison; see golden.go.
package harness

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcdbgo/repair/internal/cell"
	"github.com/wcdbgo/repair/internal/sqliterepair"
)

// Run executes scenario against a freshly created destination file and
// returns the outcome. The destination lives in a temporary directory
// that Run removes before returning.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "harness-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "destination.db")
	a := sqliterepair.New()
	a.SetPath(path)

	result := NewResult()
	if !a.BeginAssembly() {
		result.AddError(fmt.Sprintf("begin assembly: %v", a.Error()))
		return result, nil
	}

	for _, step := range scenario.Steps {
		executeStep(a, step, result)
	}

	if !a.EndAssembly() {
		result.AddError(fmt.Sprintf("end assembly: %v", a.Error()))
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open destination for assertions: %w", err)
	}
	defer db.Close()

	for i, assertion := range scenario.Assertions {
		if err := evaluateAssertion(db, assertion); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}

func executeStep(a *sqliterepair.SQLiteAssembler, step Step, result *Result) {
	switch step.Op {
	case OpDeclareTable:
		ok := a.DeclareTable(step.Table, step.DDL)
		result.AddTrace(traceEvent(step.Op, step.Table, 0, ok, a))
	case OpInsertCell:
		c, err := buildCell(*step.Cell)
		if err != nil {
			result.AddTrace(TraceEvent{Op: step.Op, OK: false, Error: err.Error()})
			return
		}
		ok := a.InsertCell(c)
		result.AddTrace(traceEvent(step.Op, "", c.RowID(), ok, a))
	case OpMilestone:
		ok := a.Milestone()
		result.AddTrace(traceEvent(step.Op, "", 0, ok, a))
	case OpSetDuplicated:
		a.SetDuplicated(step.Duplicated)
		result.AddTrace(TraceEvent{Op: step.Op, OK: true})
	case OpRestoreSequence:
		ok := a.RestoreSequence(step.Table, step.Sequence)
		result.AddTrace(traceEvent(step.Op, step.Table, 0, ok, a))
	case OpExecuteSQL:
		ok := a.ExecuteSQL(step.SQL)
		result.AddTrace(traceEvent(step.Op, "", 0, ok, a))
	}
}

func traceEvent(op, table string, rowID int64, ok bool, a *sqliterepair.SQLiteAssembler) TraceEvent {
	e := TraceEvent{Op: op, Table: table, RowID: rowID, OK: ok}
	if !ok {
		e.Error = a.Error().Error()
	}
	return e
}

// buildCell converts a CellSpec parsed from YAML into a cell.Cell.
func buildCell(spec CellSpec) (cell.Cell, error) {
	values := make([]cell.Value, len(spec.Values))
	for i, v := range spec.Values {
		value, err := buildValue(v)
		if err != nil {
			return cell.Cell{}, fmt.Errorf("values[%d]: %w", i, err)
		}
		values[i] = value
	}
	return cell.New(spec.RowID, values), nil
}

func buildValue(v ValueSpec) (cell.Value, error) {
	switch v.Type {
	case "null", "":
		return cell.NewNull(), nil
	case "integer":
		return cell.NewInteger(v.Int), nil
	case "real":
		return cell.NewReal(v.Real), nil
	case "text":
		return cell.NewText([]byte(v.Text)), nil
	case "blob":
		return cell.NewBlob([]byte(v.Blob)), nil
	default:
		return cell.Value{}, fmt.Errorf("unknown value type %q", v.Type)
	}
}
