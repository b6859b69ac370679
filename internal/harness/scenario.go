package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a sequence of steps
// against a freshly opened destination, followed by assertions against
// the resulting rows.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps is the sequence of assembler operations to execute, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the resulting destination state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step represents one assembler operation.
type Step struct {
	// Op selects the operation: declare_table, insert_cell, milestone,
	// set_duplicated, restore_sequence, or execute_sql.
	Op string `yaml:"op"`

	// Table names the destination table (declare_table, restore_sequence).
	Table string `yaml:"table,omitempty"`

	// DDL is the CREATE TABLE statement (declare_table).
	DDL string `yaml:"ddl,omitempty"`

	// Cell is the row to insert (insert_cell).
	Cell *CellSpec `yaml:"cell,omitempty"`

	// Duplicated is the new duplicated-mode flag (set_duplicated).
	Duplicated bool `yaml:"duplicated,omitempty"`

	// Sequence is the sequence value to restore (restore_sequence).
	Sequence int64 `yaml:"sequence,omitempty"`

	// SQL is the statement text to execute (execute_sql).
	SQL string `yaml:"sql,omitempty"`
}

// CellSpec is the YAML encoding of a cell.Cell.
type CellSpec struct {
	RowID  int64       `yaml:"row_id"`
	Values []ValueSpec `yaml:"values"`
}

// ValueSpec is the YAML encoding of a cell.Value.
type ValueSpec struct {
	// Type is one of: null, integer, real, text, blob.
	Type string  `yaml:"type"`
	Int  int64   `yaml:"int,omitempty"`
	Real float64 `yaml:"real,omitempty"`
	Text string  `yaml:"text,omitempty"`
	Blob string  `yaml:"blob,omitempty"`
}

// Assertion validates the destination after all steps have run.
type Assertion struct {
	// Type is one of: final_state, row_count.
	Type string `yaml:"type"`

	// Table is the destination table to query.
	Table string `yaml:"table"`

	// Where specifies the query filter. All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (final_state). Subset match.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected row count (row_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState = "final_state"
	AssertRowCount   = "row_count"
)

// Step op constants.
const (
	OpDeclareTable    = "declare_table"
	OpInsertCell      = "insert_cell"
	OpMilestone       = "milestone"
	OpSetDuplicated   = "set_duplicated"
	OpRestoreSequence = "restore_sequence"
	OpExecuteSQL      = "execute_sql"
)

// LoadScenario reads and parses a scenario YAML file. Returns an error
// if the file doesn't exist, is malformed, contains unknown fields
// (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	switch s.Op {
	case OpDeclareTable:
		if s.Table == "" || s.DDL == "" {
			return fmt.Errorf("steps[%d]: declare_table requires table and ddl", index)
		}
	case OpInsertCell:
		if s.Cell == nil {
			return fmt.Errorf("steps[%d]: insert_cell requires cell", index)
		}
	case OpMilestone, OpSetDuplicated:
		// no required fields beyond op
	case OpRestoreSequence:
		if s.Table == "" {
			return fmt.Errorf("steps[%d]: restore_sequence requires table", index)
		}
	case OpExecuteSQL:
		if s.SQL == "" {
			return fmt.Errorf("steps[%d]: execute_sql requires sql", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Table == "" {
		return fmt.Errorf("assertions[%d]: table is required", index)
	}
	switch a.Type {
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
