package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenarioFile(t, `
name: simple
description: a simple insert
steps:
  - op: declare_table
    table: t
    ddl: "CREATE TABLE t(v TEXT)"
  - op: insert_cell
    cell:
      row_id: 1
      values:
        - type: text
          text: hello
assertions:
  - type: row_count
    table: t
    count: 1
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	require.Equal(t, "simple", scenario.Name)
	require.Len(t, scenario.Steps, 2)
	require.Len(t, scenario.Assertions, 1)
}

func TestLoadScenario_RejectsUnknownField(t *testing.T) {
	path := writeScenarioFile(t, `
name: simple
description: typo
unexpected_field: oops
steps:
  - op: milestone
assertions:
  - type: row_count
    table: t
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenario_RequiresName(t *testing.T) {
	path := writeScenarioFile(t, `
description: missing name
steps:
  - op: milestone
assertions:
  - type: row_count
    table: t
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenario_RequiresDeclareTableFields(t *testing.T) {
	path := writeScenarioFile(t, `
name: bad_step
description: declare_table missing ddl
steps:
  - op: declare_table
    table: t
assertions:
  - type: row_count
    table: t
    count: 0
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenario_RejectsUnknownAssertionType(t *testing.T) {
	path := writeScenarioFile(t, `
name: bad_assertion
description: unknown assertion type
steps:
  - op: milestone
assertions:
  - type: bogus
    table: t
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}
