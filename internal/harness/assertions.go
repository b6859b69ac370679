package harness

import (
	"database/sql"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only alphanumeric and underscore, must start with a letter or
// underscore. Identifiers can't be parameterized, so assertion input is
// validated against this whitelist before being interpolated into SQL.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// evaluateAssertion runs a single assertion against the destination.
func evaluateAssertion(db *sql.DB, a Assertion) error {
	switch a.Type {
	case AssertFinalState:
		return assertFinalState(db, a)
	case AssertRowCount:
		return assertRowCount(db, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertFinalState queries a.Table with a.Where and checks that the
// single matching row's fields match a.Expect (subset match).
func assertFinalState(db *sql.DB, a Assertion) error {
	if !validIdentifier.MatchString(a.Table) {
		return fmt.Errorf("invalid table name %q", a.Table)
	}

	whereSQL, whereArgs, err := buildWhereClause(a.Where)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("SELECT * FROM %s", a.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := db.Query(query, whereArgs...)
	if err != nil {
		return fmt.Errorf("query %s: %w", a.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("read columns: %w", err)
	}
	if !rows.Next() {
		return fmt.Errorf("no row in %s matches %s", a.Table, formatWhereClause(a.Where))
	}

	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}
	if rows.Next() {
		return fmt.Errorf("multiple rows in %s match %s, assertion is ambiguous", a.Table, formatWhereClause(a.Where))
	}

	actual := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		actual[col] = values[i]
	}

	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		actualValue, ok := actual[key]
		if !ok {
			return fmt.Errorf("field %q not present in columns %v", key, columns)
		}
		if !stateValuesEqual(a.Expect[key], actualValue) {
			return fmt.Errorf("field %q = %v (%T), want %v (%T)", key, actualValue, actualValue, a.Expect[key], a.Expect[key])
		}
	}
	return nil
}

// assertRowCount checks that a.Table has exactly a.Count rows matching
// a.Where (or in total if a.Where is empty).
func assertRowCount(db *sql.DB, a Assertion) error {
	if !validIdentifier.MatchString(a.Table) {
		return fmt.Errorf("invalid table name %q", a.Table)
	}

	whereSQL, whereArgs, err := buildWhereClause(a.Where)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", a.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	var count int
	if err := db.QueryRow(query, whereArgs...).Scan(&count); err != nil {
		return fmt.Errorf("count %s: %w", a.Table, err)
	}
	if count != a.Count {
		return fmt.Errorf("row_count on %s = %d, want %d", a.Table, count, a.Count)
	}
	return nil
}

// buildWhereClause constructs a parameterized WHERE clause. Keys are
// sorted for deterministic query generation.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause", key)
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, where[key])
	}
	return strings.Join(clauses, " AND "), args, nil
}

func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares an expected YAML-parsed value against an
// actual value scanned from SQLite, accounting for the type coercion
// each side applies (YAML numbers decode as int/float64; SQLite returns
// int64 for integer columns).
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	switch exp := expected.(type) {
	case string:
		s, ok := actual.(string)
		return ok && exp == s
	case int:
		return intEquals(int64(exp), actual)
	case int64:
		return intEquals(exp, actual)
	case float64:
		if exp == float64(int64(exp)) {
			if intEquals(int64(exp), actual) {
				return true
			}
		}
		f, ok := actual.(float64)
		return ok && exp == f
	case bool:
		b, ok := actual.(bool)
		if ok {
			return exp == b
		}
		i, ok := actual.(int64)
		return ok && exp == (i != 0)
	}
	return reflect.DeepEqual(expected, actual)
}

func intEquals(expected int64, actual interface{}) bool {
	switch a := actual.(type) {
	case int64:
		return expected == a
	case int:
		return expected == int64(a)
	}
	return false
}
