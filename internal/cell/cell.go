// Package cell defines the recovered-row representation consumed by the
// repair assembler. A Cell is produced by the upstream page-scavenging
// decoder (out of scope for this module) and handed to the assembler one
// row at a time.
package cell

import "fmt"

// Type tags the kind of value held at a given column index.
type Type int

const (
	// Null marks a column whose recovered value was lost or was genuinely
	// SQL NULL. Null is the zero value so an unset Value defaults to it.
	Null Type = iota
	Integer
	Real
	Text
	Blob
)

// String renders the type tag for logging and error messages.
func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	case Blob:
		return "blob"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Value is a tagged union over {Null, Integer, Real, Text, Blob}. The
// constructors below are the only way to build a non-Null Value, so a
// Value's Type tag and payload can never disagree.
type Value struct {
	typ   Type
	i64   int64
	f64   float64
	bytes []byte
}

// NewNull returns a Null value.
func NewNull() Value { return Value{typ: Null} }

// NewInteger returns an Integer value.
func NewInteger(v int64) Value { return Value{typ: Integer, i64: v} }

// NewReal returns a Real value.
func NewReal(v float64) Value { return Value{typ: Real, f64: v} }

// NewText returns a Text value. b is retained, not copied; callers that
// need the Value to outlive b's backing buffer must copy first.
func NewText(b []byte) Value { return Value{typ: Text, bytes: b} }

// NewBlob returns a Blob value. b is retained, not copied.
func NewBlob(b []byte) Value { return Value{typ: Blob, bytes: b} }

// Type reports the value's tag. Callers must consult this before calling
// a typed accessor.
func (v Value) Type() Type { return v.typ }

// Integer returns the integer payload. Panics if Type() != Integer.
func (v Value) Integer() int64 {
	if v.typ != Integer {
		panic(fmt.Sprintf("cell: Integer() called on %s value", v.typ))
	}
	return v.i64
}

// Real returns the floating-point payload. Panics if Type() != Real.
func (v Value) Real() float64 {
	if v.typ != Real {
		panic(fmt.Sprintf("cell: Real() called on %s value", v.typ))
	}
	return v.f64
}

// Text returns the text payload as raw bytes (length is len of the
// returned slice; SQLite text is not required to be valid UTF-8). Panics
// if Type() != Text.
func (v Value) Text() []byte {
	if v.typ != Text {
		panic(fmt.Sprintf("cell: Text() called on %s value", v.typ))
	}
	return v.bytes
}

// Blob returns the blob payload. Panics if Type() != Blob.
func (v Value) Blob() []byte {
	if v.typ != Blob {
		panic(fmt.Sprintf("cell: Blob() called on %s value", v.typ))
	}
	return v.bytes
}

// Cell is an immutable view over one recovered row: a row_id plus a typed
// value per non-rowid column. Cell does not own the backing store of its
// Text/Blob values; lifetime is bound to the producing scavenger's page
// buffer and must outlive each InsertCell call that consumes it.
type Cell struct {
	rowID  int64
	values []Value
}

// New constructs a Cell from a row id and an ordered slice of column
// values. The slice is retained, not copied.
func New(rowID int64, values []Value) Cell {
	return Cell{rowID: rowID, values: values}
}

// RowID returns the cell's row identifier.
func (c Cell) RowID() int64 { return c.rowID }

// Count returns the number of non-rowid column values.
func (c Cell) Count() int { return len(c.values) }

// ValueType returns the type tag of the value at index i.
func (c Cell) ValueType(i int) Type { return c.values[i].Type() }

// Integer returns the integer value at index i. Panics if the value's
// type is not Integer.
func (c Cell) Integer(i int) int64 { return c.values[i].Integer() }

// Real returns the real value at index i. Panics if the value's type is
// not Real.
func (c Cell) Real(i int) float64 { return c.values[i].Real() }

// Text returns the text bytes at index i. Panics if the value's type is
// not Text.
func (c Cell) Text(i int) []byte { return c.values[i].Text() }

// Blob returns the blob bytes at index i. Panics if the value's type is
// not Blob.
func (c Cell) Blob(i int) []byte { return c.values[i].Blob() }

// Value returns the raw tagged value at index i, for callers that want to
// switch on Type() once rather than call ValueType then a typed accessor.
func (c Cell) Value(i int) Value { return c.values[i] }
