// Package focus models which text input owns the keyboard. Each aggregate
// level holds one Token: nothing, one of its own fields, or one of its child
// rows (whose own token then picks the field).
package focus

// Field names an editable field within an entity.
type Field string

const (
	None   Field = ""
	Name   Field = "name"
	Amount Field = "amount"
	Unit   Field = "unit"
	Body   Field = "body"
)

// Token is the focus state of one aggregate level.
type Token[R comparable] struct {
	field  Field
	row    R
	hasRow bool
}

// Clear returns the empty token.
func Clear[R comparable]() Token[R] {
	return Token[R]{}
}

// OnField focuses one of the aggregate's own fields.
func OnField[R comparable](f Field) Token[R] {
	return Token[R]{field: f}
}

// OnRow focuses a child row.
func OnRow[R comparable](r R) Token[R] {
	return Token[R]{row: r, hasRow: true}
}

// IsNone reports whether nothing is focused at this level.
func (t Token[R]) IsNone() bool {
	return t.field == None && !t.hasRow
}

// Field returns the focused own field, if any.
func (t Token[R]) Field() (Field, bool) {
	return t.field, t.field != None
}

// Row returns the focused child row, if any.
func (t Token[R]) Row() (R, bool) {
	return t.row, t.hasRow
}

// IsRow reports whether r is the focused row.
func (t Token[R]) IsRow(r R) bool {
	return t.hasRow && t.row == r
}

// Blurrer is anything whose focus can be reset. ClearFocus must recurse into
// descendants so that no token below the receiver stays set.
type Blurrer interface {
	ClearFocus()
	HasFocus() bool
}
