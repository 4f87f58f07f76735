package session

// Selection is the highlighted row. Valid is false when the list is empty.
type Selection struct {
	Index int
	Valid bool
}

// Normalize maps a signed cursor onto a list of n rows with floored modulo.
func Normalize(cursor, n int) Selection {
	if n <= 0 {
		return Selection{}
	}
	idx := cursor % n
	if idx < 0 {
		idx += n
	}
	return Selection{Index: idx, Valid: true}
}

// Tracker holds the unbounded cursor counter moved by up/down keys.
type Tracker struct {
	Cursor int
}

// Up moves the cursor one row up.
func (t *Tracker) Up() { t.Cursor-- }

// Down moves the cursor one row down.
func (t *Tracker) Down() { t.Cursor++ }

// Select derives the selection for a list of n rows. The cursor itself is
// left untouched so a later list is entered at the same relative offset.
func (t Tracker) Select(n int) Selection {
	return Normalize(t.Cursor, n)
}
