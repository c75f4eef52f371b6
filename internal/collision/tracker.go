package collision

import (
	"fmt"

	"github.com/arloliu/coldecode/errs"
	"github.com/arloliu/coldecode/internal/hash"
)

// Tracker indexes column names by their xxHash64 ID and resolves names to
// column positions. Names whose ID collides with an earlier name are kept in
// a fallback map so lookups stay exact.
type Tracker struct {
	byID         map[uint64]int // ID → position of the first name with that ID
	collided     map[string]int // name → position, for names whose ID was taken
	names        []string       // Ordered list of tracked names
	hasCollision bool           // Whether a collision has been detected
}

// NewTracker creates a new tracker sized for capacity names.
func NewTracker(capacity int) *Tracker {
	return &Tracker{
		byID:  make(map[uint64]int, capacity),
		names: make([]string, 0, capacity),
	}
}

// Track appends a column name and returns its 0-based position.
//
// Returns error if:
// - The name is empty (ErrInvalidColumnName)
// - The same name is tracked twice (ErrDuplicateColumnName)
//
// Note: ID collisions (different names, same ID) are NOT errors. The
// collision flag is set and the name is resolved through the fallback map.
func (t *Tracker) Track(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty name at position %d", errs.ErrInvalidColumnName, len(t.names))
	}

	pos := len(t.names)
	id := hash.ID(name)
	if existing, exists := t.byID[id]; exists {
		if t.names[existing] == name {
			return 0, fmt.Errorf("%w: %q", errs.ErrDuplicateColumnName, name)
		}

		// Different name, same ID
		if t.collided == nil {
			t.collided = make(map[string]int)
		}
		if _, dup := t.collided[name]; dup {
			return 0, fmt.Errorf("%w: %q", errs.ErrDuplicateColumnName, name)
		}
		t.collided[name] = pos
		t.hasCollision = true
	} else {
		t.byID[id] = pos
	}

	t.names = append(t.names, name)

	return pos, nil
}

// Lookup returns the 0-based position of name and whether it is tracked.
func (t *Tracker) Lookup(name string) (int, bool) {
	if pos, ok := t.byID[hash.ID(name)]; ok && t.names[pos] == name {
		return pos, true
	}

	pos, ok := t.collided[name]

	return pos, ok
}

// HasCollision returns true if a collision has been detected.
func (t *Tracker) HasCollision() bool {
	return t.hasCollision
}

// Names returns the tracked names in the order they were tracked.
func (t *Tracker) Names() []string {
	return t.names
}

// Count returns the number of tracked names.
func (t *Tracker) Count() int {
	return len(t.names)
}

// Reset clears all tracked names and collision state.
func (t *Tracker) Reset() {
	clear(t.byID)
	t.collided = nil
	t.names = t.names[:0]
	t.hasCollision = false
}
