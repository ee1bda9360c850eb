package kv

import "bytes"

// cursorState is the cursor's position in its three-state machine:
// Unpositioned before first use, Positioned once a key has been located,
// Exhausted once a step has run off either end.
type cursorState int

const (
	stateUnpositioned cursorState = iota
	statePositioned
	stateExhausted
)

// Seeker is the low-level primitive a Backend exposes so that package kv
// can build the stateful Cursor on top of it without each backend
// reimplementing seek/step/remove bookkeeping itself. memkv's Store and
// txn implement Seeker directly; boltkv supplies a snapshot seeker for
// Store.Cursor and a live seeker for cursors opened inside a transaction.
// Backend.Cursor just wraps the Seeker.
type Seeker interface {
	// SeekFirst returns the least key/value pair in the store.
	SeekFirst() (key, value []byte, ok bool, err error)

	// SeekLast returns the greatest key/value pair in the store.
	SeekLast() (key, value []byte, ok bool, err error)

	// SeekGE returns the least key/value pair with key >= target.
	SeekGE(target []byte) (key, value []byte, ok bool, err error)

	// SeekLE returns the greatest key/value pair with key <= target.
	SeekLE(target []byte) (key, value []byte, ok bool, err error)

	// Next returns the least key/value pair with key > cur.
	Next(cur []byte) (key, value []byte, ok bool, err error)

	// Prev returns the greatest key/value pair with key < cur.
	Prev(cur []byte) (key, value []byte, ok bool, err error)

	// Put and Delete mutate the store directly, used by Cursor.Set and
	// Cursor.Remove/Seize.
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Cursor is a stateful, bidirectional scan over an ordered store. It is a
// scoped resource: acquire it from Backend.Cursor, always Release it
// (typically via defer), and never use it after Release.
//
// Edge-case seeking: when Seek's target falls between two stored keys, a
// forward cursor resumes at the least key >= target and a reverse cursor
// resumes at the greatest key <= target, matching the Slice Normalizer's
// rule for seeking into a gap.
type Cursor struct {
	seeker  Seeker
	reverse bool
	state   cursorState
	key     []byte
	value   []byte
}

// newCursor is called by Backend.Cursor implementations; it is not part
// of the public API surface callers construct directly.
func newCursor(s Seeker, reverse bool) *Cursor {
	return &Cursor{seeker: s, reverse: reverse, state: stateUnpositioned}
}

// NewCursor constructs a Cursor over any Seeker. Backend implementations
// use this from their Cursor method rather than duplicating the state
// machine.
func NewCursor(s Seeker, reverse bool) *Cursor {
	return newCursor(s, reverse)
}

// First positions the cursor at the least key in the store.
func (c *Cursor) First() error {
	k, v, ok, err := c.seeker.SeekFirst()
	return c.land(k, v, ok, err)
}

// Last positions the cursor at the greatest key in the store.
func (c *Cursor) Last() error {
	k, v, ok, err := c.seeker.SeekLast()
	return c.land(k, v, ok, err)
}

// Seek positions the cursor at key, or at the nearest neighbor: the least
// key >= target for a forward cursor, the greatest key <= target for a
// reverse cursor. If the backend's underlying primitive only offers
// "next higher" semantics in reverse mode, the cursor steps back once to
// land on the correct neighbor (handled by SeekLE itself for both bundled
// backends, so this is a defensive fallback).
func (c *Cursor) Seek(target []byte) error {
	if c.reverse {
		k, v, ok, err := c.seeker.SeekLE(target)
		if err == nil && ok && bytes.Compare(k, target) > 0 {
			k, v, ok, err = c.seeker.Prev(k)
		}
		return c.land(k, v, ok, err)
	}
	k, v, ok, err := c.seeker.SeekGE(target)
	return c.land(k, v, ok, err)
}

// Next advances the cursor one logical entry in its scan direction.
func (c *Cursor) Next() error {
	if c.state != statePositioned {
		return ErrCursorExhausted
	}
	var k, v []byte
	var ok bool
	var err error
	if c.reverse {
		k, v, ok, err = c.seeker.Prev(c.key)
	} else {
		k, v, ok, err = c.seeker.Next(c.key)
	}
	return c.land(k, v, ok, err)
}

// Previous steps the cursor one logical entry against its scan
// direction.
func (c *Cursor) Previous() error {
	if c.state != statePositioned {
		return ErrCursorExhausted
	}
	var k, v []byte
	var ok bool
	var err error
	if c.reverse {
		k, v, ok, err = c.seeker.Next(c.key)
	} else {
		k, v, ok, err = c.seeker.Prev(c.key)
	}
	return c.land(k, v, ok, err)
}

// Get returns the key/value pair at the cursor's current position, or
// ErrCursorExhausted / ErrNotFound if the cursor is not positioned.
func (c *Cursor) Get() (key, value []byte, err error) {
	switch c.state {
	case statePositioned:
		return c.key, c.value, nil
	case stateExhausted:
		return nil, nil, ErrCursorExhausted
	default:
		return nil, nil, ErrNotFound
	}
}

// Set overwrites the value at the cursor's current key.
func (c *Cursor) Set(value []byte) error {
	if c.state != statePositioned {
		return ErrCursorExhausted
	}
	if err := c.seeker.Put(c.key, value); err != nil {
		return err
	}
	c.value = append([]byte(nil), value...)
	return nil
}

// Remove deletes the entry at the cursor's current position without
// moving the cursor. The cursor becomes unpositioned with respect to that
// key; callers must call First, Last or Seek before the next Get, since
// Next and Previous return ErrCursorExhausted on an unpositioned cursor.
func (c *Cursor) Remove() error {
	if c.state != statePositioned {
		return ErrCursorExhausted
	}
	if err := c.seeker.Delete(c.key); err != nil {
		return err
	}
	c.state = stateUnpositioned
	c.key, c.value = nil, nil
	return nil
}

// Seize removes the entry at the cursor's current position and returns
// it, combining Get and Remove into one step — useful for pop-style
// consumption of a range.
func (c *Cursor) Seize() (key, value []byte, err error) {
	key, value, err = c.Get()
	if err != nil {
		return nil, nil, err
	}
	if err := c.Remove(); err != nil {
		return nil, nil, err
	}
	return key, value, nil
}

// FetchCount yields up to n entries starting at the cursor's current
// position (inclusive), advancing the cursor, and exhausting it if fewer
// than n entries remain.
func (c *Cursor) FetchCount(n int) ([]Pair, error) {
	out := make([]Pair, 0, n)
	if c.state != statePositioned {
		return out, nil
	}
	for len(out) < n {
		k, v, err := c.Get()
		if err != nil {
			break
		}
		out = append(out, Pair{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
		if err := c.Next(); err != nil {
			break
		}
	}
	return out, nil
}

// FetchUntil yields entries from the cursor's current position while
// cmp(current, end) holds "before or equal" — <= for a forward cursor,
// >= for a reverse cursor — including the boundary key itself, then
// exhausts.
func (c *Cursor) FetchUntil(end []byte) ([]Pair, error) {
	var out []Pair
	for c.state == statePositioned {
		k, v, _ := c.Get()
		within := false
		if c.reverse {
			within = bytes.Compare(k, end) >= 0
		} else {
			within = bytes.Compare(k, end) <= 0
		}
		if !within {
			break
		}
		out = append(out, Pair{Key: append([]byte(nil), k...), Value: append([]byte(nil), v...)})
		boundary := bytes.Equal(k, end)
		if err := c.Next(); err != nil || boundary {
			break
		}
	}
	return out, nil
}

// Release disables the cursor. Safe to call multiple times; subsequent
// operations return ErrCursorExhausted.
func (c *Cursor) Release() {
	c.state = stateExhausted
	c.seeker = nil
	c.key, c.value = nil, nil
}

func (c *Cursor) land(k, v []byte, ok bool, err error) error {
	if err != nil {
		c.state = stateExhausted
		return err
	}
	if !ok {
		c.state = stateExhausted
		c.key, c.value = nil, nil
		return nil
	}
	c.state = statePositioned
	c.key = append([]byte(nil), k...)
	c.value = append([]byte(nil), v...)
	return nil
}
