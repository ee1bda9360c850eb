package hexastore

import "sync"

// interner assigns dense uint32 ids to the string values Search handles,
// so variable bindings can be represented as roaring64.Bitmap members
// rather than Go string sets.
type interner struct {
	mu    sync.Mutex
	toID  map[string]uint32
	toStr []string
}

func newInterner() *interner {
	return &interner{toID: make(map[string]uint32)}
}

// intern returns s's id, assigning a new one if s has not been seen.
func (in *interner) intern(s string) uint32 {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.toID[s]; ok {
		return id
	}
	id := uint32(len(in.toStr))
	in.toID[s] = id
	in.toStr = append(in.toStr, s)
	return id
}

// lookupID returns s's id without interning it, so callers can test
// membership in a bitmap built from earlier interned values without
// spuriously interning a value that was never actually bound.
func (in *interner) lookupID(s string) (uint32, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	id, ok := in.toID[s]
	return id, ok
}

func (in *interner) str(id uint32) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.toStr[id]
}
