package handle

import (
	"sync"

	"github.com/wippyai/hostbridge/errors"
)

// Table maps integer handles to host object references. It is the sole
// owner of a reference while the handle is live.
//
// The backing store is a slot arena plus a free-index pool. Allocate
// reuses freed indices before growing the arena, so the table stays
// compact under churn. Handle 0 is never issued.
//
// Release of a non-live handle is reported as a double_release error
// rather than silently ignored; the free pool is left untouched either way.
type Table struct {
	entries   []slot
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type slot struct {
	value  any
	typeID uint32
	live   bool
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{
		entries:  make([]slot, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Allocate stores value and returns a fresh handle. The lowest-cost free
// index is reused first; the arena grows only when the free pool is empty.
func (t *Table) Allocate(value any) (Handle, error) {
	return t.AllocateTyped(0, value)
}

// AllocateTyped stores value tagged with typeID so later lookups can
// reject handles of the wrong kind (e.g. a buffer handle passed where a
// texture handle is expected).
func (t *Table) AllocateTyped(typeID uint32, value any) (Handle, error) {
	t.mu.Lock()

	if t.closed {
		t.mu.Unlock()
		return 0, errors.Closed(errors.PhaseTable, "handle table")
	}

	s := slot{
		typeID: typeID,
		value:  value,
		live:   true,
	}

	var h Handle
	if len(t.freeList) > 0 {
		h = t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[h-1] = s
	} else {
		t.entries = append(t.entries, s)
		h = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{
		Type:   EventAllocated,
		Handle: h,
		TypeID: typeID,
		Value:  value,
	})

	return h, nil
}

// Resolve returns the object stored under h. A zero, out-of-range, or
// released handle yields an invalid_handle error; the guest can never
// force an out-of-range read through a malformed handle value.
func (t *Table) Resolve(h Handle) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.lookup(h)
	if !ok {
		return nil, errors.InvalidHandle(uint32(h))
	}
	return s.value, nil
}

// ResolveTyped returns the object stored under h only if its type tag
// matches typeID.
func (t *Table) ResolveTyped(h Handle, typeID uint32) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.lookup(h)
	if !ok {
		return nil, errors.InvalidHandle(uint32(h))
	}
	if s.typeID != typeID {
		return nil, errors.New(errors.PhaseTable, errors.KindTypeMismatch).
			Detail("handle %d has type %d, want %d", h, s.typeID, typeID).
			Value(uint32(h)).
			Build()
	}
	return s.value, nil
}

// TypeID returns the type tag recorded for h.
func (t *Table) TypeID(h Handle) (uint32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.lookup(h)
	if !ok {
		return 0, errors.InvalidHandle(uint32(h))
	}
	return s.typeID, nil
}

// Release clears the slot for h, returns its index to the free pool, and
// calls Destroy on the object if it implements Destroyer. Releasing a
// handle that was already released reports double_release; a zero or
// out-of-range handle reports invalid_handle.
func (t *Table) Release(h Handle) error {
	t.mu.Lock()

	if h == 0 || int(h) > len(t.entries) {
		t.mu.Unlock()
		return errors.InvalidHandle(uint32(h))
	}

	s := &t.entries[h-1]
	if !s.live {
		t.mu.Unlock()
		return errors.DoubleRelease(uint32(h))
	}

	value := s.value
	typeID := s.typeID
	s.live = false
	s.value = nil
	t.freeList = append(t.freeList, h)
	t.mu.Unlock()

	if d, ok := value.(Destroyer); ok {
		d.Destroy()
	}

	t.notify(Event{
		Type:   EventReleased,
		Handle: h,
		TypeID: typeID,
		Value:  value,
	})

	return nil
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, s := range t.entries {
		if s.live {
			count++
		}
	}
	return count
}

// Each iterates over all live handles.
func (t *Table) Each(fn func(Handle, uint32, any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, s := range t.entries {
		if s.live {
			if !fn(Handle(i+1), s.typeID, s.value) {
				break
			}
		}
	}
}

// Clear releases all live handles.
func (t *Table) Clear() {
	// Collect handles first to avoid holding the lock during Release
	var handles []Handle
	t.Each(func(h Handle, typeID uint32, value any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		_ = t.Release(h)
	}
}

// Close releases all live handles and stops accepting operations.
// Used when the host application tears down the bridge.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	for i := range t.entries {
		if t.entries[i].live {
			if d, ok := t.entries[i].value.(Destroyer); ok {
				d.Destroy()
			}
			t.entries[i].live = false
			t.entries[i].value = nil
		}
	}

	t.entries = nil
	t.freeList = nil
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// lookup must be called with at least a read lock held.
func (t *Table) lookup(h Handle) (*slot, bool) {
	if h == 0 || int(h) > len(t.entries) {
		return nil, false
	}
	s := &t.entries[h-1]
	if !s.live {
		return nil, false
	}
	return s, true
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
