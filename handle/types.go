package handle

// Handle is an opaque reference to a host object held in a Table.
// Handle 0 is reserved as the null sentinel and always invalid.
type Handle uint32

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventReleased
)

// Event represents a handle lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	TypeID uint32
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// Destroyer is optionally implemented by host objects that need cleanup
// when their handle is released or the table is torn down.
type Destroyer interface {
	Destroy()
}
