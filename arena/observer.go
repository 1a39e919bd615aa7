package arena

// EventType distinguishes block lifecycle events.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventAllocated:
		return "allocated"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event describes one block lifecycle change.
type Event struct {
	Block Block
	Type  EventType
}

// Observer receives notifications about block events.
type Observer interface {
	OnBlockEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnBlockEvent calls f.
func (f ObserverFunc) OnBlockEvent(e Event) {
	f(e)
}
