package dom

// Event is a dispatched DOM event.
type Event struct {
	Type   string
	Target any
}

// Listener handles an Event.
type Listener func(Event)

type listenerEntry struct {
	id int
	fn Listener
}

// EventTarget keeps listeners by event type and dispatches to them in
// registration order.
type EventTarget struct {
	listeners map[string][]listenerEntry
	nextID    int
}

// NewEventTarget returns an empty EventTarget.
func NewEventTarget() *EventTarget {
	return &EventTarget{listeners: make(map[string][]listenerEntry)}
}

// AddEventListener registers fn for events of the given type. The returned
// func removes the listener.
func (t *EventTarget) AddEventListener(eventType string, fn Listener) (remove func()) {
	t.nextID++
	id := t.nextID
	t.listeners[eventType] = append(t.listeners[eventType], listenerEntry{id: id, fn: fn})
	return func() {
		entries := t.listeners[eventType]
		for i, e := range entries {
			if e.id == id {
				t.listeners[eventType] = append(entries[:i:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Dispatch calls every listener registered for ev.Type and returns how many
// ran. Listeners added during dispatch are not called for this event.
func (t *EventTarget) Dispatch(ev Event) int {
	entries := append([]listenerEntry(nil), t.listeners[ev.Type]...)
	for _, e := range entries {
		e.fn(ev)
	}
	return len(entries)
}

// ListenerCount returns the number of listeners for an event type.
func (t *EventTarget) ListenerCount(eventType string) int {
	return len(t.listeners[eventType])
}
