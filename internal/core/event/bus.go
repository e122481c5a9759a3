package event

import (
	"reflect"
)

// Bus collects the events produced during one frame in emission order.
// Systems Emit while they run; DispatchSystem drains the frame's list at the
// Output phase and routes each event to the handlers subscribed to its type.
// Nothing is delivered mid-frame, so handlers never observe a half-updated
// frame and delivery order matches emission order.
type Bus struct {
	frame    []any
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		frame:    make([]any, 0, 32),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit appends an event to the current frame's list.
// A nil bus drops the event, which keeps unit tests of single systems terse.
func Emit[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	b.frame = append(b.frame, event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Pending returns the events emitted so far this frame without draining them.
func (b *Bus) Pending() []any {
	return b.frame
}

// Drain returns this frame's events and starts a fresh list.
func (b *Bus) Drain() []any {
	out := b.frame
	b.frame = make([]any, 0, cap(out))
	return out
}

// Dispatch delivers events, in order, to their subscribed handlers.
func (b *Bus) Dispatch(events []any) {
	for _, ev := range events {
		for _, h := range b.handlers[reflect.TypeOf(ev)] {
			h(ev)
		}
	}
}

// Collect filters an event list down to one type.
func Collect[T any](events []any) []T {
	var out []T
	for _, ev := range events {
		if e, ok := ev.(T); ok {
			out = append(out, e)
		}
	}
	return out
}
