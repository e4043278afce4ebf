package events

// Bus fans messages into a buffered channel. Emit never blocks: when the
// buffer is full the message is dropped.
type Bus struct {
	ch chan Msg
}

// NewBus returns a bus buffering up to size messages.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 64
	}
	return &Bus{ch: make(chan Msg, size)}
}

// Events exposes the message channel.
func (b *Bus) Events() <-chan Msg {
	return b.ch
}

// Emit queues msg. It is safe on a nil bus.
func (b *Bus) Emit(msg Msg) {
	if b == nil {
		return
	}
	select {
	case b.ch <- msg:
	default:
	}
}

// Drain returns every queued message without blocking.
func (b *Bus) Drain() []Msg {
	var out []Msg
	for {
		select {
		case m := <-b.ch:
			out = append(out, m)
		default:
			return out
		}
	}
}
