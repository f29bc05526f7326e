// Package pulse fans scheduled tick positions out to visual subscribers
// without ever blocking the scheduler. Dropped pulses under load are
// acceptable; the audio path does not go through here.
package pulse

import "sync"

// Pulse is one scheduled tick, republished for visual rendering.
type Pulse struct {
	Tick     uint64
	Beat     int
	Sub      int
	Accented bool
	When     float64 // sounding instant on the precise clock, seconds
}

const subscriberBuffer = 8

// Notifier delivers pulses to any number of subscribers. Publish never blocks:
// when a subscriber's buffer is full the pulse is dropped for that subscriber.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]chan Pulse
	nextID int
	closed bool
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan Pulse)}
}

// Subscribe registers a new subscriber. cancel removes it and closes its
// channel; calling cancel more than once is harmless.
func (n *Notifier) Subscribe() (<-chan Pulse, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Pulse, subscriberBuffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if c, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Publish delivers p to every subscriber that has buffer space.
func (n *Notifier) Publish(p Pulse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- p:
		default:
			// subscriber stalled; drop
		}
	}
}

// Close removes and closes all subscriber channels. Publish becomes a no-op.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
