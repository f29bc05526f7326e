package pulse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscriberReceivesPulsesInOrder(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	for i := uint64(0); i < 4; i++ {
		n.Publish(Pulse{Tick: i, Beat: int(i)})
	}
	for i := uint64(0); i < 4; i++ {
		p := <-ch
		require.Equal(t, i, p.Tick)
	}
}

func TestPublishDropsWhenSubscriberStalls(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	ch, cancel := n.Subscribe()
	defer cancel()

	// Nobody is draining; publishing well past the buffer must not block.
	for i := uint64(0); i < 100; i++ {
		n.Publish(Pulse{Tick: i})
	}
	// The buffered head of the stream survives.
	p := <-ch
	require.Equal(t, uint64(0), p.Tick)
	require.LessOrEqual(t, len(ch), cap(ch))
}

func TestCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	ch, cancel := n.Subscribe()
	cancel()
	cancel() // second cancel is harmless

	n.Publish(Pulse{Tick: 1})
	_, open := <-ch
	require.False(t, open)
}

func TestCloseClosesSubscribersAndMutesPublish(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	ch, _ := n.Subscribe()
	n.Close()

	n.Publish(Pulse{Tick: 1}) // no-op after Close
	_, open := <-ch
	require.False(t, open)

	// Subscribing after Close yields an already-closed channel.
	ch2, cancel2 := n.Subscribe()
	cancel2()
	_, open = <-ch2
	require.False(t, open)
}

func TestIndependentSubscribers(t *testing.T) {
	t.Parallel()

	n := NewNotifier()
	a, cancelA := n.Subscribe()
	b, cancelB := n.Subscribe()
	defer cancelB()

	n.Publish(Pulse{Tick: 7, Accented: true})
	require.Equal(t, uint64(7), (<-a).Tick)
	require.Equal(t, uint64(7), (<-b).Tick)

	cancelA()
	n.Publish(Pulse{Tick: 8})
	require.Equal(t, uint64(8), (<-b).Tick)
}
