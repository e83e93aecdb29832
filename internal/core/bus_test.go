package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBusPublishKeepsOrder(t *testing.T) {
	bus := NewBus(nil)
	a := NewClient("a", "alice", 8)
	b := NewClient("b", "bob", 8)

	for i := range 5 {
		laggards := bus.Publish(&Event{Kind: EventMessageDeleted, MessageID: int64(i)}, []*Client{a, b})
		require.Empty(t, laggards)
	}

	for _, c := range []*Client{a, b} {
		for i := range 5 {
			ev := <-c.Events()
			require.Equal(t, int64(i), ev.MessageID)
		}
	}
}

func TestBusReportsFullClients(t *testing.T) {
	bus := NewBus(nil)
	slow := NewClient("s", "slow", 2)
	fast := NewClient("f", "fast", 2)

	bus.Publish(&Event{Kind: EventUserTyping}, []*Client{slow, fast})
	bus.Publish(&Event{Kind: EventUserTyping}, []*Client{slow, fast})
	<-fast.Events()

	laggards := bus.Publish(&Event{Kind: EventUserTyping}, []*Client{slow, fast})
	require.Equal(t, []*Client{slow}, laggards)
	require.False(t, bus.Send(slow, &Event{Kind: EventUserTyping}))

	// The reserved slot still takes force_disconnect.
	slow.evict(ReasonSlowConsumer)
	events := drainUntilClosed(t, slow.Events())
	require.Len(t, events, 3)
	require.Equal(t, EventForceDisconnect, events[2].Kind)
}

func TestBusSkipsClosedClients(t *testing.T) {
	bus := NewBus(nil)
	c := NewClient("c", "carol", 2)
	c.close()

	require.Equal(t, []*Client{c}, bus.Publish(&Event{Kind: EventUserTyping}, []*Client{c}))
}
