package core

import "time"

// DefaultSendBuffer is the number of events a client may have queued.
const DefaultSendBuffer = 64

// Eviction reasons carried by force_disconnect.
const (
	ReasonReplaced     = "signed in from another connection"
	ReasonSlowConsumer = "connection too slow"
	ReasonShutdown     = "server shutting down"
)

// Client is a chat participant as seen by the core layer.
//
// The hub is the only goroutine that sends on or closes the event channel.
// One slot is kept free for force_disconnect so an evicted client always
// sees why it was dropped, even when its buffer is otherwise full.
type Client struct {
	ID        string
	Name      string
	CreatedAt time.Time

	events chan *Event
	closed bool
}

// NewClient constructs a client that can queue up to buffer events.
func NewClient(id, name string, buffer int) *Client {
	if name == "" {
		name = id
	}
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Client{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		events:    make(chan *Event, buffer+1),
	}
}

// Events returns the outbound stream. It is closed once the client has been
// unregistered or evicted.
func (c *Client) Events() <-chan *Event {
	return c.events
}

// deliver queues ev without blocking. It reports false when the client is
// closed or has no room left.
func (c *Client) deliver(ev *Event) bool {
	if c.closed || len(c.events) >= cap(c.events)-1 {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// evict tells the client why it is dropped, then closes the stream.
// Calling it again is a no-op.
func (c *Client) evict(reason string) {
	if c.closed {
		return
	}
	select {
	case c.events <- &Event{Kind: EventForceDisconnect, User: c.Name, Reason: reason}:
	default:
	}
	c.close()
}

func (c *Client) close() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}
