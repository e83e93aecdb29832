package core

import "github.com/rs/zerolog"

// Bus fans events out to client buffers. It never blocks: a client whose
// buffer is full is reported back so the hub can evict it.
type Bus struct {
	log *zerolog.Logger
}

// NewBus creates a bus that logs dropped deliveries to logger.
func NewBus(logger *zerolog.Logger) *Bus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Bus{log: logger}
}

// Publish delivers ev to every target in order and returns the clients that
// could not take it.
func (b *Bus) Publish(ev *Event, targets []*Client) []*Client {
	var laggards []*Client
	for _, c := range targets {
		if !c.deliver(ev) {
			laggards = append(laggards, c)
		}
	}
	if len(laggards) > 0 {
		b.log.Debug().
			Str("event", ev.Kind.String()).
			Int("dropped", len(laggards)).
			Msg("event not delivered to slow clients")
	}
	return laggards
}

// Send delivers ev to a single client.
func (b *Bus) Send(c *Client, ev *Event) bool {
	if c.deliver(ev) {
		return true
	}
	b.log.Debug().Str("client_id", c.ID).Str("event", ev.Kind.String()).Msg("private event not delivered")
	return false
}
