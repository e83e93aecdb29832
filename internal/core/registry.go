package core

import "github.com/samber/lo"

// Session pairs a live connection with the identity it is bound to.
type Session struct {
	ConnectionID string
	Identity     string
}

// Registry maps each identity to its single live connection.
// It is not safe for concurrent use; the hub owns it.
type Registry struct {
	byName map[string]*Client
	order  []*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Client)}
}

// Register installs c as the connection for its identity. A previous holder
// is sent force_disconnect and closed before it is dropped from bookkeeping,
// and returned as evicted. Registering the current holder again changes nothing.
func (r *Registry) Register(c *Client) (accepted, evicted *Client) {
	if prev, ok := r.byName[c.Name]; ok {
		if prev == c {
			return c, nil
		}
		prev.evict(ReasonReplaced)
		r.remove(prev)
		evicted = prev
	}
	r.byName[c.Name] = c
	r.order = append(r.order, c)
	return c, evicted
}

// Unregister removes c and closes its stream. It returns the identity c held,
// or false when c is unknown or was already replaced.
func (r *Registry) Unregister(c *Client) (string, bool) {
	if !r.Owns(c) {
		return "", false
	}
	r.remove(c)
	c.close()
	return c.Name, true
}

// Evict drops c the same way Unregister does, but first tells it why.
func (r *Registry) Evict(c *Client, reason string) bool {
	if !r.Owns(c) {
		return false
	}
	c.evict(reason)
	r.remove(c)
	return true
}

// Owns reports whether c is the live connection for its identity.
func (r *Registry) Owns(c *Client) bool {
	return c != nil && r.byName[c.Name] == c
}

// Snapshot lists registered identities in the order their current
// connections were installed.
func (r *Registry) Snapshot() []string {
	return lo.Map(r.order, func(c *Client, _ int) string { return c.Name })
}

// Sessions lists connection/identity pairs in the same order as Snapshot.
func (r *Registry) Sessions() []Session {
	return lo.Map(r.order, func(c *Client, _ int) Session {
		return Session{ConnectionID: c.ID, Identity: c.Name}
	})
}

// Clients returns a copy of the registered connections.
func (r *Registry) Clients() []*Client {
	out := make([]*Client, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) remove(c *Client) {
	delete(r.byName, c.Name)
	r.order = lo.Without(r.order, c)
}
