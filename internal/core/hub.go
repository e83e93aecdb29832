package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DaveMcBlame1/chatroom/internal/store"
)

const (
	// DefaultHistoryLimit is the page size used when a caller gives none.
	DefaultHistoryLimit = 50
	// DefaultPageSize is the size of an older-history page when a caller
	// pages backwards without a limit.
	DefaultPageSize = 25
	// MaxHistoryLimit caps any single history page.
	MaxHistoryLimit = 100

	inboxSize  = 256
	tracerName = "github.com/DaveMcBlame1/chatroom/internal/core"
)

// Options tune the hub. Zero values fall back to defaults.
type Options struct {
	AuthorizedUsers  []string
	MaxMessageLength int
	HistoryLimit     int
	SendBuffer       int
	Filter           TextFilter
	Tracer           trace.Tracer
}

// Hub is the single dispatcher. Every connect, disconnect and command is
// applied by Run, one at a time, in arrival order. Only Run touches the
// registry and performs store writes.
type Hub struct {
	inbox chan *Command
	done  chan struct{}

	registry *Registry
	bus      *Bus
	interp   *Interpreter
	messages store.MessageStore

	historyLimit int
	sendBuffer   int
	tracer       trace.Tracer
	log          *zerolog.Logger
}

// NewHub creates a hub backed by st. Call Run to start dispatching.
func NewHub(st store.Store, opts Options, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = DefaultSendBuffer
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	return &Hub{
		inbox:        make(chan *Command, inboxSize),
		done:         make(chan struct{}),
		registry:     NewRegistry(),
		bus:          NewBus(logger),
		interp:       NewInterpreter(st, st, UserDirectory(st), NewAuthorizedSet(opts.AuthorizedUsers...), opts.Filter, opts.MaxMessageLength),
		messages:     st,
		historyLimit: min(opts.HistoryLimit, MaxHistoryLimit),
		sendBuffer:   opts.SendBuffer,
		tracer:       opts.Tracer,
		log:          logger,
	}
}

// NewClient creates a client with the hub's send buffer size.
func (h *Hub) NewClient(id, name string) *Client {
	return NewClient(id, name, h.sendBuffer)
}

// Run dispatches commands until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.inbox:
			h.dispatch(ctx, cmd)
		}
	}
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Connect registers c. A previous connection for the same identity is evicted.
func (h *Hub) Connect(ctx context.Context, c *Client) error {
	return h.submit(ctx, &Command{Kind: CommandConnect, Client: c})
}

// Disconnect unregisters c. It is safe to call after c was evicted.
func (h *Hub) Disconnect(ctx context.Context, c *Client) error {
	return h.submit(ctx, &Command{Kind: CommandDisconnect, Client: c})
}

// Submit queues a command from c.
func (h *Hub) Submit(ctx context.Context, c *Client, cmd *Command) error {
	cmd.Client = c
	return h.submit(ctx, cmd)
}

// Presence returns the identities currently connected.
func (h *Hub) Presence(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	if err := h.submit(ctx, &Command{Kind: CommandPresence, reply: reply}); err != nil {
		return nil, err
	}
	select {
	case users := <-reply:
		return users, nil
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// History returns up to limit messages older than before (or the latest when
// before is nil), oldest first. It reads the store directly. Without a limit
// the latest page has the configured history size and older pages have
// DefaultPageSize.
func (h *Hub) History(ctx context.Context, before *int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = h.historyLimit
		if before != nil {
			limit = DefaultPageSize
		}
	}
	limit = min(limit, MaxHistoryLimit)

	msgs, err := h.messages.ListMessages(ctx, limit, before)
	if err != nil {
		return nil, storageError("list messages", err)
	}
	return lo.Map(msgs, func(m *store.Message, _ int) Message { return messageFromStore(m) }), nil
}

func (h *Hub) submit(ctx context.Context, cmd *Command) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.inbox <- cmd:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) dispatch(ctx context.Context, cmd *Command) {
	attrs := []attribute.KeyValue{attribute.String("command", cmd.Kind.String())}
	if cmd.Client != nil {
		attrs = append(attrs, attribute.String("user", cmd.Client.Name), attribute.String("client_id", cmd.Client.ID))
	}
	ctx, span := h.tracer.Start(ctx, "core.dispatch", trace.WithAttributes(attrs...))
	defer span.End()

	switch cmd.Kind {
	case CommandConnect:
		h.handleConnect(ctx, cmd.Client)
		return
	case CommandDisconnect:
		h.handleDisconnect(cmd.Client)
		return
	case CommandPresence:
		cmd.reply <- h.registry.Snapshot()
		return
	}

	c := cmd.Client
	if !h.registry.Owns(c) {
		h.log.Debug().Str("command", cmd.Kind.String()).Msg("dropping command from unregistered client")
		return
	}

	var (
		out Outcome
		err error
	)
	switch cmd.Kind {
	case CommandSendMessage:
		out, err = h.interp.HandleText(ctx, c.Name, cmd.Text)
	case CommandDeleteMessage:
		out, err = h.interp.HandleDelete(ctx, c.Name, cmd.MessageID)
	case CommandTyping:
		out = Outcome{Public: []*Event{{Kind: EventUserTyping, User: c.Name}}}
	case CommandStopTyping:
		out = Outcome{Public: []*Event{{Kind: EventUserStoppedTyping, User: c.Name}}}
	case CommandHistory:
		var msgs []Message
		msgs, err = h.History(ctx, cmd.Before, cmd.Limit)
		out = Outcome{Private: []*Event{{Kind: EventHistory, Messages: msgs}}}
	default:
		h.log.Warn().Int("kind", int(cmd.Kind)).Msg("unknown command kind")
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.log.Error().Err(err).Str("user", c.Name).Str("command", cmd.Kind.String()).Msg("command failed")
		out = private(coreError(ErrCodeStorageUnavailable, fmt.Sprintf("Could not %s right now, try again later", cmd.Kind.action())))
	}
	h.apply(c, out)
}

func (h *Hub) handleConnect(ctx context.Context, c *Client) {
	if h.registry.Owns(c) {
		return
	}
	_, evicted := h.registry.Register(c)
	if evicted != nil {
		h.log.Info().
			Str("user", c.Name).
			Str("evicted_client_id", evicted.ID).
			Str("client_id", c.ID).
			Msg("replaced previous session")
	}
	h.log.Info().Str("user", c.Name).Str("client_id", c.ID).Int("online", h.registry.Len()).Msg("client connected")

	h.publish(
		&Event{Kind: EventUserJoined, User: c.Name},
		publicNotice(fmt.Sprintf("%s has joined the chat", c.Name)),
		h.presenceEvent(),
	)

	msgs, err := h.History(ctx, nil, h.historyLimit)
	if err != nil {
		h.log.Error().Err(err).Str("user", c.Name).Msg("load initial history")
		h.send(c, privateNotice(coreError(ErrCodeStorageUnavailable, "Could not load history right now, try again later")))
		return
	}
	h.send(c, &Event{Kind: EventHistory, Messages: msgs})
}

func (h *Hub) handleDisconnect(c *Client) {
	name, ok := h.registry.Unregister(c)
	if !ok {
		return
	}
	h.log.Info().Str("user", name).Str("client_id", c.ID).Int("online", h.registry.Len()).Msg("client disconnected")
	h.publish(h.departure(name)...)
}

func (h *Hub) apply(c *Client, out Outcome) {
	for _, ev := range out.Private {
		h.send(c, ev)
	}
	h.publish(out.Public...)
}

// publish broadcasts events in order to the registry snapshot. Clients that
// cannot keep up are evicted, and their departure is broadcast after the
// events already queued.
func (h *Hub) publish(events ...*Event) {
	queue := events
	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]
		for _, c := range h.bus.Publish(ev, h.registry.Clients()) {
			queue = append(queue, h.evictSlow(c)...)
		}
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	if h.bus.Send(c, ev) {
		return
	}
	h.publish(h.evictSlow(c)...)
}

func (h *Hub) evictSlow(c *Client) []*Event {
	if !h.registry.Evict(c, ReasonSlowConsumer) {
		return nil
	}
	h.log.Warn().Str("user", c.Name).Str("client_id", c.ID).Msg("evicting slow client")
	return h.departure(c.Name)
}

func (h *Hub) departure(name string) []*Event {
	return []*Event{
		{Kind: EventUserLeft, User: name},
		publicNotice(fmt.Sprintf("%s has left the chat", name)),
		h.presenceEvent(),
	}
}

// presenceEvent must be built after the registry change it reports.
func (h *Hub) presenceEvent() *Event {
	return &Event{Kind: EventPresence, Users: h.registry.Snapshot()}
}

func (h *Hub) shutdown() {
	close(h.done)
	for _, c := range h.registry.Clients() {
		h.registry.Evict(c, ReasonShutdown)
	}
	h.log.Info().Msg("hub stopped")
}
