package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DaveMcBlame1/chatroom/internal/store"
	"github.com/DaveMcBlame1/chatroom/internal/store/memory"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNotice waits for a message event with the given text.
func mustNotice(t *testing.T, ch <-chan *Event, text string) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("stream closed before %q", text)
			}
			if ev.Kind == EventMessage && ev.Message.Text == text {
				return ev
			}
		case <-deadline:
			t.Fatalf("message %q not received", text)
		}
	}
}

// nextMessage returns the next message event, skipping everything else.
func nextMessage(t *testing.T, ch <-chan *Event) Message {
	t.Helper()
	return mustEvent(t, ch, EventMessage).Message
}

// drainUntilClosed reads everything left on ch and returns it.
func drainUntilClosed(t *testing.T, ch <-chan *Event) []*Event {
	t.Helper()

	var out []*Event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-deadline:
			t.Fatalf("stream not closed, got %d events", len(out))
		}
	}
}

type testHub struct {
	*Hub
	store   *memory.Store
	cancel  context.CancelFunc
	stopped chan struct{}
}

func newTestHub(t *testing.T, st store.Store, opts Options) *testHub {
	t.Helper()

	mem := memory.New()
	if st == nil {
		st = mem
	}
	seedUsers(t, st, "A", "B", "Eve")
	if opts.AuthorizedUsers == nil {
		opts.AuthorizedUsers = []string{"A"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	th := &testHub{
		Hub:     NewHub(st, opts, nil),
		store:   mem,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go func() {
		th.Run(ctx)
		close(th.stopped)
	}()
	t.Cleanup(th.stop)
	return th
}

func (th *testHub) stop() {
	th.cancel()
	<-th.stopped
}

// connect registers a client and waits for its initial history.
func (th *testHub) connect(t *testing.T, id, name string) *Client {
	t.Helper()
	c := th.NewClient(id, name)
	require.NoError(t, th.Connect(context.Background(), c))
	mustEvent(t, c.Events(), EventHistory)
	return c
}

func (th *testHub) say(t *testing.T, c *Client, text string) {
	t.Helper()
	require.NoError(t, th.Submit(context.Background(), c, &Command{Kind: CommandSendMessage, Text: text}))
}

func seedUsers(t *testing.T, st store.UserStore, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := st.CreateUser(context.Background(), name, "hash")
		if err != nil && !errors.Is(err, store.ErrUserExists) {
			t.Fatalf("seed user %s: %v", name, err)
		}
	}
}

var errDiskGone = errors.New("disk gone")

// failingStore fails every message write.
type failingStore struct {
	*memory.Store
}

func (failingStore) AppendMessage(context.Context, string, string, time.Time) (*store.Message, error) {
	return nil, errDiskGone
}

func (failingStore) DeleteMessage(context.Context, int64) (bool, error) {
	return false, errDiskGone
}

type upperFilter struct{}

func (upperFilter) Censor(text string) string {
	out := []rune(text)
	for i, r := range out {
		if r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
		}
	}
	return string(out)
}
