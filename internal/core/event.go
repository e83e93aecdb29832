package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage carries a chat message or a system notice.
	EventMessage EventKind = iota
	// EventMessageDeleted tells clients to drop a message by id.
	EventMessageDeleted
	// EventUserJoined notifies clients about a user connecting.
	EventUserJoined
	// EventUserLeft notifies clients about a user disconnecting.
	EventUserLeft
	// EventUserTyping and EventUserStoppedTyping relay typing indicators.
	EventUserTyping
	EventUserStoppedTyping
	// EventPresence delivers the list of connected users.
	EventPresence
	// EventHistory delivers a page of stored messages to one client.
	EventHistory
	// EventForceDisconnect is sent only to a connection that is being evicted.
	EventForceDisconnect
)

var eventKindNames = map[EventKind]string{
	EventMessage:           "message",
	EventMessageDeleted:    "message_deleted",
	EventUserJoined:        "user_joined",
	EventUserLeft:          "user_left",
	EventUserTyping:        "user_typing",
	EventUserStoppedTyping: "user_stopped_typing",
	EventPresence:          "presence_list",
	EventHistory:           "history",
	EventForceDisconnect:   "force_disconnect",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	User      string
	Users     []string  // EventPresence
	Message   Message   // EventMessage
	MessageID int64     // EventMessageDeleted
	Messages  []Message // EventHistory
	Reason    string    // EventForceDisconnect
}

func messageEvent(m Message) *Event {
	return &Event{Kind: EventMessage, Message: m}
}

// publicNotice is a system message broadcast to everyone.
func publicNotice(text string) *Event {
	return messageEvent(systemMessage(text))
}

// privateNotice is a system message for the acting connection only.
func privateNotice(err *CoreError) *Event {
	m := systemMessage(err.Message)
	m.Code = err.Code
	return messageEvent(m)
}
