package core

// CommandKind describes what a connection wants the hub to do.
type CommandKind int

const (
	// CommandConnect registers a connection for its identity.
	CommandConnect CommandKind = iota
	// CommandDisconnect unregisters a connection.
	CommandDisconnect
	// CommandSendMessage routes raw text through the interpreter.
	CommandSendMessage
	// CommandDeleteMessage is the privileged delete shortcut.
	CommandDeleteMessage
	// CommandTyping and CommandStopTyping are presence signals only.
	CommandTyping
	CommandStopTyping
	// CommandHistory asks for a page of history for the sender.
	CommandHistory
	// CommandPresence asks the dispatcher for the current snapshot.
	CommandPresence
)

var commandKindNames = map[CommandKind]string{
	CommandConnect:       "connect",
	CommandDisconnect:    "disconnect",
	CommandSendMessage:   "message",
	CommandDeleteMessage: "delete_message",
	CommandTyping:        "typing",
	CommandStopTyping:    "stop_typing",
	CommandHistory:       "history",
	CommandPresence:      "presence",
}

func (k CommandKind) String() string {
	if name, ok := commandKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command represents an action requested by a client.
type Command struct {
	Kind      CommandKind
	Client    *Client
	Text      string // CommandSendMessage
	MessageID int64  // CommandDeleteMessage
	Before    *int64 // CommandHistory
	Limit     int    // CommandHistory

	reply chan []string
}

// action describes the command in storage failure notices.
func (k CommandKind) action() string {
	switch k {
	case CommandSendMessage:
		return "send your message"
	case CommandDeleteMessage:
		return "delete the message"
	case CommandHistory:
		return "load history"
	default:
		return "complete the request"
	}
}
