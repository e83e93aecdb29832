package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	InboundTypeMessage       = "message"
	InboundTypeDeleteMessage = "delete_message"
	InboundTypeTyping        = "typing"
	InboundTypeStopTyping    = "stop_typing"
	InboundTypeHistory       = "history"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventMessage           = "message"
	EventMessageDeleted    = "message_deleted"
	EventUserJoined        = "user_joined"
	EventUserLeft          = "user_left"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventPresenceList      = "presence_list"
	EventHistory           = "history"
	EventForceDisconnect   = "force_disconnect"
)

// Protocol error codes, used before a request reaches the hub.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeUnknownType    = "invalid_message"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeServerShutdown = "server_unavailable"
)

// MessageData is a line of chat text; it may be a slash-command.
type MessageData struct {
	Text string `json:"text" validate:"required"`
}

// DeleteMessageData asks to delete a message by id.
type DeleteMessageData struct {
	MessageID int64 `json:"message_id" validate:"required,gt=0"`
}

// HistoryData asks for messages older than Before, or the latest when omitted.
type HistoryData struct {
	Before *int64 `json:"before,omitempty" validate:"omitempty,gt=0"`
	Limit  int    `json:"limit,omitempty" validate:"gte=0,lte=100"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ChatMessage is a stored message or a system notice.
type ChatMessage struct {
	ID     int64  `json:"id,omitempty"`
	User   string `json:"user"`
	Text   string `json:"text"`
	System bool   `json:"system"`
	Code   string `json:"code,omitempty"`
	TS     int64  `json:"ts"`
}

// EventMessageDeletedData tells clients to drop a message.
type EventMessageDeletedData struct {
	MessageID int64 `json:"message_id"`
}

// EventUserData names the user a presence event is about.
type EventUserData struct {
	User string `json:"user"`
}

// EventPresenceData lists connected users.
type EventPresenceData struct {
	Users []string `json:"users"`
}

// EventHistoryData is a page of messages, oldest first.
type EventHistoryData struct {
	Messages []ChatMessage `json:"messages"`
}

// EventForceDisconnectData explains why the server is closing the connection.
type EventForceDisconnectData struct {
	Reason string `json:"reason"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
