package core

import (
	"time"

	"github.com/DaveMcBlame1/chatroom/internal/store"
)

// SystemAuthor is the author shown on notices generated by the server.
const SystemAuthor = "System"

// Message is the domain model for a chat message.
// System messages are notices; they never have an id and are never stored.
type Message struct {
	ID        int64
	Author    string
	Text      string
	CreatedAt time.Time
	System    bool
	// Code is set on private notices that report a failed action.
	Code string
}

func messageFromStore(m *store.Message) Message {
	return Message{
		ID:        m.ID,
		Author:    m.Author,
		Text:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

func systemMessage(text string) Message {
	return Message{
		Author:    SystemAuthor,
		Text:      text,
		CreatedAt: time.Now().UTC(),
		System:    true,
	}
}
