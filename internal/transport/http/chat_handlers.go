package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/DaveMcBlame1/chatroom/internal/core"
)

// ChatHandlers serves read-only views of the chat over REST.
type ChatHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(hub *core.Hub, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		hub: hub,
		log: logger,
	}
}

// HistoryQuery holds paging parameters for the history endpoint.
type HistoryQuery struct {
	Before *int64 `form:"before" binding:"omitempty,gt=0"`
	Limit  int    `form:"limit" binding:"omitempty,gt=0,lte=100"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID        int64  `json:"id"`
	User      string `json:"user"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// HistoryResponse is a page of messages, oldest first. NextBefore is the
// cursor for the next older page and is omitted on the last page.
type HistoryResponse struct {
	Messages   []MessageResponse `json:"messages"`
	NextBefore *int64            `json:"next_before,omitempty"`
}

// PresenceResponse lists connected users.
type PresenceResponse struct {
	Users []string `json:"users"`
}

// ListMessages returns message history.
// GET /api/messages?before=<id>&limit=<n>
func (h *ChatHandlers) ListMessages(c *gin.Context) {
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.log.Debug().Err(err).Msg("invalid history query")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query parameters"})
		return
	}

	msgs, err := h.hub.History(c.Request.Context(), q.Before, q.Limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list messages")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "history unavailable"})
		return
	}

	resp := HistoryResponse{
		Messages: lo.Map(msgs, func(m core.Message, _ int) MessageResponse {
			return MessageResponse{
				ID:        m.ID,
				User:      m.Author,
				Text:      m.Text,
				CreatedAt: m.CreatedAt.Format(time.RFC3339),
			}
		}),
	}
	if len(msgs) > 0 && msgs[0].ID > 1 {
		resp.NextBefore = lo.ToPtr(msgs[0].ID)
	}

	c.JSON(http.StatusOK, resp)
}

// Presence lists connected users.
// GET /api/presence
func (h *ChatHandlers) Presence(c *gin.Context) {
	users, err := h.hub.Presence(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("presence unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "presence unavailable"})
		return
	}
	if users == nil {
		users = []string{}
	}
	c.JSON(http.StatusOK, PresenceResponse{Users: users})
}
