package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sidechat/sidechat-server/internal/service/dispatch"
	"github.com/sidechat/sidechat-server/internal/store"
)

// MessageHandlers provides the HTTP handler for sending chat messages.
type MessageHandlers struct {
	dispatcher *dispatch.Service
	log        *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(dispatcher *dispatch.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		dispatcher: dispatcher,
		log:        logger,
	}
}

// SendMessageBody represents the body for sending a message.
// An empty "to" targets the public room.
type SendMessageBody struct {
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Send validates, persists, and fans out a message.
// POST /api/messages
func (h *MessageHandlers) Send(c *gin.Context) {
	from, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var body SendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if body.Kind == "" {
		body.Kind = string(store.KindText)
	}

	msg, err := h.dispatcher.Send(c.Request.Context(), from, body.To, store.MessageKind(body.Kind), body.Text, body.Payload)
	if err != nil {
		status, resp := errorBody(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("from", from).Str("to", body.To).Msg("failed to send message")
		}
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusCreated, messageToWire(msg))
}
