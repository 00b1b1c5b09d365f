package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sidechat/sidechat-server/internal/proto"
	"github.com/sidechat/sidechat-server/internal/service/requests"
	"github.com/sidechat/sidechat-server/internal/store"
)

// RequestHandlers provides HTTP handlers for the friend-request lifecycle.
type RequestHandlers struct {
	service *requests.Service
	log     *zerolog.Logger
}

// NewRequestHandlers creates a new request handlers instance.
func NewRequestHandlers(svc *requests.Service, logger *zerolog.Logger) *RequestHandlers {
	return &RequestHandlers{
		service: svc,
		log:     logger,
	}
}

// CreateRequestBody represents the body for sending a friend request.
type CreateRequestBody struct {
	To string `json:"to" binding:"required"`
}

// DecideRequestBody represents the body for deciding a friend request.
type DecideRequestBody struct {
	Status string `json:"status" binding:"required"`
}

// Create sends a friend request to another user.
// POST /api/requests
func (h *RequestHandlers) Create(c *gin.Context) {
	from, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Debug().Err(err).Msg("invalid create request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	req, err := h.service.Create(c.Request.Context(), from, body.To)
	if err != nil {
		status, resp := errorBody(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("from", from).Str("to", body.To).Msg("failed to create friend request")
		}
		c.JSON(status, resp)
		return
	}

	h.log.Info().Str("from", from).Str("to", body.To).Msg("friend request sent")
	c.JSON(http.StatusCreated, requestToWire(req))
}

// ListPending lists pending requests addressed to the caller.
// GET /api/requests
func (h *RequestHandlers) ListPending(c *gin.Context) {
	username, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	reqs, err := h.service.PendingFor(c.Request.Context(), username)
	if err != nil {
		h.log.Error().Err(err).Str("username", username).Msg("failed to list pending requests")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]proto.FriendRequestData, 0, len(reqs))
	for _, req := range reqs {
		resp = append(resp, requestToWire(req))
	}
	c.JSON(http.StatusOK, resp)
}

// Decide accepts or rejects a pending request addressed to the caller.
// PUT /api/requests/:id
func (h *RequestHandlers) Decide(c *gin.Context) {
	username, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var body DecideRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.log.Debug().Err(err).Msg("invalid decide request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	req, err := h.service.Decide(c.Request.Context(), c.Param("id"), username, store.RequestStatus(body.Status))
	if err != nil {
		status, resp := errorBody(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("request_id", c.Param("id")).Msg("failed to decide friend request")
		}
		c.JSON(status, resp)
		return
	}

	h.log.Info().Str("request_id", req.ID).Str("status", string(req.Status)).Msg("friend request decided")
	c.JSON(http.StatusOK, requestToWire(req))
}
