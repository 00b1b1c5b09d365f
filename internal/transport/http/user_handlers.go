package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sidechat/sidechat-server/internal/auth"
	"github.com/sidechat/sidechat-server/internal/store"
)

// UserHandlers provides HTTP handlers for user listing and profile updates.
type UserHandlers struct {
	authService *auth.Service
	store       store.UserStore
	log         *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(authService *auth.Service, st store.UserStore, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		authService: authService,
		store:       st,
		log:         logger,
	}
}

// UserResponse is a user with their friend set.
type UserResponse struct {
	Username string   `json:"username"`
	Friends  []string `json:"friends"`
}

// UpdateProfileRequest represents the profile update request body.
type UpdateProfileRequest struct {
	NewUsername string `json:"new_username"`
	NewPassword string `json:"new_password"`
}

// ListUsers returns all users with their friend sets.
// GET /api/users
func (h *UserHandlers) ListUsers(c *gin.Context) {
	if _, ok := principal(c); !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		friends := u.Friends
		if friends == nil {
			friends = []string{}
		}
		resp = append(resp, UserResponse{Username: u.Username, Friends: friends})
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateProfile renames the caller and/or changes their password and returns
// a token minted for the updated identity.
// PUT /api/profile
func (h *UserHandlers) UpdateProfile(c *gin.Context) {
	username, ok := principal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid profile request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.UpdateProfile(c.Request.Context(), username, req.NewUsername, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "username already in use"})
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("username", username).Msg("failed to update profile")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("username", username).Msg("profile updated")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}
