// Package requests implements the friend-request state machine gating
// private messaging: pending requests move one way to accepted or rejected,
// and an accepted request establishes a mutual friendship.
package requests

import (
	"context"
	"errors"

	"github.com/sidechat/sidechat-server/internal/core"
	"github.com/sidechat/sidechat-server/internal/store"
)

// Publisher is the slice of the hub the request machine needs: targeted
// notifications through identity rooms.
type Publisher interface {
	Publish(room string, ev *core.Event)
}

// Service governs the friend-request lifecycle.
type Service struct {
	store store.RequestStore
	pub   Publisher
}

// New creates a request service.
func New(st store.RequestStore, pub Publisher) *Service {
	return &Service{store: st, pub: pub}
}

// Create opens a pending request from one user to another and notifies the
// recipient's identity room. Self-requests and duplicate pending requests for
// the same ordered pair are rejected.
func (s *Service) Create(ctx context.Context, from, to string) (*store.FriendRequest, error) {
	if from == to {
		return nil, core.NewError(core.CodeInvalidInput, "cannot send a request to yourself")
	}
	if to == "" {
		return nil, core.NewError(core.CodeInvalidInput, "recipient is required")
	}

	req, err := s.store.CreateRequest(ctx, from, to)
	if err != nil {
		if errors.Is(err, store.ErrDuplicatePending) {
			return nil, core.NewError(core.CodeConflict, "request already sent")
		}
		return nil, core.WrapError(core.CodeStorage, "create request failed", err)
	}

	s.pub.Publish(to, &core.Event{Kind: core.EventNewRequest, Request: req})

	return req, nil
}

// Decide moves a pending request to accepted or rejected. Only the recipient
// may decide; for anyone else the request does not exist, so ownership is
// never leaked. Accepting also notifies the original sender.
func (s *Service) Decide(ctx context.Context, id, decider string, outcome store.RequestStatus) (*store.FriendRequest, error) {
	if outcome != store.StatusAccepted && outcome != store.StatusRejected {
		return nil, core.NewError(core.CodeInvalidInput, "outcome must be accepted or rejected")
	}

	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, core.NewError(core.CodeNotFound, "request not found")
		}
		return nil, core.WrapError(core.CodeStorage, "get request failed", err)
	}
	if req.To != decider {
		return nil, core.NewError(core.CodeNotFound, "request not found")
	}

	// The store revalidates the pending status inside the transaction, so a
	// concurrent decide loses cleanly with ErrAlreadyDecided.
	decided, err := s.store.DecideRequest(ctx, id, outcome)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyDecided):
			return nil, core.NewError(core.CodeAlreadyDecided, "request already decided")
		case errors.Is(err, store.ErrNotFound):
			return nil, core.NewError(core.CodeNotFound, "request not found")
		}
		return nil, core.WrapError(core.CodeStorage, "decide request failed", err)
	}

	if decided.Status == store.StatusAccepted {
		s.pub.Publish(decided.From, &core.Event{Kind: core.EventRequestAccepted, From: decided.To})
	}

	return decided, nil
}

// PendingFor lists pending requests addressed to the principal, oldest first.
func (s *Service) PendingFor(ctx context.Context, username string) ([]*store.FriendRequest, error) {
	reqs, err := s.store.ListPendingRequests(ctx, username)
	if err != nil {
		return nil, core.WrapError(core.CodeStorage, "list pending requests failed", err)
	}
	return reqs, nil
}
