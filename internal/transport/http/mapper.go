package http

import (
	"errors"
	"net/http"

	"github.com/sidechat/sidechat-server/internal/core"
	"github.com/sidechat/sidechat-server/internal/proto"
	"github.com/sidechat/sidechat-server/internal/store"
)

// statusForCode translates the domain error taxonomy to HTTP statuses.
// Only the transport knows about status codes; the core returns codes.
func statusForCode(code string) int {
	switch code {
	case core.CodeUnauthenticated:
		return http.StatusUnauthorized
	case core.CodeInvalidInput:
		return http.StatusBadRequest
	case core.CodeNotAuthorized:
		return http.StatusForbidden
	case core.CodeNotFound:
		return http.StatusNotFound
	case core.CodeConflict, core.CodeAlreadyDecided:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorBody renders a domain error; unknown failures become an opaque 500.
func errorBody(err error) (int, ErrorResponse) {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		return statusForCode(domainErr.Code), ErrorResponse{Error: domainErr.Message}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

func requestToWire(req *store.FriendRequest) proto.FriendRequestData {
	return proto.FriendRequestData{
		ID:        req.ID,
		From:      req.From,
		To:        req.To,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt.Unix(),
	}
}

func messageToWire(msg *store.Message) proto.MessageData {
	return proto.MessageData{
		ID:      msg.ID,
		From:    msg.From,
		To:      msg.To,
		Kind:    string(msg.Kind),
		Text:    msg.Text,
		Payload: msg.Payload,
		TS:      msg.CreatedAt.Unix(),
	}
}

// outboundFromEvent converts a core event into its wire envelope.
func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventOnlineUsers:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventOnlineUsers,
			Data:  ev.Users,
		}
	case core.EventNewRequest:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewRequest,
			Data:  requestToWire(ev.Request),
		}
	case core.EventRequestAccepted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRequestAccepted,
			Data:  proto.RequestAcceptedData{From: ev.From},
		}
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessage,
			Data:  messageToWire(ev.Message),
		}
	case core.EventNotification:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNotification,
			Data:  proto.NotificationData{From: ev.From, Kind: string(ev.MsgKind)},
		}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "unknown_event", Msg: "unknown event kind"},
		}
	}
}
