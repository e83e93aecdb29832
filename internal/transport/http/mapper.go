package http

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/DaveMcBlame1/chatroom/internal/core"
	"github.com/DaveMcBlame1/chatroom/internal/proto"
)

// inboundToCommand decodes and validates a client envelope. Invalid input
// yields a protocol error for the sender and no command.
func inboundToCommand(validate *validator.Validate, inbound proto.Inbound) (*core.Command, *proto.Error) {
	if err := validate.Struct(inbound); err != nil {
		return nil, badRequest("type is required")
	}

	switch inbound.Type {
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if perr := decodeData(validate, inbound.Data, &msg); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandSendMessage, Text: msg.Text}, nil
	case proto.InboundTypeDeleteMessage:
		var del proto.DeleteMessageData
		if perr := decodeData(validate, inbound.Data, &del); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandDeleteMessage, MessageID: del.MessageID}, nil
	case proto.InboundTypeTyping:
		return &core.Command{Kind: core.CommandTyping}, nil
	case proto.InboundTypeStopTyping:
		return &core.Command{Kind: core.CommandStopTyping}, nil
	case proto.InboundTypeHistory:
		var hist proto.HistoryData
		if len(inbound.Data) > 0 {
			if perr := decodeData(validate, inbound.Data, &hist); perr != nil {
				return nil, perr
			}
		}
		return &core.Command{Kind: core.CommandHistory, Before: hist.Before, Limit: hist.Limit}, nil
	default:
		return nil, &proto.Error{Code: proto.ErrCodeUnknownType, Msg: "unknown message type"}
	}
}

func decodeData(validate *validator.Validate, data json.RawMessage, dst any) *proto.Error {
	if len(data) == 0 {
		return badRequest("data is required")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return badRequest("malformed data")
	}
	if err := validate.Struct(dst); err != nil {
		return badRequest("invalid data: " + err.Error())
	}
	return nil
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: proto.ErrCodeBadRequest, Msg: msg}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent}

	switch event.Kind {
	case core.EventMessage:
		out.Event = proto.EventMessage
		out.Data = chatMessage(event.Message)
	case core.EventMessageDeleted:
		out.Event = proto.EventMessageDeleted
		out.Data = proto.EventMessageDeletedData{MessageID: event.MessageID}
	case core.EventUserJoined:
		out.Event = proto.EventUserJoined
		out.Data = proto.EventUserData{User: event.User}
	case core.EventUserLeft:
		out.Event = proto.EventUserLeft
		out.Data = proto.EventUserData{User: event.User}
	case core.EventUserTyping:
		out.Event = proto.EventUserTyping
		out.Data = proto.EventUserData{User: event.User}
	case core.EventUserStoppedTyping:
		out.Event = proto.EventUserStoppedTyping
		out.Data = proto.EventUserData{User: event.User}
	case core.EventPresence:
		out.Event = proto.EventPresenceList
		out.Data = proto.EventPresenceData{Users: lo.Ternary(event.Users == nil, []string{}, event.Users)}
	case core.EventHistory:
		out.Event = proto.EventHistory
		out.Data = proto.EventHistoryData{Messages: lo.Map(event.Messages, func(m core.Message, _ int) proto.ChatMessage {
			return chatMessage(m)
		})}
	case core.EventForceDisconnect:
		out.Event = proto.EventForceDisconnect
		out.Data = proto.EventForceDisconnectData{Reason: event.Reason}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown event"}}
	}
	return out
}

func chatMessage(m core.Message) proto.ChatMessage {
	return proto.ChatMessage{
		ID:     m.ID,
		User:   m.Author,
		Text:   m.Text,
		System: m.System,
		Code:   m.Code,
		TS:     m.CreatedAt.Unix(),
	}
}
