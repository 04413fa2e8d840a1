package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/klatch-chat/klatch-server/internal/proto"
	"github.com/klatch-chat/klatch-server/internal/realtime"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// dispatchInbound validates a client signal and hands it to the gateway.
// A non-nil proto.Error means the signal was rejected and the connection
// should be told; the connection itself stays up.
func dispatchInbound(ctx context.Context, gw *realtime.Gateway, sender realtime.Identity, in proto.Inbound) *proto.Error {
	switch in.Type {
	case proto.EventNewMessage:
		var data proto.NewMessageData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return &proto.Error{Code: "bad_payload", Msg: "malformed NEW_MESSAGE data"}
		}
		if data.ChatID == "" || data.Message == "" {
			return &proto.Error{Code: "bad_payload", Msg: "chatId and message are required"}
		}
		gw.SendMessage(ctx, sender, realtime.NewMessageSignal{
			ChatID:  data.ChatID,
			Members: data.Members,
			Content: data.Message,
		})
	case proto.EventStartTyping, proto.EventStopTyping:
		var data proto.TypingData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return &proto.Error{Code: "bad_payload", Msg: "malformed typing data"}
		}
		if data.ChatID == "" {
			return &proto.Error{Code: "bad_payload", Msg: "chatId is required"}
		}
		gw.Typing(sender, in.Type == proto.EventStartTyping, realtime.TypingSignal{
			ChatID:  data.ChatID,
			Members: data.Members,
		})
	case proto.EventChatJoined, proto.EventChatLeaved:
		var data proto.PresenceData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return &proto.Error{Code: "bad_payload", Msg: "malformed presence data"}
		}
		sig := realtime.PresenceSignal{UserID: data.UserID, Members: data.Members}
		// Clients report their own id; never trust it over the session.
		if sig.UserID == "" || sig.UserID != sender.ID {
			sig.UserID = sender.ID
		}
		if in.Type == proto.EventChatJoined {
			gw.ChatJoined(sig)
		} else {
			gw.ChatLeaved(sig)
		}
	default:
		return &proto.Error{Code: "unknown_type", Msg: "unknown signal type: " + in.Type}
	}
	return nil
}

// outboundFromEvent renders a gateway event into its wire envelope.
func outboundFromEvent(ev realtime.Event) proto.Outbound {
	switch ev.Kind {
	case realtime.EventNewMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data: proto.NewMessagePayload{
				ChatID:  ev.ChatID,
				Message: deliveredFromPayload(ev.Message),
			},
		}
	case realtime.EventNewMessageAlert:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessageAlert,
			Data:  proto.ChatPayload{ChatID: ev.ChatID},
		}
	case realtime.EventStartTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventStartTyping,
			Data:  proto.ChatPayload{ChatID: ev.ChatID},
		}
	case realtime.EventStopTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventStopTyping,
			Data:  proto.ChatPayload{ChatID: ev.ChatID},
		}
	case realtime.EventOnlineUsers:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventOnlineUsers,
			Data:  ev.Users,
		}
	case realtime.EventAlert:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventAlert,
			Data:  proto.AlertPayload{Message: ev.Text, ChatID: ev.ChatID},
		}
	case realtime.EventRefetchChats:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventRefetchChats,
		}
	case realtime.EventNewRequest:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewRequest,
			Data:  proto.AlertPayload{Message: ev.Text},
		}
	case realtime.EventError:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "rejected", Msg: ev.Text},
		}
	}
	return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "internal", Msg: "unmapped event"}}
}

func deliveredFromPayload(m *realtime.MessagePayload) proto.DeliveredMessage {
	if m == nil {
		return proto.DeliveredMessage{}
	}
	attachments := make([]proto.AttachmentRef, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, proto.AttachmentRef{PublicID: a.PublicID, URL: a.URL})
	}
	return proto.DeliveredMessage{
		ID:      m.ID,
		Content: m.Content,
		Sender: proto.Sender{
			ID:   m.Sender.ID,
			Name: m.Sender.Name,
		},
		Chat:        m.ChatID,
		Attachments: attachments,
		CreatedAt:   m.CreatedAt.Format(timeFormat),
	}
}

func formatTime(t time.Time) string {
	return t.Format(timeFormat)
}
