package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/klatch-chat/klatch-server/internal/auth"
	"github.com/klatch-chat/klatch-server/internal/proto"
	"github.com/klatch-chat/klatch-server/internal/realtime"
)

// outboundBuffer is the per-connection event queue depth. A full queue means
// the consumer stopped reading; further events are dropped for that handle.
const outboundBuffer = 64

// wsConn adapts one websocket to the gateway's connection handle contract.
type wsConn struct {
	events chan realtime.Event
}

func newWSConn() *wsConn {
	return &wsConn{events: make(chan realtime.Event, outboundBuffer)}
}

// Send queues the event without blocking. Reports false when the queue is
// full so the gateway can log the drop.
func (c *wsConn) Send(ev realtime.Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// WSHandler upgrades HTTP connections and bridges them to the gateway.
type WSHandler struct {
	gateway   *realtime.Gateway
	auth      *auth.Service
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds the websocket endpoint. rateLimit caps inbound signals
// per connection per minute; zero disables the cap.
func NewWSHandler(gw *realtime.Gateway, authService *auth.Service, rateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{gateway: gw, auth: authService, rateLimit: rateLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	user, err := h.auth.VerifyUser(ctx, wsToken(r))
	if err != nil {
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}
	identity := realtime.Identity{ID: user.ID, Name: user.Name}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	handle := newWSConn()
	h.gateway.Connect(identity, handle)
	defer h.gateway.Disconnect(identity, handle)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.rateLimit)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, identity, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, handle, identity)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("user_id", identity.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, identity realtime.Identity, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: "rate_limited", Msg: "too many signals, slow down"},
			}); err != nil {
				return err
			}
			continue
		}

		if protoErr := dispatchInbound(ctx, h.gateway, identity, inbound); protoErr != nil {
			h.log.Warn().
				Str("user_id", identity.ID).
				Str("signal", inbound.Type).
				Str("code", protoErr.Code).
				Msg("rejected inbound signal")
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, handle *wsConn, identity realtime.Identity) error {
	for {
		select {
		case event := <-handle.events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("user_id", identity.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// wsToken digs the credential out of the query string or the auth cookie.
// Browser websocket clients cannot set headers, so the query form comes first.
func wsToken(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
