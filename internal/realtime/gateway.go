package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/klatch-chat/klatch-server/internal/utils"
)

// Policy names the deliberately coarse presence behaviors inherited from the
// original system so deployments can override them instead of patching code.
type Policy struct {
	// DropPresenceOnAnyDisconnect removes an identity from the presence set
	// when any one of its connections closes, even if other connections for
	// the same identity remain open.
	DropPresenceOnAnyDisconnect bool
	// BroadcastPresenceToAll sends the post-disconnect presence snapshot to
	// every connection process-wide rather than only the disconnecting
	// identity's resolvable peers. The gateway does not know which chats the
	// identity was viewing at disconnect time, so "peers" falls back to the
	// handles of the identities still present.
	BroadcastPresenceToAll bool
}

// DefaultPolicy reproduces the source behavior.
func DefaultPolicy() Policy {
	return Policy{
		DropPresenceOnAnyDisconnect: true,
		BroadcastPresenceToAll:      true,
	}
}

// MessageAppender is the durable-store collaborator. Appends are
// fire-and-forget from the gateway's perspective.
type MessageAppender interface {
	AppendMessage(ctx context.Context, m MessagePayload) error
}

// NewMessageSignal is an inbound send-message request.
type NewMessageSignal struct {
	ChatID  string
	Members []string
	Content string
}

// TypingSignal is an inbound start/stop-typing request.
type TypingSignal struct {
	ChatID  string
	Members []string
}

// PresenceSignal is an inbound chat-joined/chat-leaved request.
type PresenceSignal struct {
	UserID  string
	Members []string
}

// Gateway owns the session registry and the presence set and orchestrates
// them across each connection's lifecycle. One long-lived instance serves the
// whole process; all methods are safe for concurrent use.
type Gateway struct {
	sessions *SessionRegistry
	presence *PresenceSet
	appender MessageAppender
	policy   Policy
	log      *zerolog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPolicy overrides the default presence policy.
func WithPolicy(p Policy) Option {
	return func(g *Gateway) { g.policy = p }
}

// NewGateway constructs a gateway with fresh state. The appender may be nil,
// in which case messages are relayed without being persisted.
func NewGateway(appender MessageAppender, logger *zerolog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		sessions: NewSessionRegistry(),
		presence: NewPresenceSet(),
		appender: appender,
		policy:   DefaultPolicy(),
		log:      logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Connect registers an authenticated connection. The caller must already
// have verified the identity; unauthenticated connections never reach here.
func (g *Gateway) Connect(id Identity, c Conn) {
	g.sessions.Register(id.ID, c)
	g.log.Debug().Str("user_id", id.ID).Msg("connection registered")
}

// Disconnect removes the connection, applies the presence policy and
// broadcasts the updated presence snapshot. Safe to call more than once for
// the same pair.
func (g *Gateway) Disconnect(id Identity, c Conn) {
	remaining := g.sessions.Unregister(id.ID, c)

	if g.policy.DropPresenceOnAnyDisconnect || remaining == 0 {
		g.presence.MarkAbsent(id.ID)
	}

	snapshot := g.presence.Snapshot()
	var targets []Conn
	if g.policy.BroadcastPresenceToAll {
		targets = g.sessions.Conns()
	} else {
		targets = g.sessions.Resolve(snapshot)
	}
	g.deliver(targets, Event{Kind: EventOnlineUsers, Users: snapshot})

	g.log.Debug().Str("user_id", id.ID).Int("remaining_handles", remaining).Msg("connection removed")
}

// SendMessage fans a chat message out to the chat's connected members and
// hands the durable record to the store. The two paths are independent: the
// realtime delivery is never rolled back when persistence fails.
func (g *Gateway) SendMessage(ctx context.Context, sender Identity, sig NewMessageSignal) {
	msg := MessagePayload{
		ID:        utils.NewID(),
		ChatID:    sig.ChatID,
		Content:   sig.Content,
		Sender:    sender,
		CreatedAt: time.Now().UTC(),
	}

	conns := g.sessions.Resolve(excludeID(sig.Members, sender.ID))
	g.deliver(conns, Event{Kind: EventNewMessage, ChatID: sig.ChatID, Message: &msg})
	g.deliver(conns, Event{Kind: EventNewMessageAlert, ChatID: sig.ChatID})

	if g.appender == nil {
		return
	}
	go func() {
		if err := g.appender.AppendMessage(context.WithoutCancel(ctx), msg); err != nil {
			g.log.Error().Err(err).
				Str("chat_id", sig.ChatID).
				Str("sender_id", sender.ID).
				Msg("message delivered but not persisted")
		}
	}()
}

// Typing relays a typing indicator to the chat's members, excluding the
// typist's own connections. No state is retained.
func (g *Gateway) Typing(sender Identity, start bool, sig TypingSignal) {
	kind := EventStopTyping
	if start {
		kind = EventStartTyping
	}
	conns := g.sessions.Resolve(excludeID(sig.Members, sender.ID))
	g.deliver(conns, Event{Kind: kind, ChatID: sig.ChatID})
}

// ChatJoined marks the user present and shares the presence snapshot with the
// chat's connected members, the joiner included.
func (g *Gateway) ChatJoined(sig PresenceSignal) {
	g.presence.MarkPresent(sig.UserID)
	conns := g.sessions.Resolve(sig.Members)
	g.deliver(conns, Event{Kind: EventOnlineUsers, Users: g.presence.Snapshot()})
}

// ChatLeaved marks the user absent and shares the presence snapshot with the
// chat's connected members.
func (g *Gateway) ChatLeaved(sig PresenceSignal) {
	g.presence.MarkAbsent(sig.UserID)
	conns := g.sessions.Resolve(sig.Members)
	g.deliver(conns, Event{Kind: EventOnlineUsers, Users: g.presence.Snapshot()})
}

// Emit resolves the recipients and delivers the event to their handles.
// CRUD handlers use it to piggyback alerts, refetch hints and friend-request
// notices on the same fan-out path the socket signals use.
func (g *Gateway) Emit(recipients []string, ev Event) {
	g.deliver(g.sessions.Resolve(recipients), ev)
}

// Online returns the current presence snapshot.
func (g *Gateway) Online() []string {
	return g.presence.Snapshot()
}

// deliver pushes the event to each handle. Sends are non-blocking; a full
// outbound queue drops the event for that handle only.
func (g *Gateway) deliver(conns []Conn, ev Event) {
	for _, c := range conns {
		if !c.Send(ev) {
			g.log.Warn().Int("event_kind", int(ev.Kind)).Msg("dropped event for slow connection")
		}
	}
}

func excludeID(ids []string, exclude string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
