package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/klatch-chat/klatch-server/internal/auth"
	"github.com/klatch-chat/klatch-server/internal/proto"
	"github.com/klatch-chat/klatch-server/internal/store"
)

// adminCookieMaxAge matches the admin token TTL.
const adminCookieMaxAge = 15 * 60

// AdminHandlers provides HTTP handlers for the admin dashboard endpoints.
type AdminHandlers struct {
	authService *auth.Service
	store       store.Store
	log         *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(authService *auth.Service, st store.Store, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{authService: authService, store: st, log: logger}
}

// VerifyRequest carries the dashboard secret key.
type VerifyRequest struct {
	SecretKey string `json:"secretKey" binding:"required"`
}

// Verify exchanges the secret key for a short-lived admin token stored in a
// cookie.
// POST /api/v1/admin/verify
func (h *AdminHandlers) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.AdminLogin(req.SecretKey)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAdminKey) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid admin key"})
			return
		}
		h.log.Error().Err(err).Msg("failed to issue admin token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.SetCookie(adminCookieName, token, adminCookieMaxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "authenticated successfully, welcome boss"})
}

// Logout clears the admin cookie.
// GET /api/v1/admin/logout
func (h *AdminHandlers) Logout(c *gin.Context) {
	c.SetCookie(adminCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// Check confirms the admin cookie is still valid.
// GET /api/v1/admin
func (h *AdminHandlers) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"admin": true})
}

// AdminUserView is a user row on the dashboard with activity counters.
type AdminUserView struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Groups   int    `json:"groups"`
	Friends  int    `json:"friends"`
}

// Users lists all users with their group and direct chat counts.
// GET /api/v1/admin/users
func (h *AdminHandlers) Users(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.store.ListUsers(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	views := make([]AdminUserView, 0, len(users))
	for _, u := range users {
		groups, err := h.store.CountChatsByMember(ctx, u.ID, true)
		if err != nil {
			h.log.Error().Err(err).Str("user_id", u.ID).Msg("failed to count groups")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		friends, err := h.store.CountChatsByMember(ctx, u.ID, false)
		if err != nil {
			h.log.Error().Err(err).Str("user_id", u.ID).Msg("failed to count friends")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		views = append(views, AdminUserView{
			ID:       u.ID,
			Name:     u.Name,
			Username: u.Username,
			Avatar:   u.AvatarURL,
			Groups:   groups,
			Friends:  friends,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// AdminChatView is a chat row on the dashboard with totals.
type AdminChatView struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	GroupChat    bool     `json:"groupChat"`
	Creator      string   `json:"creator,omitempty"`
	Members      []string `json:"members"`
	TotalMembers int      `json:"totalMembers"`
	TotalMsgs    int      `json:"totalMessages"`
}

// Chats lists all chats with member and message totals.
// GET /api/v1/admin/chats
func (h *AdminHandlers) Chats(c *gin.Context) {
	ctx := c.Request.Context()

	list, err := h.store.ListChats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list chats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	views := make([]AdminChatView, 0, len(list))
	for _, chat := range list {
		messages, err := h.store.CountMessagesByChat(ctx, chat.ID)
		if err != nil {
			h.log.Error().Err(err).Str("chat_id", chat.ID).Msg("failed to count messages")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		views = append(views, AdminChatView{
			ID:           chat.ID,
			Name:         chat.Name,
			GroupChat:    chat.GroupChat,
			Creator:      chat.CreatorID,
			Members:      chat.Members,
			TotalMembers: len(chat.Members),
			TotalMsgs:    messages,
		})
	}
	c.JSON(http.StatusOK, gin.H{"chats": views})
}

// Messages lists every message in the system.
// GET /api/v1/admin/messages
func (h *AdminHandlers) Messages(c *gin.Context) {
	ctx := c.Request.Context()

	msgs, err := h.store.ListAllMessages(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	views := make([]proto.DeliveredMessage, 0, len(msgs))
	for _, msg := range msgs {
		sender := proto.Sender{ID: msg.SenderID}
		if user, err := h.store.GetUserByID(ctx, msg.SenderID); err == nil {
			sender.Name = user.Name
		}
		attachments := make([]proto.AttachmentRef, 0, len(msg.Attachments))
		for _, a := range msg.Attachments {
			attachments = append(attachments, proto.AttachmentRef{PublicID: a.PublicID, URL: a.URL})
		}
		views = append(views, proto.DeliveredMessage{
			ID:          msg.ID,
			Content:     msg.Content,
			Sender:      sender,
			Chat:        msg.ChatID,
			Attachments: attachments,
			CreatedAt:   formatTime(msg.CreatedAt),
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// StatsResponse is the dashboard overview payload.
type StatsResponse struct {
	UserCount     int   `json:"usersCount"`
	ChatCount     int   `json:"totalChatsCount"`
	GroupCount    int   `json:"groupsCount"`
	MessageCount  int   `json:"messagesCount"`
	WeeklyMessage []int `json:"messagesChart"`
}

// Stats returns entity counts plus a per-day message histogram for the last
// seven days, oldest day first.
// GET /api/v1/admin/stats
func (h *AdminHandlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.store.GetStats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	const days = 7
	since := time.Now().UTC().AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)
	chart, err := h.store.CountMessagesSince(ctx, since, days)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to build message chart")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		UserCount:     stats.UserCount,
		ChatCount:     stats.ChatCount,
		GroupCount:    stats.GroupCount,
		MessageCount:  stats.MessageCount,
		WeeklyMessage: chart,
	})
}
