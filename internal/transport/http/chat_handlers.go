package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/klatch-chat/klatch-server/internal/proto"
	"github.com/klatch-chat/klatch-server/internal/service/chats"
	"github.com/klatch-chat/klatch-server/internal/store"
)

// ChatHandlers provides HTTP handlers for chat CRUD and history endpoints.
type ChatHandlers struct {
	chats *chats.Service
	store store.Store
	log   *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(chatService *chats.Service, st store.Store, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{chats: chatService, store: st, log: logger}
}

// NewGroupRequest represents the group creation request body.
type NewGroupRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members" binding:"required"`
}

// ChatView is the list rendition of a chat. Direct chats borrow the other
// member's name and avatar for display.
type ChatView struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	GroupChat bool     `json:"groupChat"`
	Creator   string   `json:"creator,omitempty"`
	Avatar    []string `json:"avatar"`
	Members   []string `json:"members"`
}

// ChatDetailView is the single-chat rendition with expanded members.
type ChatDetailView struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	GroupChat bool     `json:"groupChat"`
	Creator   string   `json:"creator,omitempty"`
	Members   []Sender `json:"members"`
}

// NewGroup creates a group chat.
// POST /api/v1/chat/new
func (h *ChatHandlers) NewGroup(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	var req NewGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	chat, err := h.chats.CreateGroup(c.Request.Context(), userID, req.Name, req.Members)
	if err != nil {
		switch {
		case errors.Is(err, chats.ErrTooFewMembers):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "group chat must have at least 3 members"})
		case errors.Is(err, chats.ErrMemberLimit):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "group members limit reached"})
		default:
			h.log.Error().Err(err).Msg("failed to create group")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "group created", "chatId": chat.ID})
}

// MyChats lists the caller's chats.
// GET /api/v1/chat/my
func (h *ChatHandlers) MyChats(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	list, err := h.chats.MyChats(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list chats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	views := make([]ChatView, 0, len(list))
	for _, chat := range list {
		views = append(views, h.chatView(c, chat, userID))
	}
	c.JSON(http.StatusOK, gin.H{"chats": views})
}

// MyGroups lists groups the caller created.
// GET /api/v1/chat/my/groups
func (h *ChatHandlers) MyGroups(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	list, err := h.chats.MyGroups(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list groups")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	views := make([]ChatView, 0, len(list))
	for _, chat := range list {
		views = append(views, h.chatView(c, chat, userID))
	}
	c.JSON(http.StatusOK, gin.H{"groups": views})
}

// MembersRequest names a chat and the members the change applies to.
type MembersRequest struct {
	ChatID  string   `json:"chatId" binding:"required"`
	Members []string `json:"members"`
	UserID  string   `json:"userId"`
}

// AddMembers adds users to a group chat.
// PUT /api/v1/chat/addmembers
func (h *ChatHandlers) AddMembers(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	var req MembersRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Members) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.chats.AddMembers(c.Request.Context(), userID, req.ChatID, req.Members); err != nil {
		h.respondChatError(c, err, "failed to add members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "members added successfully"})
}

// RemoveMember removes a user from a group chat.
// PUT /api/v1/chat/removemember
func (h *ChatHandlers) RemoveMember(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	var req MembersRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.chats.RemoveMember(c.Request.Context(), userID, req.ChatID, req.UserID); err != nil {
		h.respondChatError(c, err, "failed to remove member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed successfully"})
}

// LeaveGroup removes the caller from a group chat, handing creatorship over
// when the creator leaves.
// DELETE /api/v1/chat/leave/:id
func (h *ChatHandlers) LeaveGroup(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	if err := h.chats.LeaveGroup(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondChatError(c, err, "failed to leave group")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left the group"})
}

// SendAttachments posts a message carrying uploaded files. The body is
// multipart form data with a chatId field and one to five files.
// POST /api/v1/chat/message
func (h *ChatHandlers) SendAttachments(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)
	chatID := c.PostForm("chatId")
	if chatID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "chatId is required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid multipart body"})
		return
	}

	var uploads []chats.Upload
	for _, file := range form.File["files"] {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable upload"})
			return
		}
		defer src.Close()
		uploads = append(uploads, chats.Upload{Name: file.Filename, Reader: src})
	}

	sender, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "user not found"})
		return
	}

	msg, err := h.chats.SendAttachments(c.Request.Context(), sender, chatID, uploads)
	if err != nil {
		switch {
		case errors.Is(err, chats.ErrNoAttachments):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "please attach at least one file"})
		case errors.Is(err, chats.ErrTooManyAttachments):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "at most 5 files can be attached"})
		default:
			h.respondChatError(c, err, "failed to send attachments")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": h.messageView(c, msg)})
}

// Messages returns one page of chat history, oldest first within the page.
// GET /api/v1/chat/message/:id?page=N
func (h *ChatHandlers) Messages(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	msgs, totalPages, err := h.chats.Messages(c.Request.Context(), userID, c.Param("id"), page)
	if err != nil {
		h.respondChatError(c, err, "failed to load messages")
		return
	}

	views := make([]proto.DeliveredMessage, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, h.messageView(c, msg))
	}
	c.JSON(http.StatusOK, gin.H{"messages": views, "totalPages": totalPages})
}

// GetChat returns a chat with its members expanded.
// GET /api/v1/chat/:id
func (h *ChatHandlers) GetChat(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	chat, err := h.chats.GetChat(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.respondChatError(c, err, "failed to load chat")
		return
	}

	members := make([]Sender, 0, len(chat.Members))
	for _, memberID := range chat.Members {
		user, err := h.store.GetUserByID(c.Request.Context(), memberID)
		if err != nil {
			continue
		}
		members = append(members, Sender{ID: user.ID, Name: user.Name, Avatar: user.AvatarURL})
	}

	c.JSON(http.StatusOK, gin.H{"chat": ChatDetailView{
		ID:        chat.ID,
		Name:      chat.Name,
		GroupChat: chat.GroupChat,
		Creator:   chat.CreatorID,
		Members:   members,
	}})
}

// RenameRequest carries the new group name.
type RenameRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename changes a group chat's name. Creator only.
// PUT /api/v1/chat/:id
func (h *ChatHandlers) Rename(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.chats.Rename(c.Request.Context(), userID, c.Param("id"), req.Name); err != nil {
		h.respondChatError(c, err, "failed to rename chat")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "group renamed successfully"})
}

// Delete removes a chat along with its messages and stored attachments.
// DELETE /api/v1/chat/:id
func (h *ChatHandlers) Delete(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	if err := h.chats.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.respondChatError(c, err, "failed to delete chat")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "chat deleted successfully"})
}

func (h *ChatHandlers) respondChatError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, chats.ErrChatNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "chat not found"})
	case errors.Is(err, chats.ErrNotGroup):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "this is not a group chat"})
	case errors.Is(err, chats.ErrNotAllowed):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "you are not allowed to do this"})
	case errors.Is(err, chats.ErrNotMember):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "you are not a member of this chat"})
	case errors.Is(err, chats.ErrTooFewMembers):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "group chat must have at least 3 members"})
	case errors.Is(err, chats.ErrMemberLimit):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "group members limit reached"})
	default:
		h.log.Error().Err(err).Msg(logMsg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// chatView renders a chat for list endpoints. Direct chats show the other
// member's name and avatar instead of their own.
func (h *ChatHandlers) chatView(c *gin.Context, chat *store.Chat, viewerID string) ChatView {
	view := ChatView{
		ID:        chat.ID,
		Name:      chat.Name,
		GroupChat: chat.GroupChat,
		Creator:   chat.CreatorID,
		Members:   lo.Without(chat.Members, viewerID),
		Avatar:    []string{},
	}

	if chat.GroupChat {
		// Up to three member avatars for the group tile.
		for _, memberID := range view.Members {
			if len(view.Avatar) == 3 {
				break
			}
			if user, err := h.store.GetUserByID(c.Request.Context(), memberID); err == nil && user.AvatarURL != "" {
				view.Avatar = append(view.Avatar, user.AvatarURL)
			}
		}
		return view
	}

	if other, ok := lo.First(view.Members); ok {
		if user, err := h.store.GetUserByID(c.Request.Context(), other); err == nil {
			view.Name = user.Name
			if user.AvatarURL != "" {
				view.Avatar = []string{user.AvatarURL}
			}
		}
	}
	return view
}

func (h *ChatHandlers) messageView(c *gin.Context, msg *store.Message) proto.DeliveredMessage {
	sender := Sender{ID: msg.SenderID}
	if user, err := h.store.GetUserByID(c.Request.Context(), msg.SenderID); err == nil {
		sender.Name = user.Name
	}

	attachments := make([]proto.AttachmentRef, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, proto.AttachmentRef{PublicID: a.PublicID, URL: a.URL})
	}

	return proto.DeliveredMessage{
		ID:          msg.ID,
		Content:     msg.Content,
		Sender:      proto.Sender{ID: sender.ID, Name: sender.Name},
		Chat:        msg.ChatID,
		Attachments: attachments,
		CreatedAt:   formatTime(msg.CreatedAt),
	}
}
