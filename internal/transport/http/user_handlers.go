package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/klatch-chat/klatch-server/internal/auth"
	"github.com/klatch-chat/klatch-server/internal/service/friends"
	"github.com/klatch-chat/klatch-server/internal/storage/files"
	"github.com/klatch-chat/klatch-server/internal/store"
)

// sessionCookieMaxAge keeps browser sessions alive for fifteen days.
const sessionCookieMaxAge = 15 * 24 * 60 * 60

// UserHandlers provides HTTP handlers for account and friend endpoints.
type UserHandlers struct {
	authService *auth.Service
	friends     *friends.Service
	store       store.Store
	files       *files.Store
	log         *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(authService *auth.Service, friendsService *friends.Service, st store.Store, fileStore *files.Store, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		authService: authService,
		friends:     friendsService,
		store:       st,
		files:       fileStore,
		log:         logger,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

// UserView is the public rendition of a user account.
type UserView struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Bio       string `json:"bio,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func userView(u *store.User) UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Bio:       u.Bio,
		Avatar:    u.AvatarURL,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

// Register handles new account creation. The body is multipart form data so
// the avatar can ride along with the profile fields.
// POST /api/v1/user/new
func (h *UserHandlers) Register(c *gin.Context) {
	name := c.PostForm("name")
	username := c.PostForm("username")
	bio := c.PostForm("bio")
	password := c.PostForm("password")

	var avatarURL string
	if file, err := c.FormFile("avatar"); err == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable avatar upload"})
			return
		}
		obj, err := h.files.Save(src)
		src.Close()
		if err != nil {
			h.log.Error().Err(err).Msg("failed to store avatar")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		avatarURL = obj.URL
	}

	token, user, err := h.authService.Register(c.Request.Context(), username, name, bio, avatarURL, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidUsername),
			errors.Is(err, auth.ErrInvalidPassword),
			errors.Is(err, auth.ErrInvalidName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("username", username).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.setSessionCookie(c, token)
	h.log.Info().Str("username", username).Msg("user registered")
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: userView(user)})
}

// Login handles user login.
// POST /api/v1/user/login
func (h *UserHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid username or password"})
			return
		}
		h.log.Error().Err(err).Str("username", req.Username).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: userView(user)})
}

// Me returns the authenticated user's profile.
// GET /api/v1/user/me
func (h *UserHandlers) Me(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}

	c.JSON(http.StatusOK, userView(user))
}

// Logout clears the session cookie.
// GET /api/v1/user/logout
func (h *UserHandlers) Logout(c *gin.Context) {
	c.SetCookie(authCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// Search finds users by name, excluding the caller and their existing
// friends.
// GET /api/v1/user/search?name=...
func (h *UserHandlers) Search(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)
	query := c.Query("name")

	existing, err := h.friends.Friends(c.Request.Context(), userID, "")
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list friends for search")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	exclude := make([]string, 0, len(existing)+1)
	exclude = append(exclude, userID)
	for _, friend := range existing {
		exclude = append(exclude, friend.ID)
	}

	users, err := h.store.SearchUsers(c.Request.Context(), query, exclude)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// SendRequestBody identifies the friend request target.
type SendRequestBody struct {
	UserID string `json:"userId" binding:"required"`
}

// SendFriendRequest creates a pending friend request.
// PUT /api/v1/user/sendrequest
func (h *UserHandlers) SendFriendRequest(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	var req SendRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if _, err := h.friends.SendRequest(c.Request.Context(), userID, req.UserID); err != nil {
		switch {
		case errors.Is(err, friends.ErrCannotFriendSelf):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot send a request to yourself"})
		case errors.Is(err, friends.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, friends.ErrRequestAlreadyExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "request already sent"})
		default:
			h.log.Error().Err(err).Msg("failed to send friend request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend request sent"})
}

// AcceptRequestBody carries the friend request decision.
type AcceptRequestBody struct {
	RequestID string `json:"requestId" binding:"required"`
	Accept    bool   `json:"accept"`
}

// AcceptFriendRequest accepts or rejects a pending friend request. Accepting
// creates the direct chat between the two users.
// PUT /api/v1/user/acceptrequest
func (h *UserHandlers) AcceptFriendRequest(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	var req AcceptRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	senderID, err := h.friends.AcceptRequest(c.Request.Context(), userID, req.RequestID, req.Accept)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "request not found"})
		case errors.Is(err, friends.ErrNotReceiver):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "you are not authorized to accept this request"})
		default:
			h.log.Error().Err(err).Msg("failed to resolve friend request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	if !req.Accept {
		c.JSON(http.StatusOK, gin.H{"message": "friend request rejected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend request accepted", "senderId": senderID})
}

// NotificationView is a pending friend request with its sender attached.
type NotificationView struct {
	ID     string `json:"_id"`
	Sender Sender `json:"sender"`
}

// Sender mirrors the compact user reference used inside notifications.
type Sender struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Notifications lists pending friend requests addressed to the caller.
// GET /api/v1/user/notifications
func (h *UserHandlers) Notifications(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)

	requests, err := h.friends.Notifications(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list notifications")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	views := make([]NotificationView, 0, len(requests))
	for _, req := range requests {
		sender, err := h.store.GetUserByID(c.Request.Context(), req.SenderID)
		if err != nil {
			continue
		}
		views = append(views, NotificationView{
			ID:     req.ID,
			Sender: Sender{ID: sender.ID, Name: sender.Name, Avatar: sender.AvatarURL},
		})
	}
	c.JSON(http.StatusOK, gin.H{"allRequests": views})
}

// FriendsList lists the caller's friends, optionally filtering out members
// of a given chat so the client can build an "add to group" picker.
// GET /api/v1/user/friends?chatId=...
func (h *UserHandlers) FriendsList(c *gin.Context) {
	userID := c.GetString(ContextKeyUserID)
	chatID := c.Query("chatId")

	list, err := h.friends.Friends(c.Request.Context(), userID, chatID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list friends")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	views := make([]UserView, 0, len(list))
	for _, u := range list {
		views = append(views, userView(u))
	}
	c.JSON(http.StatusOK, gin.H{"friends": views})
}

func (h *UserHandlers) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, sessionCookieMaxAge, "/", "", false, true)
}
