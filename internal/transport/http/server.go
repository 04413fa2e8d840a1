package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/klatch-chat/klatch-server/internal/auth"
	"github.com/klatch-chat/klatch-server/internal/config"
	"github.com/klatch-chat/klatch-server/internal/realtime"
	"github.com/klatch-chat/klatch-server/internal/service/chats"
	"github.com/klatch-chat/klatch-server/internal/service/friends"
	"github.com/klatch-chat/klatch-server/internal/storage/files"
	"github.com/klatch-chat/klatch-server/internal/store"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Gateway *realtime.Gateway
	Auth    *auth.Service
	Chats   *chats.Service
	Friends *friends.Service
	Store   store.Store
	Files   *files.Store
	Log     *zerolog.Logger
}

// NewServer builds the HTTP server with all routes mounted.
func NewServer(deps Deps, cfg config.Config) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(deps.Log))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(deps.Gateway, deps.Auth, cfg.WSMessagesPerMinute, deps.Log)))
	router.Static(files.URLPrefix, deps.Files.Dir())

	userHandlers := NewUserHandlers(deps.Auth, deps.Friends, deps.Store, deps.Files, deps.Log)
	chatHandlers := NewChatHandlers(deps.Chats, deps.Store, deps.Log)
	adminHandlers := NewAdminHandlers(deps.Auth, deps.Store, deps.Log)

	user := router.Group("/api/v1/user")
	{
		user.POST("/new", userHandlers.Register)
		user.POST("/login", userHandlers.Login)

		authed := user.Group("", AuthMiddleware(deps.Auth, deps.Log))
		authed.GET("/me", userHandlers.Me)
		authed.GET("/logout", userHandlers.Logout)
		authed.GET("/search", userHandlers.Search)
		authed.PUT("/sendrequest", userHandlers.SendFriendRequest)
		authed.PUT("/acceptrequest", userHandlers.AcceptFriendRequest)
		authed.GET("/notifications", userHandlers.Notifications)
		authed.GET("/friends", userHandlers.FriendsList)
	}

	chat := router.Group("/api/v1/chat", AuthMiddleware(deps.Auth, deps.Log))
	{
		chat.POST("/new", chatHandlers.NewGroup)
		chat.GET("/my", chatHandlers.MyChats)
		chat.GET("/my/groups", chatHandlers.MyGroups)
		chat.PUT("/addmembers", chatHandlers.AddMembers)
		chat.PUT("/removemember", chatHandlers.RemoveMember)
		chat.DELETE("/leave/:id", chatHandlers.LeaveGroup)
		chat.POST("/message", chatHandlers.SendAttachments)
		chat.GET("/message/:id", chatHandlers.Messages)
		chat.GET("/:id", chatHandlers.GetChat)
		chat.PUT("/:id", chatHandlers.Rename)
		chat.DELETE("/:id", chatHandlers.Delete)
	}

	admin := router.Group("/api/v1/admin")
	{
		admin.POST("/verify", adminHandlers.Verify)

		authed := admin.Group("", AdminMiddleware(deps.Auth, deps.Log))
		authed.GET("", adminHandlers.Check)
		authed.GET("/logout", adminHandlers.Logout)
		authed.GET("/users", adminHandlers.Users)
		authed.GET("/chats", adminHandlers.Chats)
		authed.GET("/messages", adminHandlers.Messages)
		authed.GET("/stats", adminHandlers.Stats)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
