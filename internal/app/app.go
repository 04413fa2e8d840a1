package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/klatch-chat/klatch-server/internal/auth"
	"github.com/klatch-chat/klatch-server/internal/config"
	"github.com/klatch-chat/klatch-server/internal/realtime"
	"github.com/klatch-chat/klatch-server/internal/service/chats"
	"github.com/klatch-chat/klatch-server/internal/service/friends"
	"github.com/klatch-chat/klatch-server/internal/storage/files"
	"github.com/klatch-chat/klatch-server/internal/store"
	"github.com/klatch-chat/klatch-server/internal/store/sqlite"
	transporthttp "github.com/klatch-chat/klatch-server/internal/transport/http"
)

// App wires together storage, the realtime gateway and the HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// storeAppender bridges the gateway's fire-and-forget persistence to the
// durable store.
type storeAppender struct {
	store store.Store
}

func (a storeAppender) AppendMessage(ctx context.Context, m realtime.MessagePayload) error {
	msg := &store.Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.Sender.ID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, store.Attachment{PublicID: a.PublicID, URL: a.URL})
	}
	return a.store.SaveMessage(ctx, msg)
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	fileStore, err := files.New(cfg.UploadDir)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      15 * 24 * time.Hour,
		AdminTTL: 15 * time.Minute,
	}
	authService := auth.NewService(st, jwtConfig, cfg.AdminSecretKey)

	gateway := realtime.NewGateway(storeAppender{store: st}, logger)
	chatService := chats.New(st, gateway, fileStore)
	friendService := friends.New(st, gateway)

	server := transporthttp.NewServer(transporthttp.Deps{
		Gateway: gateway,
		Auth:    authService,
		Chats:   chatService,
		Friends: friendService,
		Store:   st,
		Files:   fileStore,
		Log:     logger,
	}, cfg)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
