package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/orbit-back/internal/auth"
	"github.com/user/orbit-back/internal/cache"
	"github.com/user/orbit-back/internal/calls"
	"github.com/user/orbit-back/internal/config"
	"github.com/user/orbit-back/internal/database"
	"github.com/user/orbit-back/internal/handlers"
	"github.com/user/orbit-back/internal/messages"
	"github.com/user/orbit-back/internal/middleware"
	"github.com/user/orbit-back/internal/presence"
	"github.com/user/orbit-back/internal/realtime"
	"github.com/user/orbit-back/internal/storage"
	"github.com/user/orbit-back/internal/typing"
)

func main() {
	cfg := config.Load()

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Services
	tokenService := auth.NewTokenService(
		cfg.JWTSecret,
		cfg.RefreshSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	// Repositories
	authRepo := auth.NewRepository(db.Pool)
	messagesRepo := messages.NewRepository(db.Pool)
	presenceRepo := presence.NewRepository(db.Pool)
	callsRepo := calls.NewRepository(db.Pool)

	// Media plane tokens for connected calls
	mediaService := calls.NewMediaTokenService(calls.MediaConfig{
		Host:      cfg.LiveKitHost,
		APIKey:    cfg.LiveKitAPIKey,
		APISecret: cfg.LiveKitAPISecret,
	})

	// S3 Storage
	s3Storage, err := storage.NewS3Storage(storage.Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		CDNURL:          cfg.S3CDNURL,
	})
	if err != nil {
		log.Fatalf("Failed to create S3 storage: %v", err)
	}
	log.Println("S3 storage initialized")

	// Redis (typing signals, hidden conversations, rate limits)
	var redisCache *cache.RedisCache
	if cfg.RedisAddr != "" && cfg.RedisAddr != "disabled" {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr)
		if err != nil {
			log.Printf("Warning: Redis not available, running without cache: %v", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Println("Redis cache initialized")
		}
	} else {
		log.Println("Redis disabled, running without cache")
	}

	// Realtime data provider
	rtProvider := realtime.NewProvider(authRepo, messagesRepo, presenceRepo, callsRepo, redisCache)

	// Centrifuge realtime node
	rtNode, err := realtime.NewNode(tokenService, rtProvider, messagesRepo)
	if err != nil {
		log.Fatalf("Failed to create realtime node: %v", err)
	}

	// Realtime notifier for handlers and services
	rtNotifier := realtime.NewNotifier(rtNode, messagesRepo)

	// Presence and typing services publish through the notifier; the node
	// calls back into them on connect/disconnect and channel teardown.
	presenceService := presence.NewService(presenceRepo, rtNotifier)
	rtNode.SetPresenceHooks(presenceService)

	var typingService *typing.Service
	if redisCache != nil {
		typingService = typing.NewService(redisCache, rtNotifier, typing.DefaultIdleTimeout)
		rtNode.SetTypingHooks(typingService)
	} else {
		log.Println("Typing indicators disabled without Redis")
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authRepo, tokenService, s3Storage)
	messagesHandler := handlers.NewMessagesHandler(messagesRepo, rtNotifier, s3Storage, redisCache, typingService)
	presenceHandler := handlers.NewPresenceHandler(presenceService, messagesRepo)
	callsHandler := handlers.NewCallsHandler(callsRepo, mediaService, authRepo, messagesRepo, rtNotifier)

	// Router
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// Protected routes - Auth & profile
	authMiddleware := middleware.Auth(tokenService)
	mux.Handle("POST /api/auth/logout-all", authMiddleware(http.HandlerFunc(authHandler.LogoutAll)))
	mux.Handle("GET /api/auth/me", authMiddleware(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/display-name", authMiddleware(http.HandlerFunc(authHandler.SetDisplayName)))
	mux.Handle("POST /api/auth/avatar", authMiddleware(http.HandlerFunc(authHandler.UploadAvatar)))
	mux.Handle("GET /api/users", authMiddleware(http.HandlerFunc(authHandler.ListUsers)))

	// Presence
	mux.Handle("GET /api/presence", authMiddleware(http.HandlerFunc(presenceHandler.GetSnapshot)))
	mux.Handle("PUT /api/presence", authMiddleware(http.HandlerFunc(presenceHandler.SetStatus)))
	mux.Handle("GET /api/presence/{id}", authMiddleware(http.HandlerFunc(presenceHandler.GetStatus)))

	// Conversations
	mux.Handle("GET /api/conversations", authMiddleware(http.HandlerFunc(messagesHandler.GetConversations)))
	mux.Handle("POST /api/conversations/dm", authMiddleware(http.HandlerFunc(messagesHandler.GetOrCreateDM)))
	mux.Handle("POST /api/conversations/group", authMiddleware(http.HandlerFunc(messagesHandler.CreateGroup)))
	mux.Handle("GET /api/conversations/{id}", authMiddleware(http.HandlerFunc(messagesHandler.GetConversation)))
	mux.Handle("PATCH /api/conversations/{id}", authMiddleware(http.HandlerFunc(messagesHandler.UpdateGroup)))
	mux.Handle("DELETE /api/conversations/{id}", authMiddleware(http.HandlerFunc(messagesHandler.DeleteConversation)))
	mux.Handle("POST /api/conversations/{id}/avatar", authMiddleware(http.HandlerFunc(messagesHandler.UploadGroupAvatar)))
	mux.Handle("POST /api/conversations/{id}/participants", authMiddleware(http.HandlerFunc(messagesHandler.AddParticipants)))
	mux.Handle("DELETE /api/conversations/{id}/leave", authMiddleware(http.HandlerFunc(messagesHandler.LeaveGroup)))
	mux.Handle("POST /api/conversations/{id}/hide", authMiddleware(http.HandlerFunc(messagesHandler.HideConversation)))
	mux.Handle("DELETE /api/conversations/{id}/hide", authMiddleware(http.HandlerFunc(messagesHandler.UnhideConversation)))

	// Messages
	mux.Handle("GET /api/conversations/{id}/messages", authMiddleware(http.HandlerFunc(messagesHandler.GetMessages)))
	mux.Handle("POST /api/conversations/{id}/messages", authMiddleware(http.HandlerFunc(messagesHandler.SendMessage)))
	mux.Handle("PATCH /api/conversations/{id}/messages/{messageID}", authMiddleware(http.HandlerFunc(messagesHandler.EditMessage)))
	mux.Handle("DELETE /api/conversations/{id}/messages/{messageID}", authMiddleware(http.HandlerFunc(messagesHandler.DeleteMessage)))
	mux.Handle("POST /api/conversations/{id}/messages/{messageID}/reactions", authMiddleware(http.HandlerFunc(messagesHandler.React)))
	mux.Handle("POST /api/conversations/{id}/messages/{messageID}/read", authMiddleware(http.HandlerFunc(messagesHandler.MarkRead)))

	// Typing
	if typingService != nil {
		typingHandler := handlers.NewTypingHandler(typingService, messagesRepo)
		mux.Handle("POST /api/conversations/{id}/typing", authMiddleware(http.HandlerFunc(typingHandler.Signal)))
		mux.Handle("DELETE /api/conversations/{id}/typing", authMiddleware(http.HandlerFunc(typingHandler.Stop)))
	}

	// Attachments
	mux.Handle("POST /api/attachments", authMiddleware(http.HandlerFunc(messagesHandler.UploadAttachment)))

	// Calls
	mux.Handle("POST /api/calls", authMiddleware(http.HandlerFunc(callsHandler.StartCall)))
	mux.Handle("GET /api/calls/incoming", authMiddleware(http.HandlerFunc(callsHandler.GetIncomingCalls)))
	mux.Handle("GET /api/calls/{id}", authMiddleware(http.HandlerFunc(callsHandler.GetSession)))
	mux.Handle("POST /api/calls/{id}/answer", authMiddleware(http.HandlerFunc(callsHandler.AnswerCall)))
	mux.Handle("POST /api/calls/{id}/candidates", authMiddleware(http.HandlerFunc(callsHandler.AddCandidate)))
	mux.Handle("GET /api/calls/{id}/candidates", authMiddleware(http.HandlerFunc(callsHandler.GetCandidates)))
	mux.Handle("POST /api/calls/{id}/end", authMiddleware(http.HandlerFunc(callsHandler.EndCall)))
	mux.Handle("GET /api/calls/{id}/token", authMiddleware(http.HandlerFunc(callsHandler.MediaToken)))

	// Centrifuge WebSocket endpoint
	mux.Handle("GET /api/ws", rtNode.WebsocketHandler())

	// Apply CORS
	handler := middleware.CORS(mux)

	// Server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := rtNode.Shutdown(ctx); err != nil {
			log.Printf("Centrifuge shutdown error: %v", err)
		}

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server shutdown failed: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}

	log.Println("Server stopped")
}
