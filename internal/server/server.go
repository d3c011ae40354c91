package server

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/imago3d/apiserver/config"
	"github.com/imago3d/apiserver/internal/db"
	"github.com/imago3d/apiserver/internal/handlers"
	"github.com/imago3d/apiserver/internal/mq"
	"github.com/imago3d/apiserver/internal/secrets"
	"github.com/imago3d/apiserver/internal/services"
	"github.com/imago3d/apiserver/internal/storage"
	"github.com/imago3d/apiserver/internal/store"
)

// Server wraps the HTTP server, router, and owned resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      mq.Backend
}

// New resolves secrets, connects every dependency, and builds the
// router. Everything is wired before the listener starts, so no request
// can observe a half-initialized process.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	sec, err := secrets.Load(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	cfg.Database.Password = sec.DatabasePassword

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	userService := services.NewUserService(userRepo, []byte(sec.JWTSigningKey))
	authMiddleware := handlers.RequireAuth([]byte(sec.JWTSigningKey))

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open object storage: %w", err)
	}

	queue, err := mq.Open(ctx, cfg.Queue)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open task queue: %w", err)
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Get("/health", handlers.Health(dbConn))
	router.Route("/api", func(r chi.Router) {
		handlers.AuthRouter(r, userService, []byte(sec.JWTSigningKey))
		handlers.UserRouter(r, userService, authMiddleware)

		if objects != nil {
			if err := objects.EnsureBucket(ctx); err != nil {
				log.Printf("ensure bucket %s: %v", objects.Bucket(), err)
			}
			uploadRepo := store.NewUploadRepository(dbConn)
			uploadService := services.NewUploadService(uploadRepo, objects, queue, cfg.Queue.TaskTopic)
			handlers.UploadRouter(r, uploadService, authMiddleware)
		}
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown closes owned resources and the listener.
func (s *Server) Shutdown() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
