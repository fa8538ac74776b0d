package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wildlens/apiserver/config"
	"github.com/wildlens/apiserver/internal/auth"
	"github.com/wildlens/apiserver/internal/db"
	"github.com/wildlens/apiserver/internal/handlers"
	"github.com/wildlens/apiserver/internal/middleware"
	"github.com/wildlens/apiserver/internal/mq"
	"github.com/wildlens/apiserver/internal/services"
	"github.com/wildlens/apiserver/internal/storage"
	"github.com/wildlens/apiserver/internal/store"
)

// Server wraps the HTTP server and the clients it owns.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	bus        *mq.MQ
	log        zerolog.Logger
}

// New opens the database, connects the optional image store and event bus,
// and wires the handlers.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenAuthority(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var scanOpts []services.ScanOption
	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if images != nil {
		log.Info().Str("backend", cfg.Storage.Backend).Str("bucket", images.Bucket()).Msg("scan images offloaded to object storage")
		scanOpts = append(scanOpts, services.WithImageStore(images))
	}

	bus, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if bus != nil {
		log.Info().Str("backend", cfg.MQ.Backend).Str("channel", cfg.MQ.ScanChannel).Msg("publishing scan events")
		scanOpts = append(scanOpts, services.WithEventPublisher(bus, cfg.MQ.ScanChannel))
	}

	authLimit, err := middleware.NewIPRateLimiter(cfg.AuthRateLimit)
	if err != nil {
		closeAll(dbConn, bus)
		return nil, fmt.Errorf("invalid RATE_LIMIT_AUTH: %w", err)
	}

	userService := services.NewUserService(store.NewUserRepository(dbConn), auth.NewPasswordHasher(cfg.BcryptCost))
	scanService := services.NewScanService(store.NewScanRepository(dbConn), log, scanOpts...)
	speciesService := services.NewSpeciesService(store.NewSpeciesRepository(dbConn))

	router := NewRouter(RouterConfig{
		Log:              log,
		Auth:             handlers.NewAuthHandler(userService, tokens),
		Scans:            handlers.NewScanHandler(scanService, services.NewSpeciesGuesser()),
		Species:          handlers.NewSpeciesHandler(speciesService),
		Health:           handlers.NewHealthHandler(dbConn),
		AuthRateLimit:    authLimit,
		Secure:           middleware.Secure(cfg.Env == "dev"),
		CORS:             middleware.CORS(cfg.CORSOrigins),
		MaxScanBodyBytes: cfg.MaxScanBodyBytes,
		Metrics:          true,
		TrustProxy:       cfg.TrustProxy,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		db:         dbConn,
		bus:        bus,
		log:        log,
	}, nil
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the event bus and the
// database pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	closeAll(s.db, s.bus)
	return err
}

func closeAll(dbConn *sql.DB, bus *mq.MQ) {
	if bus != nil {
		_ = bus.Close()
	}
	if dbConn != nil {
		_ = dbConn.Close()
	}
}
