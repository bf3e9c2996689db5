// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"resumeforge-service/internal/config"
	"resumeforge-service/internal/db"
	authHandler "resumeforge-service/internal/handlers/auth"
	resumeHandler "resumeforge-service/internal/handlers/resume"
	"resumeforge-service/internal/identity"
	"resumeforge-service/internal/middleware"
	"resumeforge-service/internal/pkg/session"
	"resumeforge-service/internal/pkg/token"
	"resumeforge-service/internal/repository/postgres"
	authUsecase "resumeforge-service/internal/service/auth"
	resumeUsecase "resumeforge-service/internal/service/resume"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg     config.AppConfig
	engine  *gin.Engine
	logger  *zap.Logger
	httpSrv *http.Server
	pool    *pgxpool.Pool
	redis   *redis.Client
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(s.cfg.PostgresDSN)
	if err != nil {
		return err
	}
	s.pool = pool
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return err
	}
	s.redis = redisClient
	logger.Info("connected to Redis")

	// ----- Token verifier (offline JWT checks against the pool's JWKS) -----
	verifier := token.NewVerifier(token.Config{
		Issuer:   s.cfg.IssuerURL,
		JWKSURL:  s.cfg.JWKSURL,
		ClientID: s.cfg.ClientID,
	})

	// ----- Identity provider bridge -----
	bridge, err := identity.NewBridge(ctx, identity.Config{
		Region:         s.cfg.AWSRegion,
		ClientID:       s.cfg.ClientID,
		ClientSecret:   s.cfg.ClientSecret,
		HostedUIDomain: s.cfg.HostedUIDomain,
		RedirectURI:    s.cfg.OAuthRedirectURI,
		Providers:      s.cfg.SocialProviders,
	}, verifier, logger)
	if err != nil {
		return fmt.Errorf("failed to build identity bridge: %w", err)
	}

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	resumeRepo := postgres.NewResumeRepository(pool)

	// ----- Session policy & rate limiting -----
	userLock := session.NewUserLock(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)
	sessionManager := authUsecase.NewDeviceSessionManager(
		sessionRepo, userLock, s.cfg.DeviceCap, s.cfg.RefreshValidity, logger)

	// ----- Services -----
	authService := authUsecase.NewAuthService(
		bridge, userRepo, sessionManager, resumeRepo, rateLimiter, logger)
	resumeService := resumeUsecase.NewResumeService(resumeRepo, logger)

	// ----- Handlers -----
	handlers := &Handlers{
		AuthHandler:    authHandler.NewAuthHandler(authService, logger),
		SocialHandler:  authHandler.NewSocialHandler(authService, s.cfg.FrontendBaseURL, logger),
		ResumeHandler:  resumeHandler.NewResumeHandler(resumeService, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(verifier, userRepo),
	}

	// ----- Engine -----
	s.engine.Use(middleware.RecoveryMiddleware(logger))
	s.engine.Use(middleware.LoggingMiddleware(logger))
	s.engine.Use(middleware.CORSMiddleware())

	SetupRouter(s.engine, logger, handlers)

	s.httpSrv = &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	logger.Info("starting HTTP server", zap.String("addr", s.cfg.HTTPAddr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the backing connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	if s.redis != nil {
		if cerr := s.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.logger != nil {
		s.logger.Info("server stopped")
		s.logger.Sync()
	}
	return err
}
