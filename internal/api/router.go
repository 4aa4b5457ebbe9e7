package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/marketbay/commerce-api/internal/api/handler"
	"github.com/marketbay/commerce-api/internal/api/middleware"
	"github.com/marketbay/commerce-api/internal/core/domain"
	"github.com/marketbay/commerce-api/internal/core/ports"
	"github.com/marketbay/commerce-api/internal/core/service"
	"github.com/marketbay/commerce-api/internal/infrastructure/config"
	mongodb "github.com/marketbay/commerce-api/internal/infrastructure/db/mongo"
	redisdb "github.com/marketbay/commerce-api/internal/infrastructure/db/redis"
	"github.com/marketbay/commerce-api/pkg/logger"
)

// NewRouter builds and returns the Echo instance with all dependencies
// constructed and all routes registered. Persistence and cache handles are
// injected here; nothing in the service layer reaches for globals.
func NewRouter(cfg *config.Config, client *mongo.Client, db *mongo.Database, rdb *redis.Client, email ports.EmailSender) *echo.Echo {
	log := logger.Get()

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("commerce"))

	// --- Dependencies ---
	accountRepo := mongodb.NewAccountRepository(db)
	storeRepo := mongodb.NewStoreRepository(db)
	otpRepo := mongodb.NewOtpRepository(db)
	tx := mongodb.NewTransactor(client)
	tokenStore := redisdb.NewTokenStore(rdb)

	otpService := service.NewOtpService(otpRepo, cfg.OTP.Expiry(), cfg.OTP.MaxAttempts, log)
	tokenService := service.NewTokenService(tokenStore,
		cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	registrationService := service.NewRegistrationService(
		accountRepo, storeRepo, otpService, tx, email, cfg.SMTP.SendTimeout(), log)
	sessionService := service.NewSessionService(
		accountRepo, storeRepo, tokenService, otpService, tx, email, cfg.SMTP.SendTimeout(), log)

	authHandler := handler.NewAuthHandler(registrationService, sessionService)
	userHandler := handler.NewUserHandler(sessionService)
	requireAuth := middleware.Auth(tokenService)

	// --- Auth routes ---
	auth := e.Group("/api/v1/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/verify-otp", authHandler.VerifyOtp)
	auth.POST("/resend-otp", authHandler.ResendOtp)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/refresh-token", authHandler.RefreshToken)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// --- Authenticated user routes ---
	users := e.Group("/api/v1/users", requireAuth)
	users.GET("/me", userHandler.Me)
	users.POST("/me/store", userHandler.CreateStore,
		middleware.RBAC(domain.RoleCustomer))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
