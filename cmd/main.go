package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"astrotalk/api/handler"
	apiMiddleware "astrotalk/api/middleware"
	"astrotalk/api/routes"
	"astrotalk/config"
	"astrotalk/internal/cache"
	"astrotalk/internal/metrics"
	"astrotalk/internal/repository"
	"astrotalk/internal/repository/memory"
	"astrotalk/internal/service"
	"astrotalk/internal/storage"
	"astrotalk/internal/storage/local"
	miniostore "astrotalk/internal/storage/minio"
	"astrotalk/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		accounts  repository.AccountRepository
		profiles  repository.ProfileRepository
		auditLogs repository.AuditLogRepository
	)
	switch cfg.DB.Driver {
	case "memory":
		store := memory.New()
		accounts, profiles, auditLogs = store.Accounts(), store.Profiles(), store.AuditLogs()
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		db, err := config.ConnectionDb(cfg.DB.URL)
		if err != nil {
			logger.WithError(err).Fatal("connect to database")
		}
		if cfg.DB.AutoMigrate {
			if err := config.Migrate(db); err != nil {
				logger.WithError(err).Fatal("migrate database")
			}
		}
		accounts = repository.NewAccountRepository(db)
		profiles = repository.NewProfileRepository(db)
		auditLogs = repository.NewAuditLogRepository(db)
		logger.Info("success connect to db")
	}

	var certificates storage.CertificateStore
	switch cfg.Storage.Backend {
	case "s3":
		certificates, err = miniostore.New(ctx, miniostore.Config{
			Endpoint:      cfg.Storage.S3Endpoint,
			AccessKey:     cfg.Storage.S3AccessKey,
			SecretKey:     cfg.Storage.S3SecretKey,
			Bucket:        cfg.Storage.S3Bucket,
			PublicBaseURL: cfg.Storage.S3PublicBaseURL,
		})
	default:
		certificates, err = local.New(cfg.Storage.Dir, cfg.Storage.PublicPrefix)
	}
	if err != nil {
		logger.WithError(err).Fatal("init certificate storage")
	}

	var statusCache service.StatusCache
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.WithError(err).Fatal("connect to redis")
		}
		defer client.Close()
		statusCache = cache.NewRedisStatusCache(client, cfg.Profile.StatusCacheTTL)
	}

	appMetrics := metrics.New("astrotalk")
	validate := validator.New()

	jwtManager := utils.JWTManager{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		TokenTTL: cfg.Auth.JWTTTL,
	}

	authService := service.NewAuthService(
		accounts,
		auditLogs,
		service.BcryptPasswordHasher{Cost: cfg.Auth.BcryptCost},
		service.JWTTokenIssuer{Manager: &jwtManager},
		appMetrics,
		logger,
		service.AuthConfig{AllowMobilePassword: cfg.Auth.AllowMobilePassword},
	)
	if cfg.Auth.AllowMobilePassword {
		logger.Warn("AUTH_ALLOW_MOBILE_PASSWORD is enabled; signups without a password get a guessable one")
	}
	profileService := service.NewProfileService(
		profiles,
		auditLogs,
		certificates,
		statusCache,
		appMetrics,
		logger,
		service.RealClock{},
		service.ProfileConfig{
			RejectBusyWhileOffline: cfg.Profile.RejectBusyWhileOffline,
			MaxCertificateBytes:    cfg.Storage.MaxBytes,
		},
	)
	discoveryService := service.NewDiscoveryService(profiles, service.DiscoveryConfig{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
	})

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.BodyLimit(bodyLimit(cfg.Storage.MaxBytes)))
	app.Use(handler.WithLogger(logger))
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status":  v.Status,
				"method":  v.Method,
				"uri":     v.URI,
				"ip":      v.RemoteIP,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router := routes.NewRouter(
		app,
		handler.NewAuthHandler(authService, validate),
		handler.NewAstrologerHandler(profileService, discoveryService, validate),
		apiMiddleware.AuthMiddleware{Verifier: authService},
	)
	router.Metrics = appMetrics.Handler()
	if cfg.Storage.Backend == "local" {
		router.UploadsPrefix = cfg.Storage.PublicPrefix
		router.UploadsDir = cfg.Storage.Dir
	}
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
	logger.Info("server stopped")
}

// bodyLimit leaves room for base64 expansion of the largest certificate.
func bodyLimit(maxCertificateBytes int64) string {
	const mib = 1 << 20
	limit := (maxCertificateBytes*4/3)/mib + 2
	return fmt.Sprintf("%dM", limit)
}
