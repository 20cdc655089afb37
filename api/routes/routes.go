package routes

import (
	"net/http"
	"time"

	"astrotalk/api/handler"
	"astrotalk/api/middleware"
	"astrotalk/internal/entity"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Astrologers    *handler.AstrologerHandler
	AuthMiddleware middleware.AuthMiddleware
	SignupRate     *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// UploadsPrefix and UploadsDir serve locally stored certificates.
	UploadsPrefix string
	UploadsDir    string
}

func NewRouter(e *echo.Echo, authHandler *handler.AuthHandler, astrologerHandler *handler.AstrologerHandler, authMiddleware middleware.AuthMiddleware) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Astrologers:    astrologerHandler,
		AuthMiddleware: authMiddleware,
		SignupRate:     middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.POST("/auth/signup", r.Auth.Signup, r.SignupRate.Middleware())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())

	astrologer := []echo.MiddlewareFunc{r.AuthMiddleware.RequireAuth, middleware.RequireRole(entity.RoleAstrologer)}
	admin := []echo.MiddlewareFunc{r.AuthMiddleware.RequireAuth, middleware.RequireRole(entity.RoleAdmin)}

	e.GET("/astrologers", r.Astrologers.List)
	e.POST("/astrologers/me", r.Astrologers.UpsertMe, astrologer...)
	e.POST("/astrologers/me/certificate", r.Astrologers.UploadCertificate, astrologer...)
	e.POST("/astrologers/me/status", r.Astrologers.SetStatus, astrologer...)
	e.POST("/astrologers/admin/approve/:id", r.Astrologers.Approve, admin...)
	e.GET("/astrologers/:id", r.Astrologers.Get)
	e.GET("/astrologers/:id/status", r.Astrologers.Status)

	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}
	if r.UploadsPrefix != "" && r.UploadsDir != "" {
		e.Static(r.UploadsPrefix, r.UploadsDir)
	}
}
