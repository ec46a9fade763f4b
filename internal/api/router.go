package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/devjourney/blog-api/docs"
	"github.com/devjourney/blog-api/internal/api/handler"
	"github.com/devjourney/blog-api/internal/api/middleware"
	"github.com/devjourney/blog-api/internal/core/domain"
	"github.com/devjourney/blog-api/internal/core/ports"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Blogs       ports.BlogService
	Comments    ports.CommentService
	Likes       ports.LikeService
	Subscribers ports.SubscriberService
	Jobs        ports.JobAdmin
}

// Deps are the collaborators the router needs besides the services.
type Deps struct {
	Services
	Tokens  ports.TokenVerifier
	Roles   ports.UserFinder
	Limiter ports.RateLimiter
	Health  []handler.DependencyCheck
}

// Options tune the HTTP surface.
type Options struct {
	Version      string
	AllowOrigins []string
	Cookie       handler.CookieConfig
	Paging       handler.Paging
	RateLimit    int
	RateWindow   time.Duration
	Logger       zerolog.Logger
	// Registerer receives the HTTP request metrics. Defaults to the
	// Prometheus default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     allowOrigins(opts.AllowOrigins),
		AllowCredentials: len(opts.AllowOrigins) > 0,
	}))
	e.Use(echomiddleware.BodyLimit("3M"))
	e.Use(echomiddleware.Gzip())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "devjourney",
		Registerer: opts.Registerer,
	}))

	// --- Probes, metrics and docs (no auth required) ---
	health := handler.NewHealthHandler(deps.Health...)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authn := middleware.Authenticate(deps.Tokens)
	anyRole := middleware.Authorize(deps.Roles, domain.RoleAdmin, domain.RoleUser)
	adminOnly := middleware.Authorize(deps.Roles, domain.RoleAdmin)

	v1 := e.Group("/api/v1")
	v1.GET("", handler.Status(opts.Version, time.Now()))

	// --- Auth ---
	authH := handler.NewAuthHandler(deps.Auth, opts.Cookie)
	auth := v1.Group("/auth")
	auth.POST("/register", authH.Register, middleware.RateLimit(deps.Limiter, "register", opts.RateLimit, opts.RateWindow, opts.Logger))
	auth.POST("/login", authH.Login, middleware.RateLimit(deps.Limiter, "login", opts.RateLimit, opts.RateWindow, opts.Logger))
	auth.POST("/refresh-token", authH.Refresh)
	auth.POST("/logout", authH.Logout, authn)

	// --- Users ---
	userH := handler.NewUserHandler(deps.Users, opts.Paging)
	users := v1.Group("/users", authn)
	users.GET("/current", userH.GetCurrent, anyRole)
	users.PUT("/current", userH.UpdateCurrent, anyRole)
	users.DELETE("/current", userH.DeleteCurrent, anyRole)
	users.GET("", userH.List, adminOnly)
	users.GET("/:userId", userH.Get, adminOnly)
	users.DELETE("/:userId", userH.Delete, adminOnly)

	// --- Blogs ---
	blogH := handler.NewBlogHandler(deps.Blogs, opts.Paging)
	blogs := v1.Group("/blogs", authn)
	blogs.POST("", blogH.Create, adminOnly)
	blogs.GET("", blogH.List, anyRole)
	blogs.GET("/user/:userId", blogH.ListByUser, anyRole)
	blogs.GET("/:slug", blogH.GetBySlug, anyRole)
	blogs.PUT("/:blogId", blogH.Update, adminOnly)
	blogs.DELETE("/:blogId", blogH.Delete, adminOnly)

	// --- Likes ---
	likeH := handler.NewLikeHandler(deps.Likes)
	likes := v1.Group("/likes", authn, anyRole)
	likes.POST("/blog/:blogId", likeH.Like)
	likes.DELETE("/blog/:blogId", likeH.Unlike)

	// --- Comments ---
	commentH := handler.NewCommentHandler(deps.Comments, opts.Paging)
	comments := v1.Group("/comments", authn)
	comments.POST("/blog/:blogId", commentH.Create, anyRole)
	comments.GET("/blog/:blogId", commentH.ListByBlog, anyRole)
	comments.GET("", commentH.List, adminOnly)
	comments.DELETE("/:commentId", commentH.Delete, anyRole)

	// --- Subscribers ---
	subH := handler.NewSubscriberHandler(deps.Subscribers)
	v1.POST("/subscribers", subH.Subscribe)

	// --- Jobs ---
	jobH := handler.NewJobHandler(deps.Jobs, opts.Paging)
	jobs := v1.Group("/jobs", authn, adminOnly)
	jobs.GET("/failed", jobH.ListFailed)
	jobs.POST("/:jobId/retry", jobH.Retry)

	return e
}

func allowOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
