// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shelfswap/internal/config"
	"shelfswap/internal/featureflags"
	"shelfswap/internal/middleware"
	"shelfswap/internal/models"
	"shelfswap/internal/notifications"
	"shelfswap/internal/repository"
	"shelfswap/internal/service"
	"shelfswap/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// globalRateLimit is the per-IP request budget per minute in production.
const globalRateLimit = 300

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *repository.Store
	redis          *redis.Client
	objects        storage.ObjectStore
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier

	userService         *service.UserService
	collectibleService  *service.CollectibleService
	tradeService        *service.TradeService
	chatService         *service.ChatService
	postService         *service.PostService
	commentService      *service.CommentService
	socialService       *service.SocialService
	notificationService *service.NotificationService
	mediaService        *service.MediaService
}

// NewServerWithDeps creates a Server on already-initialized dependencies.
// redisClient may be nil; caching, rate limiting and realtime push are then disabled.
func NewServerWithDeps(cfg *config.Config, store *repository.Store, redisClient *redis.Client, objects storage.ObjectStore) (*Server, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("server requires a config and a store")
	}
	if objects == nil {
		local, err := storage.NewLocalStore(cfg.UploadDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, err
		}
		objects = local
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifier := notifications.NewNotifier(redisClient)
	notif := service.NewNotificationService(store.Notifications, store.Users, notifier, flags)

	s := &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		objects:        objects,
		promMiddleware: middleware.InitMetrics("shelfswap-api"),
		featureFlags:   flags,
		notifier:       notifier,

		userService:         service.NewUserService(store.Users, flags),
		collectibleService:  service.NewCollectibleService(store.Collectibles, store.Users),
		tradeService:        service.NewTradeService(store, notif),
		chatService:         service.NewChatService(store.Trades, store.Chat),
		postService:         service.NewPostService(store.Posts, store.Users, notif),
		commentService:      service.NewCommentService(store.Comments, store.Posts, notif),
		socialService:       service.NewSocialService(store, notif),
		notificationService: notif,
		mediaService:        service.NewMediaService(objects, store.Users, flags, cfg.UploadMaxBytes()),
	}
	return s, nil
}

// App builds the Fiber application with middleware and routes. It is
// built once and reused.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "shelfswap API",
		BodyLimit: int(s.config.UploadMaxBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected browser requests still get CORS headers.
	origins := strings.TrimSpace(s.config.AllowedOrigins)
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        globalRateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application. Static segments are
// registered before parameterized ones.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/media/*", s.ServeMedia)

	auth := s.AuthRequired()
	api := app.Group("/api")
	api.Get("/feature-flags", s.GetFeatureFlags)

	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/logout", auth, s.Logout)
	authGroup.Get("/me", auth, s.Me)

	users := api.Group("/users")
	users.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "user_search"), s.SearchUsers)
	users.Get("/recommended", auth, s.GetRecommendedUsers)
	users.Patch("/me", auth, s.UpdateMyProfile)
	users.Post("/:idOrUsername/follow", auth, middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.FollowUser)
	users.Delete("/:idOrUsername/follow", auth, s.UnfollowUser)
	users.Get("/:idOrUsername/followers", s.GetFollowers)
	users.Get("/:idOrUsername/following", s.GetFollowing)
	users.Get("/:idOrUsername", s.GetUserProfile)

	collectibles := api.Group("/collectibles")
	collectibles.Get("/", s.ListCollectibles)
	collectibles.Post("/", auth, s.CreateCollectible)
	collectibles.Get("/:id", s.GetCollectible)
	collectibles.Patch("/:id", auth, s.UpdateCollectible)
	collectibles.Delete("/:id", auth, s.DeleteCollectible)

	trades := api.Group("/trades", auth)
	trades.Get("/", s.ListTrades)
	trades.Post("/", middleware.RateLimit(s.redis, 10, time.Minute, "propose_trade"), s.ProposeTrade)
	trades.Get("/:id/messages", s.GetTradeMessages)
	trades.Post("/:id/messages", middleware.RateLimit(s.redis, 15, time.Minute, "send_chat"), s.SendTradeMessage)
	trades.Patch("/:tradeId/messages/:messageId/pin", s.PinTradeMessage)
	trades.Patch("/:tradeId/messages/:messageId/unpin", s.UnpinTradeMessage)
	trades.Patch("/:id/status", s.UpdateTradeStatus)
	trades.Get("/:id", s.GetTrade)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", auth, middleware.RateLimit(s.redis, 5, time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/like", auth, s.LikePost)
	posts.Delete("/:id/like", auth, s.UnlikePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", auth, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", auth, s.DeletePost)

	api.Delete("/comments/:id", auth, s.DeleteComment)

	notifs := api.Group("/notifications", auth)
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/unread-count", s.GetUnreadCount)
	notifs.Patch("/read-all", s.MarkAllNotificationsRead)
	notifs.Patch("/:id/read", s.MarkNotificationRead)
	notifs.Delete("/:id", s.DeleteNotification)

	api.Post("/uploads/:kind", auth, middleware.RateLimit(s.redis, 20, time.Minute, "upload"), s.UploadImage)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: an
// unconfigured client reports "disabled", an unreachable one fails the probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.store.Backend == config.StoreBackendMemory {
		dbStatus = "memory"
	} else if err := s.store.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start serves HTTP until the listener closes. When Redis is available the
// notification channels are drained into the log for delivery auditing.
func (s *Server) Start(ctx context.Context) error {
	app := s.App()

	if s.notifier.Enabled() {
		if err := s.notifier.StartPatternSubscriber(ctx, func(channel, payload string) {
			middleware.Logger.DebugContext(ctx, "notification published",
				slog.String("channel", channel),
				slog.Int("bytes", len(payload)))
		}); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to subscribe to notification channels",
				slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully stops the HTTP server and releases Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	middleware.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}
