package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prperemyshlev/grocery-store/internal/config"
	"github.com/prperemyshlev/grocery-store/internal/domain"
	"github.com/prperemyshlev/grocery-store/internal/handler"
	"github.com/prperemyshlev/grocery-store/internal/oauth"
	"github.com/prperemyshlev/grocery-store/internal/repository"
	"github.com/prperemyshlev/grocery-store/internal/service"
	"github.com/prperemyshlev/grocery-store/internal/utils"
	"github.com/prperemyshlev/grocery-store/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
	tokens repository.TokenRepository
}

// handlers groups everything setupRoutes mounts.
type handlers struct {
	auth     *handler.AuthHandler
	oauth    *handler.OAuthHandler
	products *handler.ProductHandler
	orders   *handler.OrderHandler
	users    *handler.UserHandler
	health   *HealthChecker

	authService service.AuthService
	rateLimiter *service.RateLimiter
	metrics     http.Handler
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := utils.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	metrics, err := service.NewMetrics(infra.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	var cache service.ListingCache = service.NoopListingCache{}
	if cfg.Catalog.CacheTTL.Duration > 0 {
		cache = service.NewRedisListingCache(infra.Redis(), cfg.Catalog.CacheTTL.Duration, metrics, logger)
	}

	var publisher service.EventPublisher = service.NoopPublisher{}
	if b := infra.Broker(); b != nil {
		publisher = service.NewQueuePublisher(b, cfg.Events.OrderQueue)
	}

	authService := service.NewAuthService(repos, repos, jwtManager, metrics, logger, service.AuthOptions{
		BCryptCost:          cfg.Security.BCryptCost,
		AllowedEmailDomains: cfg.Security.AllowedEmailDomains,
	})
	userService := service.NewUserService(repos, repos, cfg.Security.BCryptCost, logger)
	catalogService := service.NewCatalogService(repos, repos, cache, logger)
	orderService := service.NewOrderService(repos, repos, cache, publisher, metrics, logger)

	var flow *service.OAuthFlow
	if cfg.Google.Enabled() {
		provider := oauth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.URLs.GoogleCallbackURL())
		flow = service.NewOAuthFlow(provider, service.NewRedisStateStore(infra.Redis()), authService)
	} else {
		logger.Info("Google login disabled: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	cookies := handler.CookieConfig{Secure: cfg.Security.CookieSecure}

	h := handlers{
		auth:        handler.NewAuthHandler(authService, userService, cookies, logger),
		oauth:       handler.NewOAuthHandler(flow, cfg.URLs.FrontendURL, cookies, logger),
		products:    handler.NewProductHandler(catalogService, logger),
		orders:      handler.NewOrderHandler(orderService, logger),
		users:       handler.NewUserHandler(userService, logger),
		health:      NewHealthChecker(infra),
		authService: authService,
		rateLimiter: service.NewRateLimiter(infra.Redis()),
		metrics:     infra.MetricsHandler(),
	}

	router := gin.New()
	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	router.NoRoute(handler.NotFoundHandler)

	setupRoutes(router, cfg, logger, h)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
		tokens: repos.Token,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(router *gin.Engine, cfg *config.Config, logger *zap.Logger, h handlers) {
	router.GET("/metrics", observability.PrometheusHandler(h.metrics))
	router.GET("/health", h.health.Handler)

	requireAuth := handler.RequireAuth(h.authService, logger)
	rateLimit := handler.RateLimitMiddleware(
		h.rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.RouteIPKey,
		logger,
	)

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", rateLimit, h.auth.Register)
		auth.POST("/login", rateLimit, h.auth.Login)
		auth.POST("/refresh", h.auth.Refresh)
		auth.POST("/logout", h.auth.Logout)
		auth.GET("/me", handler.OptionalAuth(h.authService, logger), h.auth.Me)
		auth.PUT("/update", requireAuth, h.auth.UpdateProfile)
		auth.PUT("/change-password", requireAuth, h.auth.ChangePassword)
		auth.DELETE("/delete-account", requireAuth, h.auth.DeleteAccount)
		auth.GET("/google", h.oauth.Begin)
		auth.GET("/google/callback", h.oauth.Callback)
	}

	staff := handler.RequireStaff(logger)
	products := api.Group("/products")
	{
		products.GET("", h.products.List)
		products.GET("/categories", h.products.Categories)
		products.GET("/:id", h.products.Get)
		products.POST("/reduce-stock", requireAuth, h.products.ReduceStock)
		products.POST("", requireAuth, staff, h.products.Create)
		products.PUT("/:id", requireAuth, staff, h.products.Update)
		products.DELETE("/:id", requireAuth, staff, h.products.Delete)
	}

	orders := api.Group("/orders", requireAuth)
	{
		orders.GET("", h.orders.List)
		orders.GET("/my-orders", h.orders.Mine)
		orders.POST("", h.orders.Create)
		orders.DELETE("/:id", handler.RequireCapability(logger, domain.CapDeleteOrders), h.orders.Delete)
	}

	users := api.Group("/users", requireAuth, handler.RequireCapability(logger, domain.CapManageUsers))
	{
		users.GET("", h.users.List)
		users.GET("/:id", h.users.Get)
		users.PATCH("/:id", h.users.UpdateRole)
		users.DELETE("/:id", h.users.Delete)
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go service.RunTokenCleanup(cleanupCtx, a.tokens, a.config.Maintenance.CleanupInterval.Duration, a.infra.Logger())

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	stopCleanup()

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
