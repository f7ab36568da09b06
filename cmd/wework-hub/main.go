package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapterhandler "wework-hub/internal/adapter/handler"
	"wework-hub/internal/adapter/gateway"
	"wework-hub/internal/domain"
	infracache "wework-hub/internal/infrastructure/cache"
	"wework-hub/internal/infrastructure/cookies"
	"wework-hub/internal/infrastructure/drafts"
	"wework-hub/internal/infrastructure/resilience"
	infratoken "wework-hub/internal/infrastructure/token"
	"wework-hub/internal/usecase"

	"wework-hub/config"
	appmiddleware "wework-hub/middleware"
	"wework-hub/utils/logger"
	"wework-hub/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const visitorIssuer = "wework-hub"

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("ignoring .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	// Initialize structured logger
	log := logger.Init(logger.Options{Level: os.Getenv("LOG_LEVEL"), EnableOTel: otelCfg.Enabled})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	log.InfoContext(ctx, "configuration loaded",
		"api_base_url", cfg.APIBaseURL,
		"port", cfg.Port,
		"draft_store", cfg.DraftStore,
		"jar_store", cfg.JarStore,
		"visitor_capacity", cfg.VisitorCapacity,
		"bootstrap_wait", cfg.BootstrapWait)

	// Infrastructure
	breaker := resilience.NewCircuitBreaker(resilience.Config{
		FailureThreshold: cfg.BreakerFailures,
		SuccessThreshold: resilience.DefaultConfig().SuccessThreshold,
		OpenTimeout:      cfg.BreakerOpenFor,
	})
	apiGateway, err := gateway.NewAPIGateway(cfg.APIBaseURL, cfg.APITimeout, breaker)
	if err != nil {
		log.ErrorContext(ctx, "invalid job board API configuration", "error", err)
		os.Exit(1)
	}

	var (
		draftStore   domain.DraftStore
		healthChecks []adapterhandler.HealthCheck
		closeDrafts  = func() error { return nil }
	)
	switch cfg.DraftStore {
	case config.StoreRedis:
		rs, err := drafts.NewRedisStoreWithURL(cfg.RedisURL, cfg.DraftTTL)
		if err != nil {
			log.ErrorContext(ctx, "failed to configure redis draft store", "error", err)
			os.Exit(1)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rs.Ping(pingCtx); err != nil {
			log.WarnContext(ctx, "redis not reachable yet, drafts degrade until it is", "error", err)
		}
		cancel()
		draftStore = rs
		healthChecks = append(healthChecks, adapterhandler.HealthCheck{Name: "redis", Check: rs.Ping})
		closeDrafts = rs.Close
	default:
		draftStore = drafts.NewMemoryStore(cfg.DraftTTL)
	}

	var (
		cookieStore domain.CookieStore
		closeJar    = func() error { return nil }
	)
	switch cfg.JarStore {
	case config.StoreRedis:
		cs, err := cookies.NewRedisStoreWithURL(cfg.RedisURL, cfg.VisitorTTL)
		if err != nil {
			log.ErrorContext(ctx, "failed to configure redis cookie store", "error", err)
			os.Exit(1)
		}
		cookieStore = cs
		healthChecks = append(healthChecks, adapterhandler.HealthCheck{Name: "redis_cookies", Check: cs.Ping})
		closeJar = cs.Close
	default:
		cookieStore = cookies.NewMemoryStore(cfg.VisitorTTL)
	}
	apiGateway.UseCookieStore(cookieStore, log)

	visitorCache := infracache.NewExpiringCache[*usecase.Visitor](cfg.VisitorCapacity, cfg.VisitorTTL,
		func(_ string, v *usecase.Visitor) { v.Close() })
	tokens := infratoken.NewVisitorTokenIssuer(infratoken.VisitorTokenConfig{
		Secret: cfg.VisitorSecret,
		Issuer: visitorIssuer,
		TTL:    cfg.VisitorTTL,
	})
	csrfGenerator := infratoken.NewHMACCSRFGenerator(cfg.CSRFSecret)

	// Usecases
	visitors := usecase.NewVisitors(visitorCache, func(visitorID string) domain.SessionTransport {
		return apiGateway.NewVisitorClient(visitorID)
	}, usecase.VisitorsConfig{
		ProbeOrder:       cfg.ProbeOrder,
		BootstrapTimeout: cfg.BootstrapTimeout,
		Drafts:           draftStore,
		KeepAlive:        cookieStore.Touch,
	}, log)

	// Handlers
	renderer, err := adapterhandler.NewRenderer()
	if err != nil {
		log.ErrorContext(ctx, "failed to parse templates", "error", err)
		os.Exit(1)
	}
	validator := adapterhandler.NewFormValidator()
	handlers := adapterhandler.Handlers{
		Home:      adapterhandler.NewHomeHandler(cfg.Routes),
		Auth:      adapterhandler.NewAuthHandler(cfg.Routes, validator, draftStore, log),
		Dashboard: adapterhandler.NewDashboardHandler(cfg.Routes, validator, log),
		Session:   adapterhandler.NewSessionHandler(cfg.BootstrapTimeout),
		Health:    adapterhandler.NewHealthHandler(visitors.Len, healthChecks...),
	}
	guards := appmiddleware.NewGuards(appmiddleware.GuardConfig{
		Routes:        cfg.Routes,
		BootstrapWait: cfg.BootstrapWait,
		Logger:        log,
	})

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = adapterhandler.NewHTTPErrorHandler(cfg.Routes, log)

	skipHealth := func(c echo.Context) bool {
		return c.Request().URL.Path == adapterhandler.HealthPath
	}

	// Security middleware
	e.Use(appmiddleware.SecurityHeaders(cfg.CookieSecure))

	// Request IDs flow into every log record through the request context
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		},
	}))

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName, otelecho.WithSkipper(skipHealth)))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     skipHealth,
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			if v.Error == nil {
				log.InfoContext(rctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				log.ErrorContext(rctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Visitor identity and CSRF for every page and API route
	e.Use(appmiddleware.Visitor(appmiddleware.VisitorConfig{
		Tokens:       tokens,
		Visitors:     visitors,
		CookieTTL:    cfg.VisitorTTL,
		CookieSecure: cfg.CookieSecure,
		Skipper:      skipHealth,
		Logger:       log,
	}))
	e.Use(appmiddleware.CSRF(csrfGenerator, skipHealth, log))

	// Sign-in and sign-up posts are rate limited per client IP
	authRL := appmiddleware.NewRateLimiter(appmiddleware.RateLimitConfig{
		Rate:    rate.Limit(cfg.AuthRateLimit),
		Burst:   cfg.AuthRateBurst,
		Methods: []string{http.MethodPost},
	})

	adapterhandler.RegisterRoutes(e, cfg.Routes, handlers, guards, authRL.Middleware())

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	log.InfoContext(ctx, "starting wework-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		authRL.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		visitorCache.Purge()
		return errors.Join(err, closeDrafts(), closeJar())
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
