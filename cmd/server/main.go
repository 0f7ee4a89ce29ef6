package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accessapp "github.com/crm/backend/internal/application/access"
	activityapp "github.com/crm/backend/internal/application/activity"
	identityapp "github.com/crm/backend/internal/application/identity"
	marketingapp "github.com/crm/backend/internal/application/marketing"
	partnerapp "github.com/crm/backend/internal/application/partner"
	salesapp "github.com/crm/backend/internal/application/sales"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/event"
	"github.com/crm/backend/internal/infrastructure/idempotency"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/crm/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			CRM Backend API
//	@version		1.0
//	@description	Multi-tenant CRM backend: identity, tenant access and lead conversion
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/crm/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@securityDefinitions.apikey	AgentKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Agent API key issued by a company member

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry: traces, metrics, logs, profiles
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdown(log, "tracer provider", tracerProvider.Shutdown)

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer shutdown(log, "meter provider", meterProvider.Shutdown)

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer shutdown(log, "logger provider", loggerProvider.Shutdown)
	log = telemetry.BridgeLogger(log, cfg.Telemetry.ServiceName, loggerProvider, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.PyroscopeAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.PyroscopeBasicUser,
		BasicAuthPassword: cfg.Telemetry.PyroscopeBasicPass,
		ProfileTypes:      cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()
	if profiler.IsEnabled() && cfg.Telemetry.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	// Database with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	poolMetrics, err := db.RegisterPoolMetrics(meterProvider.Meter("crm-backend/database"))
	if err != nil {
		log.Fatal("Failed to register database pool metrics", zap.Error(err))
	}
	defer func() { _ = poolMetrics.Unregister() }()
	log.Info("Database connected successfully")

	healthChecks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}

	// Token blacklist and idempotency store: Redis when configured, in-memory otherwise
	var blacklist auth.TokenBlacklist
	var idempotencyStore middleware.IdempotencyStore
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		idempotencyStore = idempotency.NewRedisStore(redisClient, "")
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		log.Info("Token blacklist backed by redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		memoryStore := idempotency.NewMemoryStore(5 * time.Minute)
		defer func() { _ = memoryStore.Close() }()
		idempotencyStore = memoryStore
		log.Warn("Redis not configured, token blacklist kept in memory")
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	membershipRepo := persistence.NewGormMembershipRepository(db.DB)
	agentKeyRepo := persistence.NewGormAgentKeyRepository(db.DB)
	leadRepo := persistence.NewGormLeadRepository(db.DB)
	leadSourceRepo := persistence.NewGormLeadSourceRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	opportunityRepo := persistence.NewGormOpportunityRepository(db.DB)
	stageRepo := persistence.NewGormPipelineStageRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Tenant access guard over every CRM entity kind
	guard := accessapp.NewRepositoryGuard(accessapp.Repositories{
		Customers:      customerRepo,
		Leads:          leadRepo,
		Opportunities:  opportunityRepo,
		PipelineStages: stageRepo,
		LeadSources:    leadSourceRepo,
	}, log)

	defaultCurrency, err := valueobject.ParseCurrency(cfg.CRM.DefaultCurrency, valueobject.DefaultCurrency)
	if err != nil {
		log.Fatal("Invalid default currency", zap.String("currency", cfg.CRM.DefaultCurrency), zap.Error(err))
	}

	conversionMetrics, err := telemetry.NewConversionMetrics(meterProvider.Meter("crm-backend/marketing"))
	if err != nil {
		log.Fatal("Failed to create conversion metrics", zap.Error(err))
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, membershipRepo, jwtService, blacklist, identityapp.AuthServiceConfig{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockDuration:     cfg.Auth.LockDuration,
	}, log)
	companyService := identityapp.NewCompanyService(userRepo, companyRepo, membershipRepo, eventBus, log)
	resolver := identityapp.NewResolver(userRepo, membershipRepo, log)
	agentKeyService := identityapp.NewAgentKeyService(agentKeyRepo, log)

	leadService := marketingapp.NewLeadService(leadRepo, guard, log)
	leadService.SetEventPublisher(eventBus)
	leadService.SetMetrics(conversionMetrics)
	leadSourceService := marketingapp.NewLeadSourceService(leadSourceRepo, log)
	conversionService := marketingapp.NewConversionService(leadRepo, txScope, guard, marketingapp.ConversionConfig{
		DefaultCurrency:    defaultCurrency,
		DefaultProbability: cfg.CRM.DefaultProbability,
	}, log)
	conversionService.SetEventPublisher(eventBus)
	conversionService.SetMetrics(conversionMetrics)

	customerService := partnerapp.NewCustomerService(customerRepo, guard, log)
	customerService.SetEventPublisher(eventBus)

	opportunityService := salesapp.NewOpportunityService(opportunityRepo, stageRepo, guard, defaultCurrency, log)
	opportunityService.SetEventPublisher(eventBus)
	stageService := salesapp.NewPipelineStageService(stageRepo, log)

	timelineService := activityapp.NewTimelineService(activityRepo, guard, cfg.CRM.TimelineLimit)

	// Event handlers
	companyCreatedHandler := salesapp.NewCompanyCreatedHandler(stageService)
	eventBus.Subscribe(companyCreatedHandler)
	timelineRecorder := activityapp.NewTimelineRecorder(activityRepo, log)
	eventBus.Subscribe(timelineRecorder)

	log.Info("Event handlers registered",
		zap.Strings("company_created_events", companyCreatedHandler.EventTypes()),
		zap.Strings("timeline_events", timelineRecorder.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// HTTP handlers
	handlers := router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Company:       handler.NewCompanyHandler(companyService),
		Lead:          handler.NewLeadHandler(leadService, conversionService),
		LeadSource:    handler.NewLeadSourceHandler(leadSourceService),
		Customer:      handler.NewCustomerHandler(customerService),
		Opportunity:   handler.NewOpportunityHandler(opportunityService),
		PipelineStage: handler.NewPipelineStageHandler(stageService),
		AgentKey:      handler.NewAgentKeyHandler(agentKeyService),
		Activity:      handler.NewActivityHandler(timelineService),
		System:        handler.NewSystemHandler(version, healthChecks),
	}

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Start the server span
	// 3. Recovery - Catch panics
	// 4. Logger - Log requests
	// 5. Metrics - Count requests and latency
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       meterProvider.IsEnabled(),
		Logger:        log,
	}))
	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.App.IsProduction()
	engine.Use(middleware.SecureWithConfig(securityConfig))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", middleware.IdempotentReplayedHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Caller resolution: credential -> claims -> principal
	authenticate := middleware.Authenticate(middleware.AuthConfig{
		Tokens: authService,
		Agents: agentKeyService,
		Logger: log,
	})
	guards := router.Guards{
		Authenticated: []gin.HandlerFunc{
			authenticate,
			middleware.ResolvePrincipal(resolver, log),
			middleware.TracingAttributeInjector(),
		},
		Tenant: []gin.HandlerFunc{
			middleware.RequireTenant(),
			middleware.Idempotency(middleware.IdempotencyConfig{
				Store:  idempotencyStore,
				TTL:    cfg.HTTP.IdempotencyTTL,
				Logger: log,
			}),
			middleware.ProfilingWithConfig(middleware.ProfilingConfig{
				Enabled: profiler.IsEnabled(),
			}),
		},
		Credentials: middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)),
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterCRM(r, handlers, guards).Setup()

	// Health check outside API versioning for load balancers
	engine.GET("/health", handlers.System.Health)

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, authenticate),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// shutdown runs a telemetry shutdown hook and logs its failure
func shutdown(log *zap.Logger, name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Error("Error shutting down "+name, zap.Error(err))
	}
}
