package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/inboundemail/inbound-core/internal/config"
	"github.com/inboundemail/inbound-core/internal/engine"
	"github.com/inboundemail/inbound-core/internal/entitlement"
	"github.com/inboundemail/inbound-core/internal/handler"
	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
	"github.com/inboundemail/inbound-core/internal/server"
	"github.com/inboundemail/inbound-core/internal/server/middleware"
	"github.com/inboundemail/inbound-core/internal/service"
	"github.com/inboundemail/inbound-core/internal/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := ""

	switch os.Args[1] {
	case "serve":
		serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
		serveCmd.StringVar(&configPath, "config", "config/inbound-core.yaml", "config file path")
		serveCmd.Parse(os.Args[2:])
		runServe(configPath)
	case "migrate":
		migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
		migrateCmd.StringVar(&configPath, "config", "config/inbound-core.yaml", "config file path")
		up := migrateCmd.Bool("up", false, "run migrations up")
		down := migrateCmd.Bool("down", false, "roll back last migration")
		migrateCmd.Parse(os.Args[2:])
		runMigrate(configPath, *up, *down)
	case "setup":
		setupCmd := flag.NewFlagSet("setup", flag.ExitOnError)
		setupCmd.StringVar(&configPath, "config", "config/inbound-core.yaml", "config file path")
		setupCmd.Parse(os.Args[2:])
		runSetup(configPath)
	case "version":
		fmt.Printf("inbound-core %s\n", Version)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("inbound-core - programmable inbound email infrastructure")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  inbound-core serve   [--config path]             Start API server and workers")
	fmt.Println("  inbound-core migrate [--config path] --up/--down Run database migrations")
	fmt.Println("  inbound-core setup   [--config path]             First-run setup (admin user)")
	fmt.Println("  inbound-core version                             Print version")
}

func runServe(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting inbound-core", "version", Version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		logger.Error("invalid database config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("connecting to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("pinging database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to redis")

	if cfg.Database.AutoMigrate {
		logger.Info("running auto-migrations")
		m, err := migrate.New("file://db/migrations", dsnToURL(cfg.Database))
		if err != nil {
			logger.Error("initializing migrations", "error", err)
			os.Exit(1)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			logger.Error("running migrations", "error", err)
			os.Exit(1)
		}
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Error("closing migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Error("closing migration db", "error", dbErr)
		}
		logger.Info("migrations complete")
	}

	// Cloud mailer client: inbound/outbound transport + receipt-rule sync.
	mailerClient, err := mailer.New(ctx, cfg.Mailer)
	if err != nil {
		logger.Error("initializing mailer client", "error", err)
		os.Exit(1)
	}

	entitlementClient := entitlement.New(cfg.Entitlement.BaseURL, cfg.Entitlement.APIKey, cfg.Entitlement.Timeout)
	dnsResolver := engine.NewDNSResolver(cfg.DNS.Resolver, cfg.DNS.Timeout)
	mimeParser := engine.NewMimeParser()

	// Repositories
	users := postgres.NewUserRepository(pool)
	apiKeys := postgres.NewAPIKeyRepository(pool)
	domains := postgres.NewDomainRepository(pool)
	dnsRecords := postgres.NewDomainDNSRecordRepository(pool)
	emailAddresses := postgres.NewEmailAddressRepository(pool)
	endpoints := postgres.NewEndpointRepository(pool)
	emailRecords := postgres.NewEmailRecordRepository(pool)
	parsedEmails := postgres.NewParsedEmailRepository(pool)
	sentMessages := postgres.NewSentMessageRepository(pool)
	ingestionEvents := postgres.NewIngestionEventRepository(pool)
	deliveryAttempts := postgres.NewDeliveryAttemptRepository(pool)
	blockedSenders := postgres.NewBlockedSenderRepository(pool)

	// Collaborator services
	ownerResolver := service.NewOwnerResolver(domains, logger)
	quota := service.NewQuotaGate(entitlementClient)
	blocklist := service.NewBlocklistChecker(blockedSenders, logger)
	webhookExecutor := service.NewWebhookExecutor(deliveryAttempts, endpoints, cfg.Webhooks.DefaultTimeout)
	forwardExecutor := service.NewForwardExecutor(mailerClient, deliveryAttempts, endpoints)
	router := service.NewRouter(emailAddresses, domains, endpoints, webhookExecutor, forwardExecutor)
	receiptRules := service.NewReceiptRuleManager(pool, mailerClient, domains, emailAddresses, endpoints)

	svc := &service.Services{
		Auth:         service.NewAuthService(users, cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.BcryptCost),
		APIKey:       service.NewAPIKeyService(apiKeys, cfg.Auth.APIKeyPrefix),
		Domain:       service.NewDomainService(domains, dnsRecords, endpoints, receiptRules, dnsResolver, cfg.Mailer.ForwarderSender, logger),
		EmailAddress: service.NewEmailAddressService(emailAddresses, domains, endpoints, receiptRules, logger),
		Endpoint:     service.NewEndpointService(endpoints, emailAddresses, domains, webhookExecutor),
		EmailRecord:  service.NewEmailRecordService(emailRecords, parsedEmails),
		Sender:       service.NewSender(sentMessages, emailRecords, parsedEmails, domains, mailerClient, quota, cfg.Sender),
		Thread:       service.NewThreadService(emailRecords, sentMessages, parsedEmails),
		Ingestor:     service.NewIngestor(ingestionEvents, emailRecords, parsedEmails, ownerResolver, quota, blocklist, router, mimeParser, mailerClient, logger),

		OwnerResolver: ownerResolver,
		Quota:         quota,
		Blocklist:     blocklist,
		Router:        router,
		Webhooks:      webhookExecutor,
		Forward:       forwardExecutor,
		ReceiptRules:  receiptRules,
	}

	handlers := handler.NewHandlers(svc)
	healthHandler := handler.NewHealthHandler(pool, handler.PingFunc(func(pingCtx context.Context) error {
		return rdb.Ping(pingCtx).Err()
	}))

	apiKeyLookup := middleware.APIKeyLookup(func(lookupCtx context.Context, keyHash string) (*middleware.AuthContext, error) {
		key, err := apiKeys.GetByHash(lookupCtx, keyHash)
		if err != nil {
			return nil, err
		}
		return &middleware.AuthContext{OwnerUser: key.OwnerUser, AuthMethod: "api_key"}, nil
	})
	apiKeyLastUsed := middleware.APIKeyLastUsedUpdate(func(updateCtx context.Context, keyHash string, usedAt time.Time) {
		if err := apiKeys.UpdateLastUsed(updateCtx, keyHash, usedAt); err != nil {
			logger.Warn("updating api key last_used_at", "error", err)
		}
	})

	httpServer := server.New(server.Config{
		Addr:          cfg.Server.HTTPAddr,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		JWTSecret:     cfg.Auth.JWTSecret,
		APIKeyPrefix:  cfg.Auth.APIKeyPrefix,
		ServiceAPIKey: cfg.Auth.ServiceAPIKey,
		CORSOrigins:   cfg.Server.CORSOrigins,
		RateLimitCfg: middleware.RateLimitConfig{
			Enabled:    cfg.RateLimit.Enabled,
			DefaultRPS: cfg.RateLimit.DefaultRPS,
			SendRPS:    cfg.RateLimit.SendRPS,
			BatchRPS:   cfg.RateLimit.BatchRPS,
			Window:     cfg.RateLimit.Window,
		},
		Redis:          rdb,
		APIKeyLookup:   apiKeyLookup,
		APIKeyLastUsed: apiKeyLastUsed,
		Handlers:       handlers,
		Health:         healthHandler,
		Logger:         logger,
	})

	// Asynq worker server: webhook-delivery retry + receipt-rule re-convergence
	// See internal/worker for task definitions.
	asynqSrv := worker.NewServer(worker.Config{
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		Concurrency:   cfg.Workers.Concurrency,
		Queues:        cfg.Workers.Queues,
	}, logger)

	mux := worker.NewMux(worker.Handlers{
		WebhookDeliver:  worker.NewWebhookDeliverHandler(emailRecords, parsedEmails, endpoints, webhookExecutor, logger),
		ReceiptRuleSync: worker.NewReceiptRuleSyncHandler(domains, receiptRules, logger),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting worker server", "concurrency", cfg.Workers.Concurrency)
		if err := asynqSrv.Run(mux); err != nil {
			return fmt.Errorf("asynq worker: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		healthHandler.SetReady(false)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown", "error", err)
		}
		asynqSrv.Shutdown()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("inbound-core stopped")
}

func runMigrate(configPath string, up, down bool) {
	if !up && !down {
		fmt.Fprintln(os.Stderr, "Error: specify --up or --down")
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	m, err := migrate.New("file://db/migrations", dsnToURL(cfg.Database))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing migrations: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if up {
		fmt.Println("Running migrations up...")
		if err := m.Up(); err != nil {
			if err == migrate.ErrNoChange {
				fmt.Println("No new migrations to apply.")
				return
			}
			fmt.Fprintf(os.Stderr, "Error running migrations up: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied successfully.")
	}

	if down {
		fmt.Println("Rolling back last migration...")
		if err := m.Steps(-1); err != nil {
			fmt.Fprintf(os.Stderr, "Error rolling back migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migration rolled back successfully.")
	}
}

// runSetup creates the first admin User. User is the sole top-level principal —
// there is no separate team/org to provision.
func runSetup(configPath string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinging database: %v\n", err)
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Admin name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Admin email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Admin password: ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)

	bcryptCost := cfg.Auth.BcryptCost
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	userID := uuid.New()
	now := time.Now()

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, true, $5, $5)`,
		userID, email, string(hash), name, now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating user: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Admin user created successfully!")
	fmt.Printf("  User ID: %s\n", userID)
	fmt.Printf("  Email:   %s\n", email)
	fmt.Println()
	fmt.Println("Setup complete! You can now start the server with: inbound-core serve")
}

// setupLogger creates a slog.Logger based on the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var logHandler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		logHandler = slog.NewTextHandler(os.Stdout, opts)
	default:
		logHandler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(logHandler)
}

// dsnToURL converts the DatabaseConfig into a postgres:// connection URL
// suitable for golang-migrate.
func dsnToURL(db config.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, db.Password, db.Host, db.Port, db.DBName, db.SSLMode,
	)
}
