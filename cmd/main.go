package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/KrishnaRLolage/GoldShopManager/internal/config"
	"github.com/KrishnaRLolage/GoldShopManager/internal/db/migrate"
	"github.com/KrishnaRLolage/GoldShopManager/internal/handler"
	"github.com/KrishnaRLolage/GoldShopManager/internal/handler/middleware"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository/memory"
	"github.com/KrishnaRLolage/GoldShopManager/internal/repository/postgres"
	"github.com/KrishnaRLolage/GoldShopManager/internal/service"
	"github.com/KrishnaRLolage/GoldShopManager/internal/session"
	"github.com/KrishnaRLolage/GoldShopManager/internal/socket"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/blacklist"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/hash"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/jwt"
	"github.com/KrishnaRLolage/GoldShopManager/pkg/validator"
)

// repositories is the storage selected by STORAGE_DRIVER.
type repositories struct {
	users        repository.UserRepository
	inventory    repository.InventoryRepository
	customers    repository.CustomerRepository
	invoices     repository.InvoiceRepository
	pdfs         repository.PDFRepository
	goldSettings repository.GoldSettingsRepository
	ping         handler.ReadinessCheck
	close        func()
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	repos, err := initStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer repos.close()

	// Token revocation is optional; without Redis a logged-out cookie token
	// stays valid until it expires.
	var revoker service.TokenRevoker
	readiness := map[string]handler.ReadinessCheck{"storage": repos.ping}
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing Redis connection: %v", err)
			}
		}()

		tokenBlacklist := blacklist.NewTokenBlacklist(redisClient)
		revoker = tokenBlacklist
		readiness["redis"] = tokenBlacklist.Ping
		log.Println("✓ Token blacklist initialized (Redis)")
	} else {
		log.Println("ℹ Redis disabled, REST logout only clears the cookie (set REDIS_ENABLED=true to enable)")
	}

	validate := validator.NewValidator()

	tokenService, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.Issuer)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}
	log.Printf("✓ Token service initialized (HS256, ttl %s)", tokenService.TTL())

	authService := service.NewAuthService(repos.users, hash.NewArgon2Hasher(hash.DefaultConfig), tokenService, revoker)
	if err := bootstrapAdmin(authService, validate, cfg.Setup); err != nil {
		log.Fatalf("Failed to create setup admin: %v", err)
	}

	registry := session.NewRegistry(
		tokenService,
		session.WithIDBytes(cfg.Session.IDBytes),
		session.WithTombstoneRetention(cfg.Session.TombstoneRetention),
	)

	dispatcher := service.NewDispatcher(service.Services{
		Inventory:    service.NewInventoryService(repos.inventory),
		Customers:    service.NewCustomerService(repos.customers),
		Invoices:     service.NewInvoiceService(repos.invoices, repos.pdfs),
		GoldSettings: service.NewGoldSettingsService(repos.goldSettings),
	}, validate, service.AllowAuthenticated)

	gateway := socket.NewGateway(authService, registry, dispatcher, validate, socket.WithMaxInFlight(cfg.Session.MaxInFlight))

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		session.NewSweeper(registry, gateway, cfg.Session.SweepInterval).Run(sweepCtx)
	}()
	log.Printf("✓ Session sweeper running every %s", cfg.Session.SweepInterval)

	app := fiber.New(fiber.Config{
		AppName:      "Gold Shop Manager",
		ErrorHandler: handler.ErrorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	app.Use(middleware.RecoveryMiddleware())
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	handler.SetupRoutes(app, handler.Handlers{
		Auth: handler.NewAuthHandler(authService, validate, handler.CookieSettings{
			Name:     cfg.Cookie.Name,
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSite,
			MaxAge:   tokenService.TTL(),
		}),
		Setup:  handler.NewSetupHandler(authService, validate),
		Shop:   handler.NewShopHandler(dispatcher),
		Health: handler.NewHealthHandler(readiness),
		Socket: handler.NewSocketHandler(gateway),
	}, middleware.AuthMiddleware(authService, cfg.Cookie.Name))

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on http://localhost%s", addr)
		log.Printf("📝 Environment: %s, storage: %s", cfg.Server.Environment, cfg.Storage.Driver)
		if err := app.Listen(addr); err != nil {
			log.Printf("❌ Server failed to start: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("⏳ Shutting down server gracefully...")

	stopSweeper()
	<-sweeperDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Sockets are hijacked and not tracked by Fiber's shutdown.
	gateway.CloseAll()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}
	registry.Close()

	log.Println("✓ Server stopped")
}

func initStorage(cfg *config.Config) (*repositories, error) {
	if cfg.Storage.Driver == "memory" {
		store := memory.NewStore()
		log.Println("✓ In-memory storage initialized (data is lost on restart)")
		return &repositories{
			users:        store.Users(),
			inventory:    store.Inventory(),
			customers:    store.Customers(),
			invoices:     store.Invoices(),
			pdfs:         store.PDFs(),
			goldSettings: store.GoldSettings(),
			ping:         func(context.Context) error { return nil },
			close:        func() {},
		}, nil
	}

	db, err := initDB(cfg)
	if err != nil {
		return nil, err
	}
	log.Println("✓ Database connection established")

	if cfg.Storage.AutoMigrate {
		if err := migrate.Run(cfg.Database.URL(), "up"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Println("✓ Database migrations applied")
	}

	return &repositories{
		users:        postgres.NewUserRepository(db),
		inventory:    postgres.NewInventoryRepository(db),
		customers:    postgres.NewCustomerRepository(db),
		invoices:     postgres.NewInvoiceRepository(db),
		pdfs:         postgres.NewPDFRepository(db),
		goldSettings: postgres.NewGoldSettingsRepository(db),
		ping:         db.PingContext,
		close: func() {
			if err := db.Close(); err != nil {
				log.Printf("Error closing database connection: %v", err)
			}
		},
	}, nil
}

// initDB initializes PostgreSQL database connection with retry logic
func initDB(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.Database.DSN()

	var db *sqlx.DB
	var err error

	maxRetries := 5
	retryInterval := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			break
		}

		log.Printf("Failed to connect to database (attempt %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func initRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			log.Printf("Error closing Redis after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// bootstrapAdmin creates the configured admin on an empty user table.
func bootstrapAdmin(authService *service.AuthService, validate *validator.Validator, setup config.SetupConfig) error {
	if setup.AdminUsername == "" || setup.AdminPassword == "" {
		return nil
	}

	req := service.SetupRequest{
		Username: setup.AdminUsername,
		Password: setup.AdminPassword,
		Name:     setup.AdminName,
	}
	if err := validate.Validate(req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := authService.Setup(ctx, req); err != nil {
		if errors.Is(err, service.ErrSetupCompleted) {
			log.Println("ℹ Setup admin skipped, users already exist")
			return nil
		}
		return err
	}
	log.Printf("✓ Setup admin %s created", setup.AdminUsername)
	return nil
}
