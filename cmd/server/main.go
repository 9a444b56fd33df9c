package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/cart/cache"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/events"
	h "storefront/internal/http"
	"storefront/internal/order"
	"storefront/internal/payment"
)

type Config struct {
	HTTPPort        string
	Currency        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	MongoURI    string // empty: in-memory cart repository
	MongoDBName string
	RedisAddr   string // empty: no cart cache
	KafkaBroker string // empty: events are dropped

	PostgresHost  string // empty: in-memory order repository
	PostgresPort  int
	PostgresUser  string
	PostgresPass  string
	PostgresDB    string
	MigrationsDir string
}

func loadConfig() *Config {
	pgPort, _ := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		Currency:        getEnv("CURRENCY", "USD"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDBName:     getEnv("MONGO_DB_NAME", "storefront"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		KafkaBroker:     getEnv("KAFKA_BROKER", ""),
		PostgresHost:    getEnv("POSTGRES_HOST", ""),
		PostgresPort:    pgPort,
		PostgresUser:    getEnv("POSTGRES_USER", "postgres"),
		PostgresPass:    getEnv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:      getEnv("POSTGRES_DB", "storefront"),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "./migrations"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Demo catalog used when no seeding mechanism is wired in front of the store.
var initialProducts = []catalog.Product{
	{ID: 1, Name: "Laptop", Price: decimal.RequireFromString("999.00"), Stock: 100, IsAvailable: true},
	{ID: 2, Name: "Mouse", Price: decimal.RequireFromString("19.90"), Stock: 500, IsAvailable: true},
	{ID: 3, Name: "Keyboard", Price: decimal.RequireFromString("49.50"), Stock: 300, IsAvailable: true},
	{ID: 4, Name: "Monitor", Price: decimal.RequireFromString("249.99"), Stock: 150, IsAvailable: true},
	{ID: 5, Name: "Headphones", Price: decimal.RequireFromString("89.00"), Stock: 200, IsAvailable: true},
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	// Catalog
	store := catalog.NewMemoryStore()
	for i := range initialProducts {
		if err := store.SetStock(ctx, &initialProducts[i]); err != nil {
			log.Fatalf("Failed to seed product %d: %v", initialProducts[i].ID, err)
		}
	}
	log.Printf("Seeded catalog with %d products", len(initialProducts))

	// Cart persistence
	var cartRepo cart.Repository
	if cfg.MongoURI != "" {
		mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Client().Disconnect(ctx)
		cartRepo = cart.NewMongoRepository(mongoDB)
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)
	} else {
		cartRepo = cart.NewMemoryRepository()
		log.Println("Using in-memory cart repository")
	}

	// Cart cache
	var cartCache cache.CartCache = cache.NopCache{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		cartCache = cache.NewRedisCache(redisClient)
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
	}

	// Order persistence
	var orderRepo order.Repository
	if cfg.PostgresHost != "" {
		creds := &order.Credentials{
			Host:              cfg.PostgresHost,
			Port:              cfg.PostgresPort,
			User:              cfg.PostgresUser,
			Password:          cfg.PostgresPass,
			DBName:            cfg.PostgresDB,
			MigrationsDirPath: cfg.MigrationsDir,
		}
		pgRepo, err := order.NewPostgresRepository(creds)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer pgRepo.Close()
		if err := pgRepo.RunMigrations(creds); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		orderRepo = pgRepo
		log.Printf("Connected to postgres at %s:%d", cfg.PostgresHost, cfg.PostgresPort)
	} else {
		orderRepo = order.NewMemoryRepository()
		log.Println("Using in-memory order repository")
	}

	// Events
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.KafkaBroker != "" {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBroker)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Printf("Publishing order events to %s", cfg.KafkaBroker)
	}

	// Services
	cartService := cart.NewService(cartRepo, cartCache, store, cfg.Currency)
	authorizer := payment.NewStubAuthorizer(payment.ApproveUnderLimit{})
	checkoutService := checkout.NewService(cartService, store, authorizer, orderRepo, publisher)
	orderService := order.NewService(orderRepo, store, publisher)

	cartHandler := h.NewCartHandler(cartService)
	checkoutHandler := h.NewCheckoutHandler(checkoutService)
	ordersHandler := h.NewOrdersHandler(orderService)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.StubAuthMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})
		r.Post("/checkout", checkoutHandler.Checkout)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{orderID}", ordersHandler.GetOrder)
			r.Post("/{orderID}/status", ordersHandler.TransitionOrder)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
