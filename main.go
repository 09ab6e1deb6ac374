package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shopai/internal/agent"
	"shopai/internal/config"
	"shopai/internal/handlers"
	"shopai/internal/llm"
	"shopai/internal/middleware"
	"shopai/internal/models"
	"shopai/internal/repositories"
	"shopai/internal/search"
	"shopai/internal/services"
	"shopai/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// --- Database ---
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.ConversationSession{},
		&models.ConversationMessage{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)
	wishlistRepo := repositories.NewGORMWishlistRepository(db)
	conversationRepo := repositories.NewGORMConversationRepository(db)

	// --- RabbitMQ ---
	// The broker being down disables order events but never the API.
	var mqClient *rabbitmq.Client
	mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Printf("Warning: RabbitMQ unavailable, order events disabled: %v", err)
		mqClient = nil
	} else {
		defer mqClient.Close()
	}

	// --- External AI services ---
	// Missing credentials must not prevent boot; the endpoints that need
	// them degrade instead.
	llmClient := llm.NewClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel, cfg.GroqMaxTokens)

	var searchService *search.Service
	if cfg.PineconeAPIKey != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		index, err := search.NewPineconeIndex(ctx, cfg.PineconeAPIKey, cfg.PineconeIndexName,
			cfg.PineconeCloud, cfg.PineconeRegion, cfg.EmbeddingDimension)
		cancel()
		if err != nil {
			log.Printf("Warning: Pinecone unavailable, semantic search disabled: %v", err)
		} else {
			embedder := search.NewOpenAIEmbedder(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL,
				cfg.EmbeddingModel, cfg.EmbeddingDimension)
			searchService = search.NewService(embedder, index, productRepo, cfg.SearchTopK, cfg.SearchMinScore)
		}
	} else {
		log.Println("PINECONE_API_KEY not set, semantic search disabled")
	}

	emailService := services.NewEmailService(cfg.SMTPServer, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPassword)

	// --- Services ---
	// A nil *search.Service must stay a nil interface, so assign through a
	// typed variable only when present.
	var indexer services.ProductIndexer
	var recommender handlers.Recommender
	var searchSurface handlers.SearchService
	if searchService != nil {
		indexer = searchService
		recommender = searchService
		searchSurface = searchService
	}
	var publisher services.OrderEventPublisher
	if mqClient != nil {
		publisher = mqClient
	}

	authService := services.NewAuthService(userRepo, cfg.SecretKey,
		time.Duration(cfg.AccessTokenExpireMinutes)*time.Minute)
	productService := services.NewProductService(productRepo, indexer)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, publisher)
	reviewService := services.NewReviewService(reviewRepo, productRepo)
	wishlistService := services.NewWishlistService(wishlistRepo, productRepo)

	var assistant handlers.Assistant
	if searchService != nil {
		assistant = agent.NewShopAgent(llmClient, searchService, productRepo, orderRepo, conversationRepo)
	}

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, reviewService, recommender)
	orderHandler := handlers.NewOrderHandler(orderService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	wishlistHandler := handlers.NewWishlistHandler(wishlistService)
	searchHandler := handlers.NewSearchHandler(searchSurface)
	chatHandler := handlers.NewChatHandler(assistant, conversationRepo)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendOrigin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Public routes
	authHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app)
	searchHandler.RegisterRoutes(app)
	chatHandler.RegisterRoutes(app)

	// Protected routes
	protected := app.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	productHandler.RegisterProtectedRoutes(protected)
	orderHandler.RegisterProtectedRoutes(protected)
	reviewHandler.RegisterProtectedRoutes(protected)
	wishlistHandler.RegisterProtectedRoutes(protected)
	searchHandler.RegisterProtectedRoutes(protected)
	chatHandler.RegisterProtectedRoutes(protected)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Order event consumer ---
	// order.created events drive the confirmation email.
	if mqClient != nil {
		startOrderConsumer(mqClient, orderRepo, userRepo, emailService)
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase opens the configured database: a postgres DSN selects the
// Postgres driver, anything else is treated as a SQLite file path.
func openDatabase(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}

// startOrderConsumer subscribes to the order queue and sends a confirmation
// email per order.created event. Malformed or stale events are dropped; only
// transient send failures requeue.
func startOrderConsumer(
	mqClient *rabbitmq.Client,
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	emailService *services.EmailService,
) {
	messageHandler := func(msg amqp.Delivery) error {
		var event struct {
			Event   string `json:"event"`
			OrderID string `json:"order_id"`
			UserID  string `json:"user_id"`
			Email   string `json:"email"`
		}
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Printf("Discarding malformed order event: %v", err)
			return nil
		}
		if event.Event != "order.created" || event.Email == "" {
			return nil
		}

		order, err := orderRepo.GetByID(event.OrderID)
		if err != nil {
			log.Printf("Discarding order event for unknown order %s: %v", event.OrderID, err)
			return nil
		}
		fullName := "Customer"
		if user, err := userRepo.GetByID(event.UserID); err == nil {
			fullName = user.FullName
		}
		return emailService.SendOrderConfirmation(event.Email, fullName, order)
	}
	if err := mqClient.ConsumeOrderEvents(messageHandler); err != nil {
		log.Printf("Failed to start order event consumer: %v", err)
	}
}
