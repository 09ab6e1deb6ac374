// Command seed populates the database with demo users, a product catalog and
// randomized reviews so the platform can be explored without real data. It is
// idempotent: existing users and products are reused, not duplicated.
package main

import (
	"log"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shopai/internal/config"
	"shopai/internal/models"
	"shopai/internal/repositories"
)

type demoUser struct {
	Email    string
	FullName string
	Password string
}

var demoUsers = []demoUser{
	{"john.doe@example.com", "John Doe", "password123"},
	{"jane.smith@example.com", "Jane Smith", "password123"},
	{"mike.wilson@example.com", "Mike Wilson", "password123"},
}

var demoProducts = []models.Product{
	{Name: "Wireless Bluetooth Headphones", Description: "Premium wireless headphones with active noise cancellation, 30-hour battery life, and crystal-clear sound quality.", Price: 199.99, Category: "Electronics", Brand: "TechSound", ImageURL: "/placeholder-product.jpg", StockQuantity: 50},
	{Name: "Smart Fitness Watch", Description: "Advanced fitness tracking with heart rate monitoring, GPS, sleep tracking, and 7-day battery life.", Price: 299.99, Category: "Wearables", Brand: "FitTech", ImageURL: "/placeholder-product.jpg", StockQuantity: 30},
	{Name: "Mechanical Gaming Keyboard", Description: "RGB mechanical keyboard with tactile switches, programmable keys, and durable construction for gaming.", Price: 149.99, Category: "Gaming", Brand: "GamePro", ImageURL: "/placeholder-product.jpg", StockQuantity: 25},
	{Name: "Portable Bluetooth Speaker", Description: "Waterproof portable speaker with 360-degree sound, 12-hour battery, and wireless connectivity.", Price: 79.99, Category: "Audio", Brand: "SoundWave", ImageURL: "/placeholder-product.jpg", StockQuantity: 40},
	{Name: "Wireless Charging Pad", Description: "Fast wireless charging pad compatible with all Qi-enabled devices, sleek design with LED indicator.", Price: 49.99, Category: "Accessories", Brand: "ChargeTech", ImageURL: "/placeholder-product.jpg", StockQuantity: 60},
	{Name: "Smart Home Hub", Description: "Central control hub for smart home devices with voice assistant integration and app control.", Price: 129.99, Category: "Smart Home", Brand: "HomeAI", ImageURL: "/placeholder-product.jpg", StockQuantity: 20},
	{Name: "Gaming Mouse", Description: "High-precision gaming mouse with customizable RGB lighting, programmable buttons, and ergonomic design.", Price: 89.99, Category: "Gaming", Brand: "GamePro", ImageURL: "/placeholder-product.jpg", StockQuantity: 35},
	{Name: "USB-C Hub", Description: "Multi-port USB-C hub with HDMI, USB 3.0, SD card reader, and power delivery for laptops.", Price: 69.99, Category: "Accessories", Brand: "ConnectPro", ImageURL: "/placeholder-product.jpg", StockQuantity: 45},
	{Name: "Smart Light Bulbs (4-Pack)", Description: "WiFi-enabled smart LED bulbs with color changing, dimming, and voice control compatibility.", Price: 39.99, Category: "Smart Home", Brand: "HomeAI", ImageURL: "/placeholder-product.jpg", StockQuantity: 100},
	{Name: "Laptop Stand", Description: "Adjustable aluminum laptop stand with ergonomic design, foldable for portability, and heat dissipation.", Price: 59.99, Category: "Accessories", Brand: "ErgoTech", ImageURL: "/placeholder-product.jpg", StockQuantity: 30},
	{Name: "Noise-Canceling Earbuds", Description: "True wireless earbuds with active noise cancellation, 8-hour battery life, and premium sound quality.", Price: 179.99, Category: "Audio", Brand: "SoundWave", ImageURL: "/placeholder-product.jpg", StockQuantity: 55},
	{Name: "Gaming Monitor", Description: "27-inch 4K gaming monitor with 144Hz refresh rate, 1ms response time, and HDR support.", Price: 399.99, Category: "Gaming", Brand: "GamePro", ImageURL: "/placeholder-product.jpg", StockQuantity: 15},
}

var reviewTexts = []string{
	"Excellent product, highly recommended!",
	"Great quality and fast shipping.",
	"Perfect for my needs, works exactly as described.",
	"Amazing value for money, very satisfied.",
	"Good product but could be better.",
	"Outstanding quality and customer service.",
	"Works great, no complaints at all.",
	"Very happy with this purchase!",
	"Good product, meets expectations.",
	"Fantastic quality, exceeded my expectations.",
}

func main() {
	cfg := config.Load()

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

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)

	log.Println("Creating demo data...")

	// Users: skip existing by email so reruns are safe.
	users := make([]models.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		if existing, err := userRepo.GetByEmail(du.Email); err == nil {
			users = append(users, *existing)
			continue
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(du.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		user := models.User{
			Email:          du.Email,
			FullName:       du.FullName,
			HashedPassword: string(hashed),
			IsActive:       true,
		}
		if err := userRepo.Create(&user); err != nil {
			log.Fatalf("Failed to create user %s: %v", du.Email, err)
		}
		users = append(users, user)
	}
	log.Printf("Users: %d", len(users))

	// Products: existing catalog entries are reused by name.
	existing, err := productRepo.ListActive()
	if err != nil {
		log.Fatalf("Failed to list products: %v", err)
	}
	byName := make(map[string]models.Product, len(existing))
	for _, p := range existing {
		byName[p.Name] = p
	}

	products := make([]models.Product, 0, len(demoProducts))
	freshProducts := 0
	for _, dp := range demoProducts {
		if p, ok := byName[dp.Name]; ok {
			products = append(products, p)
			continue
		}
		product := dp
		product.IsActive = true
		if err := productRepo.Create(&product); err != nil {
			log.Fatalf("Failed to create product %s: %v", product.Name, err)
		}
		products = append(products, product)
		freshProducts++
	}
	log.Printf("Products: %d (%d new)", len(products), freshProducts)

	// Reviews: a few mostly-positive reviews per new product, one reviewer
	// per product at most once.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	reviewsCreated := 0
	for _, product := range products {
		reviewers := rng.Perm(len(users))
		numReviews := 2 + rng.Intn(2)
		for i := 0; i < numReviews && i < len(reviewers); i++ {
			user := users[reviewers[i]]
			if existing, err := reviewRepo.GetByUserAndProduct(user.ID, product.ID); err != nil || existing != nil {
				continue
			}
			review := models.Review{
				UserID:    user.ID,
				ProductID: product.ID,
				Rating:    3 + rng.Intn(3),
				Comment:   reviewTexts[rng.Intn(len(reviewTexts))],
			}
			if err := reviewRepo.Create(&review); err != nil {
				log.Printf("Failed to create review for %s: %v", product.Name, err)
				continue
			}
			reviewsCreated++
		}
	}
	log.Printf("Reviews: %d", reviewsCreated)

	log.Println("Demo data creation completed")
	log.Println("Demo credentials: john.doe@example.com / password123")
}

func openDatabase(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}
