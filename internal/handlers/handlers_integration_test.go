package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"shopai/internal/agent"
	"shopai/internal/handlers"
	"shopai/internal/llm"
	"shopai/internal/middleware"
	"shopai/internal/models"
	"shopai/internal/repositories"
	"shopai/internal/search"
	"shopai/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecretKey = "test_jwt_secret"

// stubLLM stands in for the chat model: every message classifies to a fixed
// intent and generates a fixed reply.
type stubLLM struct {
	intent   llm.Intent
	response string
}

func (s *stubLLM) ClassifyIntent(ctx context.Context, message string, history []llm.Message) llm.IntentResult {
	return llm.IntentResult{Intent: s.intent, Confidence: 0.9}
}

func (s *stubLLM) GenerateResponse(ctx context.Context, message, systemPrompt string, history []llm.Message, outcomes []llm.ToolOutcome) (string, error) {
	return s.response, nil
}

func (s *stubLLM) CallWithTools(ctx context.Context, message string, tools []llm.Tool, systemPrompt string, history []llm.Message) (*llm.Reply, error) {
	return &llm.Reply{Content: s.response}, nil
}

// stubEmbedder produces the same vector for every text.
type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

// stubIndex is an in-memory vector index: every stored vector matches every
// query with a fixed score, in insertion order.
type stubIndex struct {
	mu  sync.Mutex
	ids []string
}

func (s *stubIndex) Upsert(ctx context.Context, vectors []search.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if !s.contains(v.ID) {
			s.ids = append(s.ids, v.ID)
		}
	}
	return nil
}

func (s *stubIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]search.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []search.Match
	for _, id := range s.ids {
		if len(matches) == topK {
			break
		}
		matches = append(matches, search.Match{ID: id, Score: 0.9})
	}
	return matches, nil
}

func (s *stubIndex) DeleteByID(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		for i, existing := range s.ids {
			if existing == id {
				s.ids = append(s.ids[:i], s.ids[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (s *stubIndex) contains(id string) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// setupApp builds the full application over a private in-memory SQLite
// database, with the model, embedder and vector index replaced by stubs. The
// wiring mirrors main.go.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
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
		t.Fatalf("failed to migrate database: %v", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)
	wishlistRepo := repositories.NewGORMWishlistRepository(db)
	conversationRepo := repositories.NewGORMConversationRepository(db)

	searchService := search.NewService(stubEmbedder{}, &stubIndex{}, productRepo, 10, 0.3)
	model := &stubLLM{intent: llm.IntentGreeting, response: "Hello! How can I help you today?"}

	authService := services.NewAuthService(userRepo, testJWTSecretKey, 30*time.Minute)
	productService := services.NewProductService(productRepo, searchService)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, nil)
	reviewService := services.NewReviewService(reviewRepo, productRepo)
	wishlistService := services.NewWishlistService(wishlistRepo, productRepo)
	assistant := agent.NewShopAgent(model, searchService, productRepo, orderRepo, conversationRepo)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, reviewService, searchService)
	orderHandler := handlers.NewOrderHandler(orderService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	wishlistHandler := handlers.NewWishlistHandler(wishlistService)
	searchHandler := handlers.NewSearchHandler(searchService)
	chatHandler := handlers.NewChatHandler(assistant, conversationRepo)

	app := fiber.New()

	authHandler.RegisterRoutes(app)
	productHandler.RegisterRoutes(app)
	searchHandler.RegisterRoutes(app)
	chatHandler.RegisterRoutes(app)

	protected := app.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	productHandler.RegisterProtectedRoutes(protected)
	orderHandler.RegisterProtectedRoutes(protected)
	reviewHandler.RegisterProtectedRoutes(protected)
	wishlistHandler.RegisterProtectedRoutes(protected)
	searchHandler.RegisterProtectedRoutes(protected)
	chatHandler.RegisterProtectedRoutes(protected)

	return app
}

// setupDegradedApp builds only the routes whose backing services are optional,
// with those services absent, the way main.go wires them when credentials are
// missing.
func setupDegradedApp(t *testing.T) *fiber.App {
	t.Helper()

	app := fiber.New()
	handlers.NewSearchHandler(nil).RegisterRoutes(app)
	handlers.NewChatHandler(nil, repositories.NewMockConversationRepository()).RegisterRoutes(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out []map[string]any
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// registerAndLogin creates a user over the API and returns a bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, email, fullName string) string {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     email,
		"full_name": fullName,
		"password":  "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeMap(t, resp)
	token, _ := login["access_token"].(string)
	assert.NotEmpty(t, token)
	return token
}

// createProduct creates a product over the API and returns its ID.
func createProduct(t *testing.T, app *fiber.App, token string, body map[string]any) string {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/products/", token, body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeMap(t, resp)
	id, _ := created["id"].(string)
	assert.NotEmpty(t, id)
	return id
}

// TestMain suppresses request logging for cleaner output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	// Registration returns the profile without the password hash.
	resp := doRequest(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     "alice@example.com",
		"full_name": "Alice Johnson",
		"password":  "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	profile := decodeMap(t, resp)
	assert.Equal(t, "alice@example.com", profile["email"])
	assert.Equal(t, "Alice Johnson", profile["full_name"])
	assert.NotContains(t, profile, "hashed_password")

	// Duplicate email is a conflict.
	resp = doRequest(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     "alice@example.com",
		"full_name": "Alice Again",
		"password":  "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Invalid payloads are rejected with a field map.
	resp = doRequest(t, app, http.MethodPost, "/auth/register", "", map[string]string{
		"email":     "not-an-email",
		"full_name": "Bob",
		"password":  "123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	failure := decodeMap(t, resp)
	assert.Equal(t, "Validation failed", failure["message"])
	errs, _ := failure["errors"].(map[string]any)
	assert.Contains(t, errs, "Email")
	assert.Contains(t, errs, "Password")

	// Login issues a bearer token.
	resp = doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeMap(t, resp)
	assert.NotEmpty(t, login["access_token"])
	assert.Equal(t, "bearer", login["token_type"])
	token := login["access_token"].(string)

	// Wrong password is unauthorized.
	resp = doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The profile endpoint requires a token.
	resp = doRequest(t, app, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeMap(t, resp)
	assert.Equal(t, "alice@example.com", me["email"])

	// Profile update changes the name.
	resp = doRequest(t, app, http.MethodPut, "/auth/update-profile", token, map[string]string{
		"email":     "alice@example.com",
		"full_name": "Alice J.",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeMap(t, resp)
	assert.Equal(t, "Alice J.", updated["full_name"])

	// Changing the password invalidates the old one for login.
	resp = doRequest(t, app, http.MethodPut, "/auth/change-password", token, map[string]string{
		"current_password": "wrongpassword",
		"new_password":     "newpassword456",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPut, "/auth/change-password", token, map[string]string{
		"current_password": "password123",
		"new_password":     "newpassword456",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "newpassword456",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestProductLifecycle(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "admin@example.com", "Admin User")

	// Creation requires a token.
	resp := doRequest(t, app, http.MethodPost, "/products/", "", map[string]any{
		"name": "Unauthorized Product", "price": 10.0, "category": "Misc",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	headphonesID := createProduct(t, app, token, map[string]any{
		"name":           "Wireless Headphones",
		"description":    "Noise cancelling over-ear headphones",
		"price":          199.99,
		"category":       "Audio",
		"brand":          "SoundWave",
		"stock_quantity": 25,
	})
	keyboardID := createProduct(t, app, token, map[string]any{
		"name":           "Gaming Keyboard",
		"description":    "Mechanical RGB keyboard",
		"price":          149.99,
		"category":       "Gaming",
		"brand":          "GamePro",
		"stock_quantity": 40,
	})

	// The catalog is public.
	resp = doRequest(t, app, http.MethodGet, "/products/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	products := decodeList(t, resp)
	assert.Len(t, products, 2)

	// Category filter.
	resp = doRequest(t, app, http.MethodGet, "/products/?category=Audio", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	audio := decodeList(t, resp)
	assert.Len(t, audio, 1)
	assert.Equal(t, "Wireless Headphones", audio[0]["name"])

	resp = doRequest(t, app, http.MethodGet, "/products/"+headphonesID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeMap(t, resp)
	assert.Equal(t, headphonesID, fetched["id"])
	assert.Equal(t, true, fetched["is_active"])

	resp = doRequest(t, app, http.MethodGet, "/products/"+uuid.New().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Updates merge over the stored product.
	resp = doRequest(t, app, http.MethodPut, "/products/"+headphonesID, token, map[string]any{
		"price": 179.99,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeMap(t, resp)
	assert.Equal(t, 179.99, updated["price"])
	assert.Equal(t, "Wireless Headphones", updated["name"])

	// Recommendations exclude the source product.
	resp = doRequest(t, app, http.MethodGet, "/products/"+headphonesID+"/recommendations", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	recs := decodeMap(t, resp)
	items, _ := recs["recommendations"].([]any)
	assert.Len(t, items, 1)
	first, _ := items[0].(map[string]any)
	product, _ := first["product"].(map[string]any)
	assert.Equal(t, keyboardID, product["id"])

	// Deletion removes the product from the catalog.
	resp = doRequest(t, app, http.MethodDelete, "/products/"+keyboardID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	deleted := decodeMap(t, resp)
	assert.Contains(t, deleted["message"], "deleted successfully")

	resp = doRequest(t, app, http.MethodGet, "/products/"+keyboardID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSearchEndpoints(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "admin@example.com", "Admin User")

	createProduct(t, app, token, map[string]any{
		"name": "Wireless Headphones", "price": 199.99, "category": "Audio", "stock_quantity": 25,
	})
	createProduct(t, app, token, map[string]any{
		"name": "Gaming Keyboard", "price": 149.99, "category": "Gaming", "stock_quantity": 40,
	})

	// Search is public and needs a query.
	resp := doRequest(t, app, http.MethodPost, "/search?query=headphones", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeMap(t, resp)
	assert.Equal(t, float64(2), result["total"])
	results, _ := result["results"].([]any)
	assert.Len(t, results, 2)

	resp = doRequest(t, app, http.MethodPost, "/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/search?query=headphones&limit=1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	limited := decodeMap(t, resp)
	assert.Equal(t, float64(1), limited["total"])

	// Reindexing is an admin operation.
	resp = doRequest(t, app, http.MethodPost, "/admin/index-products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/admin/index-products", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	indexed := decodeMap(t, resp)
	assert.Equal(t, "Successfully indexed 2 products", indexed["message"])
}

func TestOrderFlow(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "buyer@example.com", "Buyer One")

	laptopID := createProduct(t, app, token, map[string]any{
		"name": "Laptop", "price": 1200.00, "category": "Computers", "stock_quantity": 5,
	})
	mouseID := createProduct(t, app, token, map[string]any{
		"name": "Mouse", "price": 25.00, "category": "Computers", "stock_quantity": 50,
	})

	// Orders require a token.
	resp := doRequest(t, app, http.MethodPost, "/orders/", "", map[string]any{
		"items":            []map[string]any{{"product_id": laptopID, "quantity": 1}},
		"shipping_address": "123 Main St",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// The total is computed server-side from price snapshots.
	resp = doRequest(t, app, http.MethodPost, "/orders/", token, map[string]any{
		"items": []map[string]any{
			{"product_id": laptopID, "quantity": 1},
			{"product_id": mouseID, "quantity": 2},
		},
		"shipping_address": "123 Main St",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	order := decodeMap(t, resp)
	assert.Equal(t, 1250.00, order["total_amount"])
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "123 Main St", order["shipping_address"])
	items, _ := order["order_items"].([]any)
	assert.Len(t, items, 2)
	orderID, _ := order["id"].(string)
	assert.NotEmpty(t, orderID)

	resp = doRequest(t, app, http.MethodGet, "/orders/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decodeList(t, resp)
	assert.Len(t, orders, 1)

	resp = doRequest(t, app, http.MethodGet, "/orders/"+orderID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Another user cannot see the order.
	otherToken := registerAndLogin(t, app, "other@example.com", "Other User")
	resp = doRequest(t, app, http.MethodGet, "/orders/"+orderID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Ordering beyond stock fails.
	resp = doRequest(t, app, http.MethodPost, "/orders/", token, map[string]any{
		"items":            []map[string]any{{"product_id": laptopID, "quantity": 100}},
		"shipping_address": "123 Main St",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	failure := decodeMap(t, resp)
	assert.Contains(t, failure["error"], "insufficient stock")

	// An order needs at least one item.
	resp = doRequest(t, app, http.MethodPost, "/orders/", token, map[string]any{
		"items":            []map[string]any{},
		"shipping_address": "123 Main St",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestReviewFlow(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "reviewer@example.com", "Reviewer One")

	productID := createProduct(t, app, token, map[string]any{
		"name": "Laptop", "price": 1200.00, "category": "Computers", "stock_quantity": 5,
	})

	resp := doRequest(t, app, http.MethodPost, "/reviews", token, map[string]any{
		"product_id": productID,
		"rating":     5,
		"comment":    "Excellent build quality",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	review := decodeMap(t, resp)
	assert.Equal(t, float64(5), review["rating"])

	// One review per user and product.
	resp = doRequest(t, app, http.MethodPost, "/reviews", token, map[string]any{
		"product_id": productID,
		"rating":     4,
		"comment":    "Still great",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Rating is bounded.
	resp = doRequest(t, app, http.MethodPost, "/reviews", token, map[string]any{
		"product_id": productID,
		"rating":     6,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/reviews", token, map[string]any{
		"product_id": uuid.New().String(),
		"rating":     4,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Reading reviews is public and includes the author.
	resp = doRequest(t, app, http.MethodGet, "/products/"+productID+"/reviews", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reviews := decodeList(t, resp)
	assert.Len(t, reviews, 1)
	author, _ := reviews[0]["user"].(map[string]any)
	assert.Equal(t, "Reviewer One", author["full_name"])
}

func TestWishlistFlow(t *testing.T) {
	app := setupApp(t)
	token := registerAndLogin(t, app, "wisher@example.com", "Wisher One")

	productID := createProduct(t, app, token, map[string]any{
		"name": "Laptop", "price": 1200.00, "category": "Computers", "stock_quantity": 5,
	})

	resp := doRequest(t, app, http.MethodPost, "/wishlist/"+productID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Adding twice is a no-op.
	resp = doRequest(t, app, http.MethodPost, "/wishlist/"+productID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodPost, "/wishlist/"+uuid.New().String(), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodGet, "/wishlist/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	wishlist := decodeList(t, resp)
	assert.Len(t, wishlist, 1)
	assert.Equal(t, productID, wishlist[0]["id"])

	resp = doRequest(t, app, http.MethodDelete, "/wishlist/"+productID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, app, http.MethodGet, "/wishlist/", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	wishlist = decodeList(t, resp)
	assert.Len(t, wishlist, 0)
}

func TestChatFlow(t *testing.T) {
	app := setupApp(t)

	resp := doRequest(t, app, http.MethodPost, "/chat", "", map[string]string{
		"message": "Hello!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	turn := decodeMap(t, resp)
	assert.Equal(t, "Hello! How can I help you today?", turn["response"])
	assert.Equal(t, "greeting", turn["intent"])
	sessionID, _ := turn["session_id"].(string)
	assert.NotEmpty(t, sessionID)

	// A follow-up in the same session keeps the transcript together.
	resp = doRequest(t, app, http.MethodPost, "/chat", "", map[string]string{
		"message":    "Hi again",
		"session_id": sessionID,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	turn = decodeMap(t, resp)
	assert.Equal(t, sessionID, turn["session_id"])

	resp = doRequest(t, app, http.MethodGet, "/conversations/"+sessionID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	conversation := decodeMap(t, resp)
	assert.Equal(t, sessionID, conversation["session_id"])
	messages, _ := conversation["messages"].([]any)
	assert.Len(t, messages, 4)
	firstMessage, _ := messages[0].(map[string]any)
	assert.Equal(t, "user", firstMessage["role"])
	assert.Equal(t, "Hello!", firstMessage["content"])

	resp = doRequest(t, app, http.MethodGet, "/conversations/"+uuid.New().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// The message is required.
	resp = doRequest(t, app, http.MethodPost, "/chat", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// The authenticated variant takes the identity from the token.
	resp = doRequest(t, app, http.MethodPost, "/chat/authenticated", "", map[string]string{
		"message": "Hello!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	token := registerAndLogin(t, app, "chatter@example.com", "Chatter One")
	resp = doRequest(t, app, http.MethodPost, "/chat/authenticated", token, map[string]string{
		"message": "Hello!",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestUnconfiguredServicesDegrade(t *testing.T) {
	app := setupDegradedApp(t)

	resp := doRequest(t, app, http.MethodPost, "/search?query=headphones", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeMap(t, resp)
	assert.Contains(t, body["message"], "missing API credentials")

	resp = doRequest(t, app, http.MethodPost, "/chat", "", map[string]string{
		"message": "Hello!",
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}
