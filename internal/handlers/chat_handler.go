package handlers

import (
	"context"
	"log"

	"shopai/internal/agent"
	"shopai/internal/middleware"
	"shopai/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Assistant is the conversational shopping assistant surface.
type Assistant interface {
	ProcessMessage(ctx context.Context, message, sessionID, userID string) (*agent.ChatResult, error)
}

// ChatHandler handles HTTP requests for the shopping assistant and
// conversation transcripts.
type ChatHandler struct {
	assistant     Assistant // nil when the assistant is not configured
	conversations repositories.ConversationRepository
	validate      *validator.Validate
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(assistant Assistant, conversations repositories.ConversationRepository) *ChatHandler {
	return &ChatHandler{
		assistant:     assistant,
		conversations: conversations,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the public chat routes with the Fiber app.
func (h *ChatHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/chat", h.HandleChat)
	router.Get("/conversations/:session_id", h.HandleGetConversation)
}

// RegisterProtectedRoutes registers the authenticated chat route.
func (h *ChatHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/chat/authenticated", h.HandleAuthenticatedChat)
}

// ChatRequest represents the request body for a chat message.
type ChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// HandleChat runs one anonymous chat turn. Callers may pass a session_id to
// continue a conversation and a user_id to personalize order lookups.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	return h.chat(c, "")
}

// HandleAuthenticatedChat runs one chat turn with the user identity taken
// from the token.
func (h *ChatHandler) HandleAuthenticatedChat(c *fiber.Ctx) error {
	return h.chat(c, middleware.UserID(c))
}

func (h *ChatHandler) chat(c *fiber.Ctx, authenticatedUserID string) error {
	if h.assistant == nil {
		return serviceUnavailable(c, "The shopping assistant")
	}

	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing chat request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if errs := validationErrors(h.validate, req); errs != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errs,
		})
	}

	userID := req.UserID
	if authenticatedUserID != "" {
		userID = authenticatedUserID
	}

	result, err := h.assistant.ProcessMessage(c.Context(), req.Message, req.SessionID, userID)
	if err != nil {
		log.Printf("Error processing chat message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process chat message",
			"error":   err.Error(),
		})
	}
	return c.JSON(result)
}

// HandleGetConversation returns a session's transcript in chronological
// order.
func (h *ChatHandler) HandleGetConversation(c *fiber.Ctx) error {
	sessionID := c.Params("session_id")

	session, err := h.conversations.GetSession(sessionID)
	if err != nil {
		log.Printf("Error getting conversation %s: %v", sessionID, err)
		if notFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Conversation not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve conversation",
			"error":   err.Error(),
		})
	}

	messages, err := h.conversations.GetMessages(sessionID, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve conversation messages",
			"error":   err.Error(),
		})
	}

	transcript := make([]fiber.Map, 0, len(messages))
	for _, m := range messages {
		transcript = append(transcript, fiber.Map{
			"role":       m.Role,
			"content":    m.Content,
			"intent":     m.Intent,
			"created_at": m.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{
		"session_id": session.ID,
		"created_at": session.CreatedAt,
		"messages":   transcript,
	})
}
