package agent

import (
	"context"
	"encoding/json"
	"log"

	"shopai/internal/llm"
	"shopai/internal/models"
	"shopai/internal/repositories"
	"shopai/internal/search"
)

const systemPrompt = `You are an intelligent e-commerce shopping assistant for our online store.

Your capabilities:
1. Help customers search and discover products using semantic search
2. Provide detailed product information and comparisons
3. Give personalized recommendations based on preferences
4. Help with order-related queries
5. Answer general questions about the store

Guidelines:
- Be friendly, helpful, and concise
- When searching for products, use the search_products tool
- When users ask about specific products, get the details first
- Provide relevant suggestions and follow-up questions
- If you're unsure, ask clarifying questions
- Always format prices with $ and two decimal places
- When showing products, mention key details: name, price, and relevant features

You have access to tools - use them when needed to provide accurate, up-to-date information.`

const (
	// maxToolIterations bounds the reason-act loop for a single chat turn.
	maxToolIterations = 3

	// historyWindow is how many stored messages are replayed as context.
	historyWindow = 20

	errorFallback = "I apologize, but I encountered an error processing your request. Please try again."
)

// LLM is the language model surface the agent drives.
type LLM interface {
	ClassifyIntent(ctx context.Context, message string, history []llm.Message) llm.IntentResult
	GenerateResponse(ctx context.Context, message, systemPrompt string, history []llm.Message, outcomes []llm.ToolOutcome) (string, error)
	CallWithTools(ctx context.Context, message string, tools []llm.Tool, systemPrompt string, history []llm.Message) (*llm.Reply, error)
}

// Searcher is the semantic search surface the agent's tools use.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
	FindSimilar(ctx context.Context, productID string, topK int) ([]search.Result, error)
}

// ToolResult is the recorded outcome of a single tool execution.
type ToolResult struct {
	CallID       string `json:"call_id"`
	ToolName     string `json:"tool_name"`
	Result       any    `json:"result"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ChatResult is the full outcome of one chat turn.
type ChatResult struct {
	Response          string                `json:"response"`
	SessionID         string                `json:"session_id"`
	Intent            llm.Intent            `json:"intent"`
	Entities          llm.ExtractedEntities `json:"entities"`
	Suggestions       []models.Product      `json:"suggestions,omitempty"`
	ToolCallsMade     []string              `json:"tool_calls_made,omitempty"`
	FollowUpQuestions []string              `json:"follow_up_questions,omitempty"`
}

// ShopAgent is the conversational shopping assistant. It classifies the
// user's intent, drives tool calls against the catalog and order data, and
// generates the reply.
type ShopAgent struct {
	llm           LLM
	searcher      Searcher
	products      repositories.ProductRepository
	orders        repositories.OrderRepository
	conversations repositories.ConversationRepository
}

// NewShopAgent creates a new ShopAgent.
func NewShopAgent(
	llmClient LLM,
	searcher Searcher,
	products repositories.ProductRepository,
	orders repositories.OrderRepository,
	conversations repositories.ConversationRepository,
) *ShopAgent {
	return &ShopAgent{
		llm:           llmClient,
		searcher:      searcher,
		products:      products,
		orders:        orders,
		conversations: conversations,
	}
}

// ProcessMessage runs one chat turn: resolve the session, classify intent,
// execute tools as the model requests them, generate the reply and persist
// both sides of the exchange. userID is empty for anonymous chats.
func (a *ShopAgent) ProcessMessage(ctx context.Context, message, sessionID, userID string) (*ChatResult, error) {
	session, err := a.getOrCreateSession(sessionID, userID)
	if err != nil {
		return nil, err
	}

	history, err := a.history(session.ID)
	if err != nil {
		return nil, err
	}

	intentResult := a.llm.ClassifyIntent(ctx, message, history)

	err = a.saveMessage(session.ID, "user", message, string(intentResult.Intent), &intentResult.Entities, nil, nil)
	if err != nil {
		return nil, err
	}

	var (
		toolCallsMade []string
		toolResults   []ToolResult
		suggestions   []models.Product
		accumulated   []llm.ToolOutcome
		response      string
	)

	switch intentResult.Intent {
	case llm.IntentGreeting, llm.IntentFarewell:
		response = a.generateOrApologize(ctx, message, history, nil)

	case llm.IntentProductSearch, llm.IntentProductRecommendation, llm.IntentProductDetails:
		for iteration := 0; iteration < maxToolIterations; iteration++ {
			contextHistory := history
			if len(accumulated) > 0 {
				payload, _ := json.Marshal(accumulated)
				contextHistory = append(append([]llm.Message{}, history...), llm.Message{
					Role:    "assistant",
					Content: "Tool results so far: " + string(payload),
				})
			}

			reply, err := a.llm.CallWithTools(ctx, message, Toolkit(), systemPrompt, contextHistory)
			if err != nil {
				log.Printf("tool call round failed: %v", err)
				break
			}
			if len(reply.ToolCalls) == 0 {
				response = reply.Content
				break
			}

			for _, call := range reply.ToolCalls {
				result := a.executeTool(ctx, call.Name, call.Arguments, userID)
				toolResults = append(toolResults, result)
				toolCallsMade = append(toolCallsMade, call.Name)
				accumulated = append(accumulated, llm.ToolOutcome{Tool: call.Name, Result: result.Result})
				suggestions = append(suggestions, a.suggestionsFrom(result)...)
			}
		}
		if response == "" {
			response = a.generateOrApologize(ctx, message, history, accumulated)
		}

	case llm.IntentOrderHelp, llm.IntentOrderStatus:
		if orderID := string(intentResult.Entities.OrderID); orderID != "" {
			result := a.executeTool(ctx, toolCheckOrderStatus, map[string]any{"order_id": orderID}, userID)
			toolResults = append(toolResults, result)
			toolCallsMade = append(toolCallsMade, toolCheckOrderStatus)
			accumulated = append(accumulated, llm.ToolOutcome{Tool: toolCheckOrderStatus, Result: result.Result})
		} else if userID != "" {
			result := a.executeTool(ctx, toolGetUserOrders, map[string]any{}, userID)
			toolResults = append(toolResults, result)
			toolCallsMade = append(toolCallsMade, toolGetUserOrders)
			accumulated = append(accumulated, llm.ToolOutcome{Tool: toolGetUserOrders, Result: result.Result})
		}
		response = a.generateOrApologize(ctx, message, history, accumulated)

	default:
		response = a.generateOrApologize(ctx, message, history, nil)
	}

	err = a.saveMessage(session.ID, "assistant", response, "", nil, toolCallsMade, toolResults)
	if err != nil {
		return nil, err
	}

	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}

	return &ChatResult{
		Response:          response,
		SessionID:         session.ID,
		Intent:            intentResult.Intent,
		Entities:          intentResult.Entities,
		Suggestions:       suggestions,
		ToolCallsMade:     toolCallsMade,
		FollowUpQuestions: followUpQuestions(intentResult.Intent),
	}, nil
}

func (a *ShopAgent) getOrCreateSession(sessionID, userID string) (*models.ConversationSession, error) {
	if sessionID != "" {
		session, err := a.conversations.GetSession(sessionID)
		if err == nil && session.IsActive {
			return session, nil
		}
	}

	session := &models.ConversationSession{IsActive: true}
	if userID != "" {
		session.UserID = &userID
	}
	if err := a.conversations.CreateSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (a *ShopAgent) history(sessionID string) ([]llm.Message, error) {
	messages, err := a.conversations.GetMessages(sessionID, historyWindow)
	if err != nil {
		return nil, err
	}
	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	return history, nil
}

func (a *ShopAgent) saveMessage(
	sessionID, role, content, intent string,
	entities *llm.ExtractedEntities,
	toolCalls []string,
	toolResults []ToolResult,
) error {
	message := &models.ConversationMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Intent:    intent,
	}
	if entities != nil {
		payload, _ := json.Marshal(entities)
		message.Entities = string(payload)
	}
	if len(toolCalls) > 0 {
		payload, _ := json.Marshal(toolCalls)
		message.ToolCalls = string(payload)
	}
	if len(toolResults) > 0 {
		payload, _ := json.Marshal(toolResults)
		message.ToolResults = string(payload)
	}
	return a.conversations.AddMessage(message)
}

// suggestionsFrom pulls product suggestions out of a list-shaped tool result,
// re-reading each product so suggestions reflect current data.
func (a *ShopAgent) suggestionsFrom(result ToolResult) []models.Product {
	if !result.Success {
		return nil
	}
	items, ok := result.Result.([]map[string]any)
	if !ok {
		return nil
	}

	var products []models.Product
	for i, item := range items {
		if i == 5 {
			break
		}
		id, _ := item["id"].(string)
		if id == "" {
			continue
		}
		product, err := a.products.GetByID(id)
		if err != nil {
			continue
		}
		products = append(products, *product)
	}
	return products
}

func (a *ShopAgent) generateOrApologize(ctx context.Context, message string, history []llm.Message, outcomes []llm.ToolOutcome) string {
	response, err := a.llm.GenerateResponse(ctx, message, systemPrompt, history, outcomes)
	if err != nil {
		log.Printf("response generation failed: %v", err)
		return errorFallback
	}
	return response
}

func followUpQuestions(intent llm.Intent) []string {
	switch intent {
	case llm.IntentProductSearch, llm.IntentProductRecommendation:
		return []string{
			"Would you like me to filter by price range?",
			"Should I show more options?",
			"Want details about any of these products?",
		}
	case llm.IntentProductDetails:
		return []string{
			"Would you like to see similar products?",
			"Any questions about this product?",
		}
	default:
		return nil
	}
}
