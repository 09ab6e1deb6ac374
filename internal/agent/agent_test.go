package agent_test

import (
	"context"
	"fmt"
	"testing"

	"shopai/internal/agent"
	"shopai/internal/llm"
	"shopai/internal/models"
	"shopai/internal/repositories"
	"shopai/internal/search"

	"github.com/stretchr/testify/assert"
)

// fakeLLM scripts the model's behavior for a turn: a fixed intent, a queue of
// tool-call replies and a canned generation.
type fakeLLM struct {
	intent       llm.IntentResult
	replies      []*llm.Reply
	generated    string
	generateErr  error
	lastOutcomes []llm.ToolOutcome
}

func (f *fakeLLM) ClassifyIntent(ctx context.Context, message string, history []llm.Message) llm.IntentResult {
	return f.intent
}

func (f *fakeLLM) GenerateResponse(ctx context.Context, message, systemPrompt string, history []llm.Message, outcomes []llm.ToolOutcome) (string, error) {
	f.lastOutcomes = outcomes
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.generated, nil
}

func (f *fakeLLM) CallWithTools(ctx context.Context, message string, tools []llm.Tool, systemPrompt string, history []llm.Message) (*llm.Reply, error) {
	if len(f.replies) == 0 {
		return &llm.Reply{Content: "no more replies"}, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

// fakeSearcher returns programmed results for every query.
type fakeSearcher struct {
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	return f.results, f.err
}

func (f *fakeSearcher) FindSimilar(ctx context.Context, productID string, topK int) ([]search.Result, error) {
	return f.results, f.err
}

type fixture struct {
	llm           *fakeLLM
	searcher      *fakeSearcher
	products      *repositories.MockProductRepository
	orders        *repositories.MockOrderRepository
	conversations *repositories.MockConversationRepository
	agent         *agent.ShopAgent
}

func newFixture(fakeModel *fakeLLM, searcher *fakeSearcher) *fixture {
	f := &fixture{
		llm:           fakeModel,
		searcher:      searcher,
		products:      repositories.NewMockProductRepository(),
		orders:        repositories.NewMockOrderRepository(),
		conversations: repositories.NewMockConversationRepository(),
	}
	f.agent = agent.NewShopAgent(fakeModel, searcher, f.products, f.orders, f.conversations)
	return f
}

func intentOf(i llm.Intent) llm.IntentResult {
	return llm.IntentResult{Intent: i, Confidence: 0.9}
}

func TestProcessMessage_Greeting(t *testing.T) {
	f := newFixture(&fakeLLM{intent: intentOf(llm.IntentGreeting), generated: "Hello! How can I help?"}, &fakeSearcher{})

	result, err := f.agent.ProcessMessage(context.Background(), "hi there", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", result.Response)
	assert.Equal(t, llm.IntentGreeting, result.Intent)
	assert.NotEmpty(t, result.SessionID)
	assert.Empty(t, result.ToolCallsMade)

	// Both sides of the exchange are persisted, the user turn with its
	// intent.
	messages, err := f.conversations.GetMessages(result.SessionID, 0)
	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, string(llm.IntentGreeting), messages[0].Intent)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "Hello! How can I help?", messages[1].Content)
}

func TestProcessMessage_ProductSearchToolLoop(t *testing.T) {
	product := models.Product{ID: "p1", Name: "Wireless Headphones", Price: 199.99, IsActive: true}
	searcher := &fakeSearcher{results: []search.Result{{Product: product, Similarity: 0.92}}}
	fakeModel := &fakeLLM{
		intent: intentOf(llm.IntentProductSearch),
		replies: []*llm.Reply{
			{ToolCalls: []llm.ToolCall{{CallID: "c1", Name: "search_products", Arguments: map[string]any{"query": "headphones"}}}},
			{Content: "I found the Wireless Headphones for $199.99."},
		},
	}
	f := newFixture(fakeModel, searcher)
	assert.NoError(t, f.products.Create(&product))

	result, err := f.agent.ProcessMessage(context.Background(), "find me headphones", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "I found the Wireless Headphones for $199.99.", result.Response)
	assert.Equal(t, []string{"search_products"}, result.ToolCallsMade)
	assert.Len(t, result.Suggestions, 1)
	assert.Equal(t, "p1", result.Suggestions[0].ID)
	assert.NotEmpty(t, result.FollowUpQuestions)

	// The assistant turn records what tools ran.
	messages, _ := f.conversations.GetMessages(result.SessionID, 0)
	assert.Len(t, messages, 2)
	assert.Contains(t, messages[1].ToolCalls, "search_products")
	assert.Contains(t, messages[1].ToolResults, "p1")
}

func TestProcessMessage_ToolLoopFallsBackToGeneration(t *testing.T) {
	product := models.Product{ID: "p1", Name: "Wireless Headphones", Price: 199.99, IsActive: true}
	searcher := &fakeSearcher{results: []search.Result{{Product: product, Similarity: 0.92}}}
	// The model keeps asking for tools; after the iteration cap, the reply
	// comes from plain generation seeded with the tool results.
	call := &llm.Reply{ToolCalls: []llm.ToolCall{{CallID: "c1", Name: "search_products", Arguments: map[string]any{"query": "headphones"}}}}
	fakeModel := &fakeLLM{
		intent:    intentOf(llm.IntentProductSearch),
		replies:   []*llm.Reply{call, call, call},
		generated: "Here is what I found.",
	}
	f := newFixture(fakeModel, searcher)
	assert.NoError(t, f.products.Create(&product))

	result, err := f.agent.ProcessMessage(context.Background(), "find me headphones", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "Here is what I found.", result.Response)
	assert.Len(t, result.ToolCallsMade, 3)
	assert.NotEmpty(t, fakeModel.lastOutcomes, "generation is grounded in the accumulated tool results")
}

func TestProcessMessage_OrderStatusByID(t *testing.T) {
	fakeModel := &fakeLLM{
		intent: llm.IntentResult{
			Intent:     llm.IntentOrderStatus,
			Confidence: 0.9,
			Entities:   llm.ExtractedEntities{OrderID: "order-1"},
		},
		generated: "Your order is pending.",
	}
	f := newFixture(fakeModel, &fakeSearcher{})
	assert.NoError(t, f.orders.Create(&models.Order{ID: "order-1", UserID: "u1", Status: models.OrderStatusPending, TotalAmount: 42}))

	result, err := f.agent.ProcessMessage(context.Background(), "where is my order order-1?", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "Your order is pending.", result.Response)
	assert.Equal(t, []string{"check_order_status"}, result.ToolCallsMade)
	assert.NotEmpty(t, fakeModel.lastOutcomes)
}

func TestProcessMessage_UserOrdersRequireAuthentication(t *testing.T) {
	fakeModel := &fakeLLM{intent: intentOf(llm.IntentOrderStatus), generated: "Please log in."}

	// Anonymous: no order id, no user, so no tool runs.
	f := newFixture(fakeModel, &fakeSearcher{})
	result, err := f.agent.ProcessMessage(context.Background(), "show my orders", "", "")
	assert.NoError(t, err)
	assert.Empty(t, result.ToolCallsMade)

	// Authenticated: the user's orders are looked up.
	fakeModel2 := &fakeLLM{intent: intentOf(llm.IntentOrderStatus), generated: "You have 1 order."}
	f2 := newFixture(fakeModel2, &fakeSearcher{})
	assert.NoError(t, f2.orders.Create(&models.Order{ID: "order-1", UserID: "u1", Status: models.OrderStatusPending}))

	result, err = f2.agent.ProcessMessage(context.Background(), "show my orders", "", "u1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"get_user_orders"}, result.ToolCallsMade)
}

func TestProcessMessage_SessionReuse(t *testing.T) {
	fakeModel := &fakeLLM{intent: intentOf(llm.IntentGreeting), generated: "Hi again!"}
	f := newFixture(fakeModel, &fakeSearcher{})

	first, err := f.agent.ProcessMessage(context.Background(), "hi", "", "")
	assert.NoError(t, err)

	second, err := f.agent.ProcessMessage(context.Background(), "hello again", first.SessionID, "")
	assert.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)

	messages, _ := f.conversations.GetMessages(first.SessionID, 0)
	assert.Len(t, messages, 4)

	// An unknown session id silently gets a fresh session.
	third, err := f.agent.ProcessMessage(context.Background(), "hi", "no-such-session", "")
	assert.NoError(t, err)
	assert.NotEqual(t, "no-such-session", third.SessionID)
	assert.NotEmpty(t, third.SessionID)
}

func TestProcessMessage_ToolFailureDoesNotAbortTurn(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("index unreachable")}
	fakeModel := &fakeLLM{
		intent: intentOf(llm.IntentProductSearch),
		replies: []*llm.Reply{
			{ToolCalls: []llm.ToolCall{{CallID: "c1", Name: "search_products", Arguments: map[string]any{"query": "headphones"}}}},
			{Content: "Sorry, search is having trouble right now."},
		},
	}
	f := newFixture(fakeModel, searcher)

	result, err := f.agent.ProcessMessage(context.Background(), "find headphones", "", "")
	assert.NoError(t, err)
	assert.Equal(t, "Sorry, search is having trouble right now.", result.Response)
	assert.Equal(t, []string{"search_products"}, result.ToolCallsMade)
	assert.Empty(t, result.Suggestions)
}

func TestProcessMessage_GenerationFailureDegrades(t *testing.T) {
	fakeModel := &fakeLLM{intent: intentOf(llm.IntentGreeting), generateErr: fmt.Errorf("model unavailable")}
	f := newFixture(fakeModel, &fakeSearcher{})

	result, err := f.agent.ProcessMessage(context.Background(), "hi", "", "")
	assert.NoError(t, err)
	assert.Contains(t, result.Response, "I apologize")
}
