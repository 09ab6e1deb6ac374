package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const classifySystemPrompt = `You are an intent classification system for an e-commerce shopping platform.

Analyze the user message and respond with a JSON object containing:
1. "intent": One of these exact values:
   - "product_search" - User wants to find/search for products
   - "product_recommendation" - User wants suggestions/recommendations
   - "product_details" - User asks about a specific product
   - "order_help" - User needs help with orders
   - "order_status" - User wants to check order status
   - "general_question" - General questions about the store
   - "greeting" - Hello, hi, etc.
   - "farewell" - Goodbye, thanks, etc.
   - "complaint" - User is unhappy or complaining
   - "unknown" - Cannot determine intent

2. "confidence": A float between 0.0 and 1.0 indicating how confident you are

3. "entities": An object that may contain:
   - "product_names": Array of product names mentioned
   - "categories": Array of categories (e.g., "electronics", "clothing", "shoes")
   - "brands": Array of brand names mentioned
   - "price_min": Minimum price if mentioned (number)
   - "price_max": Maximum price if mentioned (number)
   - "order_id": Order ID if mentioned (string)
   - "quantity": Quantity if mentioned (number)
   - "attributes": Object with other attributes (color, size, etc.)

4. "requires_clarification": Boolean, true if the intent is unclear

5. "clarification_question": If requires_clarification is true, suggest a question to ask

Respond ONLY with valid JSON, no other text.`

const clarificationFallback = "I'm not sure I understood that. Could you please rephrase?"

// Client wraps an OpenAI-compatible chat completion API. In production it is
// pointed at Groq's endpoint, but it works against any compatible server.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
}

// NewClient creates a new Client for the given API key, base URL and model.
func NewClient(apiKey, baseURL, model string, maxTokens int) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:       openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
	}
}

// ClassifyIntent determines the intent of a user message and extracts
// entities, using JSON-mode output. Failures degrade to IntentUnknown with a
// clarification question instead of failing the chat turn.
func (c *Client) ClassifyIntent(ctx context.Context, message string, history []Message) IntentResult {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: classifySystemPrompt},
	}
	for _, m := range tail(history, 5) {
		messages = append(messages, toAPIMessage(m))
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "Classify this message: " + message,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.1,
		MaxTokens:   1000,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		log.Printf("intent classification failed: %v", err)
		return degradedIntentResult()
	}
	if len(resp.Choices) == 0 {
		log.Printf("intent classification returned no choices")
		return degradedIntentResult()
	}

	var parsed struct {
		Intent                string            `json:"intent"`
		Confidence            *float64          `json:"confidence"`
		Entities              ExtractedEntities `json:"entities"`
		RequiresClarification bool              `json:"requires_clarification"`
		ClarificationQuestion string            `json:"clarification_question"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		log.Printf("intent classification returned invalid JSON: %v", err)
		return degradedIntentResult()
	}

	confidence := 0.5
	if parsed.Confidence != nil {
		confidence = *parsed.Confidence
	}
	return IntentResult{
		Intent:                ParseIntent(parsed.Intent),
		Confidence:            confidence,
		Entities:              parsed.Entities,
		RequiresClarification: parsed.RequiresClarification,
		ClarificationQuestion: parsed.ClarificationQuestion,
	}
}

// GenerateResponse produces a conversational answer, optionally grounding it
// in the outcomes of previously executed tools.
func (c *Client) GenerateResponse(ctx context.Context, message, systemPrompt string, history []Message, outcomes []ToolOutcome) (string, error) {
	messages := buildMessages(systemPrompt, message, history, formatToolContext(outcomes))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// CallWithTools runs a completion with function calling enabled. The model
// either answers directly or requests tool calls.
func (c *Client) CallWithTools(ctx context.Context, message string, tools []Tool, systemPrompt string, history []Message) (*Reply, error) {
	messages := buildMessages(systemPrompt, message, history, "")

	apiTools := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		apiTools = append(apiTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       apiTools,
		ToolChoice:  "auto",
		Temperature: 0.7,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call model with tools: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return &Reply{Content: msg.Content}, nil
	}

	reply := &Reply{}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("failed to decode arguments for tool %s: %w", tc.Function.Name, err)
			}
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return reply, nil
}

func degradedIntentResult() IntentResult {
	return IntentResult{
		Intent:                IntentUnknown,
		Confidence:            0,
		RequiresClarification: true,
		ClarificationQuestion: clarificationFallback,
	}
}

// buildMessages assembles the message list for a completion: system prompt,
// recent history, optional tool context and finally the user message.
func buildMessages(systemPrompt, userMessage string, history []Message, toolContext string) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	for _, m := range tail(history, 10) {
		messages = append(messages, toAPIMessage(m))
	}
	if toolContext != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: toolContext,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})
	return messages
}

func formatToolContext(outcomes []ToolOutcome) string {
	if len(outcomes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Here are the results from the tools I used to help answer your question:\n\n")
	for _, o := range outcomes {
		payload, err := json.MarshalIndent(o.Result, "", "  ")
		if err != nil {
			payload = []byte(fmt.Sprintf("%v", o.Result))
		}
		fmt.Fprintf(&b, "**%s**:\n```json\n%s\n```\n\n", o.Tool, payload)
	}
	return b.String()
}

func toAPIMessage(m Message) openai.ChatCompletionMessage {
	role := m.Role
	if role == "" {
		role = openai.ChatMessageRoleUser
	}
	return openai.ChatCompletionMessage{Role: role, Content: m.Content}
}

func tail(history []Message, n int) []Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
