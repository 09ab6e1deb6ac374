package agent

import (
	"context"
	"strconv"
	"time"

	"shopai/internal/llm"
	"shopai/internal/search"

	"github.com/google/uuid"
)

const (
	toolSearchProducts     = "search_products"
	toolGetProductDetails  = "get_product_details"
	toolGetRecommendations = "get_recommendations"
	toolCheckOrderStatus   = "check_order_status"
	toolGetUserOrders      = "get_user_orders"
)

// Toolkit returns the tool definitions exposed to the model.
func Toolkit() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolSearchProducts,
			Description: "Search for products using semantic search. Use this when the user wants to find or browse products.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query describing what products to find",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Optional category to filter by (e.g., 'electronics', 'clothing')",
					},
					"min_price": map[string]any{
						"type":        "number",
						"description": "Optional minimum price filter",
					},
					"max_price": map[string]any{
						"type":        "number",
						"description": "Optional maximum price filter",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Number of results to return (default 5, max 10)",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        toolGetProductDetails,
			Description: "Get detailed information about a specific product by ID or name.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product_id": map[string]any{
						"type":        "string",
						"description": "The product ID",
					},
					"product_name": map[string]any{
						"type":        "string",
						"description": "The product name to search for",
					},
				},
			},
		},
		{
			Name:        toolGetRecommendations,
			Description: "Get product recommendations based on a product, category, or user preferences.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"product_id": map[string]any{
						"type":        "string",
						"description": "Product ID to find similar products for",
					},
					"category": map[string]any{
						"type":        "string",
						"description": "Category to get recommendations from",
					},
					"preferences": map[string]any{
						"type":        "string",
						"description": "Description of user preferences",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Number of recommendations (default 5)",
					},
				},
			},
		},
		{
			Name:        toolCheckOrderStatus,
			Description: "Check the status of an order by order ID.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"order_id": map[string]any{
						"type":        "string",
						"description": "The order ID to check",
					},
				},
				"required": []string{"order_id"},
			},
		},
		{
			Name:        toolGetUserOrders,
			Description: "Get all orders for the current authenticated user.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
	}
}

// executeTool runs a single tool call. Tool failures are reported in the
// result rather than as errors so the model can react to them.
func (a *ShopAgent) executeTool(ctx context.Context, name string, args map[string]any, userID string) ToolResult {
	callID := uuid.New().String()[:8]

	switch name {
	case toolSearchProducts:
		limit := intArg(args, "limit", 5)
		if limit > 10 {
			limit = 10
		}
		results, err := a.searcher.Search(ctx, search.Query{
			Text:     stringArg(args, "query"),
			TopK:     limit,
			Category: stringArg(args, "category"),
			MinPrice: floatArg(args, "min_price"),
			MaxPrice: floatArg(args, "max_price"),
		})
		if err != nil {
			return failedTool(callID, name, err.Error())
		}
		return ToolResult{CallID: callID, ToolName: name, Result: flattenResults(results), Success: true}

	case toolGetProductDetails:
		if id := stringArg(args, "product_id"); id != "" {
			product, err := a.products.GetByID(id)
			if err != nil || !product.IsActive {
				return failedTool(callID, name, "Product not found")
			}
			return ToolResult{CallID: callID, ToolName: name, Result: product, Success: true}
		}
		if productName := stringArg(args, "product_name"); productName != "" {
			results, err := a.searcher.Search(ctx, search.Query{Text: productName, TopK: 1})
			if err != nil {
				return failedTool(callID, name, err.Error())
			}
			if len(results) > 0 {
				product := results[0].Product
				return ToolResult{CallID: callID, ToolName: name, Result: &product, Success: true}
			}
		}
		return failedTool(callID, name, "Product not found")

	case toolGetRecommendations:
		limit := intArg(args, "limit", 5)
		var (
			results []search.Result
			err     error
		)
		if id := stringArg(args, "product_id"); id != "" {
			results, err = a.searcher.FindSimilar(ctx, id, limit)
		} else if prefs, category := stringArg(args, "preferences"), stringArg(args, "category"); prefs != "" || category != "" {
			query := prefs
			if query == "" {
				query = category
			}
			results, err = a.searcher.Search(ctx, search.Query{
				Text:     query,
				TopK:     limit,
				Category: category,
			})
		} else {
			products, listErr := a.products.List(0, 5, "")
			if listErr != nil {
				return failedTool(callID, name, listErr.Error())
			}
			for _, p := range products {
				results = append(results, search.Result{Product: p, Similarity: 1.0})
			}
		}
		if err != nil {
			return failedTool(callID, name, err.Error())
		}
		return ToolResult{CallID: callID, ToolName: name, Result: flattenResults(results), Success: true}

	case toolCheckOrderStatus:
		order, err := a.orders.GetByID(stringArg(args, "order_id"))
		if err != nil {
			return failedTool(callID, name, "Order not found")
		}
		return ToolResult{
			CallID:   callID,
			ToolName: name,
			Result: map[string]any{
				"order_id":         order.ID,
				"status":           order.Status,
				"total_amount":     order.TotalAmount,
				"created_at":       order.CreatedAt.Format(time.RFC3339),
				"shipping_address": order.ShippingAddress,
			},
			Success: true,
		}

	case toolGetUserOrders:
		if userID == "" {
			return failedTool(callID, name, "Please log in to view your orders")
		}
		orders, err := a.orders.GetByUser(userID)
		if err != nil {
			return failedTool(callID, name, err.Error())
		}
		summaries := make([]map[string]any, 0, len(orders))
		for _, o := range orders {
			summaries = append(summaries, map[string]any{
				"order_id":     o.ID,
				"status":       o.Status,
				"total_amount": o.TotalAmount,
				"created_at":   o.CreatedAt.Format(time.RFC3339),
			})
		}
		return ToolResult{CallID: callID, ToolName: name, Result: summaries, Success: true}

	default:
		return failedTool(callID, name, "Unknown tool: "+name)
	}
}

func failedTool(callID, name, message string) ToolResult {
	return ToolResult{CallID: callID, ToolName: name, Success: false, ErrorMessage: message}
}

func flattenResults(results []search.Result) []map[string]any {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, r.Flatten())
	}
	return out
}

// Tool arguments arrive as decoded JSON, so scalars need loose coercion:
// numbers decode as float64 and identifiers may arrive as either type.

func stringArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func floatArg(args map[string]any, key string) *float64 {
	switch v := args[key].(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
