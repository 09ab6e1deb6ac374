package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"shopai/internal/models"
	"shopai/internal/repositories"
)

const (
	// indexBatchSize caps how many vectors each upsert carries during a full
	// reindex.
	indexBatchSize = 100

	// similarMinScore is the relaxed threshold used when looking for
	// products similar to a given one.
	similarMinScore = 0.2
)

// Query holds the parameters of a semantic product search.
type Query struct {
	Text     string
	TopK     int
	Category string
	MinPrice *float64
	MaxPrice *float64
	MinScore *float64
}

// Result pairs a product with its similarity to the query.
type Result struct {
	Product    models.Product `json:"product"`
	Similarity float64        `json:"similarity"`
}

// Flatten renders a result as a flat map of product fields plus similarity,
// the shape fed back to the language model as tool output.
func (r Result) Flatten() map[string]any {
	return map[string]any{
		"id":             r.Product.ID,
		"name":           r.Product.Name,
		"description":    r.Product.Description,
		"price":          r.Product.Price,
		"category":       r.Product.Category,
		"brand":          r.Product.Brand,
		"image_url":      r.Product.ImageURL,
		"stock_quantity": r.Product.StockQuantity,
		"is_active":      r.Product.IsActive,
		"created_at":     r.Product.CreatedAt,
		"similarity":     r.Similarity,
	}
}

// Service implements semantic product search over a vector index. Products
// are embedded from their textual representation and hydrated back from the
// database on query.
type Service struct {
	embedder Embedder
	index    Index
	products repositories.ProductRepository
	topK     int
	minScore float64
}

// NewService creates a new search Service.
func NewService(embedder Embedder, index Index, products repositories.ProductRepository, topK int, minScore float64) *Service {
	return &Service{
		embedder: embedder,
		index:    index,
		products: products,
		topK:     topK,
		minScore: minScore,
	}
}

// IndexProduct embeds a single product and upserts it into the vector index.
func (s *Service) IndexProduct(ctx context.Context, product *models.Product) error {
	embedding, err := s.embedder.Embed(ctx, productText(product))
	if err != nil {
		return fmt.Errorf("failed to embed product %s: %w", product.ID, err)
	}
	vector := Vector{
		ID:       product.ID,
		Values:   embedding,
		Metadata: productMetadata(product),
	}
	if err := s.index.Upsert(ctx, []Vector{vector}); err != nil {
		return fmt.Errorf("failed to index product %s: %w", product.ID, err)
	}
	return nil
}

// IndexAllProducts embeds every active product and upserts them in batches.
// It returns the number of products indexed.
func (s *Service) IndexAllProducts(ctx context.Context) (int, error) {
	products, err := s.products.ListActive()
	if err != nil {
		return 0, err
	}

	for start := 0; start < len(products); start += indexBatchSize {
		end := start + indexBatchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = productText(&batch[i])
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to embed product batch: %w", err)
		}

		vectors := make([]Vector, len(batch))
		for i := range batch {
			vectors[i] = Vector{
				ID:       batch[i].ID,
				Values:   embeddings[i],
				Metadata: productMetadata(&batch[i]),
			}
		}
		if err := s.index.Upsert(ctx, vectors); err != nil {
			return 0, fmt.Errorf("failed to upsert product batch: %w", err)
		}
	}
	return len(products), nil
}

// DeleteProduct removes a product from the vector index.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	return s.index.DeleteByID(ctx, productID)
}

// Search runs a semantic search and hydrates the matches from the database.
// Matches below the score threshold and products that are missing or
// inactive are dropped.
func (s *Service) Search(ctx context.Context, q Query) ([]Result, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = s.topK
	}
	minScore := s.minScore
	if q.MinScore != nil {
		minScore = *q.MinScore
	}

	embedding, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.index.Query(ctx, embedding, topK, buildFilter(q))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	scores := make(map[string]float64, len(matches))
	for _, m := range matches {
		if m.Score < minScore {
			continue
		}
		ids = append(ids, m.ID)
		scores[m.ID] = m.Score
	}
	if len(ids) == 0 {
		return []Result{}, nil
	}

	products, err := s.products.GetByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || !p.IsActive {
			continue
		}
		results = append(results, Result{
			Product:    p,
			Similarity: math.Round(scores[id]*10000) / 10000,
		})
	}
	return results, nil
}

// FindSimilar returns up to topK products similar to the given one, excluding
// the product itself. An unknown product yields no results.
func (s *Service) FindSimilar(ctx context.Context, productID string, topK int) ([]Result, error) {
	if topK <= 0 {
		topK = 5
	}
	candidates, err := s.products.GetByIDs([]string{productID})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}
	product := candidates[0]

	minScore := similarMinScore
	results, err := s.Search(ctx, Query{
		Text:     productText(&product),
		TopK:     topK + 1,
		MinScore: &minScore,
	})
	if err != nil {
		return nil, err
	}

	similar := make([]Result, 0, topK)
	for _, r := range results {
		if r.Product.ID == productID {
			continue
		}
		similar = append(similar, r)
		if len(similar) == topK {
			break
		}
	}
	return similar, nil
}

// productText builds the text representation that gets embedded for a
// product.
func productText(p *models.Product) string {
	var parts []string
	for _, part := range []string{p.Name, p.Description, p.Category, p.Brand} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	parts = append(parts, fmt.Sprintf("price $%.2f", p.Price))
	return strings.Join(parts, " ")
}

func productMetadata(p *models.Product) map[string]any {
	return map[string]any{
		"product_id":     p.ID,
		"name":           p.Name,
		"category":       p.Category,
		"brand":          p.Brand,
		"price":          p.Price,
		"stock_quantity": p.StockQuantity,
		"is_active":      p.IsActive,
	}
}

func buildFilter(q Query) map[string]any {
	filter := map[string]any{}
	if q.Category != "" {
		filter["category"] = map[string]any{"$eq": q.Category}
	}
	switch {
	case q.MinPrice != nil && q.MaxPrice != nil:
		filter["price"] = map[string]any{"$gte": *q.MinPrice, "$lte": *q.MaxPrice}
	case q.MinPrice != nil:
		filter["price"] = map[string]any{"$gte": *q.MinPrice}
	case q.MaxPrice != nil:
		filter["price"] = map[string]any{"$lte": *q.MaxPrice}
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}
