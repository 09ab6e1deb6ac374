package search

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// Vector is an embedding with its metadata, keyed by product ID.
type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

// Match is a single result returned by a vector index query.
type Match struct {
	ID    string
	Score float64
}

// Index is the vector index the search service reads and writes. Filters use
// the Pinecone metadata filter syntax ($eq, $gte, $lte).
type Index interface {
	Upsert(ctx context.Context, vectors []Vector) error
	Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]Match, error)
	DeleteByID(ctx context.Context, ids ...string) error
}

// PineconeIndex is a Pinecone-backed implementation of Index.
type PineconeIndex struct {
	conn *pinecone.IndexConnection
}

// NewPineconeIndex connects to the named Pinecone index, creating it as a
// serverless index if it does not exist yet.
func NewPineconeIndex(ctx context.Context, apiKey, indexName, cloud, region string, dimension int) (*PineconeIndex, error) {
	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create pinecone client: %w", err)
	}

	idx, err := pc.DescribeIndex(ctx, indexName)
	if err != nil {
		idx, err = pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
			Name:      indexName,
			Dimension: int32(dimension),
			Metric:    pinecone.Cosine,
			Cloud:     pinecone.Cloud(cloud),
			Region:    region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create pinecone index %s: %w", indexName, err)
		}
	}

	conn, err := pc.Index(pinecone.NewIndexConnParams{Host: idx.Host})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pinecone index %s: %w", indexName, err)
	}
	return &PineconeIndex{conn: conn}, nil
}

// Upsert writes vectors to the index.
func (p *PineconeIndex) Upsert(ctx context.Context, vectors []Vector) error {
	records := make([]*pinecone.Vector, 0, len(vectors))
	for _, v := range vectors {
		metadata, err := structpb.NewStruct(v.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for vector %s: %w", v.ID, err)
		}
		records = append(records, &pinecone.Vector{
			Id:       v.ID,
			Values:   v.Values,
			Metadata: metadata,
		})
	}
	if _, err := p.conn.UpsertVectors(ctx, records); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// Query returns the topK nearest vectors, optionally restricted by a
// metadata filter.
func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]Match, error) {
	req := &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	}
	if len(filter) > 0 {
		metadataFilter, err := structpb.NewStruct(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata filter: %w", err)
		}
		req.MetadataFilter = metadataFilter
	}

	res, err := p.conn.QueryByVectorValues(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	matches := make([]Match, 0, len(res.Matches))
	for _, m := range res.Matches {
		matches = append(matches, Match{
			ID:    m.Vector.Id,
			Score: float64(m.Score),
		})
	}
	return matches, nil
}

// DeleteByID removes vectors from the index.
func (p *PineconeIndex) DeleteByID(ctx context.Context, ids ...string) error {
	if err := p.conn.DeleteVectorsById(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete vectors: %w", err)
	}
	return nil
}
