// Package vector implements the local similarity-search capability as
// a cosine-distance index over the knowledge-base chunks persisted in
// the store. Chunks and their embeddings are cached in memory at
// construction time.
package vector

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/ragchatbot/server/internal/core"
	"github.com/ragchatbot/server/internal/store"
)

// ChunkSource supplies the knowledge-base chunks the index is built
// from.
type ChunkSource interface {
	GetAllDataChunks() ([]store.DataChunk, error)
}

type Index struct {
	embedder core.Embedder
	chunks   []store.DataChunk
}

func NewIndex(source ChunkSource, embedder core.Embedder) (*Index, error) {
	chunks, err := source.GetAllDataChunks()
	if err != nil {
		return nil, fmt.Errorf("failed to load data chunks for vector index: %w", err)
	}
	if len(chunks) == 0 {
		log.Println("Warning: vector index initialized with no data chunks. Ensure data has been ingested with the current embedding model.")
	} else {
		log.Printf("Vector index initialized with %d data chunks.", len(chunks))
	}
	return &Index{embedder: embedder, chunks: chunks}, nil
}

// SearchWithScores returns up to k passages ranked by cosine distance
// to the query, closest first. Score is the distance (lower = more
// relevant).
func (idx *Index) SearchWithScores(ctx context.Context, query string, k int) ([]core.Passage, error) {
	return idx.search(ctx, query, k, true)
}

// Search is the unscored variant of SearchWithScores.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]core.Passage, error) {
	return idx.search(ctx, query, k, false)
}

// Retrieve satisfies the generic retrieval fallback of the capability
// interface; for this index it is equivalent to an unscored search.
func (idx *Index) Retrieve(ctx context.Context, query string, k int) ([]core.Passage, error) {
	return idx.search(ctx, query, k, false)
}

func (idx *Index) search(ctx context.Context, query string, k int, withScores bool) ([]core.Passage, error) {
	if len(idx.chunks) == 0 {
		return nil, nil
	}

	queryEmbedding, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scoredChunk struct {
		chunk    store.DataChunk
		distance float64
	}

	scored := make([]scoredChunk, 0, len(idx.chunks))
	for _, chunk := range idx.chunks {
		if len(chunk.Embedding) == 0 {
			log.Printf("Skipping chunk ID %d due to missing embedding.", chunk.ID)
			continue
		}
		similarity, err := cosineSimilarity(queryEmbedding, chunk.Embedding)
		if err != nil {
			log.Printf("Error calculating similarity for chunk %d: %v. Skipping.", chunk.ID, err)
			continue
		}
		scored = append(scored, scoredChunk{chunk: chunk, distance: 1 - float64(similarity)})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].distance < scored[j].distance
	})
	if len(scored) > k {
		scored = scored[:k]
	}

	passages := make([]core.Passage, 0, len(scored))
	for _, sc := range scored {
		p := core.Passage{Content: sc.chunk.Content}
		if sc.chunk.Source != "" {
			src := sc.chunk.Source
			p.Source = &src
		}
		if withScores {
			p.Score = sc.distance
		}
		passages = append(passages, p)
	}
	return passages, nil
}
