package core

import (
	"context"
	"log"
)

// RelevanceThreshold is the distance boundary for scored retrieval
// results: candidates at or above it are discarded as irrelevant
// (lower distance = more relevant).
const RelevanceThreshold = 0.8

// RetrievalEngine queries the local vector index with progressively
// cheaper strategies and falls back to live web search only when the
// local result set is empty. Transport errors never escape: each
// failed strategy just advances to the next, and a failed web search
// degrades to an empty passage set.
type RetrievalEngine struct {
	index VectorIndex
	web   WebSearcher
}

func NewRetrievalEngine(index VectorIndex, web WebSearcher) *RetrievalEngine {
	return &RetrievalEngine{index: index, web: web}
}

// Retrieve returns the supporting passages for a question. The scored
// and plain searches run against the history-composed query; the
// generic last-resort retrieval uses the bare question text. The
// result may be empty; it is never an error.
func (e *RetrievalEngine) Retrieve(ctx context.Context, query, question string, topK int) []Passage {
	passages := e.localPassages(ctx, query, question, topK)

	if len(passages) == 0 && e.web != nil {
		webResults, err := e.web.Search(ctx, query, topK)
		if err != nil {
			log.Printf("Web search fallback failed, proceeding without passages: %v", err)
		} else if len(webResults) > 0 {
			passages = webResults
		}
	}
	return passages
}

// localPassages tries each local strategy in order, advancing only
// when a strategy's call itself fails. A successful scored search that
// filters down to nothing is still a successful (empty) local result.
func (e *RetrievalEngine) localPassages(ctx context.Context, query, question string, topK int) []Passage {
	type strategy struct {
		name  string
		input string
		run   func(ctx context.Context, query string, k int) ([]Passage, error)
	}
	strategies := []strategy{
		{"scored similarity search", query, e.scoredSearch},
		{"similarity search", query, e.index.Search},
		{"generic retrieval", question, e.index.Retrieve},
	}

	for _, s := range strategies {
		passages, err := s.run(ctx, s.input, topK)
		if err != nil {
			log.Printf("Retrieval strategy %q failed: %v", s.name, err)
			continue
		}
		return passages
	}
	return nil
}

// scoredSearch runs the scored similarity search and drops candidates
// whose distance is at or beyond the relevance threshold, preserving
// the index's ranking order.
func (e *RetrievalEngine) scoredSearch(ctx context.Context, query string, k int) ([]Passage, error) {
	scored, err := e.index.SearchWithScores(ctx, query, k)
	if err != nil {
		return nil, err
	}

	relevant := make([]Passage, 0, len(scored))
	for _, p := range scored {
		if p.Score < RelevanceThreshold {
			relevant = append(relevant, p)
		}
	}
	return relevant, nil
}
