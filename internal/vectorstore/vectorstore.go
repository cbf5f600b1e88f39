// Package vectorstore implements the minimal embedding-backed document
// store that example selection uses for semantic similarity and
// max-marginal-relevance search.
package vectorstore

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
)

// Document is one embedded unit of text with arbitrary metadata, the
// record shape a similarity search returns.
type Document struct {
	ID        string
	Text      string
	Metadata  map[string]any
	Embedding []float32
}

// Embedder turns a batch of texts into their vector embeddings,
// preserving input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is an in-memory similarity/MMR search index over embedded
// documents, sized for the example counts few-shot prompting works
// with (tens to low thousands), not bulk vector search.
type Store struct {
	embedder Embedder
	docs     []Document
}

// New returns a Store backed by embedder.
func New(embedder Embedder) *Store {
	return &Store{embedder: embedder}
}

// AddTexts embeds texts and stores them alongside their metadata,
// returning the generated document IDs in input order.
func (s *Store) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any) ([]string, error) {
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(texts))
	for i, text := range texts {
		var md map[string]any
		if i < len(metadatas) {
			md = metadatas[i]
		}
		id := uuid.NewString()
		s.docs = append(s.docs, Document{ID: id, Text: text, Metadata: md, Embedding: vectors[i]})
		ids[i] = id
	}
	return ids, nil
}

// scored pairs a document with its similarity to the active query.
type scored struct {
	doc   Document
	score float64
}

// SimilaritySearch returns the k documents whose embeddings are most
// cosine-similar to query, highest similarity first.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return s.topK(vecs[0], k), nil
}

func (s *Store) topK(queryVec []float32, k int) []Document {
	ranked := make([]scored, 0, len(s.docs))
	for _, d := range s.docs {
		ranked = append(ranked, scored{doc: d, score: cosineSimilarity(queryVec, d.Embedding)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]Document, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].doc
	}
	return out
}

// MaxMarginalRelevanceSearch returns k documents selected from the
// fetchK most similar candidates, balancing relevance to query against
// diversity from documents already selected. lambda in [0,1]: 1 is
// pure relevance, 0 is pure diversity.
func (s *Store) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, lambda float64) ([]Document, error) {
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	queryVec := vecs[0]
	candidates := s.topK(queryVec, fetchK)
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]Document, 0, k)
	chosen := make(map[string]bool, k)
	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i, c := range candidates {
			if chosen[c.ID] {
				continue
			}
			relevance := cosineSimilarity(queryVec, c.Embedding)
			diversity := 0.0
			for _, sel := range selected {
				sim := cosineSimilarity(sel.Embedding, c.Embedding)
				if sim > diversity {
					diversity = sim
				}
			}
			mmr := lambda*relevance - (1-lambda)*diversity
			if mmr > bestScore {
				bestScore = mmr
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			break
		}
		chosen[candidates[bestIdx].ID] = true
		selected = append(selected, candidates[bestIdx])
	}
	return selected, nil
}

// Len reports how many documents are stored.
func (s *Store) Len() int { return len(s.docs) }

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
