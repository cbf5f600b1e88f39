package selector

import (
	"context"
	"fmt"

	"github.com/ridgeline-labs/termflow/internal/vectorstore"
)

// SemanticSimilarityExampleSelector selects the k examples whose
// embedded text is most similar to the input, via a vector store.
type SemanticSimilarityExampleSelector struct {
	store       *vectorstore.Store
	k           int
	exampleKeys []string
	inputKeys   []string
}

// NewSemanticSimilarityExampleSelector returns a selector over store.
// exampleKeys, if non-nil, restricts returned examples to those keys;
// inputKeys, if non-nil, restricts which input fields are embedded
// when searching.
func NewSemanticSimilarityExampleSelector(store *vectorstore.Store, k int, exampleKeys, inputKeys []string) *SemanticSimilarityExampleSelector {
	return &SemanticSimilarityExampleSelector{store: store, k: k, exampleKeys: exampleKeys, inputKeys: inputKeys}
}

// AddExample embeds and stores example, returning its generated ID.
func (s *SemanticSimilarityExampleSelector) AddExample(ctx context.Context, example ExampleMap) (string, error) {
	text := exampleToText(example, s.inputKeys)
	metadata := make(map[string]any, len(example))
	for k, v := range example {
		metadata[k] = v
	}
	ids, err := s.store.AddTexts(ctx, []string{text}, []map[string]any{metadata})
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// SelectExamples embeds input and returns the k nearest stored
// examples by cosine similarity.
func (s *SemanticSimilarityExampleSelector) SelectExamples(ctx context.Context, input ExampleMap) ([]ExampleMap, error) {
	query := exampleToText(input, s.inputKeys)
	docs, err := s.store.SimilaritySearch(ctx, query, s.k)
	if err != nil {
		return nil, err
	}
	return documentsToExamples(docs, s.exampleKeys), nil
}

func documentsToExamples(docs []vectorstore.Document, exampleKeys []string) []ExampleMap {
	out := make([]ExampleMap, len(docs))
	for i, doc := range docs {
		ex := make(ExampleMap, len(doc.Metadata))
		for k, v := range doc.Metadata {
			if s, ok := v.(string); ok {
				ex[k] = s
			} else {
				ex[k] = fmt.Sprint(v)
			}
		}
		out[i] = filterKeys(ex, exampleKeys)
	}
	return out
}
