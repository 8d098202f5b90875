package memory

import (
	"context"
	"fmt"
)

// mockEngine returns canned vectors keyed by exact text, so similarity
// rankings in tests are fully deterministic.
type mockEngine struct {
	vectors    map[string][]float32
	embedCalls int
	failEmbed  bool
}

func newMockEngine(vectors map[string][]float32) *mockEngine {
	return &mockEngine{vectors: vectors}
}

func (m *mockEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.failEmbed {
		return nil, fmt.Errorf("mock embed failure")
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func (m *mockEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEngine) Dimensions() int { return 3 }

func (m *mockEngine) Name() string { return "mock" }
