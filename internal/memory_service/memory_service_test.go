package memory_service //nolint:revive // var-naming: using underscores for domain clarity

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/lewisedginton/agent_memory_service/internal/embedding"
	"github.com/lewisedginton/agent_memory_service/pkg/logger"
)

// fakeProvider is an in-memory FileProvider with switchable failures.
type fakeProvider struct {
	mu         sync.Mutex
	files      map[string][]byte
	failWrite  bool
	failDelete bool
	failRead   bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{files: make(map[string][]byte)}
}

func (p *fakeProvider) Read(_ context.Context, path string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failRead {
		return nil, fmt.Errorf("read failure")
	}
	data, ok := p.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return data, nil
}

func (p *fakeProvider) Write(_ context.Context, path string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWrite {
		return fmt.Errorf("write failure")
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	p.files[path] = stored
	return nil
}

func (p *fakeProvider) Exists(_ context.Context, path string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failRead {
		return false, fmt.Errorf("exists failure")
	}
	_, ok := p.files[path]
	return ok, nil
}

func (p *fakeProvider) Delete(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failDelete {
		return fmt.Errorf("delete failure")
	}
	delete(p.files, path)
	return nil
}

func (p *fakeProvider) List(_ context.Context, prefix string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var paths []string
	for path := range p.files {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// failingEmbedder always fails, simulating an unreachable embedding backend.
type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, fmt.Errorf("embedding backend unreachable")
}

func (failingEmbedder) Dimensions() int { return DefaultEmbeddingDimensions }

// failingIndex always fails, simulating an unreachable vector index.
type failingIndex struct{}

func (failingIndex) Index(context.Context, string, string, []float64, map[string]string) error {
	return fmt.Errorf("index unreachable")
}

func (failingIndex) Search(context.Context, string, []float64, int) ([]embedding.Match, error) {
	return nil, fmt.Errorf("index unreachable")
}

func (failingIndex) DeleteUser(context.Context, string) error {
	return fmt.Errorf("index unreachable")
}

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Service: "test", Output: io.Discard})
}

func newTestService(provider *fakeProvider) *Service {
	return New(Config{
		FileProvider: provider,
		Embedder:     embedding.NewMockEmbedder(0),
		VectorIndex:  embedding.NewMockVectorIndex(),
		Logger:       testLogger(),
	})
}

func floatPtr(v float64) *float64 { return &v }
