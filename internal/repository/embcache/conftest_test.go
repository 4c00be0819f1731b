package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mapletenders/tenderindex/internal/db"
	"github.com/mapletenders/tenderindex/internal/domain"
)

// fakeEmbedder embeds text as a one-element vector of its length and bills
// tokensPerText for every input.
type fakeEmbedder struct {
	tokensPerText int
	err           error
	short         bool // drop the last vector of every batch

	calls   int
	batches [][]string
}

func vecFor(text string) []float32 { return []float32{float32(len(text))} }

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{
		Embedding:    vecFor(text),
		PromptTokens: f.tokensPerText,
		TotalTokens:  f.tokensPerText,
	}, nil
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batches = append(f.batches, texts)
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	out := domain.BatchEmbeddingResult{
		PromptTokens: f.tokensPerText * len(texts),
		TotalTokens:  f.tokensPerText * len(texts),
	}
	for _, t := range texts {
		out.Embeddings = append(out.Embeddings, vecFor(t))
	}
	if f.short {
		out.Embeddings = out.Embeddings[:len(out.Embeddings)-1]
	}
	return out, nil
}

// memKV is a map-backed store. getErr/setErr simulate an unavailable server.
type memKV struct {
	data   map[string][]byte
	getErr error
	setErr error

	gets int
	ttls map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, error) {
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key string, value []byte) error {
	return m.SetWithTTL(ctx, key, value, 0)
}

func (m *memKV) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

// testModel leaves Dim 0 so the one-element fake vectors pass.
var testModel = Model{Name: "test-embed"}

func newTestCache(t *testing.T, inner *fakeEmbedder) (*CachedEmbedder, *memKV) {
	t.Helper()
	kv := newMemKV()
	return New(inner, kv, testModel, 0, nil, zap.NewNop()), kv
}
