package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mapletenders/tenderindex/internal/db"
	"github.com/mapletenders/tenderindex/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// Cache layers, used as the "layer" metric label.
const (
	layerMemory = "memory"
	layerStore  = "redis"
)

// DefaultMemorySize is the number of vectors kept in process when no size is configured.
// At 384 dimensions * 4 bytes * 1000 entries that is about 1.5MB.
const DefaultMemorySize = 1000

// Model identifies the vector space cached entries belong to. Entries of one
// model are never served for another. Dim 0 skips the length check on store hits.
type Model struct {
	Name string
	Dim  int
}

func (m Model) keyPrefix() string {
	return cacheKeyPrefix + m.Name + ":" + strconv.Itoa(m.Dim) + ":"
}

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder caches embeddings in process and in a key-value store.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	model      Model
	keyPrefix  string
	memory     *lru.Cache[string, []float32]
	cacheTotal *prometheus.CounterVec
	inflight   singleflight.Group
	ttl        time.Duration
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with labels "layer" and "result" ("hit"/"miss"), passed explicitly.
// memorySize <= 0 uses DefaultMemorySize.
func New(
	inner domain.Embedder,
	s store,
	model Model,
	memorySize int,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if memorySize <= 0 {
		memorySize = DefaultMemorySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	memory, _ := lru.New[string, []float32](memorySize)
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		model:      model,
		keyPrefix:  model.keyPrefix(),
		memory:     memory,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// WithTTL expires store entries after ttl. Zero keeps them until evicted by the store.
func (c *CachedEmbedder) WithTTL(ttl time.Duration) *CachedEmbedder {
	c.ttl = ttl
	return c
}

// Embed returns a cached embedding or calls the inner embedder. Concurrent
// misses for the same text share one inner call. A hit reports zero tokens.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)
	if vec, ok := c.lookup(ctx, key); ok {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	v, err, shared := c.inflight.Do(key, func() (any, error) {
		res, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.put(ctx, key, res.Embedding)
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	res := v.(domain.EmbeddingResult) //nolint:forcetypeassert // only EmbeddingResult is stored
	if shared {
		// Only one caller is billed for a shared call.
		res.PromptTokens, res.TotalTokens = 0, 0
	}
	return res, nil
}

// BatchEmbed serves cached texts and sends each distinct miss to the inner
// embedder once, in one batch. Token usage counts the misses only.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	waiting := make(map[string][]int) // cache key -> positions in texts
	var missKeys, missTexts []string

	for i, text := range texts {
		key := c.cacheKey(text)
		if pos, ok := waiting[key]; ok {
			waiting[key] = append(pos, i)
			continue
		}
		if vec, ok := c.lookup(ctx, key); ok {
			out.Embeddings[i] = vec
			continue
		}
		waiting[key] = []int{i}
		missKeys = append(missKeys, key)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	res, err := domain.EmbedBatch(ctx, c.inner, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // already wrapped by EmbedBatch
	}
	for j, key := range missKeys {
		c.put(ctx, key, res.Embeddings[j])
		for _, i := range waiting[key] {
			out.Embeddings[i] = res.Embeddings[j]
		}
	}
	out.PromptTokens = res.PromptTokens
	out.TotalTokens = res.TotalTokens
	return out, nil
}

// lookup checks the in-process layer, then the store. Store hits are promoted to memory.
func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	if vec, ok := c.memory.Get(key); ok {
		c.incCache(layerMemory, "hit")
		return vec, true
	}
	c.incCache(layerMemory, "miss")

	vec, ok := c.getFromStore(ctx, key)
	if !ok {
		c.incCache(layerStore, "miss")
		return nil, false
	}
	c.incCache(layerStore, "hit")
	c.memory.Add(key, vec)
	return vec, true
}

func (c *CachedEmbedder) put(ctx context.Context, key string, vec []float32) {
	c.memory.Add(key, vec)
	c.putToStore(ctx, key, vec)
}

func (c *CachedEmbedder) incCache(layer, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(layer, result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return c.keyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromStore(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if c.model.Dim > 0 && len(vec) != c.model.Dim {
		c.logger.Warn("Ignoring cached embedding of wrong dimension",
			zap.String("key", key),
			zap.Int("dim", len(vec)),
			zap.Int("expected", c.model.Dim),
		)
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) putToStore(ctx context.Context, key string, vec []float32) {
	data := vectorToCacheBytes(vec)
	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
