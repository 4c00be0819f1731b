// Package embedding exposes the embedding model to upstream collaborators:
// query vectors and the text block plus vector stored with each tender.
package embedding

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
	"github.com/mapletenders/tenderindex/internal/mapper"
)

// DefaultMaxAPIBatchSize is the largest batch sent to the provider in one request.
const DefaultMaxAPIBatchSize = 256

// TenderVectors is the result of embedding a batch of tenders.
// Embeddings[i] and Inputs[i] belong to the i-th input record.
type TenderVectors struct {
	Embeddings [][]float32
	Inputs     []string
}

// Service builds embedding inputs and vectors.
type Service struct {
	query  domain.Embedder
	docs   domain.Embedder
	logger *zap.Logger
}

// New creates a Service. query embeds search text (it may prepend an instruction);
// docs embeds tender text as-is.
func New(query, docs domain.Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{query: query, docs: docs, logger: logger}
}

// QueryVector embeds a search query.
func (s *Service) QueryVector(ctx context.Context, q string) ([]float32, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", domain.ErrInvalidRequest)
	}

	res, err := s.query.Embed(ctx, q)
	if err != nil {
		s.logger.Error("Query embedding failed", zap.Error(err))
		return nil, fmt.Errorf("embed query: %w", err)
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	return res.Embedding, nil
}

// TenderVectors builds the embedding input for each record and embeds them in batches.
func (s *Service) TenderVectors(ctx context.Context, recs []tender.Record) (TenderVectors, error) {
	if len(recs) == 0 {
		return TenderVectors{}, fmt.Errorf("%w: no tenders provided", domain.ErrInvalidRequest)
	}

	inputs := make([]string, len(recs))
	for i, rec := range recs {
		inputs[i] = Input(mapper.Project(rec))
	}

	start := time.Now()
	res, err := s.embedChunked(ctx, inputs)
	if err != nil {
		return TenderVectors{}, err
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	s.logger.Debug("Tender embeddings completed",
		zap.Int("tenders", len(recs)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return TenderVectors{Embeddings: res.Embeddings, Inputs: inputs}, nil
}

// embedChunked embeds texts in requests of at most DefaultMaxAPIBatchSize.
func (s *Service) embedChunked(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var out domain.BatchEmbeddingResult
	for chunk := range slices.Chunk(texts, DefaultMaxAPIBatchSize) {
		res, err := domain.EmbedBatch(ctx, s.docs, chunk)
		if err != nil {
			s.logger.Error("Batch embedding request failed",
				zap.Int("chunk_offset", len(out.Embeddings)),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embed tenders: %w", err)
		}
		out.Append(res)
	}
	return out, nil
}

// Input renders the labelled text block that is embedded for a tender.
// Absent attributes render as empty values so every block has the same labels.
func Input(doc tender.Document) string {
	lines := []struct{ label, value string }{
		{"Title", doc.Title},
		{"Description", doc.TenderDescription},
		{"Category", doc.ProcurementCategory},
		{"Procurement Method", doc.ProcurementMethod},
		{"Selection Criteria", doc.SelectionCriteria},
		{"Trade Agreements", doc.TradeAgreements},
		{"Region of Delivery", doc.RegionsOfDelivery},
		{"End User", doc.EndUserEntitiesName},
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.label)
		b.WriteString(": ")
		b.WriteString(l.value)
	}
	return strings.TrimSpace(b.String())
}
