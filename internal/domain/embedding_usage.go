package domain

import "context"

type usageKey struct{}

// EmbeddingUsage accumulates the tokens a single API call spent on embeddings.
// Handlers attach one to the request context; embedders add to it as they go.
// It is not safe for concurrent use.
type EmbeddingUsage struct {
	TotalTokens int
	// Used is set by any embedding, including cache hits that bill nothing.
	Used bool
}

// NewContextWithUsage attaches a fresh EmbeddingUsage to ctx.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := new(EmbeddingUsage)
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext returns the attached usage, or nil. Methods on a nil usage are no-ops.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	if u, ok := ctx.Value(usageKey{}).(*EmbeddingUsage); ok {
		return u
	}
	return nil
}

// AddTokens marks the usage as used and adds n billed tokens.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.Used = true
	u.TotalTokens += n
}
