// Package redis implements the tender index store on Redis 8, whose query engine
// and JSON type back the FT index, and whose plain keys back the embedding cache.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/mapletenders/tenderindex/internal/db"
)

var _ db.Store = (*Store)(nil)

// pollInterval is how often WaitForReady retries PING.
const pollInterval = 100 * time.Millisecond

// Config holds connection parameters for the index store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// ClientName shows up in CLIENT LIST, e.g. "tenderindex".
	ClientName string
}

// Store implements db.Store with rueidis.
type Store struct {
	client rueidis.Client
}

// NewStore connects to Redis. Client-side caching is off: index reads must see the latest sync.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("index store: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   cfg.ClientName,
		DisableCache: true,
		// FT.SEARCH replies are parsed as RESP2 arrays
		AlwaysRESP2: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect index store: %w", err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls PING until the server answers, then checks once that the query engine
// is loaded. A server without FT commands fails immediately with db.ErrSearchUnavailable.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for s.Ping(ctx) != nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for index store: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return s.checkSearch(ctx)
}

func (s *Store) checkSearch(ctx context.Context) error {
	err := s.do(ctx, s.b().Arbitrary("FT._LIST").Build()).Error()
	switch {
	case err == nil:
		return nil
	case isRedisErr(err, "unknown command"):
		return fmt.Errorf("%w: %w", db.ErrSearchUnavailable, err)
	default:
		return &db.Error{Op: db.OpListIndexes, Err: err}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// isRedisErr reports whether err is a server error whose message contains substr, ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
