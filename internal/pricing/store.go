package pricing

import (
	"context"
	"errors"
	"time"
)

// Price sources recorded in cache entries.
const (
	SourceCache    = "cache"
	SourceOpenAI   = "openai"
	SourceFallback = "fallback"
)

// TTL after which a cached estimate counts as a miss.
const CacheTTL = 7 * 24 * time.Hour

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("price cache miss")

// Entry is one cached price estimate.
type Entry struct {
	Price     int       `json:"price"`
	Category  string    `json:"category"`
	ItemName  string    `json:"item_name"`
	Condition string    `json:"condition"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is a keyed price cache. Implementations expire entries after
// CacheTTL.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, e *Entry) error
}
