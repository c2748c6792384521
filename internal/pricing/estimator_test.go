package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

// memStore is an in-memory Store for estimator tests.
type memStore struct {
	entries map[string]*Entry
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{entries: map[string]*Entry{}}
}

func (s *memStore) Get(ctx context.Context, key string) (*Entry, error) {
	if e, ok := s.entries[key]; ok {
		c := *e
		return &c, nil
	}
	return nil, ErrCacheMiss
}

func (s *memStore) Put(ctx context.Context, key string, e *Entry) error {
	c := *e
	s.entries[key] = &c
	return nil
}

// fakeAI answers with a fixed string or error.
type fakeAI struct {
	answer string
	err    error
	calls  int
}

func (f *fakeAI) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func TestRoundMarketplace(t *testing.T) {
	cases := []struct{ in, want int }{
		{540, 550},
		{990, 1000},
		{1234, 1290},
		{1260, 1390},
		{7990, 8090},
		{12345, 12990},
		{12600, 13990},
		{25000, 25990},
	}
	for _, c := range cases {
		if got := roundMarketplace(c.in); got != c.want {
			t.Fatalf("round(%d): want %d, got %d", c.in, c.want, got)
		}
	}
}

func TestCacheKey(t *testing.T) {
	got := CacheKey("iPhone 15 Pro", "Electronics", "New")
	if got != "electronics_iphone15pro_new" {
		t.Fatalf("unexpected key %q", got)
	}
	// Cyrillic letters survive normalization.
	if got := CacheKey("Диван", "Мебель", "new"); got != "мебель_диван_new" {
		t.Fatalf("unexpected key %q", got)
	}
	if CacheKey("TV!!!", "Electronics", "new") != CacheKey("tv", "Electronics", "new") {
		t.Fatalf("punctuation should not change the key")
	}
}

func TestEstimate_FallbackBrandMultipliers(t *testing.T) {
	log := zap.NewNop()

	est := NewEstimator(newMemStore(), nil, log, 0)
	price, source := est.Estimate(context.Background(), "Sony TV", "Electronics", "new")
	if source != SourceFallback {
		t.Fatalf("want fallback source, got %q", source)
	}
	// 25000 base doubled for a premium brand, then rounded.
	if price != 50990 {
		t.Fatalf("want 50990, got %d", price)
	}

	est = NewEstimator(newMemStore(), nil, log, 0)
	price, _ = est.Estimate(context.Background(), "Xiaomi phone", "Electronics", "new")
	// 25000 * 0.7 = 17500, rounded.
	if price != 17990 {
		t.Fatalf("want 17990, got %d", price)
	}

	est = NewEstimator(newMemStore(), nil, log, 0)
	price, _ = est.Estimate(context.Background(), "Generic gadget", "Unknown category", "new")
	// Default base 10000, rounded.
	if price != 10990 {
		t.Fatalf("want 10990, got %d", price)
	}
}

func TestEstimate_UsedConditionDiscount(t *testing.T) {
	est := NewEstimator(newMemStore(), nil, zap.NewNop(), 0)
	price, _ := est.Estimate(context.Background(), "Plain TV", "Electronics", "used")
	// 25000 * (1 - 0.4) = 15000, rounded.
	if price != 15990 {
		t.Fatalf("want 15990, got %d", price)
	}
}

func TestApplyUsedDiscount_Floor(t *testing.T) {
	if got := applyUsedDiscount(1200, "Electronics"); got != 1000 {
		t.Fatalf("discount must floor at the category minimum, got %d", got)
	}
	if got := applyUsedDiscount(400, "Something else"); got != 500 {
		t.Fatalf("default floor is 500, got %d", got)
	}
}

func TestEstimate_CacheHitOnSecondCall(t *testing.T) {
	est := NewEstimator(newMemStore(), nil, zap.NewNop(), 0)
	ctx := context.Background()

	first, source := est.Estimate(ctx, "Sony TV", "Electronics", "new")
	if source != SourceFallback {
		t.Fatalf("first call should fall back, got %q", source)
	}
	second, source := est.Estimate(ctx, "Sony TV", "Electronics", "new")
	if source != SourceCache {
		t.Fatalf("second call should hit the cache, got %q", source)
	}
	if first != second {
		t.Fatalf("cache changed the price: %d != %d", first, second)
	}
}

func TestEstimate_ModelAnswerUsed(t *testing.T) {
	ai := &fakeAI{answer: "12345"}
	est := NewEstimator(newMemStore(), ai, zap.NewNop(), 0)
	price, source := est.Estimate(context.Background(), "Rare lamp", "Home and renovation", "new")
	if source != SourceOpenAI {
		t.Fatalf("want openai source, got %q", source)
	}
	if price != 12990 {
		t.Fatalf("model answer should be rounded to 12990, got %d", price)
	}
	if ai.calls != 1 {
		t.Fatalf("exactly one attempt per request, got %d", ai.calls)
	}
}

func TestEstimate_ModelFailureFallsBack(t *testing.T) {
	ai := &fakeAI{err: errors.New("timeout")}
	est := NewEstimator(newMemStore(), ai, zap.NewNop(), time.Millisecond)
	price, source := est.Estimate(context.Background(), "Plain TV", "Electronics", "new")
	if source != SourceFallback {
		t.Fatalf("failure must fall back, got %q", source)
	}
	if price != 25990 {
		t.Fatalf("want fallback 25990, got %d", price)
	}
}

func TestEstimate_GarbageModelAnswerFallsBack(t *testing.T) {
	ai := &fakeAI{answer: "I cannot estimate that"}
	est := NewEstimator(newMemStore(), ai, zap.NewNop(), 0)
	_, source := est.Estimate(context.Background(), "Plain TV", "Electronics", "new")
	if source != SourceFallback {
		t.Fatalf("non-numeric answer must fall back, got %q", source)
	}
}
