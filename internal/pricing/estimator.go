package pricing

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AIClient is the part of the OpenAI client the estimator uses.
type AIClient interface {
	ChatCompletion(ctx context.Context, system, user string) (string, error)
}

// Estimator answers "what does this roughly cost" for items of unknown
// price. It consults the cache first, then the external model with a
// bounded timeout, then static per-category heuristics. External failures
// never leave this package; the fallback always produces a price.
type Estimator struct {
	store   Store
	ai      AIClient // nil when no token is configured
	log     *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewEstimator(store Store, ai AIClient, log *zap.Logger, timeout time.Duration) *Estimator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Estimator{store: store, ai: ai, log: log, timeout: timeout, now: time.Now}
}

var keyStrip = regexp.MustCompile(`[^a-zа-я0-9_]`)

// CacheKey normalizes an item description into a cache key: lower-cased,
// reduced to latin/cyrillic letters, digits and underscores.
func CacheKey(itemName, category, condition string) string {
	key := strings.ToLower(category + "_" + itemName + "_" + condition)
	return keyStrip.ReplaceAllString(key, "")
}

// Estimate returns a marketplace-style price and its source tag ("cache",
// "openai" or "fallback"). One external attempt per request, no retries;
// the cache absorbs repeated lookups for the same key.
func (e *Estimator) Estimate(ctx context.Context, itemName, category, condition string) (int, string) {
	key := CacheKey(itemName, category, condition)

	if entry, err := e.store.Get(ctx, key); err == nil {
		return entry.Price, SourceCache
	}

	price := 0
	source := SourceFallback
	if e.ai != nil {
		if p, err := e.askModel(ctx, itemName, category, condition); err == nil {
			price = p
			source = SourceOpenAI
		} else {
			e.log.Warn("model estimation failed, using fallback",
				zap.String("item", itemName), zap.Error(err))
		}
	}
	if source != SourceOpenAI {
		price = fallbackEstimate(itemName, category)
	}

	if strings.EqualFold(condition, "used") {
		price = applyUsedDiscount(price, category)
	}
	price = roundMarketplace(price)

	entry := &Entry{
		Price:     price,
		Category:  category,
		ItemName:  itemName,
		Condition: condition,
		Source:    source,
		Timestamp: e.now(),
	}
	if err := e.store.Put(ctx, key, entry); err != nil {
		e.log.Warn("price cache write failed", zap.String("key", key), zap.Error(err))
	}
	return price, source
}

var firstNumber = regexp.MustCompile(`\d+`)

func (e *Estimator) askModel(ctx context.Context, itemName, category, condition string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	system := "You are a marketplace pricing expert. Answer with a number only."
	prompt := fmt.Sprintf(
		"Item: %s\nCategory: %s\nCondition: %s\n\n"+
			"Estimate the typical marketplace price of this item in rubles, "+
			"taking brand, model and condition into account. "+
			"Answer ONLY with the number, no text, no currency symbol.",
		itemName, category, condition)

	answer, err := e.ai.ChatCompletion(ctx, system, prompt)
	if err != nil {
		return 0, err
	}
	match := firstNumber.FindString(strings.ReplaceAll(answer, " ", ""))
	if match == "" {
		return 0, fmt.Errorf("no number in model answer %q", answer)
	}
	return strconv.Atoi(match)
}

var categoryBasePrices = map[string]int{
	"Electronics":         25000,
	"Clothing and shoes":  5000,
	"Appliances":          20000,
	"Car":                 50000,
	"Travel":              30000,
	"Education":           15000,
	"Health and sport":    10000,
	"Home and renovation": 15000,
	"Hobbies":             12000,
}

var premiumBrands = []string{"apple", "sony", "dyson", "bosch", "miele", "gucci", "louis vuitton"}

var budgetBrands = []string{"xiaomi", "huawei", "poco", "realme", "bork", "polaris"}

// fallbackEstimate is the static heuristic used when the external model is
// unavailable: a per-category base adjusted by brand-name substrings.
func fallbackEstimate(itemName, category string) int {
	base := float64(10000)
	if p, ok := categoryBasePrices[category]; ok {
		base = float64(p)
	}
	item := strings.ToLower(itemName)
	for _, brand := range premiumBrands {
		if strings.Contains(item, brand) {
			base *= 2
			break
		}
	}
	for _, brand := range budgetBrands {
		if strings.Contains(item, brand) {
			base *= 0.7
			break
		}
	}
	return int(base)
}

var usedDiscounts = map[string]float64{
	"Electronics":         0.4,
	"Clothing and shoes":  0.3,
	"Appliances":          0.35,
	"Car":                 0.5,
	"Home and renovation": 0.25,
}

var usedMinPrices = map[string]int{
	"Electronics":        1000,
	"Clothing and shoes": 500,
	"Appliances":         3000,
}

const (
	defaultUsedDiscount = 0.3
	defaultUsedMinPrice = 500
)

// applyUsedDiscount knocks the category's second-hand discount off the
// price, floored at the category's minimum.
func applyUsedDiscount(price int, category string) int {
	discount, ok := usedDiscounts[category]
	if !ok {
		discount = defaultUsedDiscount
	}
	discounted := int(float64(price) * (1 - discount))
	min, ok := usedMinPrices[category]
	if !ok {
		min = defaultUsedMinPrice
	}
	if discounted < min {
		return min
	}
	return discounted
}

// roundMarketplace rounds a price the way marketplaces display them:
// to the nearest 50 under a thousand, to ...90 under ten thousand, to
// ...990 above.
func roundMarketplace(price int) int {
	if price < 1000 {
		return ((price + 25) / 50) * 50
	}
	if price < 10000 {
		lastTwo := price % 100
		if lastTwo < 50 {
			return price - lastTwo + 90
		}
		return price - lastTwo + 190
	}
	lastThree := price % 1000
	if lastThree < 500 {
		return price - lastThree + 990
	}
	return price - lastThree + 1990
}
