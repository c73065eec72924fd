package risk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bizray/registry-cli/internal/cache"
	"github.com/bizray/registry-cli/internal/model"
)

// ErrNoStatements is returned when a company has no financial
// statement to score.
var ErrNoStatements = eris.New("risk: no financial statements available")

// DefaultCacheTTL bounds the retention of a computed indicator set. A
// newer filing produces a different content hash, so entries are never
// invalidated explicitly.
const DefaultCacheTTL = 24 * time.Hour

// keyHashLen is the number of hex characters of the content digest
// kept in the cache key. Sufficient against collisions at the expected
// per-company statement cardinality.
const keyHashLen = 16

// Engine computes risk indicator sets with a content-addressed result
// cache in front of the aggregator. It holds no mutable state of its
// own and is safe for concurrent use.
type Engine struct {
	cache cache.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewEngine creates an Engine on the given cache store. A nil store
// disables caching.
func NewEngine(c cache.Store, ttl time.Duration) *Engine {
	if c == nil {
		c = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Engine{cache: c, ttl: ttl, now: time.Now}
}

// cachedResult is the serialized cache value.
type cachedResult struct {
	Indicators Set      `json:"indicators"`
	Score      *float64 `json:"score"`
}

// IndicatorsFor returns the indicator set and composite score for a
// company, given all of its known financial statements and registry
// filings. The cache key is derived from the company identifier and
// the content of the latest statement only; on a hit the stored pair
// is returned verbatim, without recomputing or validating historical
// context. Cache failures in either direction degrade to plain
// computation and are never returned to the caller.
func (e *Engine) IndicatorsFor(ctx context.Context, companyID string, statements []model.FinancialStatement, filings []Filing) (Set, *float64, error) {
	latest, historical := SelectLatest(statements)
	if latest == nil {
		return nil, nil, ErrNoStatements
	}

	key, err := cacheKey(companyID, latest)
	if err != nil {
		return nil, nil, eris.Wrap(err, "risk: derive cache key")
	}

	if data, ok, err := e.cache.Get(ctx, cache.NamespaceRisk, key); err != nil {
		zap.L().Warn("risk cache read failed, computing",
			zap.String("company", companyID),
			zap.Error(err),
		)
	} else if ok {
		var cached cachedResult
		if err := json.Unmarshal(data, &cached); err != nil {
			zap.L().Warn("risk cache entry malformed, computing",
				zap.String("company", companyID),
				zap.Error(err),
			)
		} else {
			return cached.Indicators, cached.Score, nil
		}
	}

	set := Indicators(latest, historical, filings, e.now().UTC())
	var score *float64
	if v, ok := set.Score(); ok {
		score = &v
	}

	if data, err := json.Marshal(cachedResult{Indicators: set, Score: score}); err == nil {
		if err := e.cache.Set(ctx, cache.NamespaceRisk, key, data, e.ttl); err != nil {
			zap.L().Warn("risk cache write failed",
				zap.String("company", companyID),
				zap.Error(err),
			)
		}
	}

	return set, score, nil
}

// cacheKey derives the content-addressed key for a company's latest
// statement: the company identifier joined with the first 16 hex
// characters of the SHA-256 digest of the statement's canonical JSON
// serialization.
func cacheKey(companyID string, latest *model.FinancialStatement) (string, error) {
	data, err := json.Marshal(latest)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(data)
	return companyID + ":" + hex.EncodeToString(digest[:])[:keyHashLen], nil
}
