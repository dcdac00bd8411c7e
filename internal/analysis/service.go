package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"paytrack/internal/models"
)

// Service caches analysis results per user and payment snapshot.
type Service struct {
	analyzer Analyzer
	cache    *cache.Cache
	loc      *time.Location
	now      func() time.Time
}

// NewService wraps analyzer with a result cache whose entries live for ttl.
func NewService(analyzer Analyzer, ttl time.Duration, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		analyzer: analyzer,
		cache:    cache.New(ttl, 2*ttl),
		loc:      loc,
		now:      time.Now,
	}
}

// Analyze returns the analysis for the user's unpaid payments. The second
// return value reports whether the result came from the cache.
func (s *Service) Analyze(ctx context.Context, userID string, unpaid []models.Payment) (*Result, bool, error) {
	today := models.DateOf(s.now().In(s.loc))
	key := cacheKey(userID, unpaid, today)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*Result), true, nil
	}

	result, err := s.analyzer.Analyze(ctx, unpaid, today)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(key, result, cache.DefaultExpiration)
	return result, false, nil
}

// cacheKey changes whenever the day or any analyzed field changes.
func cacheKey(userID string, unpaid []models.Payment, today models.Date) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|", today)
	for _, p := range unpaid {
		fmt.Fprintf(h, "%s|%s|%s|%v|%v|%s;", p.ID, p.Name, p.PaymentType, p.Amount, p.IsPaid, p.Date)
	}
	return userID + ":" + hex.EncodeToString(h.Sum(nil))
}
