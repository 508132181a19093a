// Package cache provides a best-effort redis cache for budget metrics.
// Every method is safe to call on a nil receiver, so the service runs
// unchanged when redis is not configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"

	"github.com/spendwise/api/internal/model"
)

// DefaultTTL bounds metrics staleness; writes do not invalidate.
const DefaultTTL = 60 * time.Second

// Metrics caches computed budget metrics keyed by budget id.
type Metrics struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMetrics constructs a metrics cache. A zero ttl falls back to DefaultTTL.
func NewMetrics(client *redis.Client, ttl time.Duration) *Metrics {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Metrics{client: client, ttl: ttl}
}

// Connect dials redis and verifies connectivity. The caller may treat an
// error as non-fatal and proceed without a cache.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opt, err := redis.ParseURL(fmt.Sprintf("redis://%s", addr))
	if err != nil {
		opt = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type cachedMetrics struct {
	TotalSpentCents int64 `json:"totalSpentCents"`
	RemainingCents  int64 `json:"remainingCents"`
}

func metricsKey(budgetID uuid.UUID) string {
	return "budget:metrics:" + budgetID.String()
}

// Get returns cached metrics, or ok=false on miss, decode failure, or when
// no cache is configured.
func (m *Metrics) Get(ctx context.Context, budgetID uuid.UUID) (model.BudgetMetrics, bool) {
	if m == nil || m.client == nil {
		return model.BudgetMetrics{}, false
	}
	raw, err := m.client.Get(ctx, metricsKey(budgetID)).Result()
	if err != nil {
		return model.BudgetMetrics{}, false
	}
	var c cachedMetrics
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return model.BudgetMetrics{}, false
	}
	return model.BudgetMetrics{
		TotalSpent: model.Cents(c.TotalSpentCents),
		Remaining:  model.Cents(c.RemainingCents),
	}, true
}

// Set stores metrics with the configured TTL, best-effort.
func (m *Metrics) Set(ctx context.Context, budgetID uuid.UUID, metrics model.BudgetMetrics) {
	if m == nil || m.client == nil {
		return
	}
	data, err := json.Marshal(cachedMetrics{
		TotalSpentCents: metrics.TotalSpent.Cents,
		RemainingCents:  metrics.Remaining.Cents,
	})
	if err != nil {
		return
	}
	m.client.SetEx(ctx, metricsKey(budgetID), data, m.ttl)
}

// Invalidate drops the cached metrics for a budget, best-effort.
func (m *Metrics) Invalidate(ctx context.Context, budgetID uuid.UUID) {
	if m == nil || m.client == nil {
		return
	}
	m.client.Del(ctx, metricsKey(budgetID))
}
