package health

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

type Checker interface {
	Check(ctx context.Context) CheckResult
}

// ProbeRunner fans probe calls out to every registered checker with a
// per-probe timeout. Results are cached briefly so an aggressive
// orchestrator cannot hammer the dependencies.
type ProbeRunner struct {
	mu       sync.Mutex
	checkers []Checker
	timeout  time.Duration
	cacheTTL time.Duration

	cachedAt    time.Time
	cachedReady bool
	cached      []CheckResult
}

func NewProbeRunner(timeout, cacheTTL time.Duration) *ProbeRunner {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &ProbeRunner{timeout: timeout, cacheTTL: cacheTTL}
}

func (p *ProbeRunner) Register(c Checker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkers = append(p.checkers, c)
}

func (p *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.cacheTTL > 0 && !p.cachedAt.IsZero() && now.Sub(p.cachedAt) < p.cacheTTL {
		return p.cachedReady, append([]CheckResult(nil), p.cached...)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ready := true
	results := make([]CheckResult, 0, len(p.checkers))
	for _, c := range p.checkers {
		res := c.Check(ctx)
		if !res.Healthy {
			ready = false
		}
		results = append(results, res)
	}

	p.cachedAt = now
	p.cachedReady = ready
	p.cached = append([]CheckResult(nil), results...)
	return ready, results
}

type DatabaseChecker struct {
	db *gorm.DB
}

func NewDatabaseChecker(db *gorm.DB) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "database"}
	sqlDB, err := c.db.DB()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Healthy = true
	return res
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "redis"}
	if err := c.client.Ping(ctx).Err(); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Healthy = true
	return res
}
