package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Profile     string // auth | strength | mixed
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int
	Failures      int
	StatusClasses map[string]int
}

// Run generates synthetic auth traffic against a running server. It is
// a smoke-load tool, not a benchmark: counts matter, latencies do not.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 5 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	profile := normalizeProfile(cfg.Profile)

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()

	var mu sync.Mutex
	res := &Result{StatusClasses: map[string]int{}}
	rng := rand.New(rand.NewSource(cfg.Seed))
	var rngMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			if err := g.Wait(); err != nil {
				return res, err
			}
			return res, nil
		case <-ticker.C:
		}

		rngMu.Lock()
		seq := rng.Int63()
		rngMu.Unlock()

		g.Go(func() error {
			status, err := fire(ctx, client, cfg.BaseURL, profile, seq)
			mu.Lock()
			defer mu.Unlock()
			res.TotalRequests++
			if err != nil {
				res.Failures++
				res.StatusClasses["error"]++
				return nil
			}
			class := classifyStatusClass(status)
			res.StatusClasses[class]++
			if status >= 500 {
				res.Failures++
			}
			return nil
		})
	}
}

func fire(ctx context.Context, client *http.Client, baseURL, profile string, seq int64) (int, error) {
	kind := profile
	if profile == "mixed" {
		switch seq % 3 {
		case 0:
			kind = "auth"
		case 1:
			kind = "strength"
		default:
			kind = "health"
		}
	}

	var (
		method = http.MethodPost
		path   string
		body   string
	)
	switch kind {
	case "auth":
		path = "/api/auth/login"
		body = fmt.Sprintf(`{"email":"loadgen-%d@example.com","password":"not-a-real-password"}`, seq%1000)
	case "strength":
		path = "/api/auth/password/strength"
		body = fmt.Sprintf(`{"password":"candidate-%d"}`, seq)
	default:
		method = http.MethodGet
		path = "/health/live"
	}

	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

func normalizeProfile(profile string) string {
	profile = strings.ToLower(strings.TrimSpace(profile))
	switch profile {
	case "auth", "strength", "health":
		return profile
	default:
		return "mixed"
	}
}
