// Package health performs lightweight HTTP reachability checks against
// bookmark addresses and keeps their outcomes: the last result per item plus
// a bounded metrics history for rolling uptime.
//
// Checks are best-effort and never return an error to the caller; every
// failure mode is folded into a structured result. There are no retries — a
// caller wanting freshness checks again.
package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marcuoli/go-netreach/pkg/netreach"
)

const (
	// DefaultTimeout bounds one HTTP reachability probe.
	DefaultTimeout = 10 * time.Second
	// DefaultPaceDelay spaces sequential batch checks so a long bookmark
	// list does not flood the network.
	DefaultPaceDelay = 100 * time.Millisecond
)

// ProgressFunc is invoked after each check of a batch.
type ProgressFunc func(done, total int, result netreach.HealthCheckResult)

// Checker probes bookmarks and owns their last-known results and metrics.
type Checker struct {
	Timeout   time.Duration
	PaceDelay time.Duration
	Log       zerolog.Logger

	client  *http.Client
	history *History

	mu      sync.Mutex
	results map[string]netreach.HealthCheckResult
}

// NewChecker creates a checker with defaults and no logging. Redirects are
// not followed: a 3xx answer is itself the probe outcome.
func NewChecker() *Checker {
	return &Checker{
		Timeout:   DefaultTimeout,
		PaceDelay: DefaultPaceDelay,
		Log:       zerolog.Nop(),
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		history: NewHistory(),
		results: make(map[string]netreach.HealthCheckResult),
	}
}

// CheckBookmark probes one bookmark through the given profile and records
// the outcome. Bookmarks whose protocol cannot answer an HTTP probe (file
// shares, databases, deep links, file:// URLs) are assumed available and
// short-circuit to healthy without a network call.
func (c *Checker) CheckBookmark(ctx context.Context, item *netreach.Bookmark, profile netreach.Profile) netreach.HealthCheckResult {
	result := netreach.HealthCheckResult{
		ItemID:    item.ID,
		CheckedAt: time.Now(),
	}

	url, ok := netreach.BuildProbeURL(item, profile)
	if !ok {
		result.Status = netreach.StatusError
		result.Error = fmt.Sprintf("no address configured for profile %q", profile)
		c.record(result)
		return result
	}
	result.URL = url

	if !netreach.Probeable(item.Protocol) || strings.HasPrefix(url, "file://") {
		result.Status = netreach.StatusHealthy
		result.ResponseTime = 0
		c.record(result)
		return result
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodHead, url, nil)
	if err != nil {
		result.Status = netreach.StatusError
		result.Error = err.Error()
		c.record(result)
		return result
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	result.ResponseTime = time.Since(start).Milliseconds()

	if err != nil {
		result.Status = netreach.StatusError
		result.Error = err.Error()
		c.record(result)
		return result
	}
	_ = resp.Body.Close()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode < 300:
		result.Status = netreach.StatusHealthy
	case resp.StatusCode < 400:
		result.Status = netreach.StatusWarning
	default:
		result.Status = netreach.StatusError
		result.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	c.record(result)
	return result
}

// CheckMultipleBookmarks checks items strictly sequentially with the pacing
// delay between checks, invoking onProgress after each. Results come back in
// item order. A cancelled context stops the remaining checks.
func (c *Checker) CheckMultipleBookmarks(ctx context.Context, items []*netreach.Bookmark, profile netreach.Profile, onProgress ProgressFunc) []netreach.HealthCheckResult {
	results := make([]netreach.HealthCheckResult, 0, len(items))

	for i, item := range items {
		if i > 0 {
			select {
			case <-time.After(c.PaceDelay):
			case <-ctx.Done():
				return results
			}
		}

		result := c.CheckBookmark(ctx, item, profile)
		results = append(results, result)
		if onProgress != nil {
			onProgress(i+1, len(items), result)
		}
	}
	return results
}

// Result returns an item's last-known result.
func (c *Checker) Result(itemID string) (netreach.HealthCheckResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[itemID]
	return r, ok
}

// AllResults returns a copy of the last-known result of every checked item.
func (c *Checker) AllResults() map[string]netreach.HealthCheckResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]netreach.HealthCheckResult, len(c.results))
	for id, r := range c.results {
		out[id] = r
	}
	return out
}

// ClearResults drops all last-known results and the metrics history.
func (c *Checker) ClearResults() {
	c.mu.Lock()
	c.results = make(map[string]netreach.HealthCheckResult)
	c.mu.Unlock()
	c.history.Clear()
}

// MetricsHistory returns an item's retained probe outcomes, oldest first.
func (c *Checker) MetricsHistory(itemID string) []netreach.MetricDataPoint {
	return c.history.Points(itemID)
}

// Uptime returns an item's rolling success percentage.
func (c *Checker) Uptime(itemID string) float64 {
	return c.history.Uptime(itemID)
}

// record stores a result as the item's last-known state and appends it to
// the metrics history. Healthy and warning outcomes count as successes.
func (c *Checker) record(result netreach.HealthCheckResult) {
	success := result.Status == netreach.StatusHealthy || result.Status == netreach.StatusWarning

	c.history.Record(result.ItemID, netreach.MetricDataPoint{
		Timestamp:    result.CheckedAt,
		ResponseTime: result.ResponseTime,
		Success:      success,
	})

	c.mu.Lock()
	c.results[result.ItemID] = result
	c.mu.Unlock()

	c.Log.Debug().
		Str("item", result.ItemID).
		Str("url", result.URL).
		Str("status", string(result.Status)).
		Int64("responseTime", result.ResponseTime).
		Msg("bookmark checked")
}
