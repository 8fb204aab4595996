// Package routing picks which of a bookmark's address variants to launch:
// every configured profile is probed concurrently, then the winner is the
// first profile in fixed preference order that answered, regardless of which
// probe finished first.
package routing

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marcuoli/go-netreach/pkg/netreach"
)

// DefaultTimeout bounds each probe. It is deliberately shorter than the
// standalone health-check timeout: routing selection happens at launch time,
// where failing over fast matters more than being thorough.
const DefaultTimeout = 3 * time.Second

// Route is the selected address variant for a launch.
type Route struct {
	URL     string           `json:"url"`
	Profile netreach.Profile `json:"profile"`
}

// Selector races a bookmark's address variants.
type Selector struct {
	Timeout time.Duration
	Log     zerolog.Logger

	client *http.Client
}

// NewSelector creates a selector with defaults and no logging.
func NewSelector() *Selector {
	return &Selector{
		Timeout: DefaultTimeout,
		Log:     zerolog.Nop(),
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// FindFirstReachable probes every configured profile of the bookmark
// concurrently and returns the first one in preference order that answered
// with a status below 400. All probes are awaited before selecting: a
// lower-preference variant responding first never wins over a
// higher-preference variant that also succeeds within its timeout. Returns
// nil when nothing is reachable.
func (s *Selector) FindFirstReachable(ctx context.Context, item *netreach.Bookmark) *Route {
	type candidate struct {
		profile netreach.Profile
		url     string
	}

	var candidates []candidate
	for _, profile := range netreach.ProfileOrder {
		if url, ok := netreach.BuildProbeURL(item, profile); ok {
			candidates = append(candidates, candidate{profile: profile, url: url})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	reachable := make([]bool, len(candidates))
	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reachable[i] = s.probe(ctx, candidates[i].url)
		}(i)
	}
	wg.Wait()

	for i, c := range candidates {
		if reachable[i] {
			s.Log.Debug().Str("item", item.ID).Str("profile", string(c.profile)).Str("url", c.url).Msg("route selected")
			return &Route{URL: c.url, Profile: c.profile}
		}
	}

	s.Log.Debug().Str("item", item.ID).Msg("no reachable address")
	return nil
}

// probe reports whether url answers a HEAD request with a status below 400
// within the timeout.
func (s *Selector) probe(ctx context.Context, url string) bool {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()

	return resp.StatusCode < 400
}
