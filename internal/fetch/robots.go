package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsGate consults a site's robots.txt before fetching. The policy is
// fetched once per host on first use; a missing or unreadable robots.txt
// means everything is allowed, matching how polite crawlers treat absent
// policies.
type RobotsGate struct {
	hc        *http.Client
	userAgent string

	mu       sync.Mutex
	policies map[string]*robotstxt.RobotsData
}

// NewRobotsGate creates a gate that identifies itself with the given
// User-Agent when fetching robots.txt and when matching rule groups.
func NewRobotsGate(timeout time.Duration, userAgent string) *RobotsGate {
	return &RobotsGate{
		hc:        &http.Client{Timeout: timeout},
		userAgent: userAgent,
		policies:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether pageURL may be fetched under the site's policy.
func (g *RobotsGate) Allowed(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, fmt.Errorf("invalid URL for robots check: %w", err)
	}

	policy, err := g.policyFor(ctx, u)
	if err != nil {
		return false, err
	}
	if policy == nil {
		return true, nil
	}

	group := policy.FindGroup(g.userAgent)
	return group.Test(u.Path), nil
}

// Check is a convenience wrapper that returns ErrRobotsDisallowed when the
// policy forbids the URL, so callers can feed it straight into the fetch
// error taxonomy.
func (g *RobotsGate) Check(ctx context.Context, pageURL string) error {
	allowed, err := g.Allowed(ctx, pageURL)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrRobotsDisallowed, pageURL)
	}
	return nil
}

// policyFor returns the cached policy for the URL's host, fetching it on
// first use. A nil policy means allow-all.
func (g *RobotsGate) policyFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	host := u.Scheme + "://" + u.Host
	if policy, ok := g.policies[host]; ok {
		return policy, nil
	}

	policy := g.fetchPolicy(ctx, host)
	g.policies[host] = policy
	return policy, nil
}

// fetchPolicy retrieves and parses robots.txt for a site root. Any failure
// (network, non-2xx, unparseable) yields nil, allow-all. We cache that too:
// re-fetching a missing policy for every URL would hammer the site.
func (g *RobotsGate) fetchPolicy(ctx context.Context, host string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}

	policy, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return policy
}
