package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// AccessConfig configures the decision cache and its remote authority.
// TTL/TTI are stored as whole seconds, matching how the original TOML
// document and the spec's example config both express them, and converted
// to time.Duration at the point of use.
type AccessConfig struct {
	Server      string `toml:"server" env:"ACCESS_SERVER"`
	CacheTTLSec int    `toml:"cache_ttl" env:"ACCESS_CACHE_TTL"`
	CacheTTISec int    `toml:"cache_tti" env:"ACCESS_CACHE_TTI"`
	CookieName  string `toml:"cookie_name" env:"ACCESS_COOKIE_NAME"`
}

// DefaultAccessConfig returns the spec defaults.
func DefaultAccessConfig() AccessConfig {
	return AccessConfig{
		Server:      "http://127.0.0.1:8888",
		CacheTTLSec: 1800,
		CacheTTISec: 300,
		CookieName:  "PHPSESSID",
	}
}

func (c AccessConfig) cacheTTL() time.Duration { return time.Duration(c.CacheTTLSec) * time.Second }
func (c AccessConfig) cacheTTI() time.Duration { return time.Duration(c.CacheTTISec) * time.Second }

const (
	accessCacheCapacity = 100_000
	accessRemoteTimeout = 5 * time.Second
)

// decisionEntry is shared across goroutines via the LRU store: insertedAt
// is written once at construction and never again, but lastUsedAt is
// touched on every cache hit from whichever goroutine observes it, so it
// is kept as unix nanos behind an atomic rather than a plain time.Time
// (a torn 24-byte read/write under concurrent same-key hits would corrupt
// TTI bookkeeping).
type decisionEntry struct {
	mode         AccessMode
	insertedAt   time.Time
	lastUsedAtNs atomic.Int64
}

func newDecisionEntry(mode AccessMode, now time.Time) *decisionEntry {
	e := &decisionEntry{mode: mode, insertedAt: now}
	e.lastUsedAtNs.Store(now.UnixNano())
	return e
}

func (e *decisionEntry) touch(now time.Time) {
	e.lastUsedAtNs.Store(now.UnixNano())
}

func (e *decisionEntry) expired(now time.Time, ttl, tti time.Duration) bool {
	lastUsed := time.Unix(0, e.lastUsedAtNs.Load())
	return now.Sub(e.insertedAt) > ttl || now.Sub(lastUsed) > tti
}

// DecisionCache memoizes authorization verdicts from a remote authority,
// deduplicating concurrent lookups for the same key.
type DecisionCache struct {
	config     AccessConfig
	serverURL  string
	httpClient *http.Client
	store      *lru.Cache[AccessKey, *decisionEntry]
	flight     singleflight.Group
}

// NewDecisionCache builds a decision cache. Fails if the authority URL or
// the LRU store cannot be constructed.
func NewDecisionCache(cfg AccessConfig) (*DecisionCache, error) {
	if _, err := url.Parse(cfg.Server); err != nil {
		return nil, fmt.Errorf("access: invalid server url %q: %w", cfg.Server, err)
	}

	store, err := lru.New[AccessKey, *decisionEntry](accessCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("access: building decision store: %w", err)
	}

	return &DecisionCache{
		config:    cfg,
		serverURL: cfg.Server,
		httpClient: &http.Client{
			Timeout: accessRemoteTimeout,
		},
		store: store,
	}, nil
}

// Check returns the verdict for key, consulting the remote authority at
// most once per key per (TTL, TTI) window and at most once concurrently
// across all callers racing for the same key.
func (d *DecisionCache) Check(ctx context.Context, key AccessKey) AccessMode {
	now := time.Now()

	if entry, ok := d.store.Get(key); ok && !entry.expired(now, d.config.cacheTTL(), d.config.cacheTTI()) {
		entry.touch(now)
		return entry.mode
	}

	result, _, _ := d.flight.Do(key.String(), func() (interface{}, error) {
		mode := d.checkRemote(ctx, key)
		d.store.Add(key, newDecisionEntry(mode, time.Now()))
		return mode, nil
	})

	mode := result.(AccessMode)
	log.Debug().Stringer("key", key).Stringer("mode", mode).Msg("access decision")
	return mode
}

// checkRemote issues the single GET request for key's loader, mapping the
// response to a verdict. Transport errors and non-200 statuses both
// collapse to Denied, per the spec's conservative-failure policy.
func (d *DecisionCache) checkRemote(ctx context.Context, key AccessKey) AccessMode {
	reqURL := d.serverURL
	if key.Model.HasObject {
		reqURL += "/" + key.Model.Object
		if key.Model.HasName {
			reqURL += "/" + key.Model.Name
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, accessRemoteTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Error().Err(err).Str("url", reqURL).Msg("access: building authority request")
		return Denied
	}
	if key.Session.Present {
		req.Header.Set("Cookie", fmt.Sprintf("%s=%s", d.config.CookieName, key.Session.Value))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", reqURL).Msg("access: authority request failed")
		return Denied
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return Granted
	}
	return Denied
}
