package fetcher

//go:generate $MOCKGEN -source=fetcher.go -destination=mocks/fetcher_mock.go

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/oshokin/smartfetch/internal/config"
	"github.com/oshokin/smartfetch/internal/debug"
	"github.com/oshokin/smartfetch/internal/identity"
	"github.com/oshokin/smartfetch/internal/logger"
	"github.com/oshokin/smartfetch/internal/session"
	"github.com/oshokin/smartfetch/internal/utils"
)

// Fetcher provides retrying fetch operations over rotating session clients.
type Fetcher interface {
	// DefaultClient returns the session bound to the default identity.
	DefaultClient() session.Client
	// RandomClient constructs a fresh session bound to a random identity.
	RandomClient() (session.Client, error)
	// FetchText fetches a URL and returns its body as text.
	// When retries are exhausted without a response, it returns "" and no error.
	FetchText(ctx context.Context, url string, debugEnabled bool) (string, error)
	// FetchJSON fetches a URL and decodes its body as a JSON object.
	// A body that is not a JSON object yields an empty map.
	FetchJSON(ctx context.Context, url string, debugEnabled bool) (map[string]any, error)
	// MarkStart records the beginning of the run for statistics.
	MarkStart()
	// MarkEnd records the end of the run for statistics.
	MarkEnd()
	// PrintFetchSummary prints a formatted summary of fetch statistics.
	PrintFetchSummary(ctx context.Context)
}

// clientFactory constructs a session client for the given identity.
type clientFactory func(id identity.Identity) (session.Client, error)

// FetcherImpl implements the Fetcher interface.
type FetcherImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// store provides the identity pool for rotation.
	store identity.Store
	// newClient constructs session clients; swapped out in tests.
	newClient clientFactory
	// defaultClient is the session bound to the default identity.
	defaultClient session.Client
	// cache holds fetched bodies by URL. Nil when disabled.
	cache *lru.Cache[string, string]
	// stats tracks fetch statistics for the current run.
	stats *FetchStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// NewFetcher constructs a fetcher over the given identity store.
// The recorder may be nil, disabling debug capture on the sessions it builds.
func NewFetcher(cfg *config.Config, store identity.Store, recorder debug.Recorder) (Fetcher, error) {
	factory := func(id identity.Identity) (session.Client, error) {
		return session.NewClient(id, cfg.ParsedRequestTimeout, recorder)
	}

	return newFetcherWithFactory(cfg, store, factory)
}

// newFetcherWithFactory wires the fetcher with an explicit client factory.
func newFetcherWithFactory(cfg *config.Config, store identity.Store, factory clientFactory) (Fetcher, error) {
	defaultIdentity, err := store.DefaultIdentity()
	if err != nil {
		return nil, err
	}

	defaultClient, err := factory(defaultIdentity)
	if err != nil {
		return nil, err
	}

	var cache *lru.Cache[string, string]

	if cfg.ResponseCacheSize > 0 {
		cache, err = lru.New[string, string](int(cfg.ResponseCacheSize))
		if err != nil {
			return nil, fmt.Errorf("failed to create response cache: %w", err)
		}
	}

	fetcher := &FetcherImpl{
		cfg:           cfg,
		store:         store,
		newClient:     factory,
		defaultClient: defaultClient,
		cache:         cache,
		stats:         new(FetchStatistics),
		statsMutex:    new(sync.Mutex),
	}

	return fetcher, nil
}

// DefaultClient returns the session bound to the default identity.
func (f *FetcherImpl) DefaultClient() session.Client {
	return f.defaultClient
}

// RandomClient constructs a fresh session bound to a random identity.
func (f *FetcherImpl) RandomClient() (session.Client, error) {
	id, err := f.store.RandomIdentity()
	if err != nil {
		return nil, err
	}

	return f.newClient(id)
}

// FetchText fetches a URL and returns its body as text.
// Any delivered response ends the attempt loop, whatever its status code;
// transport failures are retried with a randomized pause between attempts.
// In debug mode the cache is bypassed and the first failure is returned
// so the captured records stay aligned with real traffic.
// When every attempt fails outside debug mode, the result is absent: "", nil.
func (f *FetcherImpl) FetchText(ctx context.Context, url string, debugEnabled bool) (string, error) {
	if !debugEnabled && f.cache != nil {
		if body, ok := f.cache.Get(url); ok {
			f.incrementCacheHit()
			logger.Debugf(ctx, "Cache hit: %s", url)

			return body, nil
		}
	}

	body, err := f.fetchBody(ctx, url, debugEnabled)
	if err != nil {
		return "", err
	}

	if body != "" && !debugEnabled && f.cache != nil {
		f.cache.Add(url, body)
	}

	return body, nil
}

// FetchJSON fetches a URL and decodes its body as a JSON object on a
// best-effort basis: any body that is not a JSON object yields an empty map.
func (f *FetcherImpl) FetchJSON(ctx context.Context, url string, debugEnabled bool) (map[string]any, error) {
	body, err := f.FetchText(ctx, url, debugEnabled)
	if err != nil {
		return nil, err
	}

	parsed := map[string]any{}
	if err = json.Unmarshal([]byte(body), &parsed); err != nil {
		logger.Debugf(ctx, "Response from %s is not a JSON object: %v", url, err)

		return map[string]any{}, nil
	}

	return parsed, nil
}

// fetchBody runs the attempt loop for one URL.
func (f *FetcherImpl) fetchBody(ctx context.Context, url string, debugEnabled bool) (string, error) {
	attempts := f.cfg.RetryAttemptsCount

	for attempt := int64(1); attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("fetch canceled: %w", err)
		}

		client, err := f.pickClient()
		if err != nil {
			return "", err
		}

		f.incrementAttempt()

		response, err := client.Get(ctx, url, debugEnabled, nil)
		if err == nil {
			f.recordResponse(response)

			return response.Text(), nil
		}

		f.incrementFailure()

		// Debug mode surfaces the failure immediately so the captured
		// failure record matches what the caller sees.
		if debugEnabled {
			return "", err
		}

		logger.Warnf(ctx, "Attempt %d/%d failed for %s: %v", attempt, attempts, url, err)

		if attempt < attempts {
			utils.RandomPause(f.cfg.ParsedMinRetryPause, f.cfg.ParsedMaxRetryPause)
		}
	}

	f.incrementEmptyResult()
	logger.Warnf(ctx, "Giving up on %s after %d attempts", url, attempts)

	return "", nil
}

// pickClient returns the session for the next attempt,
// rotating the identity when configured to.
func (f *FetcherImpl) pickClient() (session.Client, error) {
	if !f.cfg.RotateIdentities {
		return f.defaultClient, nil
	}

	return f.RandomClient()
}
