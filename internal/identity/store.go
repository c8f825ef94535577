package identity

//go:generate $MOCKGEN -source=store.go -destination=mocks/store_mock.go

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/oshokin/smartfetch/internal/utils"
)

// Identity is a (user agent, proxy URL) pair used to vary the origin of outbound requests.
// It is immutable once selected. An empty ProxyURL means no proxy.
type Identity struct {
	// UserAgent is the User-Agent string presented by the client.
	UserAgent string
	// ProxyURL is the proxy the client routes requests through. May be empty.
	ProxyURL string
}

const (
	// userAgentMarker qualifies a line as a user agent candidate.
	userAgentMarker = "Mozilla"
	// proxyMarker qualifies a line as a proxy URL candidate.
	proxyMarker = "http"
)

// Static error definitions for better error handling.
var (
	// ErrSourceUnavailable indicates that an identity source could not be read.
	ErrSourceUnavailable = errors.New("identity source is unavailable")
	// ErrNoUserAgents indicates that no user agents were loaded.
	ErrNoUserAgents = errors.New("no user agents are loaded")
)

// LoadUserAgents reads a line-oriented file and returns the lines containing
// the "Mozilla" marker, in file order. An empty result is valid.
func LoadUserAgents(path string) ([]string, error) {
	lines, err := utils.ReadMarkedLinesFromFile(path, userAgentMarker)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return lines, nil
}

// LoadProxies reads a line-oriented file and returns the lines containing
// the "http" marker, in file order. An empty result is valid.
func LoadProxies(path string) ([]string, error) {
	lines, err := utils.ReadMarkedLinesFromFile(path, proxyMarker)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return lines, nil
}

// Store hands out identities built from the loaded user agent and proxy lists.
type Store interface {
	// UserAgents returns the loaded user agent candidates in file order.
	UserAgents() []string
	// Proxies returns the loaded proxy URL candidates in file order.
	Proxies() []string
	// DefaultIdentity returns the identity built from the first entry of each list.
	DefaultIdentity() (Identity, error)
	// RandomIdentity returns an identity built from an independently chosen
	// random user agent and random proxy.
	RandomIdentity() (Identity, error)
}

// StoreImpl implements the Store interface over in-memory candidate lists.
type StoreImpl struct {
	// userAgents holds the loaded user agent candidates.
	userAgents []string
	// proxies holds the loaded proxy URL candidates.
	proxies []string
}

// NewStore loads both identity sources and returns a Store over them.
// An empty proxiesPath means no proxies are configured, which is not an error.
func NewStore(userAgentsPath, proxiesPath string) (Store, error) {
	userAgents, err := LoadUserAgents(userAgentsPath)
	if err != nil {
		return nil, err
	}

	var proxies []string
	if proxiesPath != "" {
		proxies, err = LoadProxies(proxiesPath)
		if err != nil {
			return nil, err
		}
	}

	return &StoreImpl{
		userAgents: userAgents,
		proxies:    proxies,
	}, nil
}

// NewStoreFromLists builds a Store directly from pre-loaded candidate lists.
func NewStoreFromLists(userAgents, proxies []string) Store {
	return &StoreImpl{
		userAgents: userAgents,
		proxies:    proxies,
	}
}

// UserAgents returns the loaded user agent candidates in file order.
func (s *StoreImpl) UserAgents() []string {
	return s.userAgents
}

// Proxies returns the loaded proxy URL candidates in file order.
func (s *StoreImpl) Proxies() []string {
	return s.proxies
}

// DefaultIdentity returns the identity built from the first entry of each list.
// The proxy stays empty when no proxies are loaded.
func (s *StoreImpl) DefaultIdentity() (Identity, error) {
	if len(s.userAgents) == 0 {
		return Identity{}, ErrNoUserAgents
	}

	result := Identity{UserAgent: s.userAgents[0]}
	if len(s.proxies) > 0 {
		result.ProxyURL = s.proxies[0]
	}

	return result, nil
}

// RandomIdentity returns an identity built from an independently chosen
// random user agent and random proxy. The two choices are not correlated.
func (s *StoreImpl) RandomIdentity() (Identity, error) {
	if len(s.userAgents) == 0 {
		return Identity{}, ErrNoUserAgents
	}

	//nolint:gosec // math/rand/v2 is secure.
	result := Identity{UserAgent: s.userAgents[rand.IntN(len(s.userAgents))]}
	if len(s.proxies) > 0 {
		//nolint:gosec // math/rand/v2 is secure.
		result.ProxyURL = s.proxies[rand.IntN(len(s.proxies))]
	}

	return result, nil
}
