package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"golang.org/x/sync/singleflight"
)

var (
	ErrKeyNotFound     = errors.New("signing key not found")
	ErrKeySetFetch     = errors.New("failed to fetch signing keys")
	ErrMalformedKeySet = errors.New("malformed signing key set")
)

// fetchTimeout bounds a shared key fetch independently of any caller
const fetchTimeout = 5 * time.Second

// KeySetOptions tunes KeySet caching
type KeySetOptions struct {
	// TTL is how long a fetched key set is trusted before refetching
	TTL time.Duration
	// RefreshInterval bounds how often an unknown kid may force a refetch
	RefreshInterval time.Duration
	HTTPClient      *http.Client
	Now             func() time.Time
}

// KeySet is a time-bounded cache of RSA signing keys published at a JWKS
// endpoint. Reads are concurrent; concurrent refreshes share one fetch.
type KeySet struct {
	url        string
	ttl        time.Duration
	minRefresh time.Duration
	client     *http.Client
	now        func() time.Time
	group      singleflight.Group

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewKeySet creates a KeySet for the JWKS document at url. Nothing is
// fetched until the first lookup.
func NewKeySet(url string, opts KeySetOptions) *KeySet {
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 5 * time.Minute
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &KeySet{
		url:        url,
		ttl:        opts.TTL,
		minRefresh: opts.RefreshInterval,
		client:     opts.HTTPClient,
		now:        opts.Now,
	}
}

// Key returns the public key for kid. An expired cache is refetched; an
// unknown kid forces a refetch unless one happened within RefreshInterval.
func (s *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, found, fresh, recent := s.lookup(kid)
	if found && fresh {
		return key, nil
	}
	if !found && fresh && recent {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}

	key, found, _, _ = s.lookup(kid)
	if !found {
		return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
	}
	return key, nil
}

func (s *KeySet) lookup(kid string) (key *rsa.PublicKey, found, fresh, recent bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.keys == nil {
		return nil, false, false, false
	}

	age := s.now().Sub(s.fetchedAt)
	key, found = s.keys[kid]
	return key, found, age < s.ttl, age < s.minRefresh
}

// refresh fetches the key set once for all concurrent callers. The fetch
// is detached from ctx; a caller whose ctx ends stops waiting.
func (s *KeySet) refresh(ctx context.Context) error {
	ch := s.group.DoChan(s.url, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		keys, err := s.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.keys = keys
		s.fetchedAt = s.now()
		s.mu.Unlock()

		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrKeySetFetch, ctx.Err())
	}
}

func (s *KeySet) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrKeySetFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySetFetch, err)
	}

	set, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedKeySet, err)
	}

	keys := make(map[string]*rsa.PublicKey, set.Len())
	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		if key.KeyType() != jwa.RSA || key.KeyID() == "" || (key.KeyUsage() != "" && key.KeyUsage() != string(jwk.ForSignature)) {
			continue
		}

		var pub rsa.PublicKey
		if err := key.Raw(&pub); err != nil {
			return nil, fmt.Errorf("%w: kid %q: %v", ErrMalformedKeySet, key.KeyID(), err)
		}
		keys[key.KeyID()] = &pub
	}

	return keys, nil
}
