package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// jwksCache fetches and caches RSA public keys from a production JWKS
// endpoint, keyed by kid. Structurally identical to the teacher's
// internal/auth jwksCache, generalized to be an instance rather than a
// package-level global so multiple Managers in tests don't share state.
type jwksCache struct {
	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	lastFetch  time.Time
	cacheTTL   time.Duration
	url        string
	httpClient *http.Client
}

type jwksResponse struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func newJWKSCache(url string) *jwksCache {
	return &jwksCache{
		keys:       make(map[string]*rsa.PublicKey),
		cacheTTL:   time.Hour,
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *jwksCache) fetch(forceRefresh bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !forceRefresh && time.Since(c.lastFetch) < c.cacheTTL && len(c.keys) > 0 {
		return nil
	}

	resp, err := c.httpClient.Get(c.url)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read jwks response: %w", err)
	}

	var parsed jwksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parse jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, k := range parsed.Keys {
		if k.Kty != "RSA" || k.Use != "sig" {
			continue
		}
		nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			log.Warn().Err(err).Str("kid", k.Kid).Msg("jwks: failed to decode modulus")
			continue
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			log.Warn().Err(err).Str("kid", k.Kid).Msg("jwks: failed to decode exponent")
			continue
		}
		var e int
		for _, b := range eBytes {
			e = e<<8 | int(b)
		}
		keys[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}
	}
	if len(keys) == 0 {
		return errors.New("jwks: no valid RSA signing keys found")
	}

	c.keys = keys
	c.lastFetch = time.Now()
	log.Info().Int("key_count", len(keys)).Msg("jwks cache refreshed")
	return nil
}

func (c *jwksCache) publicKey(kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	expired := time.Since(c.lastFetch) >= c.cacheTTL
	c.mu.RUnlock()
	if expired {
		if err := c.fetch(false); err != nil {
			log.Warn().Err(err).Msg("jwks: refresh failed, using stale cache")
		}
	}

	c.mu.RLock()
	key, ok := c.keys[kid]
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := c.fetch(true); err != nil {
		return nil, fmt.Errorf("fetch jwks for missing kid %s: %w", kid, err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok = c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("kid %s not found in jwks even after refresh", kid)
	}
	return key, nil
}
