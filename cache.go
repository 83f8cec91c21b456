package main

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// ValidationCache provides thread-safe caching for key-validation verdicts,
// so repeatedly validating the same key does not re-bill the provider.
// Keys are hashed before use; raw credentials are never held as map keys.
type ValidationCache struct {
	mu      sync.RWMutex
	entries map[string]validationEntry
	ttl     time.Duration
}

type validationEntry struct {
	result   KeyValidationResult
	storedAt time.Time
}

// NewValidationCache creates a new validation cache with the specified TTL
func NewValidationCache(ttl time.Duration) *ValidationCache {
	return &ValidationCache{
		entries: make(map[string]validationEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached verdict if not expired
func (c *ValidationCache) Get(provider, apiKey string) (KeyValidationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey(provider, apiKey)]
	if !ok {
		return KeyValidationResult{}, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		return KeyValidationResult{}, false
	}

	return entry.result, true
}

// Set stores a verdict for a provider/key pair
func (c *ValidationCache) Set(provider, apiKey string, result KeyValidationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(provider, apiKey)] = validationEntry{
		result:   result,
		storedAt: time.Now(),
	}
}

// Clear removes all cached verdicts
func (c *ValidationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]validationEntry)
}

// Size returns the number of cached verdicts, expired ones included
func (c *ValidationCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func cacheKey(provider, apiKey string) string {
	sum := sha256.Sum256([]byte(provider + "\x00" + apiKey))
	return hex.EncodeToString(sum[:])
}
