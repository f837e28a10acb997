// Package session keeps short-lived pagination state keyed by compact
// fingerprints, so paging requests can re-run their originating query
// without carrying it around. Entries expire and the store is bounded,
// so a stale key is an expected condition callers must handle.
package session

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrStale is returned by Get when a key is unknown, evicted or
// expired. Callers translate it into a "start over" response.
var ErrStale = errors.New("session expired")

// Fingerprint derives a stable 8-character hex key from a payload.
// Case and whitespace runs do not change the key, so "Мировой  Кризис"
// and "мировой кризис" page through the same session.
func Fingerprint(payload string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(payload)), " ")
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])[:8]
}

// Store maps fingerprints to their original payloads. It is bounded
// and entries expire after the configured TTL; both guards keep a busy
// service from accumulating stale pagination state forever.
type Store struct {
	lru *expirable.LRU[string, string]
}

// New creates a store holding at most capacity entries for at most ttl.
func New(capacity int, ttl time.Duration) *Store {
	return &Store{
		lru: expirable.NewLRU[string, string](capacity, nil, ttl),
	}
}

// Put stores the payload and returns its key. Payloads that normalize
// to the same fingerprint share a key; the latest Put wins.
func (s *Store) Put(payload string) string {
	key := Fingerprint(payload)
	s.lru.Add(key, payload)
	return key
}

// Get returns the payload stored under key, with its original casing
// intact. Unknown, evicted and expired keys all return ErrStale.
func (s *Store) Get(key string) (string, error) {
	payload, ok := s.lru.Get(key)
	if !ok {
		return "", ErrStale
	}
	return payload, nil
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	return s.lru.Len()
}
