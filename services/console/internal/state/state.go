package state

import (
	"sync"
	"time"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/shopspring/decimal"
)

// Cache holds one loader's list. Each cache has exactly one writer: its loader.
type Cache[T any] struct {
	mu       sync.RWMutex
	items    []T
	err      string
	loadedAt time.Time
}

// Replace swaps the list wholesale and clears the inline error.
func (c *Cache[T]) Replace(items []T, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T(nil), items...)
	c.err = ""
	c.loadedAt = at
}

// Fail empties the list and records the inline error.
func (c *Cache[T]) Fail(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.err = message
}

func (c *Cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.err = ""
	c.loadedAt = time.Time{}
}

// Snapshot returns a copy safe to hand to renderers.
func (c *Cache[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[T]) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

func (c *Cache[T]) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Store is the console's application state.
type Store struct {
	mu         sync.RWMutex
	profile    *backend.Profile
	fx         backend.FXRates
	fxFallback backend.FXRates
	fxLive     bool

	WalletTx      Cache[backend.Transaction]
	MyTopups      Cache[backend.TopupRequest]
	AdminPending  Cache[backend.TopupRequest]
	Partners      Cache[backend.Partner]
	PartnersAdmin Cache[backend.Partner]
	Users         Cache[backend.User]
}

func NewStore(fxFallback backend.FXRates) *Store {
	return &Store{fx: fxFallback, fxFallback: fxFallback}
}

func DefaultFX() backend.FXRates {
	return backend.FXRates{
		SellUSD: decimal.RequireFromString("134.00"),
		BuyUSD:  decimal.RequireFromString("126.00"),
	}
}

func (s *Store) Profile() (backend.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return backend.Profile{}, false
	}
	return *s.profile, true
}

func (s *Store) SetProfile(p backend.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &p
}

// Role is empty when no profile is cached.
func (s *Store) Role() backend.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.Role
}

func (s *Store) FX() (backend.FXRates, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fx, s.fxLive
}

func (s *Store) SetFX(fx backend.FXRates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fx = fx
	s.fxLive = true
}

// Reset drops everything, back to the logged-out state. FX returns to the fallback.
func (s *Store) Reset() {
	s.mu.Lock()
	s.profile = nil
	s.fx = s.fxFallback
	s.fxLive = false
	s.mu.Unlock()

	s.WalletTx.Reset()
	s.MyTopups.Reset()
	s.AdminPending.Reset()
	s.Partners.Reset()
	s.PartnersAdmin.Reset()
	s.Users.Reset()
}
