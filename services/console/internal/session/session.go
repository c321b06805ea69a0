package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/haitiwallet/console/libs/auth"
	"github.com/haitiwallet/console/services/console/internal/storage"
)

const (
	KeyToken           = "token"
	KeySuperadminToken = "superadmin_token"

	// HandoffParam carries an impersonation token into a fresh console request.
	HandoffParam = "impersonate"
)

var ErrNoSuperadminToken = errors.New("no superadmin session stored")

// Session holds the active bearer token and the operator's preserved superadmin
// token, mirrored into durable storage under fixed keys.
type Session struct {
	mu              sync.RWMutex
	store           storage.Store
	logger          *slog.Logger
	token           string
	superadminToken string
	now             func() time.Time
}

type Info struct {
	LoggedIn      bool      `json:"logged_in"`
	Subject       string    `json:"subject,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
	Expired       bool      `json:"expired"`
	HasSuperadmin bool      `json:"has_superadmin"`
	Impersonating bool      `json:"impersonating"`
}

func New(store storage.Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, logger: logger, now: time.Now}
}

// Restore reloads both tokens from durable storage.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.load(ctx, KeyToken)
	if err != nil {
		return err
	}
	sa, err := s.load(ctx, KeySuperadminToken)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.superadminToken = sa
	s.mu.Unlock()
	return nil
}

func (s *Session) load(ctx context.Context, key string) (string, error) {
	val, err := s.store.Load(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return val, nil
}

// Token satisfies backend.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SuperadminToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.superadminToken
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	if err := s.store.Save(ctx, KeyToken, token, s.ttl(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// PromoteSuperadmin mirrors the active token into the superadmin slot.
func (s *Session) PromoteSuperadmin(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return auth.ErrInvalidToken
	}
	if err := s.store.Save(ctx, KeySuperadminToken, token, s.ttl(token)); err != nil {
		return fmt.Errorf("save superadmin token: %w", err)
	}
	s.mu.Lock()
	s.superadminToken = token
	s.mu.Unlock()
	return nil
}

// ClearToken drops the active token only. The superadmin slot is kept so an operator
// whose impersonated session died can still restore.
func (s *Session) ClearToken(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if err := s.store.Delete(ctx, KeyToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.superadminToken = ""
	s.mu.Unlock()
	if err := s.store.Delete(ctx, KeyToken, KeySuperadminToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Session) RestoreSuperadmin(ctx context.Context) error {
	sa := s.SuperadminToken()
	if sa == "" {
		return ErrNoSuperadminToken
	}
	return s.SetToken(ctx, sa)
}

func (s *Session) Info() Info {
	s.mu.RLock()
	token, sa := s.token, s.superadminToken
	s.mu.RUnlock()

	info := Info{
		LoggedIn:      token != "",
		HasSuperadmin: sa != "",
		Impersonating: token != "" && sa != "" && token != sa,
	}
	if token == "" {
		return info
	}
	if claims, err := auth.Inspect(token); err == nil {
		info.Subject = claims.Subject
		info.ExpiresAt = claims.ExpiresAt
		info.Expired = claims.Expired(s.now())
	}
	return info
}

func (s *Session) ttl(token string) time.Duration {
	info, err := auth.Inspect(token)
	if err != nil {
		s.logger.Debug("token not inspectable, storing without ttl", "error", err)
		return 0
	}
	return info.TTL(s.now())
}

// HandoffURL builds the link that opens a console session as another user.
func HandoffURL(base, token string) string {
	return strings.TrimRight(base, "/") + "/?" + HandoffParam + "=" + url.QueryEscape(token)
}

// ConsumeHandoff extracts the hand-off token from rawURL and returns the URL with the
// parameter removed. ok is false when the parameter is absent or empty.
func ConsumeHandoff(rawURL string) (token, cleaned string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL, false
	}
	q := u.Query()
	token = strings.TrimSpace(q.Get(HandoffParam))
	if token == "" {
		return "", rawURL, false
	}
	q.Del(HandoffParam)
	u.RawQuery = q.Encode()
	return token, u.String(), true
}
