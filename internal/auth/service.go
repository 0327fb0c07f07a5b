package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darxtarr/txxt/internal/world"
)

const tokenBytes = 32

// DefaultSessionTTL is used when the configuration does not override
// it.
const DefaultSessionTTL = 24 * time.Hour

// Service issues and resolves opaque bearer tokens against the World's
// user table. It holds no save-file state of its own: sessions are
// purely in-memory and do not survive a restart, by design (SS9).
type Service struct {
	world *world.World

	mu       sync.Mutex
	sessions map[string]Session

	ttl     time.Duration
	devMode bool
	now     func() time.Time
}

// Options configures a Service. World is required; everything else
// has a sensible default.
type Options struct {
	World      *world.World
	TTL        time.Duration
	DevMode    bool
	nowFunc    func() time.Time // overridable for tests
}

// NewService constructs a Service bound to w. w's user table is
// consulted on every login and token resolution, so updates to it
// (there are none after boot, per SPEC_FULL.md SS3) are visible
// immediately.
func NewService(opts Options) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := opts.nowFunc
	if now == nil {
		now = time.Now
	}
	return &Service{
		world:    opts.World,
		sessions: make(map[string]Session),
		ttl:      ttl,
		devMode:  opts.DevMode,
		now:      now,
	}
}

// ErrInvalidCredentials is returned by Login on an unknown username or
// a password mismatch. The caller must not distinguish the two in any
// response surfaced to the client.
var ErrInvalidCredentials = fmt.Errorf("auth: invalid credentials")

// Login verifies username/password against the World's user table and,
// on success, issues a new session token.
func (s *Service) Login(username, password string) (string, User, error) {
	s.world.RLock()
	u, ok := s.world.UserByUsername(username)
	s.world.RUnlock()
	if !ok {
		return "", User{}, ErrInvalidCredentials
	}
	if !VerifyPassword(u.PasswordHash, password) {
		return "", User{}, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return "", User{}, fmt.Errorf("auth: issuing token: %w", err)
	}

	s.mu.Lock()
	s.sessions[token] = Session{
		Token:     token,
		UserID:    u.ID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()

	return token, u, nil
}

// Authenticate resolves a bearer token to its backing user id. It
// rejects expired or unknown tokens. When dev-mode substitution is
// enabled, a failed resolution instead returns the first user in the
// World (or uuid.Nil if the World has no users), per SPEC_FULL.md
// SS4.5 - this must never be the default.
func (s *Service) Authenticate(token string) (uuid.UUID, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	if ok && sess.expired(s.now()) {
		delete(s.sessions, token)
		ok = false
	}
	s.mu.Unlock()

	if ok {
		return sess.UserID, true
	}

	if s.devMode {
		s.world.RLock()
		defer s.world.RUnlock()
		if u, found := s.world.FirstUser(); found {
			return u.ID, true
		}
		return uuid.Nil, true
	}

	return uuid.Nil, false
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
