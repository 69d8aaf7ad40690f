package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	model "auctionhub/internal/models"
	"auctionhub/utils"
)

// tokenBytes gives 256 bits of entropy per token.
const tokenBytes = 32

// Metadata is the optional security binding captured when a session is
// created. A later access presenting different binding values destroys
// the session.
type Metadata struct {
	Origin          string
	ClientSignature string
}

// Registry is a token-keyed store of session state. Validation and touch
// take no global lock; each session carries its own mutex inside a
// sync.Map entry.
type Registry struct {
	maxIdle  time.Duration
	sessions sync.Map // token -> *entry

	now func() time.Time // overridable in tests
}

type entry struct {
	mu      sync.Mutex
	session model.Session
	revoked bool
}

// NewRegistry creates a session registry with the given idle expiry.
func NewRegistry(maxIdle time.Duration) *Registry {
	return &Registry{
		maxIdle: maxIdle,
		now:     time.Now,
	}
}

// Create issues a fresh unpredictable token for the given, already
// verified, identity. A user may hold any number of concurrent sessions.
func (r *Registry) Create(username string, meta Metadata) string {
	token := newToken()
	now := r.now().UTC()

	r.sessions.Store(token, &entry{
		session: model.Session{
			Token:           token,
			Username:        username,
			CreatedAt:       now,
			LastActivity:    now,
			Origin:          meta.Origin,
			ClientSignature: meta.ClientSignature,
		},
	})

	utils.Info("session created", map[string]any{
		"username": username,
		"origin":   meta.Origin,
	})
	return token
}

// IsValid reports whether the token names a live, non-idle session. It
// never returns an error; absent, revoked and idle-expired tokens are
// all simply false.
func (r *Registry) IsValid(token string) bool {
	return r.Validate(token, Metadata{})
}

// Validate is IsValid with a security-binding check: if the session was
// created with binding metadata and the presented metadata differs, the
// session is destroyed and the access rejected. Zero-value fields in
// meta are not compared.
func (r *Registry) Validate(token string, meta Metadata) bool {
	e, ok := r.load(token)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.revoked || r.idleExpired(e.session.LastActivity) {
		r.sessions.Delete(token)
		return false
	}

	if bindingMismatch(e.session, meta) {
		e.revoked = true
		r.sessions.Delete(token)
		utils.Warn("session binding mismatch, session destroyed", map[string]any{
			"username": e.session.Username,
			"origin":   meta.Origin,
		})
		return false
	}

	return true
}

// Touch refreshes the session's last-activity timestamp. Unknown or
// already expired tokens are a no-op.
func (r *Registry) Touch(token string) {
	e, ok := r.load(token)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.revoked || r.idleExpired(e.session.LastActivity) {
		return
	}
	e.session.LastActivity = r.now().UTC()
}

// Get returns a snapshot of the session record for a valid token.
func (r *Registry) Get(token string) (model.Session, bool) {
	e, ok := r.load(token)
	if !ok {
		return model.Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.revoked || r.idleExpired(e.session.LastActivity) {
		return model.Session{}, false
	}
	return e.session, true
}

// Invalidate removes the session for the given token
func (r *Registry) Invalidate(token string) {
	e, ok := r.load(token)
	if !ok {
		return
	}

	e.mu.Lock()
	e.revoked = true
	e.mu.Unlock()

	r.sessions.Delete(token)
}

// InvalidateAll removes every session held by the given user
func (r *Registry) InvalidateAll(username string) int {
	removed := 0
	r.sessions.Range(func(key, value any) bool {
		e := value.(*entry)
		e.mu.Lock()
		match := e.session.Username == username
		if match {
			e.revoked = true
		}
		e.mu.Unlock()

		if match {
			r.sessions.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// SweepExpired removes all idle-expired sessions. Safe to call
// concurrently with any other registry operation.
func (r *Registry) SweepExpired() int {
	removed := 0
	r.sessions.Range(func(key, value any) bool {
		e := value.(*entry)
		e.mu.Lock()
		expired := e.revoked || r.idleExpired(e.session.LastActivity)
		if expired {
			e.revoked = true
		}
		e.mu.Unlock()

		if expired {
			r.sessions.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		utils.Info("expired sessions swept", map[string]any{"removed": removed})
	}
	return removed
}

// Count returns the number of stored sessions, including any that have
// idle-expired but not yet been swept.
func (r *Registry) Count() int {
	count := 0
	r.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (r *Registry) load(token string) (*entry, bool) {
	value, ok := r.sessions.Load(token)
	if !ok {
		return nil, false
	}
	return value.(*entry), true
}

func (r *Registry) idleExpired(lastActivity time.Time) bool {
	return r.now().Sub(lastActivity) > r.maxIdle
}

func bindingMismatch(s model.Session, meta Metadata) bool {
	if s.Origin != "" && meta.Origin != "" && s.Origin != meta.Origin {
		return true
	}
	if s.ClientSignature != "" && meta.ClientSignature != "" && s.ClientSignature != meta.ClientSignature {
		return true
	}
	return false
}

// newToken returns a hex-encoded 256-bit random token.
func newToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
