package pages

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying a visitor's session ID.
const CookieName = "frontcadastro_sessao"

// DefaultSessionTTL is how long an idle visitor keeps their pages.
const DefaultSessionTTL = 30 * time.Minute

// Session is one visitor's copy of both pages. Nothing in it is shared with
// another visitor: form values, marks, banners, buttons and the listing
// table all live here.
type Session struct {
	ID           string
	Registration *Registration
	Listing      *Listing

	lastSeen time.Time
}

// sessionStore maps session IDs to visitors. Idle sessions are dropped
// lazily, whenever a new one is created.
type sessionStore struct {
	mu    sync.Mutex
	byID  map[string]*Session
	ttl   time.Duration
	now   func() time.Time
	build func(id string) *Session
}

func newSessionStore(ttl time.Duration, now func() time.Time, build func(id string) *Session) *sessionStore {
	return &sessionStore{
		byID:  make(map[string]*Session),
		ttl:   ttl,
		now:   now,
		build: build,
	}
}

// get returns the caller's session, starting a new one (and setting its
// cookie on w) when the request carries no live session ID. IDs are always
// minted here; an unknown ID from the client is never adopted.
func (s *sessionStore) get(w http.ResponseWriter, r *http.Request) *Session {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(CookieName); err == nil {
		if sess, ok := s.byID[c.Value]; ok && now.Sub(sess.lastSeen) < s.ttl {
			sess.lastSeen = now
			return sess
		}
	}

	s.sweep(now)

	sess := s.build(uuid.NewString())
	sess.lastSeen = now
	s.byID[sess.ID] = sess

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *sessionStore) lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	return sess, ok
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// sweep drops idle sessions. Callers hold s.mu.
func (s *sessionStore) sweep(now time.Time) {
	for id, sess := range s.byID {
		if now.Sub(sess.lastSeen) >= s.ttl {
			delete(s.byID, id)
		}
	}
}
