package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/poofware/listings-service/internal/models"
)

// Session is the resolved identity of a caller.
type Session struct {
	UserID uuid.UUID
	Name   string
	Role   models.RoleName
}

// SessionStore maps a user id to its session record. Entries are created when
// a caller is first resolved and must be invalidated when the user's role
// changes or the user logs out.
type SessionStore interface {
	Get(userID uuid.UUID) (*Session, bool)
	Put(s *Session)
	Invalidate(userID uuid.UUID)
}

type cacheSessionStore struct {
	c *cache.Cache
}

// NewCacheSessionStore keeps sessions in memory for ttl.
func NewCacheSessionStore(ttl, cleanupInterval time.Duration) SessionStore {
	return &cacheSessionStore{c: cache.New(ttl, cleanupInterval)}
}

func (s *cacheSessionStore) Get(userID uuid.UUID) (*Session, bool) {
	v, ok := s.c.Get(userID.String())
	if !ok {
		return nil, false
	}
	sess, ok := v.(*Session)
	return sess, ok
}

func (s *cacheSessionStore) Put(sess *Session) {
	s.c.Set(sess.UserID.String(), sess, cache.DefaultExpiration)
}

func (s *cacheSessionStore) Invalidate(userID uuid.UUID) {
	s.c.Delete(userID.String())
}
