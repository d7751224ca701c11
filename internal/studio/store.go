package studio

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store keeps sessions in memory and drops them after ttl without use.
type Store struct {
	sessions *cache.Cache
	ttl      time.Duration
	factory  func() *Session
}

func NewStore(ttl time.Duration, factory func() *Session) *Store {
	return &Store{
		sessions: cache.New(ttl, ttl/2+time.Minute),
		ttl:      ttl,
		factory:  factory,
	}
}

// Get returns the session for id, creating a new one under a fresh id when
// id is unknown or expired. created reports whether the id changed.
func (s *Store) Get(id string) (string, *Session, bool) {
	if id != "" {
		if v, ok := s.sessions.Get(id); ok {
			sess := v.(*Session)
			s.sessions.Set(id, sess, s.ttl)
			return id, sess, false
		}
	}

	id = uuid.NewString()
	sess := s.factory()
	s.sessions.Set(id, sess, s.ttl)
	return id, sess, true
}

func (s *Store) Len() int {
	return s.sessions.ItemCount()
}
