package planner

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"

	"github.com/trezcool/malla/core/projection"
)

var (
	// errors
	ErrSessionNotFound = errors.New("planning session not found")
	ErrNotFinalized    = errors.New("planning session is not finalized")
)

// Session is a manual simulation owned by one student. All access goes through its mutex.
type Session struct {
	ID        string    `json:"id"`
	Owner     string    `json:"rut"`
	CreatedAt time.Time `json:"created_at"`

	mu    sync.Mutex
	sim   *Simulator
	saved *projection.Projection
}

func newSession(owner string, sim *Simulator, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		CreatedAt: now.UTC(),
		sim:       sim,
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Snapshot()
}

func (s *Session) Eligible() []LevelGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sim.Finalized() {
		return make([]LevelGroup, 0)
	}
	return s.sim.ListEligible()
}

func (s *Session) Toggle(code string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Toggle(code)
}

func (s *Session) Commit() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Commit()
}

func (s *Session) Rewind() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Rewind()
}

func (s *Session) Finalize() (Plan, Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Finalize()
}

// SessionStore keeps the running sessions in memory. Sessions expire after ttl and the least
// recently used ones are evicted once capacity is reached; an expired session is simply gone.
type SessionStore struct {
	cache *expirable.LRU[string, *Session]
}

func NewSessionStore(capacity int, ttl time.Duration) *SessionStore {
	if capacity <= 0 {
		capacity = 1024
	}
	return &SessionStore{cache: expirable.NewLRU[string, *Session](capacity, nil, ttl)}
}

func (st *SessionStore) Add(s *Session) {
	st.cache.Add(s.ID, s)
}

// Get returns the session only if it belongs to owner.
func (st *SessionStore) Get(id, owner string) (*Session, error) {
	s, ok := st.cache.Get(id)
	if !ok || s.Owner != owner {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *SessionStore) Remove(id, owner string) error {
	if _, err := st.Get(id, owner); err != nil {
		return err
	}
	st.cache.Remove(id)
	return nil
}

func (st *SessionStore) Len() int { return st.cache.Len() }
