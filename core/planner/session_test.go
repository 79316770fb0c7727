package planner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(owner string) *Session {
	sess := testSession()
	sess.StudentID = owner
	sim := NewSimulator(sess, abcCurriculum(), make(CompletionState), testOptions(30))
	return newSession(owner, sim, fixedNow())
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore(10, time.Hour)
	s := newTestSession("11111111-1")
	store.Add(s)

	got, err := store.Get(s.ID, "11111111-1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = store.Get(s.ID, "22222222-2")
	assert.Equal(t, ErrSessionNotFound, err)
	_, err = store.Get("nope", "11111111-1")
	assert.Equal(t, ErrSessionNotFound, err)

	assert.Equal(t, ErrSessionNotFound, store.Remove(s.ID, "22222222-2"))
	assert.Equal(t, 1, store.Len())
	assert.NoError(t, store.Remove(s.ID, "11111111-1"))
	assert.Equal(t, 0, store.Len())
	_, err = store.Get(s.ID, "11111111-1")
	assert.Equal(t, ErrSessionNotFound, err)
}

func TestSessionStore_expiry(t *testing.T) {
	store := NewSessionStore(10, 20*time.Millisecond)
	s := newTestSession("11111111-1")
	store.Add(s)

	time.Sleep(60 * time.Millisecond)
	_, err := store.Get(s.ID, "11111111-1")
	assert.Equal(t, ErrSessionNotFound, err)
}

func TestSessionStore_capacity(t *testing.T) {
	store := NewSessionStore(2, time.Hour)
	first, second, third := newTestSession("a"), newTestSession("a"), newTestSession("a")
	store.Add(first)
	store.Add(second)
	store.Add(third)

	_, err := store.Get(first.ID, "a")
	assert.Equal(t, ErrSessionNotFound, err)
	_, err = store.Get(third.ID, "a")
	assert.NoError(t, err)
}

func TestSession_concurrentUse(t *testing.T) {
	s := newTestSession("11111111-1")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				s.Toggle("A")
			} else {
				_ = s.Snapshot()
				_ = s.Eligible()
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.LessOrEqual(t, snap.SelectedCredits, 6)
	assert.NotEqual(t, s.ID, newTestSession("11111111-1").ID)
}

func TestSession_EligibleAfterFinalize(t *testing.T) {
	s := newTestSession("11111111-1")
	s.Toggle("A")
	s.Finalize()
	assert.Empty(t, s.Eligible())
	assert.True(t, s.Snapshot().Finalized)
}
