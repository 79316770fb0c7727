package planner

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/malla/core/academic"
)

type stubProvider struct {
	courses    []academic.Course
	attempts   []academic.Attempt
	curErr     error
	compErr    error
	gotCareer  string
	gotCatalog string
}

func (p *stubProvider) Curriculum(_ context.Context, careerCode, catalogCode string) ([]academic.Course, error) {
	p.gotCareer, p.gotCatalog = careerCode, catalogCode
	return p.courses, p.curErr
}

func (p *stubProvider) Completion(_ context.Context, _, _ string) ([]academic.Attempt, error) {
	return p.attempts, p.compErr
}

// barrierProvider blocks each fetch until the other one has started.
type barrierProvider struct {
	stubProvider
	curStarted  chan struct{}
	compStarted chan struct{}
}

func newBarrierProvider(courses []academic.Course) *barrierProvider {
	return &barrierProvider{
		stubProvider: stubProvider{courses: courses},
		curStarted:   make(chan struct{}),
		compStarted:  make(chan struct{}),
	}
}

func (p *barrierProvider) Curriculum(ctx context.Context, careerCode, catalogCode string) ([]academic.Course, error) {
	close(p.curStarted)
	select {
	case <-p.compStarted:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.stubProvider.Curriculum(ctx, careerCode, catalogCode)
}

func (p *barrierProvider) Completion(ctx context.Context, studentID, careerCode string) ([]academic.Attempt, error) {
	close(p.compStarted)
	select {
	case <-p.curStarted:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.stubProvider.Completion(ctx, studentID, careerCode)
}

func TestLoader_Load_fetchesConcurrently(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	prov := newBarrierProvider(rawOf(abcCurriculum()))
	data, err := NewLoader(prov, prov).Load(ctx, testSession())
	require.NoError(t, err, "both fetches must be in flight at the same time")
	assert.Equal(t, 3, data.Curriculum.Len())
}

func TestLoader_Load(t *testing.T) {
	prov := &stubProvider{
		courses:  rawOf(abcCurriculum()),
		attempts: attempts(attempt("a", "APROBADO", "202410")),
	}
	data, err := NewLoader(prov, prov).Load(context.Background(), testSession())
	require.NoError(t, err)

	assert.Equal(t, "8606", prov.gotCareer)
	assert.Equal(t, "201610", prov.gotCatalog)
	assert.Equal(t, 3, data.Curriculum.Len())
	assert.Equal(t, StatusApproved, data.State.StatusOf("A"))
}

func TestLoader_LoadErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		prov       *stubProvider
		wantSource string
		wantCause  error
	}{
		{
			name:       "curriculum unavailable",
			prov:       &stubProvider{curErr: boom},
			wantSource: "curriculum",
			wantCause:  boom,
		},
		{
			name:       "completion unavailable",
			prov:       &stubProvider{courses: rawOf(abcCurriculum()), compErr: academic.ErrUnavailable},
			wantSource: "completion",
			wantCause:  academic.ErrUnavailable,
		},
		{
			name:       "empty curriculum",
			prov:       &stubProvider{courses: rawCourses(raw("--", 6, 1, ""))},
			wantSource: "curriculum",
			wantCause:  errEmptyCurriculum,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewLoader(tt.prov, tt.prov).Load(context.Background(), testSession())
			require.Error(t, err)
			assert.Nil(t, data.Curriculum)
			assert.True(t, IsLoadError(err))

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, tt.wantSource, le.Source)
			assert.Equal(t, tt.wantCause, errors.Cause(err))
			assert.Contains(t, err.Error(), "loading "+tt.wantSource)
		})
	}
}

func TestIsLoadError(t *testing.T) {
	assert.False(t, IsLoadError(nil))
	assert.False(t, IsLoadError(errors.New("x")))
	assert.True(t, IsLoadError(errors.Wrap(&LoadError{Source: "curriculum", Err: errors.New("x")}, "starting")))
}

// rawOf turns a curriculum back into academic API records.
func rawOf(cur *Curriculum) []academic.Course {
	courses := make([]academic.Course, 0, cur.Len())
	for _, c := range cur.Courses() {
		courses = append(courses, raw(c.Code, c.Credits, c.Level, c.Prereq))
	}
	return courses
}
