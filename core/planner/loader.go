package planner

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/malla/core/academic"
)

var errEmptyCurriculum = errors.New("empty curriculum")

// LoadError reports that the data needed to start a simulation could not be fetched.
// No simulator is ever built from partial data.
type LoadError struct {
	Source string // "curriculum" or "completion"
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Cause lets errors.Cause reach the provider error.
func (e *LoadError) Cause() error { return e.Err }

// IsLoadError reports whether err is (or wraps) a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// Loaded is what a simulation starts from.
type Loaded struct {
	Curriculum *Curriculum
	State      CompletionState
}

type Loader struct {
	curricula  academic.CurriculumProvider
	completion academic.CompletionProvider
}

func NewLoader(curricula academic.CurriculumProvider, completion academic.CompletionProvider) *Loader {
	return &Loader{curricula: curricula, completion: completion}
}

// Load fetches the career's curriculum and the student's completion records concurrently and
// waits for both. If either fetch fails the whole load fails.
func (l *Loader) Load(ctx context.Context, sess SessionContext) (Loaded, error) {
	var (
		courses  []academic.Course
		attempts []academic.Attempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = l.curricula.Curriculum(gctx, sess.Career.Code, sess.Career.Catalog)
		if err != nil {
			return &LoadError{Source: "curriculum", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		attempts, err = l.completion.Completion(gctx, sess.StudentID, sess.Career.Code)
		if err != nil {
			return &LoadError{Source: "completion", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Loaded{}, err
	}

	cur := NewCurriculum(courses)
	if cur.Len() == 0 {
		return Loaded{}, &LoadError{Source: "curriculum", Err: errEmptyCurriculum}
	}
	return Loaded{Curriculum: cur, State: BuildCompletionState(attempts)}, nil
}
