package academicsvc

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/malla/core/academic"
)

// CachedCurricula keeps recently fetched curricula in memory. Curricula change once per
// catalog, so entries never expire; failed fetches are not cached.
type CachedCurricula struct {
	next  academic.CurriculumProvider
	cache *lru.Cache[string, []academic.Course]
}

var _ academic.CurriculumProvider = (*CachedCurricula)(nil)

func NewCachedCurricula(next academic.CurriculumProvider, size int) (*CachedCurricula, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, []academic.Course](size)
	if err != nil {
		return nil, errors.Wrap(err, "creating curriculum cache")
	}
	return &CachedCurricula{next: next, cache: cache}, nil
}

func (cc *CachedCurricula) Curriculum(ctx context.Context, careerCode, catalogCode string) ([]academic.Course, error) {
	key := careerCode + "-" + catalogCode
	if courses, ok := cc.cache.Get(key); ok {
		return copyCourses(courses), nil
	}
	courses, err := cc.next.Curriculum(ctx, careerCode, catalogCode)
	if err != nil {
		return nil, err
	}
	cc.cache.Add(key, copyCourses(courses))
	return courses, nil
}

func (cc *CachedCurricula) Len() int { return cc.cache.Len() }

func copyCourses(courses []academic.Course) []academic.Course {
	cp := make([]academic.Course, len(courses))
	copy(cp, courses)
	return cp
}
