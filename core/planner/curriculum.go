package planner

import (
	"sort"
	"strings"

	"github.com/trezcool/malla/core/academic"
)

// Course is a curriculum entry keyed by its normalized code.
type Course struct {
	Code    string `json:"codigo"`
	Name    string `json:"asignatura"`
	Credits int    `json:"creditos"`
	Level   int    `json:"nivel"`
	Prereq  string `json:"prereq"`
}

// Prereqs returns the normalized, non-empty prerequisite codes of the course, in listed order.
func (c Course) Prereqs() []string {
	return ParsePrereqs(c.Prereq)
}

// Curriculum is an immutable snapshot of a career's malla for one catalog.
type Curriculum struct {
	courses []Course
	index   map[string]int
}

// NewCurriculum builds a Curriculum from the academic API records, keeping their order.
// Entries whose code normalizes to "" are dropped; on duplicate codes the first entry wins.
func NewCurriculum(raw []academic.Course) *Curriculum {
	cur := &Curriculum{
		courses: make([]Course, 0, len(raw)),
		index:   make(map[string]int, len(raw)),
	}
	for _, rc := range raw {
		code := NormalizeCode(rc.Code)
		if code == "" {
			continue
		}
		if _, dup := cur.index[code]; dup {
			continue
		}
		cur.index[code] = len(cur.courses)
		cur.courses = append(cur.courses, Course{
			Code:    code,
			Name:    strings.TrimSpace(rc.Name),
			Credits: rc.Credits,
			Level:   rc.Level,
			Prereq:  rc.PrereqExpr(),
		})
	}
	return cur
}

// Courses returns a copy of the curriculum's courses in their original order.
func (cur *Curriculum) Courses() []Course {
	courses := make([]Course, len(cur.courses))
	copy(courses, cur.courses)
	return courses
}

func (cur *Curriculum) Len() int { return len(cur.courses) }

// Has reports whether the (raw or normalized) code belongs to the curriculum.
func (cur *Curriculum) Has(code string) bool {
	_, ok := cur.index[NormalizeCode(code)]
	return ok
}

func (cur *Curriculum) Get(code string) (Course, bool) {
	idx, ok := cur.index[NormalizeCode(code)]
	if !ok {
		return Course{}, false
	}
	return cur.courses[idx], true
}

func (cur *Curriculum) TotalCredits() int {
	var total int
	for _, c := range cur.courses {
		total += c.Credits
	}
	return total
}

// Levels returns the distinct course levels, ascending.
func (cur *Curriculum) Levels() []int {
	seen := make(map[int]struct{})
	levels := make([]int, 0)
	for _, c := range cur.courses {
		if _, ok := seen[c.Level]; !ok {
			seen[c.Level] = struct{}{}
			levels = append(levels, c.Level)
		}
	}
	sort.Ints(levels)
	return levels
}
