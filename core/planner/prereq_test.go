package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/malla/core/academic"
)

func TestParsePrereqs(t *testing.T) {
	assert.Nil(t, ParsePrereqs(""))
	assert.Nil(t, ParsePrereqs("   "))
	assert.Equal(t, []string{"INF101", "MAT101"}, ParsePrereqs("inf-101, ,MAT 101,"))
	assert.Equal(t, []string{"A"}, ParsePrereqs(",,a"))
}

func TestCheckPrereqs(t *testing.T) {
	cur := NewCurriculum([]academic.Course{
		raw("A", 6, 1, ""),
		raw("B", 6, 1, "   "),
		raw("C", 6, 2, "A"),
		raw("D", 6, 2, "Z999"),
		raw("E", 6, 3, "A, Z999, C"),
		raw("F", 6, 3, "z-999,Y-000"),
	})
	get := func(code string) Course {
		c, ok := cur.Get(code)
		if !ok {
			t.Fatalf("course %s not found", code)
		}
		return c
	}

	tests := []struct {
		name   string
		course string
		done   CompletedSet
		want   PrereqCheck
	}{
		{name: "no prereqs", course: "A", done: NewCompletedSet(), want: PrereqCheck{Eligible: true}},
		{name: "blank prereqs", course: "B", done: NewCompletedSet(), want: PrereqCheck{Eligible: true}},
		{name: "pending prereq", course: "C", done: NewCompletedSet(), want: PrereqCheck{Pending: []string{"A"}}},
		{name: "satisfied prereq", course: "C", done: NewCompletedSet("a"), want: PrereqCheck{Eligible: true}},
		{name: "orphaned prereq", course: "D", done: NewCompletedSet(), want: PrereqCheck{Eligible: true, Orphaned: []string{"Z999"}}},
		{
			name: "mixed", course: "E", done: NewCompletedSet("A"),
			want: PrereqCheck{Pending: []string{"C"}, Orphaned: []string{"Z999"}},
		},
		{
			name: "all orphaned", course: "F", done: NewCompletedSet(),
			want: PrereqCheck{Eligible: true, Orphaned: []string{"Z999", "Y000"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckPrereqs(get(tt.course), tt.done, cur)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Eligible, IsEligible(get(tt.course), tt.done, cur))
		})
	}
}

func TestIsEligible_blankPrereqsAlwaysEligible(t *testing.T) {
	cur := NewCurriculum([]academic.Course{raw("A", 6, 1, ""), raw("B", 6, 1, " , ")})
	for _, done := range []CompletedSet{NewCompletedSet(), NewCompletedSet("A"), NewCompletedSet("A", "B", "X")} {
		for _, c := range cur.Courses() {
			assert.True(t, IsEligible(c, done, cur), "%s with %v", c.Code, done.Codes())
		}
	}
}

func TestIsEligible_doesNotMutate(t *testing.T) {
	cur := abcCurriculum()
	done := NewCompletedSet("A")
	b, _ := cur.Get("B")
	IsEligible(b, done, cur)
	assert.Equal(t, []string{"A"}, done.Codes())
	assert.Equal(t, 3, cur.Len())
}

func TestEligibleAndPending(t *testing.T) {
	cur := abcCurriculum()

	assert.Equal(t, []string{"A", "C"}, codesOf(Eligible(cur, NewCompletedSet())))
	assert.Equal(t, []string{"B", "C"}, codesOf(Eligible(cur, NewCompletedSet("A"))))
	assert.Empty(t, Eligible(cur, NewCompletedSet("A", "B", "C")))

	assert.Equal(t, []string{"A", "B", "C"}, codesOf(Pending(cur, NewCompletedSet())))
	assert.Equal(t, []string{"B"}, codesOf(Pending(cur, NewCompletedSet("A", "C"))))
}

func TestNewCurriculum(t *testing.T) {
	cur := NewCurriculum([]academic.Course{
		raw("inf-101", 6, 1, ""),
		raw("INF101", 4, 1, ""), // duplicate once normalized
		raw("--", 6, 1, ""),
		raw("mat-201", 5, 3, "INF-101"),
		raw("fis-100", 4, 2, ""),
	})

	assert.Equal(t, 3, cur.Len())
	assert.Equal(t, []string{"INF101", "MAT201", "FIS100"}, codesOf(cur.Courses()))
	assert.Equal(t, 15, cur.TotalCredits())
	assert.Equal(t, []int{1, 2, 3}, cur.Levels())
	assert.True(t, cur.Has("Inf 101"))

	c, ok := cur.Get("inf101")
	assert.True(t, ok)
	assert.Equal(t, 6, c.Credits)

	_, ok = cur.Get("XYZ")
	assert.False(t, ok)
}
