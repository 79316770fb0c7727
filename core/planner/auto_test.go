package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockCodes(plan Plan) [][]string {
	codes := make([][]string, 0, len(plan.Blocks))
	for _, b := range plan.Blocks {
		codes = append(codes, b.Codes())
	}
	return codes
}

func TestAutoPlan(t *testing.T) {
	tests := []struct {
		name            string
		cur             *Curriculum
		state           CompletionState
		cap             int
		want            [][]string
		wantUnscheduled []string
	}{
		{
			name: "lowest levels first",
			cur:  abcCurriculum(),
			cap:  30,
			want: [][]string{{"A"}, {"C"}, {"B"}},
		},
		{
			name: "overflowing course is skipped for a smaller one",
			cur: NewCurriculum(rawCourses(
				raw("A", 8, 1, ""),
				raw("B", 6, 1, ""),
				raw("C", 2, 1, ""),
			)),
			cap:  10,
			want: [][]string{{"A", "C"}, {"B"}},
		},
		{
			name:  "completed courses are not planned",
			cur:   abcCurriculum(),
			state: BuildCompletionState(attempts(attempt("A", "APROBADO", "202410"))),
			cap:   40,
			want:  [][]string{{"C", "B"}},
		},
		{
			name:            "nothing eligible",
			cur:             NewCurriculum(rawCourses(raw("X", 6, 1, "Y"), raw("Y", 6, 1, "X"))),
			cap:             30,
			want:            [][]string{},
			wantUnscheduled: []string{"X", "Y"},
		},
		{
			name:            "course larger than the cap",
			cur:             NewCurriculum(rawCourses(raw("A", 6, 1, ""), raw("BIG", 40, 1, ""))),
			cap:             30,
			want:            [][]string{{"A"}},
			wantUnscheduled: []string{"BIG"},
		},
		{
			name:  "everything done",
			cur:   abcCurriculum(),
			state: BuildCompletionState(attempts(attempt("A", "APROBADO", "202410"), attempt("B", "APROBADO", "202410"), attempt("C", "INSCRITO", "202410"))),
			cap:   30,
			want:  [][]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.state
			if state == nil {
				state = make(CompletionState)
			}
			plan := AutoPlan(testSession(), tt.cur, state, testOptions(tt.cap))

			assert.Equal(t, ModeAutomatic, plan.Mode)
			assert.Equal(t, tt.want, blockCodes(plan))
			if tt.wantUnscheduled == nil {
				assert.Empty(t, plan.Unscheduled)
			} else {
				assert.Equal(t, tt.wantUnscheduled, plan.Unscheduled)
			}
		})
	}
}

func TestAutoPlan_periods(t *testing.T) {
	plan := AutoPlan(testSession(), abcCurriculum(), make(CompletionState), testOptions(30))
	require.Len(t, plan.Blocks, 3)

	assert.Equal(t, Period{Year: 2024, Term: 2}, plan.Start)
	for i, want := range []string{"202420", "202510", "202520"} {
		assert.Equal(t, i+1, plan.Blocks[i].Index)
		assert.Equal(t, want, plan.Blocks[i].Period.Code())
		for _, c := range plan.Blocks[i].Courses {
			assert.Equal(t, plan.Blocks[i].Period.Label(), c.Period)
		}
	}
	last, ok := plan.Last()
	assert.True(t, ok)
	assert.Equal(t, "2025-2", last.Label())
}

// chainCurriculum builds a curriculum of levels*width courses where each course requires the one
// right above it in the previous level.
func chainCurriculum(levels, width, credits int) *Curriculum {
	courses := rawCourses()
	for lvl := 1; lvl <= levels; lvl++ {
		for i := 0; i < width; i++ {
			prereq := ""
			if lvl > 1 {
				prereq = fmt.Sprintf("C%d%d", lvl-1, i)
			}
			courses = append(courses, raw(fmt.Sprintf("C%d%d", lvl, i), credits, lvl, prereq))
		}
	}
	return NewCurriculum(courses)
}

func TestAutoPlan_invariants(t *testing.T) {
	cur := chainCurriculum(6, 5, 7)
	state := BuildCompletionState(attempts(
		attempt("C10", "APROBADO", "202310"),
		attempt("C11", "REPROBADO", "202310"),
		attempt("C20", "INSCRITO", "202410"),
	))

	for _, cap := range []int{7, 12, 21, 30, 100} {
		t.Run(fmt.Sprint(cap), func(t *testing.T) {
			plan := AutoPlan(testSession(), cur, state, testOptions(cap))

			done := state.Satisfied()
			seen := make(map[string]bool)
			for _, b := range plan.Blocks {
				assert.LessOrEqual(t, b.Credits, cap)
				assert.NotEmpty(t, b.Courses)
				for _, pc := range b.Courses {
					assert.False(t, seen[pc.Code], "%s planned twice", pc.Code)
					assert.False(t, done.Has(pc.Code), "%s already completed", pc.Code)
					seen[pc.Code] = true

					c, _ := cur.Get(pc.Code)
					assert.True(t, IsEligible(c, done, cur), "%s planned before its prerequisites", pc.Code)
				}
				done.Add(b.Codes()...)
			}
			assert.Equal(t, cur.Len(), len(done.Codes()), "every course gets planned")
			assert.Empty(t, plan.Unscheduled)
		})
	}
}

func TestAutoPlan_doesNotMutateInputs(t *testing.T) {
	cur := abcCurriculum()
	state := BuildCompletionState(attempts(attempt("A", "APROBADO", "202410")))

	AutoPlan(testSession(), cur, state, testOptions(30))
	assert.Len(t, state, 1)
	assert.Equal(t, []string{"A"}, state.Satisfied().Codes())
	assert.Equal(t, []string{"A", "B", "C"}, codesOf(cur.Courses()))
}
