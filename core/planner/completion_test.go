package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/malla/core/academic"
)

func TestBuildCompletionState(t *testing.T) {
	tests := []struct {
		name       string
		records    []academic.Attempt
		want       Status
		wantPeriod string
	}{
		{
			name:       "latest attempt wins",
			records:    attempts(attempt("A", "REPROBADO", "202310"), attempt("A", "APROBADO", "202410")),
			want:       StatusApproved,
			wantPeriod: "202410",
		},
		{
			name:       "a later failure overrides an earlier approval",
			records:    attempts(attempt("A", "APROBADO", "202310"), attempt("A", "REPROBADO", "202410")),
			want:       StatusFailed,
			wantPeriod: "202410",
		},
		{
			name:       "same period prefers the stronger status",
			records:    attempts(attempt("A", "APROBADO", "202410"), attempt("A", "REPROBADO", "202410")),
			want:       StatusApproved,
			wantPeriod: "202410",
		},
		{
			name:       "unparsable periods rank below valid ones",
			records:    attempts(attempt("A", "REPROBADO", "202310"), attempt("A", "APROBADO", "otoño")),
			want:       StatusFailed,
			wantPeriod: "202310",
		},
		{
			name:       "status and code are normalized",
			records:    attempts(attempt(" a ", " en curso", "202410")),
			want:       StatusInProgress,
			wantPeriod: "202410",
		},
		{
			name:       "summer session follows the regular term",
			records:    attempts(attempt("A", "REPROBADO", "202420"), attempt("A", "APROBADO", "202425")),
			want:       StatusApproved,
			wantPeriod: "202425",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := BuildCompletionState(tt.records)
			assert.Len(t, state, 1)
			assert.Equal(t, tt.want, state.StatusOf("A"))
			assert.Equal(t, tt.wantPeriod, state["A"].Period)
		})
	}
}

func TestBuildCompletionState_orderIndependent(t *testing.T) {
	records := attempts(
		attempt("A", "REPROBADO", "202310"),
		attempt("A", "APROBADO", "202320"),
		attempt("B", "INSCRITO", "202410"),
		attempt("B", "REPROBADO", "202410"),
		attempt("C", "APROBADO", ""),
		attempt("C", "REPROBADO", "bad"),
		attempt("D", "APROBADO", "202210"),
	)
	want := BuildCompletionState(records)

	reversed := make([]academic.Attempt, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}
	rotated := append(append([]academic.Attempt{}, records[3:]...), records[:3]...)

	assert.Equal(t, want, BuildCompletionState(reversed))
	assert.Equal(t, want, BuildCompletionState(rotated))
	assert.Equal(t, want, BuildCompletionState(append(records, records...)))
}

func TestCompletionState_Satisfied(t *testing.T) {
	state := BuildCompletionState(attempts(
		attempt("A", "APROBADO", "202310"),
		attempt("B", "INSCRITO", "202410"),
		attempt("C", "EN_CURSO", "202410"),
		attempt("D", "REPROBADO", "202410"),
		attempt("E", "ANULADO", "202410"),
		attempt("", "APROBADO", "202410"),
	))
	assert.Equal(t, []string{"A", "B", "C"}, state.Satisfied().Codes())
	assert.Equal(t, StatusPending, state.StatusOf("Z"))
}

func TestCompletionState_Latest(t *testing.T) {
	_, ok := BuildCompletionState(nil).Latest()
	assert.False(t, ok)

	_, ok = BuildCompletionState(attempts(attempt("A", "APROBADO", "??"))).Latest()
	assert.False(t, ok)

	latest, ok := BuildCompletionState(attempts(
		attempt("A", "APROBADO", "202310"),
		attempt("B", "APROBADO", "202420"),
		attempt("C", "APROBADO", "x"),
	)).Latest()
	assert.True(t, ok)
	assert.Equal(t, int64(202420), latest)
}

func TestCompletedSet(t *testing.T) {
	set := NewCompletedSet("inf-101", "", "MAT 101")
	assert.Equal(t, []string{"INF101", "MAT101"}, set.Codes())
	assert.True(t, set.Has("Inf101"))

	clone := set.Clone()
	clone.Remove("inf101")
	assert.True(t, set.Has("INF101"))
	assert.False(t, clone.Has("INF101"))
}
