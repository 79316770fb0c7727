package planner

import (
	"math"
	"strings"

	"github.com/trezcool/malla/core/academic"
)

type Status string

const (
	StatusApproved   Status = "APROBADO"
	StatusFailed     Status = "REPROBADO"
	StatusEnrolled   Status = "INSCRITO"
	StatusInProgress Status = "EN_CURSO"
	StatusPending    Status = "PENDIENTE" // never attempted; only used by progress views
)

// NormalizeStatus uppercases the status and joins its words with "_".
func NormalizeStatus(status string) Status {
	return Status(strings.Join(strings.Fields(strings.ToUpper(status)), "_"))
}

// Satisfies reports whether a course with this status counts as done for prerequisites.
func (s Status) Satisfies() bool {
	return s == StatusApproved || s == StatusEnrolled || s == StatusInProgress
}

func (s Status) rank() int {
	switch s {
	case StatusApproved:
		return 3
	case StatusEnrolled, StatusInProgress:
		return 2
	case StatusFailed:
		return 1
	default:
		return 0
	}
}

// CompletionEntry is the current status of a course: the one of its latest attempt.
type CompletionEntry struct {
	Status Status `json:"estado"`
	Period string `json:"periodo"`

	periodNum int64
}

// newer reports whether e should replace old. Periods compare numerically; unparsable periods
// rank below any valid one. Ties are broken on status then raw period so that the outcome
// does not depend on the order records are processed in.
func (e CompletionEntry) newer(old CompletionEntry) bool {
	if e.periodNum != old.periodNum {
		return e.periodNum > old.periodNum
	}
	if e.Status.rank() != old.Status.rank() {
		return e.Status.rank() > old.Status.rank()
	}
	if e.Status != old.Status {
		return e.Status > old.Status
	}
	return e.Period > old.Period
}

// CompletionState maps normalized course codes to their current status.
type CompletionState map[string]CompletionEntry

// BuildCompletionState reduces a student's attempts to one entry per course.
func BuildCompletionState(records []academic.Attempt) CompletionState {
	state := make(CompletionState, len(records))
	for _, rec := range records {
		code := NormalizeCode(rec.Course)
		if code == "" {
			continue
		}
		num, ok := rec.Period.Int()
		if !ok {
			num = math.MinInt64
		}
		entry := CompletionEntry{
			Status:    NormalizeStatus(rec.Status),
			Period:    strings.TrimSpace(string(rec.Period)),
			periodNum: num,
		}
		if old, seen := state[code]; !seen || entry.newer(old) {
			state[code] = entry
		}
	}
	return state
}

// Satisfied returns the codes whose current status is approved or in progress.
func (cs CompletionState) Satisfied() CompletedSet {
	set := make(CompletedSet, len(cs))
	for code, entry := range cs {
		if entry.Status.Satisfies() {
			set[code] = struct{}{}
		}
	}
	return set
}

// Latest returns the greatest valid period found in the state.
func (cs CompletionState) Latest() (int64, bool) {
	var (
		latest int64
		found  bool
	)
	for _, entry := range cs {
		if entry.periodNum == math.MinInt64 {
			continue
		}
		if !found || entry.periodNum > latest {
			latest, found = entry.periodNum, true
		}
	}
	return latest, found
}

func (cs CompletionState) StatusOf(code string) Status {
	if entry, ok := cs[NormalizeCode(code)]; ok {
		return entry.Status
	}
	return StatusPending
}
