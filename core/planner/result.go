package planner

type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeViolation Outcome = "violation"
	OutcomeFinalized Outcome = "finalized"
)

// Violation is an expected, recoverable rejection of a user action.
type Violation string

const (
	ViolationCreditCap        Violation = "credit_cap"
	ViolationPrerequisites    Violation = "prerequisites"
	ViolationEmptySelection   Violation = "empty_selection"
	ViolationNothingToRewind  Violation = "nothing_to_rewind"
	ViolationUnknownCourse    Violation = "unknown_course"
	ViolationAlreadyCompleted Violation = "already_completed"
	ViolationFinalized        Violation = "finalized"
)

var violationMessages = map[Violation]string{
	ViolationCreditCap:        "selecting this course exceeds the credit cap for the semester",
	ViolationPrerequisites:    "this course has pending prerequisites",
	ViolationEmptySelection:   "select at least one course before committing the semester",
	ViolationNothingToRewind:  "there is no committed semester to rewind",
	ViolationUnknownCourse:    "this course is not part of the curriculum",
	ViolationAlreadyCompleted: "this course is already completed",
	ViolationFinalized:        "the projection is already finalized",
}

// Result is returned by every simulator action.
type Result struct {
	Outcome   Outcome        `json:"resultado"`
	Violation Violation      `json:"violacion,omitempty"`
	Message   string         `json:"mensaje,omitempty"`
	Course    string         `json:"codigo,omitempty"`
	Selected  bool           `json:"seleccionado"`
	Prereqs   *PrereqCheck   `json:"prerequisitos,omitempty"`
	Credits   int            `json:"creditos"`
	CreditCap int            `json:"tope_creditos"`
	Block     *SemesterBlock `json:"semestre,omitempty"`
}

func (r Result) OK() bool { return r.Outcome != OutcomeViolation }

func (s *Simulator) ok() Result {
	return Result{
		Outcome:   OutcomeOK,
		Credits:   s.selectedCredits(),
		CreditCap: s.cap,
	}
}

func (s *Simulator) violation(v Violation, course string) Result {
	return Result{
		Outcome:   OutcomeViolation,
		Violation: v,
		Message:   violationMessages[v],
		Course:    course,
		Credits:   s.selectedCredits(),
		CreditCap: s.cap,
	}
}
