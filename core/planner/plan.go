package planner

import (
	"time"

	"github.com/trezcool/malla/core/academic"
)

// DefaultCreditCap is the maximum number of credits per simulated semester.
const DefaultCreditCap = 30

type Mode string

const (
	ModeManual    Mode = "manual"
	ModeAutomatic Mode = "automatica"
)

// SessionContext identifies who is planning and for which career.
type SessionContext struct {
	StudentID string          `json:"rut"`
	Career    academic.Career `json:"carrera"`
}

type Options struct {
	CreditCap int
	// Start is the first simulated term; the zero value means "the term after the current one"
	// (see StartPeriod).
	Start Period
	Now   func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CreditCap <= 0 {
		o.CreditCap = DefaultCreditCap
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// StartPeriod picks the first simulated term: the term after the one in progress at now,
// pushed forward if the student already has records in or after that term.
func StartPeriod(now time.Time, state CompletionState) Period {
	start := CurrentPeriod(now).Next()
	if latest, ok := state.Latest(); ok {
		if p, ok := PeriodFromCode(latest); ok && !p.Before(start) {
			start = p.Next()
		}
	}
	return start
}

// PlannedCourse is a course placed in a simulated semester.
type PlannedCourse struct {
	Code    string `json:"codigo"`
	Name    string `json:"asignatura"`
	Credits int    `json:"creditos"`
	Level   int    `json:"nivel"`
	Period  string `json:"periodo"`
}

// SemesterBlock is one committed semester of a plan.
type SemesterBlock struct {
	Index   int             `json:"numero"`
	Period  Period          `json:"periodo"`
	Courses []PlannedCourse `json:"ramos"`
	Credits int             `json:"creditos"`
}

func newBlock(index int, period Period, courses []Course) SemesterBlock {
	block := SemesterBlock{
		Index:   index,
		Period:  period,
		Courses: make([]PlannedCourse, 0, len(courses)),
	}
	for _, c := range courses {
		block.Courses = append(block.Courses, PlannedCourse{
			Code:    c.Code,
			Name:    c.Name,
			Credits: c.Credits,
			Level:   c.Level,
			Period:  period.Label(),
		})
		block.Credits += c.Credits
	}
	return block
}

func (b SemesterBlock) Codes() []string {
	codes := make([]string, 0, len(b.Courses))
	for _, c := range b.Courses {
		codes = append(codes, c.Code)
	}
	return codes
}

// Plan is the outcome of a simulation: the ordered semesters to take.
type Plan struct {
	Mode        Mode            `json:"tipo"`
	Session     SessionContext  `json:"sesion"`
	Start       Period          `json:"inicio"`
	Blocks      []SemesterBlock `json:"plan"`
	Unscheduled []string        `json:"sin_programar,omitempty"`
	CreatedAt   time.Time       `json:"fecha_creacion"`
}

func (p Plan) TotalCredits() int {
	var total int
	for _, b := range p.Blocks {
		total += b.Credits
	}
	return total
}

func (p Plan) TotalCourses() int {
	var total int
	for _, b := range p.Blocks {
		total += len(b.Courses)
	}
	return total
}

func (p Plan) Semesters() int { return len(p.Blocks) }

// Last returns the period of the last planned semester.
func (p Plan) Last() (Period, bool) {
	if len(p.Blocks) == 0 {
		return Period{}, false
	}
	return p.Blocks[len(p.Blocks)-1].Period, true
}
