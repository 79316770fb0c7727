package planner

import (
	"sort"
	"time"
)

// LevelGroup lists courses of one curriculum level.
type LevelGroup struct {
	Level   int      `json:"nivel"`
	Courses []Course `json:"ramos"`
}

func groupByLevel(courses []Course) []LevelGroup {
	byLevel := make(map[int][]Course)
	levels := make([]int, 0)
	for _, c := range courses {
		if _, ok := byLevel[c.Level]; !ok {
			levels = append(levels, c.Level)
		}
		byLevel[c.Level] = append(byLevel[c.Level], c)
	}
	sort.Ints(levels)
	groups := make([]LevelGroup, 0, len(levels))
	for _, lvl := range levels {
		groups = append(groups, LevelGroup{Level: lvl, Courses: byLevel[lvl]})
	}
	return groups
}

// Snapshot is a read-only view of a simulator's state.
type Snapshot struct {
	Period          Period          `json:"periodo"`
	CreditCap       int             `json:"tope_creditos"`
	Selection       []PlannedCourse `json:"seleccion"`
	SelectedCredits int             `json:"creditos_seleccionados"`
	Blocks          []SemesterBlock `json:"plan"`
	Completed       int             `json:"ramos_cumplidos"`
	Pending         int             `json:"ramos_pendientes"`
	Eligible        []LevelGroup    `json:"elegibles"`
	Stalled         bool            `json:"estancado"`
	Finalized       bool            `json:"finalizado"`
}

// Simulator is the manual planner: the student picks the courses of each simulated semester.
//
// It is not safe for concurrent use; callers serialize access (see SessionStore).
type Simulator struct {
	session SessionContext
	cur     *Curriculum
	cap     int
	now     func() time.Time

	start     Period
	period    Period
	done      CompletedSet
	selection []string
	blocks    []SemesterBlock

	finalized bool
	plan      Plan
}

// NewSimulator starts a manual simulation from the student's completion state.
// If no course is pending the simulator starts finalized with an empty plan.
func NewSimulator(sess SessionContext, cur *Curriculum, state CompletionState, opts Options) *Simulator {
	opts = opts.withDefaults()
	start := opts.Start
	if start.IsZero() {
		start = StartPeriod(opts.Now(), state)
	}
	s := &Simulator{
		session: sess,
		cur:     cur,
		cap:     opts.CreditCap,
		now:     opts.Now,
		start:   start,
		period:  start,
		done:    state.Satisfied(),
	}
	if len(s.Pending()) == 0 {
		s.finish()
	}
	return s
}

func (s *Simulator) Session() SessionContext { return s.session }
func (s *Simulator) Period() Period          { return s.period }
func (s *Simulator) CreditCap() int          { return s.cap }
func (s *Simulator) Finalized() bool         { return s.finalized }

// Completed returns a copy of the simulated-completed set.
func (s *Simulator) Completed() CompletedSet { return s.done.Clone() }

// Pending returns the courses not yet completed nor committed, in curriculum order.
func (s *Simulator) Pending() []Course { return Pending(s.cur, s.done) }

// ListEligible returns the pending courses whose prerequisites are satisfied, grouped by level.
// Completed courses are never listed.
func (s *Simulator) ListEligible() []LevelGroup {
	return groupByLevel(Eligible(s.cur, s.done))
}

// Selection returns the in-progress selection of the current semester.
func (s *Simulator) Selection() []Course {
	courses := make([]Course, 0, len(s.selection))
	for _, code := range s.selection {
		if c, ok := s.cur.Get(code); ok {
			courses = append(courses, c)
		}
	}
	return courses
}

func (s *Simulator) selectedCredits() int {
	var total int
	for _, c := range s.Selection() {
		total += c.Credits
	}
	return total
}

func (s *Simulator) selectedIndex(code string) int {
	for i, sel := range s.selection {
		if sel == code {
			return i
		}
	}
	return -1
}

// Blocks returns the committed semesters.
func (s *Simulator) Blocks() []SemesterBlock {
	blocks := make([]SemesterBlock, len(s.blocks))
	copy(blocks, s.blocks)
	return blocks
}

// Toggle adds the course to the current semester's selection, or removes it if already
// selected. Adding is rejected when the course is unknown, already completed, has pending
// prerequisites, or would take the selection over the credit cap.
func (s *Simulator) Toggle(code string) Result {
	code = NormalizeCode(code)
	if s.finalized {
		return s.violation(ViolationFinalized, code)
	}
	course, ok := s.cur.Get(code)
	if !ok {
		return s.violation(ViolationUnknownCourse, code)
	}

	if idx := s.selectedIndex(course.Code); idx >= 0 {
		s.selection = append(s.selection[:idx], s.selection[idx+1:]...)
		res := s.ok()
		res.Course = course.Code
		return res
	}

	if s.done.Has(course.Code) {
		return s.violation(ViolationAlreadyCompleted, course.Code)
	}
	check := CheckPrereqs(course, s.done, s.cur)
	if !check.Eligible {
		res := s.violation(ViolationPrerequisites, course.Code)
		res.Prereqs = &check
		return res
	}
	if s.selectedCredits()+course.Credits > s.cap {
		return s.violation(ViolationCreditCap, course.Code)
	}

	s.selection = append(s.selection, course.Code)
	res := s.ok()
	res.Course = course.Code
	res.Selected = true
	if len(check.Orphaned) > 0 {
		res.Prereqs = &check
	}
	return res
}

// Commit closes the current semester with the selected courses and moves to the next term.
// The simulation finalizes itself once no course remains pending.
func (s *Simulator) Commit() Result {
	if s.finalized {
		return s.violation(ViolationFinalized, "")
	}
	if len(s.selection) == 0 {
		return s.violation(ViolationEmptySelection, "")
	}

	block := s.commit()
	res := s.ok()
	res.Block = &block
	if len(s.Pending()) == 0 {
		s.finish()
		res.Outcome = OutcomeFinalized
	}
	return res
}

func (s *Simulator) commit() SemesterBlock {
	block := newBlock(len(s.blocks)+1, s.period, s.Selection())
	s.done.Add(block.Codes()...)
	s.blocks = append(s.blocks, block)
	s.period = s.period.Next()
	s.selection = nil
	return block
}

// Rewind reopens the last committed semester: its courses leave the completed set and become
// the in-progress selection again. An uncommitted selection is discarded.
func (s *Simulator) Rewind() Result {
	if s.finalized {
		return s.violation(ViolationFinalized, "")
	}
	if len(s.blocks) == 0 {
		return s.violation(ViolationNothingToRewind, "")
	}

	block := s.blocks[len(s.blocks)-1]
	s.blocks = s.blocks[:len(s.blocks)-1]
	codes := block.Codes()
	s.done.Remove(codes...)
	s.period = block.Period
	s.selection = codes

	res := s.ok()
	res.Block = &block
	return res
}

// Finalize commits a pending selection, if any, then ends the simulation and returns the plan.
// Calling it again returns the same plan.
func (s *Simulator) Finalize() (Plan, Result) {
	if s.finalized {
		return s.plan, Result{Outcome: OutcomeFinalized, CreditCap: s.cap}
	}
	res := Result{Outcome: OutcomeFinalized, CreditCap: s.cap}
	if len(s.selection) > 0 {
		block := s.commit()
		res.Block = &block
	}
	s.finish()
	return s.plan, res
}

// Plan returns the finalized plan; ok is false while the simulation is still running.
func (s *Simulator) Plan() (Plan, bool) {
	return s.plan, s.finalized
}

func (s *Simulator) finish() {
	unscheduled := make([]string, 0)
	for _, c := range s.Pending() {
		unscheduled = append(unscheduled, c.Code)
	}
	s.plan = Plan{
		Mode:        ModeManual,
		Session:     s.session,
		Start:       s.start,
		Blocks:      s.Blocks(),
		Unscheduled: unscheduled,
		CreatedAt:   s.now().UTC(),
	}
	s.selection = nil
	s.finalized = true
}

func (s *Simulator) Snapshot() Snapshot {
	selection := make([]PlannedCourse, 0, len(s.selection))
	for _, c := range s.Selection() {
		selection = append(selection, PlannedCourse{
			Code:    c.Code,
			Name:    c.Name,
			Credits: c.Credits,
			Level:   c.Level,
			Period:  s.period.Label(),
		})
	}
	pending := len(s.Pending())
	eligible := make([]LevelGroup, 0)
	if !s.finalized {
		eligible = s.ListEligible()
	}
	return Snapshot{
		Period:          s.period,
		CreditCap:       s.cap,
		Selection:       selection,
		SelectedCredits: s.selectedCredits(),
		Blocks:          s.Blocks(),
		Completed:       s.cur.Len() - pending,
		Pending:         pending,
		Eligible:        eligible,
		Stalled:         !s.finalized && pending > 0 && len(s.selection) == 0 && len(eligible) == 0,
		Finalized:       s.finalized,
	}
}
