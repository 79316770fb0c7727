package planner

import "math"

// CourseProgress is a curriculum course with the student's current status on it.
type CourseProgress struct {
	Course
	Status Status `json:"estado"`
	Period string `json:"periodo,omitempty"`
	// Eligible is only meaningful for courses not yet satisfied.
	Eligible bool `json:"elegible"`
}

type LevelProgress struct {
	Level           int              `json:"nivel"`
	Courses         []CourseProgress `json:"ramos"`
	Credits         int              `json:"creditos"`
	ApprovedCredits int              `json:"creditos_aprobados"`
}

// Progress is the "malla" view of a student: every curriculum course with its status.
type Progress struct {
	Levels          []LevelProgress `json:"niveles"`
	TotalCourses    int             `json:"total_ramos"`
	TotalCredits    int             `json:"total_creditos"`
	ApprovedCourses int             `json:"ramos_aprobados"`
	ApprovedCredits int             `json:"creditos_aprobados"`
	EnrolledCourses int             `json:"ramos_inscritos"`
	EnrolledCredits int             `json:"creditos_inscritos"`
	Percentage      float64         `json:"porcentaje"` // of credits approved
}

// Summarize lays the completion state over the curriculum.
func Summarize(cur *Curriculum, state CompletionState) Progress {
	done := state.Satisfied()
	prog := Progress{
		Levels:       make([]LevelProgress, 0),
		TotalCourses: cur.Len(),
		TotalCredits: cur.TotalCredits(),
	}
	for _, group := range groupByLevel(cur.Courses()) {
		lvl := LevelProgress{Level: group.Level, Courses: make([]CourseProgress, 0, len(group.Courses))}
		for _, c := range group.Courses {
			cp := CourseProgress{Course: c, Status: StatusPending}
			if entry, ok := state[c.Code]; ok {
				cp.Status = entry.Status
				cp.Period = entry.Period
			}
			if !cp.Status.Satisfies() {
				cp.Eligible = IsEligible(c, done, cur)
			}

			switch cp.Status {
			case StatusApproved:
				prog.ApprovedCourses++
				prog.ApprovedCredits += c.Credits
				lvl.ApprovedCredits += c.Credits
			case StatusEnrolled, StatusInProgress:
				prog.EnrolledCourses++
				prog.EnrolledCredits += c.Credits
			}
			lvl.Credits += c.Credits
			lvl.Courses = append(lvl.Courses, cp)
		}
		prog.Levels = append(prog.Levels, lvl)
	}
	if prog.TotalCredits > 0 {
		pct := float64(prog.ApprovedCredits) * 100 / float64(prog.TotalCredits)
		prog.Percentage = math.Round(pct*10) / 10
	}
	return prog
}
