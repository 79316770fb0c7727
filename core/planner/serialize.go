package planner

import (
	"time"

	"github.com/trezcool/malla/core/projection"
)

// monthsPerSemester is the time a projected semester adds to the estimated graduation date.
const monthsPerSemester = 6

// Serialize turns a finished plan into the record stored by the projection service.
// It does no I/O and does not touch the plan.
func Serialize(plan Plan, name string) projection.Projection {
	semesters := make([]projection.Semester, 0, len(plan.Blocks))
	ramos := make([]projection.Ramo, 0, plan.TotalCourses())
	for _, b := range plan.Blocks {
		sem := projection.Semester{
			Number:  b.Index,
			Period:  b.Period.Label(),
			Credits: b.Credits,
			Ramos:   make([]projection.Ramo, 0, len(b.Courses)),
		}
		for _, c := range b.Courses {
			ramo := projection.Ramo{
				Code:     c.Code,
				Name:     c.Name,
				Credits:  c.Credits,
				Level:    c.Level,
				Period:   c.Period,
				Semester: b.Index,
			}
			sem.Ramos = append(sem.Ramos, ramo)
			ramos = append(ramos, ramo)
		}
		semesters = append(semesters, sem)
	}

	proj := projection.Projection{
		StudentID:    plan.Session.StudentID,
		CareerCode:   plan.Session.Career.Code,
		Type:         string(plan.Mode),
		Name:         name,
		TotalCredits: plan.TotalCredits(),
		TotalCourses: plan.TotalCourses(),
		Semesters:    plan.Semesters(),
		Data: projection.Data{
			Plan:      semesters,
			Ramos:     ramos,
			CreatedAt: plan.CreatedAt,
		},
	}
	if len(plan.Blocks) > 0 {
		proj.EstimatedGraduation = EstimatedGraduation(plan.Start, plan.Semesters()).Format("2006-01-02")
		proj.ProjectedPeriod = plan.Start.Add(plan.Semesters() - 1).Code()
	}
	return proj
}

// EstimatedGraduation is the start date of the first term plus six months per semester.
func EstimatedGraduation(start Period, semesters int) time.Time {
	return start.StartDate().AddDate(0, monthsPerSemester*semesters, 0)
}
