package main

import (
	"context"
	"fmt"

	"github.com/trezcool/malla/core/academic"
	"github.com/trezcool/malla/core/planner"
)

// autoPlan builds (and optionally stores) the automatic projection of a student and prints it
// semester by semester.
func (cli *commandLine) autoPlan(rut, career, catalog, name string, save bool) error {
	sess := planner.SessionContext{
		StudentID: rut,
		Career:    academic.Career{Code: career, Catalog: catalog},
	}
	proj, err := cli.plannerSvc.Auto(context.Background(), sess, name, save)
	if err != nil {
		return err
	}

	for _, sem := range proj.Data.Plan {
		fmt.Fprintf(cli.out, "%d. %s (%d credits)\n", sem.Number, sem.Period, sem.Credits)
		for _, r := range sem.Ramos {
			fmt.Fprintf(cli.out, "   %-10s %s\n", r.Code, r.Name)
		}
	}
	fmt.Fprintf(cli.out, "%d courses, %d credits, %d semesters", proj.TotalCourses, proj.TotalCredits, proj.Semesters)
	if proj.EstimatedGraduation != "" {
		fmt.Fprintf(cli.out, ", graduation ~%s", proj.EstimatedGraduation)
	}
	fmt.Fprintln(cli.out)
	if proj.ID != "" {
		fmt.Fprintf(cli.out, "saved as %s\n", proj.ID)
	}
	return nil
}
