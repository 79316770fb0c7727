package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/projection"
)

const (
	projectionColumns = `id, student_id, career_code, type, name, total_credits, total_courses, semesters,
		estimated_graduation, projected_period, data, is_favorite, created_at, updated_at`
	dateLayout = "2006-01-02"
)

var projectionOrderColumns = map[string]string{
	"nombre":                "name",
	"created_at":            "created_at",
	"updated_at":            "updated_at",
	"total_creditos":        "total_credits",
	"semestres_proyectados": "semesters",
}

type projectionRow struct {
	ID                  string         `db:"id"`
	StudentID           string         `db:"student_id"`
	CareerCode          string         `db:"career_code"`
	Type                string         `db:"type"`
	Name                string         `db:"name"`
	TotalCredits        int            `db:"total_credits"`
	TotalCourses        int            `db:"total_courses"`
	Semesters           int            `db:"semesters"`
	EstimatedGraduation null.Time      `db:"estimated_graduation"`
	ProjectedPeriod     null.String    `db:"projected_period"`
	Data                types.JSONText `db:"data"`
	IsFavorite          bool           `db:"is_favorite"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

type projectionRepository struct {
	exec core.DBExecutor
}

var _ projection.Repository = (*projectionRepository)(nil) // interface compliance check

func NewProjectionRepository(exec core.DBExecutor) *projectionRepository {
	return &projectionRepository{exec: exec}
}

func (repo projectionRepository) toRow(proj projection.Projection) (projectionRow, error) {
	data, err := json.Marshal(proj.Data)
	if err != nil {
		return projectionRow{}, errors.Wrap(err, "encoding projection data")
	}
	row := projectionRow{
		ID:              proj.ID,
		StudentID:       proj.StudentID,
		CareerCode:      proj.CareerCode,
		Type:            proj.Type,
		Name:            proj.Name,
		TotalCredits:    proj.TotalCredits,
		TotalCourses:    proj.TotalCourses,
		Semesters:       proj.Semesters,
		ProjectedPeriod: null.NewString(proj.ProjectedPeriod, proj.ProjectedPeriod != ""),
		Data:            data,
		IsFavorite:      proj.IsFavorite,
		CreatedAt:       proj.CreatedAt.UTC(),
		UpdatedAt:       proj.UpdatedAt.UTC(),
	}
	if proj.EstimatedGraduation != "" {
		grad, err := time.Parse(dateLayout, proj.EstimatedGraduation)
		if err != nil {
			return projectionRow{}, errors.Wrap(err, "parsing estimated graduation")
		}
		row.EstimatedGraduation = null.TimeFrom(grad)
	}
	return row, nil
}

func (repo projectionRepository) fromRow(row projectionRow) (projection.Projection, error) {
	proj := projection.Projection{
		ID:              row.ID,
		StudentID:       row.StudentID,
		CareerCode:      row.CareerCode,
		Type:            row.Type,
		Name:            row.Name,
		TotalCredits:    row.TotalCredits,
		TotalCourses:    row.TotalCourses,
		Semesters:       row.Semesters,
		ProjectedPeriod: row.ProjectedPeriod.String,
		IsFavorite:      row.IsFavorite,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
	if row.EstimatedGraduation.Valid {
		proj.EstimatedGraduation = row.EstimatedGraduation.Time.Format(dateLayout)
	}
	if err := row.Data.Unmarshal(&proj.Data); err != nil {
		return projection.Projection{}, errors.Wrap(err, "decoding projection data")
	}
	return proj, nil
}

// trapNoRowsErr maps psql "no rows" err to projection.ErrNotFound
func (repo projectionRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return projection.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo projectionRepository) CreateProjection(ctx context.Context, proj projection.Projection, exec ...core.DBExecutor) (projection.Projection, error) {
	exe := getExec(repo.exec, exec)
	proj.ID = uuid.New().String()
	row, err := repo.toRow(proj)
	if err != nil {
		return projection.Projection{}, err
	}

	q := `INSERT INTO projection (` + projectionColumns + `) VALUES
		(:id, :student_id, :career_code, :type, :name, :total_credits, :total_courses, :semesters,
		:estimated_graduation, :projected_period, :data, :is_favorite, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, exe, q, row); err != nil {
		return projection.Projection{}, errors.Wrap(err, "inserting projection")
	}

	if len(proj.Data.Ramos) > 0 {
		courses := make([]map[string]interface{}, 0, len(proj.Data.Ramos))
		for _, r := range proj.Data.Ramos {
			courses = append(courses, map[string]interface{}{
				"projection_id": proj.ID,
				"code":          r.Code,
				"name":          r.Name,
				"credits":       r.Credits,
				"level":         r.Level,
				"period":        r.Period,
				"semester":      r.Semester,
			})
		}
		q = `INSERT INTO projection_course (projection_id, code, name, credits, level, period, semester)
			VALUES (:projection_id, :code, :name, :credits, :level, :period, :semester)`
		if _, err = sqlx.NamedExecContext(ctx, exe, q, courses); err != nil {
			return projection.Projection{}, errors.Wrap(err, "inserting projection courses")
		}
	}
	return proj, nil
}

func (repo projectionRepository) QueryProjections(ctx context.Context, filter *projection.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]projection.Projection, error) {
	exe := getExec(repo.exec, exec)
	var where whereClause

	if filter != nil {
		if filter.StudentID != "" {
			where.add("student_id = ?", filter.StudentID)
		}
		if filter.CareerCode != "" {
			where.add("career_code = ?", filter.CareerCode)
		}
		if filter.Type != "" {
			where.add("type = ?", filter.Type)
		}
		if filter.OnlyFavorite {
			where.add("is_favorite")
		}
	}

	q := `SELECT ` + projectionColumns + ` FROM projection` + where.String() +
		orderBy(ordering, projectionOrderColumns, "created_at DESC")
	rows := make([]projectionRow, 0)
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "querying projections")
	}
	projs := make([]projection.Projection, 0, len(rows))
	for _, row := range rows {
		proj, err := repo.fromRow(row)
		if err != nil {
			return nil, err
		}
		projs = append(projs, proj)
	}
	return projs, nil
}

func (repo projectionRepository) GetProjection(ctx context.Context, id string, exec ...core.DBExecutor) (projection.Projection, error) {
	if _, err := uuid.Parse(id); err != nil {
		return projection.Projection{}, projection.ErrNotFound
	}
	var row projectionRow
	q := `SELECT ` + projectionColumns + ` FROM projection WHERE id = $1`
	if err := sqlx.GetContext(ctx, getExec(repo.exec, exec), &row, q, id); err != nil {
		return projection.Projection{}, repo.trapNoRowsErr(err, "finding projection")
	}
	return repo.fromRow(row)
}

func (repo projectionRepository) UpdateProjection(ctx context.Context, proj projection.Projection, exec ...core.DBExecutor) (projection.Projection, error) {
	q := `UPDATE projection SET name = $1, is_favorite = $2, updated_at = $3 WHERE id = $4`
	res, err := getExec(repo.exec, exec).ExecContext(ctx, q, proj.Name, proj.IsFavorite, proj.UpdatedAt.UTC(), proj.ID)
	if err != nil {
		return projection.Projection{}, errors.Wrap(err, "updating projection")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return projection.Projection{}, projection.ErrNotFound
	}
	return proj, nil
}

func (repo projectionRepository) ClearFavorite(ctx context.Context, studentID, careerCode string, exec ...core.DBExecutor) error {
	q := `UPDATE projection SET is_favorite = FALSE WHERE student_id = $1 AND career_code = $2 AND is_favorite`
	if _, err := getExec(repo.exec, exec).ExecContext(ctx, q, studentID, careerCode); err != nil {
		return errors.Wrap(err, "clearing favorite")
	}
	return nil
}

func (repo projectionRepository) DeleteProjectionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	exe := getExec(repo.exec, exec)
	q, args, err := sqlx.In(`DELETE FROM projection WHERE id::text IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting projections")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo projectionRepository) CourseDemand(ctx context.Context, filter projection.DemandFilter, exec ...core.DBExecutor) ([]projection.Demand, error) {
	exe := getExec(repo.exec, exec)
	var where whereClause
	if filter.CareerCode != "" {
		where.add("p.career_code = ?", filter.CareerCode)
	}
	if filter.Period != "" {
		where.add("pc.period = ?", filter.Period)
	}
	if filter.Type != "" {
		where.add("p.type = ?", filter.Type)
	}
	if filter.OnlyFavorite {
		where.add("p.is_favorite")
	}

	q := `SELECT pc.code, MAX(pc.name) AS name, pc.period,
			COUNT(DISTINCT p.student_id) AS students, COUNT(*) AS projections
		FROM projection_course pc JOIN projection p ON p.id = pc.projection_id` + where.String() + `
		GROUP BY pc.code, pc.period
		ORDER BY pc.period, students DESC, pc.code`
	demand := make([]projection.Demand, 0)
	if err := sqlx.SelectContext(ctx, exe, &demand, exe.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "aggregating course demand")
	}
	return demand, nil
}
