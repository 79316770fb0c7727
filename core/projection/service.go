package projection

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/malla/core"
)

var (
	// errors
	ErrNotFound = errors.New("projection not found")
)

type (
	Repository interface {
		CreateProjection(ctx context.Context, proj Projection, exec ...core.DBExecutor) (Projection, error)
		// QueryProjections applies AND operation on available QueryFilter fields.
		QueryProjections(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Projection, error)
		GetProjection(ctx context.Context, id string, exec ...core.DBExecutor) (Projection, error)
		UpdateProjection(ctx context.Context, proj Projection, exec ...core.DBExecutor) (Projection, error)
		// ClearFavorite unsets the favorite flag on every projection of the student for the career.
		ClearFavorite(ctx context.Context, studentID, careerCode string, exec ...core.DBExecutor) error
		DeleteProjectionsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		// CourseDemand counts, per course and period, the students and projections planning it.
		CourseDemand(ctx context.Context, filter DemandFilter, exec ...core.DBExecutor) ([]Demand, error)
	}

	Service interface {
		Save(ctx context.Context, proj Projection) (Projection, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Projection, error)
		// Get returns the projection with the given ID; a non-empty studentID restricts the
		// lookup to that student's projections.
		Get(ctx context.Context, id, studentID string) (Projection, error)
		Update(ctx context.Context, proj Projection, up UpdateProjection) (Projection, error)
		Delete(ctx context.Context, ids ...string) (int, error)
		Demand(ctx context.Context, filter DemandFilter) ([]Demand, error)
	}

	service struct {
		db       core.DB // nil for in-memory repositories
		repo     Repository
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, validate *validator.Validate) Service {
	return &service{
		db:       db,
		repo:     repo,
		validate: validate,
	}
}

// inTx runs fn inside a transaction when the service is backed by a database.
func (svc *service) inTx(ctx context.Context, fn func(exec []core.DBExecutor) error) error {
	if svc.db == nil {
		return fn(nil)
	}
	tx, err := svc.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	if err = fn([]core.DBExecutor{tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (svc *service) Save(ctx context.Context, proj Projection) (Projection, error) {
	if err := proj.Validate(svc.validate); err != nil {
		return Projection{}, err
	}
	now := time.Now().UTC()
	proj.ID = ""
	proj.CreatedAt = now
	proj.UpdatedAt = now
	if proj.Name == "" {
		proj.Name = defaultName(proj, now)
	}
	if proj.Data.CreatedAt.IsZero() {
		proj.Data.CreatedAt = now
	}

	var saved Projection
	err := svc.inTx(ctx, func(exec []core.DBExecutor) error {
		if proj.IsFavorite {
			if err := svc.repo.ClearFavorite(ctx, proj.StudentID, proj.CareerCode, exec...); err != nil {
				return errors.Wrap(err, "clearing favorite")
			}
		}
		var err error
		saved, err = svc.repo.CreateProjection(ctx, proj, exec...)
		return errors.Wrap(err, "creating projection")
	})
	return saved, err
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Projection, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryProjections(ctx, filter, ordering)
}

func (svc *service) Get(ctx context.Context, id, studentID string) (Projection, error) {
	proj, err := svc.repo.GetProjection(ctx, id)
	if err != nil {
		return Projection{}, err
	}
	if studentID != "" && proj.StudentID != studentID {
		return Projection{}, ErrNotFound
	}
	return proj, nil
}

func (svc *service) Update(ctx context.Context, proj Projection, up UpdateProjection) (Projection, error) {
	if err := up.Validate(svc.validate); err != nil {
		return Projection{}, err
	}
	if up.Name != nil {
		proj.Name = *up.Name
	}
	proj.UpdatedAt = time.Now().UTC()

	var updated Projection
	err := svc.inTx(ctx, func(exec []core.DBExecutor) error {
		if up.IsFavorite != nil {
			if *up.IsFavorite && !proj.IsFavorite {
				if err := svc.repo.ClearFavorite(ctx, proj.StudentID, proj.CareerCode, exec...); err != nil {
					return errors.Wrap(err, "clearing favorite")
				}
			}
			proj.IsFavorite = *up.IsFavorite
		}
		var err error
		updated, err = svc.repo.UpdateProjection(ctx, proj, exec...)
		return errors.Wrap(err, "updating projection")
	})
	return updated, err
}

func (svc *service) Delete(ctx context.Context, ids ...string) (int, error) {
	return svc.repo.DeleteProjectionsByID(ctx, ids)
}

func (svc *service) Demand(ctx context.Context, filter DemandFilter) ([]Demand, error) {
	filter.Clean()
	return svc.repo.CourseDemand(ctx, filter)
}

func defaultName(proj Projection, now time.Time) string {
	kind := "Manual"
	if proj.Type == TypeAutomatic {
		kind = "Automática"
	}
	return "Proyección " + kind + " " + now.Format("2006-01-02 15:04")
}
