package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/projection"
)

type projectionRepository struct {
	db *projectionTable
}

var _ projection.Repository = (*projectionRepository)(nil) // interface compliance check

func NewProjectionRepository(db *DB) projection.Repository {
	return &projectionRepository{db: db.projection}
}

func (repo *projectionRepository) CreateProjection(_ context.Context, proj projection.Projection, _ ...core.DBExecutor) (projection.Projection, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	proj.ID = uuid.New().String()
	repo.db.table[proj.ID] = &proj
	return proj, nil
}

func (repo *projectionRepository) QueryProjections(_ context.Context, filter *projection.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]projection.Projection, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	projs := make([]projection.Projection, 0)
	for _, p := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && p.StudentID != filter.StudentID {
				continue
			}
			if filter.CareerCode != "" && p.CareerCode != filter.CareerCode {
				continue
			}
			if filter.Type != "" && p.Type != filter.Type {
				continue
			}
			if filter.OnlyFavorite && !p.IsFavorite {
				continue
			}
		}
		projs = append(projs, *p)
	}

	asc := false
	for _, ord := range ordering {
		if ord.Field == "created_at" {
			asc = ord.Ascending
		}
	}
	sort.Slice(projs, func(i, j int) bool {
		if projs[i].CreatedAt.Equal(projs[j].CreatedAt) {
			return projs[i].ID < projs[j].ID
		}
		if asc {
			return projs[i].CreatedAt.Before(projs[j].CreatedAt)
		}
		return projs[i].CreatedAt.After(projs[j].CreatedAt)
	})
	return projs, nil
}

func (repo *projectionRepository) GetProjection(_ context.Context, id string, _ ...core.DBExecutor) (projection.Projection, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return projection.Projection{}, projection.ErrNotFound
}

func (repo *projectionRepository) UpdateProjection(_ context.Context, proj projection.Projection, _ ...core.DBExecutor) (projection.Projection, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[proj.ID]
	if !ok {
		return projection.Projection{}, projection.ErrNotFound
	}
	// only name and favorite are mutable
	orig.Name = proj.Name
	orig.IsFavorite = proj.IsFavorite
	orig.UpdatedAt = proj.UpdatedAt
	return *orig, nil
}

func (repo *projectionRepository) ClearFavorite(_ context.Context, studentID, careerCode string, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, p := range repo.db.table {
		if p.StudentID == studentID && p.CareerCode == careerCode {
			p.IsFavorite = false
		}
	}
	return nil
}

func (repo *projectionRepository) DeleteProjectionsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *projectionRepository) CourseDemand(_ context.Context, filter projection.DemandFilter, _ ...core.DBExecutor) ([]projection.Demand, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	type key struct{ code, period string }
	var (
		demand   = make(map[key]*projection.Demand)
		students = make(map[key]map[string]struct{})
	)
	for _, p := range repo.db.table {
		if filter.CareerCode != "" && p.CareerCode != filter.CareerCode {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if filter.OnlyFavorite && !p.IsFavorite {
			continue
		}
		for _, r := range p.Data.Ramos {
			if filter.Period != "" && r.Period != filter.Period {
				continue
			}
			k := key{r.Code, r.Period}
			d, ok := demand[k]
			if !ok {
				d = &projection.Demand{Code: r.Code, Name: r.Name, Period: r.Period}
				demand[k] = d
				students[k] = make(map[string]struct{})
			}
			if r.Name > d.Name {
				d.Name = r.Name
			}
			d.Projections++
			students[k][p.StudentID] = struct{}{}
		}
	}

	list := make([]projection.Demand, 0, len(demand))
	for k, d := range demand {
		d.Students = len(students[k])
		list = append(list, *d)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Period != list[j].Period {
			return list[i].Period < list[j].Period
		}
		if list[i].Students != list[j].Students {
			return list[i].Students > list[j].Students
		}
		return list[i].Code < list[j].Code
	})
	return list, nil
}
