package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/core/user"
)

// now truncated to what PostgreSQL timestamps keep
func dbNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func ramo(code, name string, credits, level int, period string, semester int) projection.Ramo {
	return projection.Ramo{Code: code, Name: name, Credits: credits, Level: level, Period: period, Semester: semester}
}

func newProjection(studentID, career, typ string, fav bool, createdAt time.Time, ramos ...projection.Ramo) projection.Projection {
	proj := projection.Projection{
		StudentID:  studentID,
		CareerCode: career,
		Type:       typ,
		Name:       "Plan " + studentID,
		IsFavorite: fav,
		Data:       projection.Data{Ramos: ramos, CreatedAt: createdAt},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	bySemester := make(map[int][]projection.Ramo)
	for _, r := range ramos {
		proj.TotalCredits += r.Credits
		proj.TotalCourses++
		bySemester[r.Semester] = append(bySemester[r.Semester], r)
	}
	for n := 1; n <= len(bySemester); n++ {
		sem := projection.Semester{Number: n, Ramos: bySemester[n]}
		for _, r := range sem.Ramos {
			sem.Period = r.Period
			sem.Credits += r.Credits
		}
		proj.Data.Plan = append(proj.Data.Plan, sem)
	}
	proj.Semesters = len(bySemester)
	return proj
}

// RunProjectionRepositoryTests checks the behavior every projection.Repository must share.
// newRepo must return an empty repository.
func RunProjectionRepositoryTests(t *testing.T, newRepo func(t *testing.T) projection.Repository) {
	ctx := context.Background()

	mustCreate := func(t *testing.T, repo projection.Repository, proj projection.Projection) projection.Projection {
		t.Helper()
		created, err := repo.CreateProjection(ctx, proj)
		require.NoError(t, err)
		return created
	}

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		proj := newProjection("11111111-1", "8606", projection.TypeManual, true, dbNow(),
			ramo("INF101", "Programación", 6, 1, "2024-2", 1),
			ramo("INF102", "Estructuras de Datos", 6, 2, "2025-1", 2),
		)
		proj.EstimatedGraduation = "2025-08-01"
		proj.ProjectedPeriod = "202510"

		created := mustCreate(t, repo, proj)
		assert.NotEmpty(t, created.ID)

		got, err := repo.GetProjection(ctx, created.ID)
		require.NoError(t, err)
		proj.ID = created.ID
		assert.Equal(t, proj, got)
	})

	t.Run("get unknown", func(t *testing.T) {
		repo := newRepo(t)
		for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
			_, err := repo.GetProjection(ctx, id)
			assert.Equal(t, projection.ErrNotFound, err, id)
		}
	})

	t.Run("query", func(t *testing.T) {
		repo := newRepo(t)
		now := dbNow()
		p1 := mustCreate(t, repo, newProjection("11111111-1", "8606", projection.TypeManual, true, now.Add(-3*time.Hour)))
		p2 := mustCreate(t, repo, newProjection("11111111-1", "8606", projection.TypeAutomatic, false, now.Add(-2*time.Hour)))
		p3 := mustCreate(t, repo, newProjection("11111111-1", "8615", projection.TypeManual, false, now.Add(-time.Hour)))
		p4 := mustCreate(t, repo, newProjection("22222222-2", "8606", projection.TypeManual, true, now))

		ids := func(projs []projection.Projection) []string {
			list := make([]string, 0, len(projs))
			for _, p := range projs {
				list = append(list, p.ID)
			}
			return list
		}
		tests := []struct {
			name     string
			filter   *projection.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{name: "all, newest first", want: []string{p4.ID, p3.ID, p2.ID, p1.ID}},
			{
				name:     "all, oldest first",
				ordering: []core.DBOrdering{{Field: "created_at", Ascending: true}},
				want:     []string{p1.ID, p2.ID, p3.ID, p4.ID},
			},
			{name: "by student", filter: &projection.QueryFilter{StudentID: "11111111-1"}, want: []string{p3.ID, p2.ID, p1.ID}},
			{name: "by career", filter: &projection.QueryFilter{StudentID: "11111111-1", CareerCode: "8606"}, want: []string{p2.ID, p1.ID}},
			{name: "by type", filter: &projection.QueryFilter{Type: projection.TypeAutomatic}, want: []string{p2.ID}},
			{name: "favorites", filter: &projection.QueryFilter{OnlyFavorite: true}, want: []string{p4.ID, p1.ID}},
			{name: "no match", filter: &projection.QueryFilter{StudentID: "33333333-3"}, want: []string{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.QueryProjections(ctx, tt.filter, tt.ordering)
				require.NoError(t, err)
				assert.Equal(t, tt.want, ids(got))
			})
		}
	})

	t.Run("update and clear favorite", func(t *testing.T) {
		repo := newRepo(t)
		now := dbNow()
		fav := mustCreate(t, repo, newProjection("11111111-1", "8606", projection.TypeManual, true, now))
		other := mustCreate(t, repo, newProjection("11111111-1", "8606", projection.TypeManual, false, now))
		otherCareer := mustCreate(t, repo, newProjection("11111111-1", "8615", projection.TypeManual, true, now))

		require.NoError(t, repo.ClearFavorite(ctx, "11111111-1", "8606"))
		other.Name = "Renombrada"
		other.IsFavorite = true
		other.UpdatedAt = now.Add(time.Minute)
		_, err := repo.UpdateProjection(ctx, other)
		require.NoError(t, err)

		got, err := repo.GetProjection(ctx, fav.ID)
		require.NoError(t, err)
		assert.False(t, got.IsFavorite)

		got, err = repo.GetProjection(ctx, other.ID)
		require.NoError(t, err)
		assert.True(t, got.IsFavorite)
		assert.Equal(t, "Renombrada", got.Name)
		assert.Equal(t, other.UpdatedAt, got.UpdatedAt)

		got, err = repo.GetProjection(ctx, otherCareer.ID)
		require.NoError(t, err)
		assert.True(t, got.IsFavorite, "other careers keep their favorite")

		other.ID = uuid.NewString()
		_, err = repo.UpdateProjection(ctx, other)
		assert.Equal(t, projection.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		p1 := mustCreate(t, repo, newProjection("11111111-1", "8606", projection.TypeManual, false, dbNow(),
			ramo("INF101", "Programación", 6, 1, "2024-2", 1)))
		p2 := mustCreate(t, repo, newProjection("11111111-1", "8606", projection.TypeManual, false, dbNow()))

		cnt, err := repo.DeleteProjectionsByID(ctx, []string{p1.ID, uuid.NewString()})
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)

		cnt, err = repo.DeleteProjectionsByID(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, cnt)

		_, err = repo.GetProjection(ctx, p1.ID)
		assert.Equal(t, projection.ErrNotFound, err)
		_, err = repo.GetProjection(ctx, p2.ID)
		assert.NoError(t, err)

		demand, err := repo.CourseDemand(ctx, projection.DemandFilter{})
		require.NoError(t, err)
		assert.Empty(t, demand, "deleted projections leave no demand behind")
	})

	t.Run("course demand", func(t *testing.T) {
		repo := newRepo(t)
		now := dbNow()
		inf101 := ramo("INF101", "Programación", 6, 1, "2024-2", 1)
		mat101 := ramo("MAT101", "Cálculo I", 6, 1, "2024-2", 1)
		inf102 := ramo("INF102", "Estructuras de Datos", 6, 2, "2025-1", 2)

		mustCreate(t, repo, newProjection("11111111-1", "8606", projection.TypeManual, true, now, inf101, mat101, inf102))
		mustCreate(t, repo, newProjection("11111111-1", "8606", projection.TypeAutomatic, false, now, inf101))
		mustCreate(t, repo, newProjection("22222222-2", "8606", projection.TypeManual, true, now, inf101, inf102))
		mustCreate(t, repo, newProjection("33333333-3", "8615", projection.TypeManual, false, now, inf101))

		demand := func(code, name, period string, students, projections int) projection.Demand {
			return projection.Demand{Code: code, Name: name, Period: period, Students: students, Projections: projections}
		}
		tests := []struct {
			name   string
			filter projection.DemandFilter
			want   []projection.Demand
		}{
			{
				name: "all",
				want: []projection.Demand{
					demand("INF101", "Programación", "2024-2", 3, 4),
					demand("MAT101", "Cálculo I", "2024-2", 1, 1),
					demand("INF102", "Estructuras de Datos", "2025-1", 2, 2),
				},
			},
			{
				name:   "career and period",
				filter: projection.DemandFilter{CareerCode: "8606", Period: "2025-1"},
				want:   []projection.Demand{demand("INF102", "Estructuras de Datos", "2025-1", 2, 2)},
			},
			{
				name:   "favorites",
				filter: projection.DemandFilter{OnlyFavorite: true},
				want: []projection.Demand{
					demand("INF101", "Programación", "2024-2", 2, 2),
					demand("MAT101", "Cálculo I", "2024-2", 1, 1),
					demand("INF102", "Estructuras de Datos", "2025-1", 2, 2),
				},
			},
			{
				name:   "by type",
				filter: projection.DemandFilter{Type: projection.TypeAutomatic},
				want:   []projection.Demand{demand("INF101", "Programación", "2024-2", 1, 1)},
			},
			{
				name:   "no match",
				filter: projection.DemandFilter{Period: "2030-1"},
				want:   []projection.Demand{},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.CourseDemand(ctx, tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	})
}

// RunUserRepositoryTests checks the behavior every user.Repository must share.
// newRepo must return an empty repository.
func RunUserRepositoryTests(t *testing.T, newRepo func(t *testing.T) user.Repository) {
	ctx := context.Background()
	admin := []string{user.RoleAdmin}
	owner := []string{user.RoleAdminOwner}

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		usr := CreateUser(t, repo, "Ana Pérez", "anaperez", "ana@ucn.cl", "Pl4nner#2024", admin, true, dbNow())
		assert.NotEmpty(t, usr.ID)
		assert.NoError(t, usr.CheckPassword("Pl4nner#2024"))

		filters := map[string]user.GetFilter{
			"id":                {ID: usr.ID},
			"username":          {Username: "anaperez"},
			"email":             {Email: "ana@ucn.cl"},
			"username or email": {UsernameOrEmail: []string{"ana@ucn.cl"}},
		}
		for name, filter := range filters {
			got, err := repo.GetUser(ctx, filter)
			require.NoError(t, err, name)
			assert.Equal(t, usr.ID, got.ID, name)
			assert.Equal(t, admin, got.Roles, name)
			assert.True(t, got.Active(), name)
			assert.Equal(t, usr.CreatedAt, got.CreatedAt, name)
		}

		for _, filter := range []user.GetFilter{{ID: uuid.NewString()}, {ID: "nope"}, {Username: "bob"}, {}} {
			_, err := repo.GetUser(ctx, filter)
			assert.Equal(t, user.ErrNotFound, err)
		}
	})

	t.Run("uniqueness", func(t *testing.T) {
		repo := newRepo(t)
		usr := CreateUser(t, repo, "Ana", "anaperez", "ana@ucn.cl", "Pl4nner#2024", admin, true)

		assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "anaperez", "otra@ucn.cl", nil))
		assert.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "otra", "ana@ucn.cl", nil))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "otra", "otra@ucn.cl", nil))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "anaperez", "ana@ucn.cl", []user.User{usr}))
		assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "", "", nil))
	})

	t.Run("query", func(t *testing.T) {
		repo := newRepo(t)
		now := dbNow()
		ana := CreateUser(t, repo, "Ana Pérez", "anaperez", "ana@ucn.cl", "Pl4nner#2024", owner, true, now.Add(-2*time.Hour))
		bob := CreateUser(t, repo, "Bob Rojas", "bobrojas", "bob@ucn.cl", "Pl4nner#2024", admin, false, now.Add(-time.Hour))
		caro := CreateUser(t, repo, "Carolina Díaz", "caro", "carolina@ucn.cl", "Pl4nner#2024", nil, true, now)

		names := func(users []user.User) []string {
			list := make([]string, 0, len(users))
			for _, u := range users {
				list = append(list, u.Username)
			}
			return list
		}
		active := true
		tests := []struct {
			name     string
			filter   *user.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{name: "all", want: []string{caro.Username, bob.Username, ana.Username}},
			{name: "by name", ordering: []core.DBOrdering{{Field: "name", Ascending: true}}, want: []string{"anaperez", "bobrojas", "caro"}},
			{name: "search", filter: &user.QueryFilter{Search: "ROJAS"}, want: []string{"bobrojas"}},
			{name: "search email", filter: &user.QueryFilter{Search: "carolina@"}, want: []string{"caro"}},
			{name: "role prefix", filter: &user.QueryFilter{Roles: []string{user.RoleAdmin}}, want: []string{"bobrojas", "anaperez"}},
			{name: "exact role", filter: &user.QueryFilter{Roles: []string{user.RoleAdminOwner}}, want: []string{"anaperez"}},
			{name: "active", filter: &user.QueryFilter{IsActive: &active}, want: []string{"caro", "anaperez"}},
			{name: "created range", filter: &user.QueryFilter{CreatedFrom: now.Add(-90 * time.Minute), CreatedTo: now.Add(-30 * time.Minute)}, want: []string{"bobrojas"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.QueryUsers(ctx, tt.filter, tt.ordering)
				require.NoError(t, err)
				assert.Equal(t, tt.want, names(got))
			})
		}
	})

	t.Run("update and delete", func(t *testing.T) {
		repo := newRepo(t)
		usr := CreateUser(t, repo, "Ana", "anaperez", "ana@ucn.cl", "Pl4nner#2024", admin, true, dbNow())

		usr.Name = "Ana María"
		usr.Roles = owner
		usr.SetActive(false)
		usr.LastLogin = dbNow()
		_, err := repo.UpdateOrCreateUser(ctx, usr)
		require.NoError(t, err)

		got, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.Equal(t, "Ana María", got.Name)
		assert.Equal(t, owner, got.Roles)
		assert.False(t, got.Active())
		assert.Equal(t, usr.LastLogin, got.LastLogin)

		created, err := repo.UpdateOrCreateUser(ctx, user.User{
			Name: "Bob", Username: "bobrojas", PasswordHash: usr.PasswordHash, CreatedAt: dbNow(), UpdatedAt: dbNow(),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.True(t, created.Active())

		missing := usr
		missing.ID = uuid.NewString()
		_, err = repo.UpdateUser(ctx, missing)
		assert.Equal(t, user.ErrNotFound, err)

		cnt, err := repo.DeleteUsersByID(ctx, []string{usr.ID, created.ID, uuid.NewString()})
		require.NoError(t, err)
		assert.Equal(t, 2, cnt)
		users, err := repo.QueryUsers(ctx, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}
