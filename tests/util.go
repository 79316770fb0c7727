// Package testutil holds helpers shared by the tests of several packages.
package testutil

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/malla/core"
	"github.com/trezcool/malla/core/academic"
	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/core/user"
	"github.com/trezcool/malla/storage/database"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateProjection stores a projection of the given courses, one semester per period label.
func CreateProjection(
	t *testing.T,
	repo projection.Repository,
	studentID, careerCode, typ string,
	favorite bool,
	ramos ...projection.Ramo,
) projection.Projection {
	now := time.Now().UTC()
	proj := projection.Projection{
		StudentID:  studentID,
		CareerCode: careerCode,
		Type:       typ,
		Name:       "Proyección " + studentID,
		IsFavorite: favorite,
		Data:       projection.Data{Ramos: ramos, CreatedAt: now},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	semesters := make(map[int]bool)
	for _, r := range ramos {
		proj.TotalCredits += r.Credits
		proj.TotalCourses++
		semesters[r.Semester] = true
	}
	proj.Semesters = len(semesters)

	proj, err := repo.CreateProjection(context.Background(), proj)
	if err != nil {
		t.Fatalf("CreateProjection() failed: %v", err)
	}
	return proj
}

// PrepareDB connects to the test database and empties it. Database tests only run when
// TEST_DATABASEHOST is set.
func PrepareDB(t *testing.T) *sqlx.DB {
	if testing.Short() || os.Getenv("TEST_DATABASEHOST") == "" {
		t.Skip("skipping database test: TEST_DATABASEHOST not set")
	}
	_ = os.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	ResetDB(t, db)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func ResetDB(t *testing.T, db *sqlx.DB) {
	if _, err := db.Exec(`TRUNCATE "user", projection, projection_course CASCADE`); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

// FakeAcademic is an in-memory academic.Provider.
type FakeAcademic struct {
	mu          sync.Mutex
	Students    map[string]academic.Student // by email
	Passwords   map[string]string           // by email
	Curricula   map[string][]academic.Course
	Completions map[string][]academic.Attempt // by rut
	Err         error                         // returned by every call when set

	CurriculumCalls int
}

var _ academic.Provider = (*FakeAcademic)(nil)

func NewFakeAcademic() *FakeAcademic {
	return &FakeAcademic{
		Students:    make(map[string]academic.Student),
		Passwords:   make(map[string]string),
		Curricula:   make(map[string][]academic.Course),
		Completions: make(map[string][]academic.Attempt),
	}
}

func (f *FakeAcademic) AddStudent(email, pwd string, std academic.Student, records ...academic.Attempt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Students[email] = std
	f.Passwords[email] = pwd
	f.Completions[std.RUT] = records
}

func (f *FakeAcademic) AddCurriculum(career, catalog string, courses ...academic.Course) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Curricula[career+"-"+catalog] = courses
}

func (f *FakeAcademic) Login(_ context.Context, email, password string) (academic.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return academic.Student{}, f.Err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	std, ok := f.Students[email]
	if !ok || f.Passwords[email] != password {
		return academic.Student{}, academic.ErrInvalidCredentials
	}
	return std, nil
}

func (f *FakeAcademic) Curriculum(_ context.Context, careerCode, catalogCode string) ([]academic.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CurriculumCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	courses, ok := f.Curricula[careerCode+"-"+catalogCode]
	if !ok {
		return nil, academic.ErrMalformedResponse
	}
	return courses, nil
}

func (f *FakeAcademic) Completion(_ context.Context, studentID, _ string) ([]academic.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Completions[studentID], nil
}

// Course builds an academic.Course; prereq "" means none.
func Course(code, name string, credits, level int, prereq string) academic.Course {
	c := academic.Course{Code: code, Name: name, Credits: credits, Level: level}
	if prereq != "" {
		c.Prereq = &prereq
	}
	return c
}
