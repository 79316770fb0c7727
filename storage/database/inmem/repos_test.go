package inmemdb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/core/user"
	"github.com/trezcool/malla/tests"
)

func TestProjectionRepository(t *testing.T) {
	testutil.RunProjectionRepositoryTests(t, func(t *testing.T) projection.Repository {
		return NewProjectionRepository(Open())
	})
}

func TestUserRepository(t *testing.T) {
	testutil.RunUserRepositoryTests(t, func(t *testing.T) user.Repository {
		return NewUserRepository(Open())
	})
}

func TestDB_Reset(t *testing.T) {
	db := Open()
	testutil.CreateUser(t, NewUserRepository(db), "Ana", "anaperez", "", "", nil, true)
	testutil.CreateProjection(t, NewProjectionRepository(db), "11111111-1", "8606", projection.TypeManual, false)

	db.Reset()
	assert.Empty(t, db.user.table)
	assert.Empty(t, db.projection.table)
}
