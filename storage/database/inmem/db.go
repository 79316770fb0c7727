// Package inmemdb implements the repositories in memory; used in tests and for local runs
// without PostgreSQL.
package inmemdb

import (
	"sync"

	"github.com/trezcool/malla/core/projection"
	"github.com/trezcool/malla/core/user"
)

type (
	DB struct {
		user       *userTable
		projection *projectionTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	projectionTable struct {
		table map[string]*projection.Projection
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		projection: &projectionTable{table: make(map[string]*projection.Projection)},
	}
}

// Reset empties all tables.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	db.projection.mutex.Lock()
	db.projection.table = make(map[string]*projection.Projection)
	db.projection.mutex.Unlock()
}
