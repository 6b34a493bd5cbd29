// Package inmemdb implements the repositories in memory. It backs tests and demos.
package inmemdb

import (
	"sync"

	"github.com/trezcool/solarsys/core/material"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/user"
)

type (
	DB struct {
		user     *userTable
		planet   *planetTable
		material *materialTable
		question *questionTable
		attempt  *attemptTable
		progress *progressTable
	}

	userTable struct {
		sync.RWMutex
		rows []user.User
	}

	planetTable struct {
		sync.RWMutex
		rows []planet.Planet
	}

	materialTable struct {
		sync.RWMutex
		rows []material.Material
	}

	// rows are kept in insertion order
	questionTable struct {
		sync.RWMutex
		rows []question.Question
	}

	attemptTable struct {
		sync.RWMutex
		rows []quiz.Attempt
	}

	// the lock is held for a whole read-modify-write cycle
	progressTable struct {
		sync.Mutex
		rows map[string]*progress.Progress
	}
)

func Open() *DB {
	return &DB{
		user:     &userTable{},
		planet:   &planetTable{},
		material: &materialTable{},
		question: &questionTable{},
		attempt:  &attemptTable{},
		progress: &progressTable{rows: make(map[string]*progress.Progress)},
	}
}

func contains(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
