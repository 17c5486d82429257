// Package storage defines the Storage interface behind the stub
// registration API. Handlers depend only on this interface; tests pass a
// fake, and the stub binary passes the SQLite implementation.
package storage

import (
	"errors"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
)

var (
	// ErrNotFound is returned when no student has the requested id.
	ErrNotFound = errors.New("storage: student not found")
	// ErrDuplicate is returned when usuario_acesso is already taken.
	ErrDuplicate = errors.New("storage: access username already registered")
)

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new student and returns its generated id.
	// The password is stored hashed, never as given.
	CreateStudent(student types.Student) (int64, error)

	// GetStudentByID fetches a single student. Password holds the stored
	// hash.
	GetStudentByID(id int64) (types.Student, error)

	// GetStudents returns every student in insertion order, or an empty
	// slice.
	GetStudents() ([]types.Student, error)

	// UpdateStudentByID replaces every field of an existing student and
	// returns the stored record.
	UpdateStudentByID(id int64, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a student permanently.
	DeleteStudentByID(id int64) error
}
