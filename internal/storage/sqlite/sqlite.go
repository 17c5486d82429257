// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface, queried through sqlx.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql; the
// package is also used directly to recognise constraint violations.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/config"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/storage"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
)

const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		nome_completo  TEXT NOT NULL,
		usuario_acesso TEXT NOT NULL UNIQUE,
		email_aluno    TEXT NOT NULL,
		senha_hash     TEXT NOT NULL,
		observacao     TEXT
	)
`

const selectColumns = "id, nome_completo, usuario_acesso, email_aluno, senha_hash, observacao"

// SQLite is the concrete implementation of storage.Storage.
type SQLite struct {
	Db *sqlx.DB

	cost int
}

// Option configures a SQLite store.
type Option func(*SQLite)

// WithBcryptCost sets the cost used to hash passwords.
func WithBcryptCost(cost int) Option {
	return func(s *SQLite) { s.cost = cost }
}

// New opens the SQLite database at cfg.Stub.StoragePath, creates the
// students table if needed, and returns a ready-to-use store.
func New(cfg *config.Config, opts ...Option) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", cfg.Stub.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	// SQLite serialises writers anyway, and ":memory:" databases exist per
	// connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	s := &SQLite{Db: db, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

type studentRow struct {
	ID           int64          `db:"id"`
	FullName     string         `db:"nome_completo"`
	Username     string         `db:"usuario_acesso"`
	Email        string         `db:"email_aluno"`
	PasswordHash string         `db:"senha_hash"`
	Observacao   sql.NullString `db:"observacao"`
}

func (r studentRow) student() types.Student {
	s := types.Student{
		ID:       r.ID,
		FullName: r.FullName,
		Username: r.Username,
		Email:    r.Email,
		Password: r.PasswordHash,
	}
	if r.Observacao.Valid {
		obs := r.Observacao.String
		s.Observacao = &obs
	}
	return s
}

func (s *SQLite) CreateStudent(student types.Student) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(student.Password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: hash password: %w", err)
	}

	result, err := s.Db.Exec(
		"INSERT INTO students (nome_completo, usuario_acesso, email_aluno, senha_hash, observacao) VALUES (?, ?, ?, ?, ?)",
		student.FullName, student.Username, student.Email, string(hash), nullable(student.Observacao),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrDuplicate
		}
		return 0, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}
	return lastID, nil
}

func (s *SQLite) GetStudentByID(id int64) (types.Student, error) {
	var row studentRow
	err := s.Db.Get(&row, "SELECT "+selectColumns+" FROM students WHERE id = ? LIMIT 1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: get: %w", err)
	}
	return row.student(), nil
}

func (s *SQLite) GetStudents() ([]types.Student, error) {
	var rows []studentRow
	if err := s.Db.Select(&rows, "SELECT "+selectColumns+" FROM students ORDER BY id"); err != nil {
		return nil, fmt.Errorf("GetStudents: select: %w", err)
	}

	students := make([]types.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students, nil
}

func (s *SQLite) UpdateStudentByID(id int64, student types.Student) (types.Student, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(student.Password), s.cost)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: hash password: %w", err)
	}

	result, err := s.Db.Exec(
		"UPDATE students SET nome_completo = ?, usuario_acesso = ?, email_aluno = ?, senha_hash = ?, observacao = ? WHERE id = ?",
		student.FullName, student.Username, student.Email, string(hash), nullable(student.Observacao), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Student{}, storage.ErrDuplicate
		}
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return types.Student{}, fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
	}

	return s.GetStudentByID(id)
}

func (s *SQLite) DeleteStudentByID(id int64) error {
	result, err := s.Db.Exec("DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
