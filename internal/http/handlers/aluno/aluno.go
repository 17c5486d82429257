// Package aluno contains the HTTP handlers of the stub registration API.
//
// The stub speaks the same wire contract as the deployed service so the
// front end can be run and tested end to end without it:
//
//	POST   /api/alunos/cadastro  → register a student (201)
//	GET    /api/alunos           → list students in the configured envelope
//	GET    /api/alunos/{id}      → one student
//	PUT    /api/alunos/{id}      → replace a student
//	DELETE /api/alunos/{id}      → remove a student
//
// HANDLER PATTERN: THE CLOSURE / FACTORY
// ────────────────────────────────────────
// The router wants func(http.ResponseWriter, *http.Request), which has no
// room for a store or an envelope setting. Each exported function here is a
// factory: it takes the dependencies once, at route registration, and
// returns the handler that runs on every request with them closed over.
//
//	router.HandleFunc("POST /api/alunos/cadastro", aluno.New(storage))
//	//                                                  ^^^^^^^^^^^^^
//	//                        New(storage) runs ONCE at startup; the func
//	//                        it returns runs on EVERY request.
package aluno

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/config"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/storage"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/utils/response"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/validation"
)

// Messages the stub sends back. They travel in the "message" key (or
// "mensagem" on success), which is what the front end shows in its banner.
const (
	MsgCreated   = "Aluno cadastrado com sucesso!"
	MsgDeleted   = "Aluno removido com sucesso!"
	MsgEmptyBody = "Corpo da requisição vazio."
	MsgBadJSON   = "JSON inválido."
	MsgBadID     = "ID inválido: deve ser um número inteiro."
	MsgDuplicate = "Usuário de acesso já cadastrado."
	MsgNotFound  = "Aluno não encontrado."
	MsgStorage   = "Erro interno do servidor. Tente novamente mais tarde."
)

// ─────────────────────────────────────────────────────────────────────────────
// View is a student as the API exposes it.
//
// types.Student carries senha_hash (bcrypt-hashed by the store). Encoding it
// directly would ship the hash to every listing, so every read handler goes
// through viewOf and the password never leaves the server.
// ─────────────────────────────────────────────────────────────────────────────
type View struct {
	ID         int64   `json:"id"`
	FullName   string  `json:"nome_completo"`
	Username   string  `json:"usuario_acesso"`
	Email      string  `json:"email_aluno"`
	Observacao *string `json:"observacao"`
}

func viewOf(s types.Student) View {
	return View{
		ID:         s.ID,
		FullName:   s.FullName,
		Username:   s.Username,
		Email:      s.Email,
		Observacao: s.Observacao,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/alunos/cadastro
// Registers a student from the JSON request body.
//
// Request body (JSON), exactly what the registration page sends:
//
//	{ "nome_completo": "Ana Souza", "usuario_acesso": "ana",
//	  "email_aluno": "ana@escola.com", "senha_hash": "s3nha",
//	  "observacao": null }
//
// Success response (201 Created):
//
//	{ "mensagem": "Aluno cadastrado com sucesso!", "id": 1 }
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, or failed validation
//	409 Conflict     usuario_acesso already taken
//	500 Internal     storage failure
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		// ── Step 1: Decode and validate the body ──────────────────────
		// decodeStudent writes the 400 itself; ok=false means we are done.
		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		// ── Step 2: Persist (the store hashes the password) ──────────
		lastID, err := store.CreateStudent(student)
		if err != nil {
			writeStorageError(w, err)
			return
		}

		slog.Info("student created", slog.Int64("id", lastID))

		// ── Step 3: 201 with the message the front end displays ──────
		response.WriteJSON(w, http.StatusCreated, map[string]any{
			"mensagem": MsgCreated,
			"id":       lastID,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/alunos
// Returns every student, wrapped in the envelope chosen by stub.envelope.
//
// The listing page accepts all three shapes, so the stub can serve each of
// them:
//
//	bare:   [ {...}, {...} ]
//	alunos: { "sucesso": true, "total": 2, "alunos": [ ... ] }
//	data:   { "data": [ ... ] }
//
// An empty table is still 200, with an empty list in the envelope.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage, envelope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students", slog.String("envelope", envelope))

		students, err := store.GetStudents()
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.MessageError(MsgStorage, err))
			return
		}

		// make(..., 0, n) so an empty table encodes as [] rather than null.
		views := make([]View, 0, len(students))
		for _, s := range students {
			views = append(views, viewOf(s))
		}

		switch envelope {
		case config.EnvelopeBare:
			response.WriteJSON(w, http.StatusOK, views)
		case config.EnvelopeData:
			response.WriteJSON(w, http.StatusOK, map[string]any{"data": views})
		default:
			response.WriteJSON(w, http.StatusOK, map[string]any{
				"sucesso": true,
				"total":   len(views),
				"alunos":  views,
			})
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/alunos/{id}
// Fetches one student by primary key.
//
//	200 OK           the student as a View
//	400 Bad Request  {id} is not an integer
//	404 Not Found    no such student
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a student", slog.Int64("id", id))

		student, err := store.GetStudentByID(id)
		if err != nil {
			writeStorageError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, viewOf(student))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/alunos/{id}
// Replaces every field of a student. Because nothing is kept from the old
// record, the body must pass the same rules as a registration (password
// included). Answers with the updated View.
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a student", slog.Int64("id", id))

		student, ok := decodeStudent(w, r)
		if !ok {
			return
		}

		updated, err := store.UpdateStudentByID(id, student)
		if err != nil {
			writeStorageError(w, err)
			return
		}

		slog.Info("student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, viewOf(updated))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/alunos/{id}
//
//	{ "mensagem": "Aluno removido com sucesso!" }
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a student", slog.Int64("id", id))

		if err := store.DeleteStudentByID(id); err != nil {
			writeStorageError(w, err)
			return
		}

		slog.Info("student deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"mensagem": MsgDeleted})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// decodeStudent reads and validates the request body, writing the 400
// response itself when it cannot.
//
// io.EOF from the decoder means the body was completely empty, which gets
// its own message; any other decode error is malformed JSON.
func decodeStudent(w http.ResponseWriter, r *http.Request) (types.Student, bool) {
	var student types.Student

	err := json.NewDecoder(r.Body).Decode(&student)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.MessageError(MsgEmptyBody, errors.New("request body is empty")))
		return student, false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.MessageError(MsgBadJSON, err))
		return student, false
	}

	if err := validation.Student(student); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
		} else {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		}
		return student, false
	}

	return student, true
}

// pathID parses the {id} wildcard (Go 1.22 ServeMux) as an int64.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.MessageError(MsgBadID, err))
		return 0, false
	}
	return id, true
}

// writeStorageError maps the storage sentinels onto HTTP statuses. Only
// the unexpected case is logged; 404 and 409 are ordinary answers.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.MessageError(MsgNotFound, err))
	case errors.Is(err, storage.ErrDuplicate):
		response.WriteJSON(w, http.StatusConflict, response.MessageError(MsgDuplicate, err))
	default:
		slog.Error("storage failure", slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.MessageError(MsgStorage, err))
	}
}
