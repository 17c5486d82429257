// Package response provides helpers for writing consistent JSON HTTP
// responses from the stub registration API.
//
// Every stub handler answers in JSON. Rather than repeating the same three
// lines (set header, set status, encode JSON) in each handler, they live
// here.
//
// Error bodies carry both "message" (the text the front end puts in its
// banner) and "error" (the raw cause), matching what the real API sends:
//
//	{ "status": "error", "message": "campo email_aluno é obrigatório", "error": "..." }
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/validation"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the envelope returned for error cases.
//
// Success responses may return any JSON shape (a created id, a listing in
// one of the three envelopes…). Error responses always look like:
//
//	{ "status": "error", "message": "Usuário de acesso já cadastrado.", "error": "..." }
//
// The registration controller reads "message" first, then "mensagem", then
// "error", so a stub error always surfaces its Message in the banner.
// Message is omitted when empty; the controller then falls back to Error.
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status  string `json:"status"`            // "ok" or "error"
	Message string `json:"message,omitempty"` // text shown to the user
	Error   string `json:"error"`             // underlying cause
}

// Status string constants, so a typo is a compile error rather than a
// silently wrong "eroor" on the wire.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ─────────────────────────────────────────────────────────────────────────────
// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// Parameters:
//
//	w      the http.ResponseWriter handed to every handler
//	status HTTP status code (e.g. http.StatusCreated = 201)
//	data   any Go value; JSON-encoded into the body
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
// ─────────────────────────────────────────────────────────────────────────────
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	// The listing client checks this header before decoding, so it must be
	// set on every stub answer.
	w.Header().Set("Content-Type", "application/json")

	// Status line first; nothing may be written to the body before it.
	w.WriteHeader(status)

	// Streams straight into w. Encode appends a trailing newline.
	return json.NewEncoder(w).Encode(data)
}

// ─────────────────────────────────────────────────────────────────────────────
// GeneralError wraps any Go error into the standard Response shape.
// Use it for unexpected errors (storage failures, decode errors, etc.)
//
// Example usage:
//
//	response.WriteJSON(w, http.StatusInternalServerError,
//	    response.GeneralError(err))
//
// ─────────────────────────────────────────────────────────────────────────────
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// MessageError is GeneralError plus a user-facing message. The stub uses it
// for failures the front end is expected to show verbatim, such as a
// duplicate username:
//
//	response.WriteJSON(w, http.StatusConflict,
//	    response.MessageError(MsgDuplicate, err))
//
// ─────────────────────────────────────────────────────────────────────────────
func MessageError(message string, err error) Response {
	r := GeneralError(err)
	r.Message = message
	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts validator field errors into one Response whose
// message names every failing field.
//
// go-playground/validator returns one FieldError per failing struct field.
// Field() is the JSON name (see validation.New), so the user reads the same
// key the form posted. The sentences are joined with ", ":
//
//	"campo nome_completo é obrigatório, campo email_aluno deve ser um e-mail válido"
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		// missing or empty
		case validation.TagRequired:
			errMessages = append(errMessages,
				fmt.Sprintf("campo %s é obrigatório", e.Field()))
		// same pattern the form checks on blur
		case validation.TagEmailBasic:
			errMessages = append(errMessages,
				fmt.Sprintf("campo %s deve ser um e-mail válido", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("campo %s é inválido", e.Field()))
		}
	}

	msg := strings.Join(errMessages, ", ")
	return Response{
		Status:  StatusError,
		Message: msg,
		Error:   msg,
	}
}
