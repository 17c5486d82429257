// Package types holds the data structures shared by the front end, the
// stub API and the storage layer. Keeping them in one place prevents import
// cycles between controllers, handlers and storage.
package types

// Student is one student record as it travels over the wire.
//
// The JSON keys follow the registration API's Portuguese contract:
//
//	{ "nome_completo": "Ana", "usuario_acesso": "ana", "email_aluno": "ana@escola.com",
//	  "senha_hash": "...", "observacao": null }
//
// Observacao is a pointer so that an absent note encodes as null rather
// than "".
type Student struct {
	ID         int64   `json:"id,omitempty"`
	FullName   string  `json:"nome_completo"  validate:"required"`
	Username   string  `json:"usuario_acesso" validate:"required"`
	Email      string  `json:"email_aluno"    validate:"required,email_basic"`
	Password   string  `json:"senha_hash"     validate:"required"`
	Observacao *string `json:"observacao"`
}

// ListedStudent is the projection shown on the listing page. Any of its
// fields may be empty when the API left them out.
type ListedStudent struct {
	FullName string `json:"nome_completo"`
	Username string `json:"usuario_acesso"`
	Email    string `json:"email_aluno"`
}

// Form field names. They double as the JSON keys and the HTML input names.
const (
	FieldFullName   = "nome_completo"
	FieldUsername   = "usuario_acesso"
	FieldEmail      = "email_aluno"
	FieldPassword   = "senha_hash"
	FieldObservacao = "observacao"
)

// RequiredFields lists the form inputs that must be filled, in form order.
var RequiredFields = []string{FieldFullName, FieldUsername, FieldEmail, FieldPassword}
