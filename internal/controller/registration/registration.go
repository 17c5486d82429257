// Package registration drives the student registration page: it validates
// the form, posts the record to the API and turns the outcome into a banner
// message.
package registration

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/apiclient"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/dom"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/envelope"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/feedback"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/metrics"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/validation"
)

// Page-visible text.
const (
	LabelIdle = "Cadastrar Aluno"
	LabelBusy = "Cadastrando..."

	MsgCreated      = "Aluno cadastrado com sucesso!"
	MsgRequired     = "Por favor, preencha todos os campos obrigatórios corretamente."
	MsgInvalidEmail = "Por favor, insira um e-mail válido."
	MsgBadRequest   = "Dados inválidos. Verifique os campos preenchidos."
	MsgServerError  = "Erro interno do servidor. Tente novamente mais tarde."
	MsgOtherStatus  = "Erro ao cadastrar aluno. Status: %d"
	MsgConnection   = "Erro de conexão. Verifique se a API está acessível e tente novamente."
)

// DefaultMarkDelay is how long the success marks stay on the inputs after a
// record is created.
const DefaultMarkDelay = 3 * time.Second

// MessageKeys are the response body fields that may carry a user-facing
// error, in order of preference.
var MessageKeys = []string{"message", "mensagem", "error"}

const page = "cadastro"

// Form is the registration form.
type Form interface {
	Value(name string) string
	SetValue(name, value string)
	Mark(name string) dom.Mark
	SetMark(name string, m dom.Mark)
	RemoveMark(name string, m dom.Mark)
	Reset()
}

// Control is the submit button.
type Control interface {
	Disable() bool
	Enable()
	SetLabel(label string)
}

// Notifier shows banner messages.
type Notifier interface {
	Show(text string, kind feedback.Kind)
	Clear()
}

// Registrar sends a record to the API.
type Registrar interface {
	Register(ctx context.Context, s types.Student) (*apiclient.Response, error)
}

// Outcome classifies a Submit call.
type Outcome int

const (
	// OutcomeIgnored: a submission was already in flight.
	OutcomeIgnored Outcome = iota
	// OutcomeInvalid: the form failed validation and nothing was sent.
	OutcomeInvalid
	// OutcomeCreated: the API answered 201.
	OutcomeCreated
	// OutcomeRejected: the API answered with any other status.
	OutcomeRejected
	// OutcomeFailed: no usable answer (transport or body parse failure).
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeCreated:
		return "created"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result reports what Submit did.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Message    string
	// Fields maps each invalid input to the failed rule (OutcomeInvalid only).
	Fields map[string]string
}

// Deps are the collaborators of a Controller. Scheduler, MarkDelay and
// Logger are optional.
type Deps struct {
	Form      Form
	Submit    Control
	Banner    Notifier
	API       Registrar
	Scheduler feedback.Scheduler
	MarkDelay time.Duration
	Logger    *slog.Logger
}

// Controller handles the registration page's actions.
type Controller struct {
	form      Form
	submit    Control
	banner    Notifier
	api       Registrar
	sched     feedback.Scheduler
	markDelay time.Duration
	log       *slog.Logger
}

func New(d Deps) *Controller {
	c := &Controller{
		form:      d.Form,
		submit:    d.Submit,
		banner:    d.Banner,
		api:       d.API,
		sched:     d.Scheduler,
		markDelay: d.MarkDelay,
		log:       d.Logger,
	}
	if c.sched == nil {
		c.sched = feedback.RealScheduler
	}
	if c.markDelay <= 0 {
		c.markDelay = DefaultMarkDelay
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Submit validates the form and, when valid, registers the student.
// The submit control stays disabled for the whole call.
func (c *Controller) Submit(ctx context.Context) Result {
	return c.SubmitValues(ctx, nil)
}

// SubmitValues is Submit for a form whose values arrive with the action,
// as in an HTML form post. The values are written only after the submit
// control has been claimed, so an ignored call leaves the form untouched.
func (c *Controller) SubmitValues(ctx context.Context, values map[string]string) Result {
	if !c.submit.Disable() {
		c.log.Debug("submit ignored, registration already in flight")
		return Result{Outcome: OutcomeIgnored}
	}
	defer func() {
		c.submit.SetLabel(LabelIdle)
		c.submit.Enable()
	}()

	for name, value := range values {
		c.form.SetValue(name, value)
	}

	c.banner.Clear()

	student := c.collect()
	if fields := c.validate(student); len(fields) > 0 {
		msg := MsgRequired
		if len(fields) == 1 && fields[types.FieldEmail] == validation.TagEmailBasic {
			msg = MsgInvalidEmail
		}
		c.show(msg, feedback.KindError)
		return Result{Outcome: OutcomeInvalid, Message: msg, Fields: fields}
	}

	c.submit.SetLabel(LabelBusy)
	return c.send(ctx, student)
}

// BlurEmail re-checks the email input when it loses focus. An empty input
// is left alone.
func (c *Controller) BlurEmail() dom.Mark {
	email := strings.TrimSpace(c.form.Value(types.FieldEmail))
	switch {
	case email == "":
	case validation.ValidEmail(email):
		c.form.SetMark(types.FieldEmail, dom.MarkSuccess)
	default:
		c.form.SetMark(types.FieldEmail, dom.MarkError)
	}
	return c.form.Mark(types.FieldEmail)
}

// Input drops the error mark of a required field once it has content.
func (c *Controller) Input(field string) dom.Mark {
	if strings.TrimSpace(c.form.Value(field)) != "" {
		c.form.RemoveMark(field, dom.MarkError)
	}
	return c.form.Mark(field)
}

func (c *Controller) collect() types.Student {
	s := types.Student{
		FullName: strings.TrimSpace(c.form.Value(types.FieldFullName)),
		Username: strings.TrimSpace(c.form.Value(types.FieldUsername)),
		Email:    strings.TrimSpace(c.form.Value(types.FieldEmail)),
		Password: c.form.Value(types.FieldPassword),
	}
	if obs := strings.TrimSpace(c.form.Value(types.FieldObservacao)); obs != "" {
		s.Observacao = &obs
	}
	return s
}

// validate marks every required input and returns the failing ones.
func (c *Controller) validate(s types.Student) map[string]string {
	// A password of only blanks counts as empty, but is sent untouched.
	check := s
	check.Password = strings.TrimSpace(s.Password)

	fields := validation.FieldErrors(validation.Student(check))
	for _, name := range types.RequiredFields {
		if _, bad := fields[name]; bad {
			c.form.SetMark(name, dom.MarkError)
		} else {
			c.form.SetMark(name, dom.MarkSuccess)
		}
	}
	return fields
}

func (c *Controller) send(ctx context.Context, s types.Student) Result {
	resp, err := c.api.Register(ctx, s)
	if err != nil {
		c.log.Error("registration request failed", slog.String("error", err.Error()))
		c.show(MsgConnection, feedback.KindError)
		return Result{Outcome: OutcomeFailed, Message: MsgConnection}
	}

	var body any
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		body, err = envelope.Decode(resp.Body)
		if err != nil {
			c.log.Error("registration response is not json",
				slog.Int("status", resp.StatusCode),
				slog.String("error", err.Error()))
			c.show(MsgConnection, feedback.KindError)
			return Result{Outcome: OutcomeFailed, StatusCode: resp.StatusCode, Message: MsgConnection}
		}
	}

	if resp.StatusCode == http.StatusCreated {
		c.log.Info("student registered", slog.String("usuario_acesso", s.Username))
		c.show(MsgCreated, feedback.KindSuccess)
		c.form.Reset()
		c.sched.AfterFunc(c.markDelay, c.clearSuccessMarks)
		return Result{Outcome: OutcomeCreated, StatusCode: resp.StatusCode, Message: MsgCreated}
	}

	var fallback string
	switch resp.StatusCode {
	case http.StatusBadRequest:
		fallback = MsgBadRequest
	case http.StatusInternalServerError:
		fallback = MsgServerError
	default:
		fallback = fmt.Sprintf(MsgOtherStatus, resp.StatusCode)
	}
	msg := envelope.Message(body, fallback, MessageKeys...)

	c.log.Warn("registration rejected",
		slog.Int("status", resp.StatusCode),
		slog.String("message", msg))
	c.show(msg, feedback.KindError)
	return Result{Outcome: OutcomeRejected, StatusCode: resp.StatusCode, Message: msg}
}

func (c *Controller) clearSuccessMarks() {
	for _, name := range types.RequiredFields {
		c.form.RemoveMark(name, dom.MarkSuccess)
	}
}

func (c *Controller) show(text string, kind feedback.Kind) {
	metrics.FeedbackTotal.WithLabelValues(page, string(kind)).Inc()
	c.banner.Show(text, kind)
}
