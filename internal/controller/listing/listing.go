// Package listing drives the student listing page: one GET to the API, the
// body unwrapped from whatever envelope the deployment uses, and the rows
// rendered into the table.
package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/apiclient"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/envelope"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/feedback"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/metrics"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
)

// Page-visible text.
const (
	LabelIdle = "Buscar Todos os Alunos"
	LabelBusy = "Buscando..."

	MsgFound       = "%d aluno(s) encontrado(s)."
	MsgNoRecords   = "Nenhum aluno cadastrado encontrado."
	MsgBadFormat   = "Formato de resposta inesperado da API."
	MsgNotJSON     = "Erro ao processar resposta da API. Verifique se o endpoint está correto."
	MsgNotFound    = "Endpoint não encontrado. Verifique se a rota GET /api/alunos está disponível na API."
	MsgServerError = "Erro interno do servidor. Tente novamente mais tarde."
	MsgOtherStatus = "Erro ao buscar alunos. Status: %d"
	MsgConnection  = "Erro de conexão. Verifique se a API está acessível e se há problemas de CORS."
	MsgUnexpected  = "Erro: %s"

	// Placeholder is shown in a cell whose value the API left out.
	Placeholder = "-"
)

// MessageKeys are the response body fields that may carry a user-facing
// error, in order of preference.
var MessageKeys = []string{"mensagem", "message", "erro", "error"}

const page = "consulta"

// errNotJSON is raised when the response declares a non-JSON content type.
var errNotJSON = errors.New("listing: response is not json")

// Table is the listing table body.
type Table interface {
	Clear()
	AppendRow(cells ...string)
	AppendEmptyRow(text string)
}

// Control is the fetch button.
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

// Lister fetches the raw listing from the API.
type Lister interface {
	List(ctx context.Context) (*apiclient.Response, error)
}

// Outcome classifies a Fetch call.
type Outcome int

const (
	// OutcomeIgnored: a fetch was already in flight.
	OutcomeIgnored Outcome = iota
	// OutcomeListed: records (possibly none) were rendered.
	OutcomeListed
	// OutcomeBadFormat: a 200 whose body matched no known envelope.
	OutcomeBadFormat
	// OutcomeRejected: the API answered with a non-200 status.
	OutcomeRejected
	// OutcomeFailed: transport failure or a body that could not be read as JSON.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeListed:
		return "listed"
	case OutcomeBadFormat:
		return "bad_format"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result reports what Fetch did.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Message    string
	Records    []types.ListedStudent
}

// Deps are the collaborators of a Controller. Logger is optional.
type Deps struct {
	Table  Table
	Fetch  Control
	Banner Notifier
	API    Lister
	// RequireJSON rejects responses whose Content-Type is not JSON before
	// looking at the body.
	RequireJSON bool
	Logger      *slog.Logger
}

// Controller handles the listing page's actions.
type Controller struct {
	table       Table
	fetch       Control
	banner      Notifier
	api         Lister
	requireJSON bool
	log         *slog.Logger
}

func New(d Deps) *Controller {
	c := &Controller{
		table:       d.Table,
		fetch:       d.Fetch,
		banner:      d.Banner,
		api:         d.API,
		requireJSON: d.RequireJSON,
		log:         d.Logger,
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// Fetch loads every student and renders the table. The fetch control is
// re-enabled when it returns, whatever happened.
func (c *Controller) Fetch(ctx context.Context) Result {
	if !c.fetch.Disable() {
		c.log.Debug("fetch ignored, listing already in flight")
		return Result{Outcome: OutcomeIgnored}
	}
	c.fetch.SetLabel(LabelBusy)
	defer func() {
		c.fetch.SetLabel(LabelIdle)
		c.fetch.Enable()
	}()

	c.banner.Clear()

	resp, err := c.api.List(ctx)
	if err != nil {
		return c.fail(0, err)
	}

	body, err := c.decode(resp)
	if err != nil && resp.StatusCode == http.StatusOK {
		return c.fail(resp.StatusCode, err)
	}
	if errors.Is(err, errNotJSON) {
		return c.fail(resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		var fallback string
		switch resp.StatusCode {
		case http.StatusNotFound:
			fallback = MsgNotFound
		case http.StatusInternalServerError:
			fallback = MsgServerError
		default:
			fallback = fmt.Sprintf(MsgOtherStatus, resp.StatusCode)
		}
		msg := envelope.Message(body, fallback, MessageKeys...)

		c.log.Warn("listing rejected", slog.Int("status", resp.StatusCode), slog.String("message", msg))
		c.table.Clear()
		c.show(msg, feedback.KindError)
		return Result{Outcome: OutcomeRejected, StatusCode: resp.StatusCode, Message: msg}
	}

	res := envelope.Normalize(body)
	if res.Kind == envelope.KindFormatError {
		c.log.Error("unexpected listing format", slog.String("error", res.Err.Error()))
		c.table.Clear()
		c.show(MsgBadFormat, feedback.KindError)
		return Result{Outcome: OutcomeBadFormat, StatusCode: resp.StatusCode, Message: MsgBadFormat}
	}

	c.render(res.Records)

	if len(res.Records) == 0 {
		c.log.Info("no students found")
		c.show(MsgNoRecords, feedback.KindInfo)
		return Result{Outcome: OutcomeListed, StatusCode: resp.StatusCode, Message: MsgNoRecords, Records: res.Records}
	}

	msg := fmt.Sprintf(MsgFound, len(res.Records))
	c.log.Info("students found", slog.Int("count", len(res.Records)))
	c.show(msg, feedback.KindSuccess)
	return Result{Outcome: OutcomeListed, StatusCode: resp.StatusCode, Message: msg, Records: res.Records}
}

// decode checks the declared content type, when required, and parses the
// body.
func (c *Controller) decode(resp *apiclient.Response) (any, error) {
	if c.requireJSON && !strings.Contains(strings.ToLower(resp.ContentType), "application/json") {
		return nil, fmt.Errorf("%w: content type %q: %.200s", errNotJSON, resp.ContentType, resp.Body)
	}
	return envelope.Decode(resp.Body)
}

func (c *Controller) render(records []types.ListedStudent) {
	c.table.Clear()
	if len(records) == 0 {
		c.table.AppendEmptyRow(MsgNoRecords)
		return
	}
	for _, r := range records {
		c.table.AppendRow(cell(r.FullName), cell(r.Username), cell(r.Email))
	}
}

func (c *Controller) fail(status int, err error) Result {
	var msg string
	switch {
	case errors.Is(err, apiclient.ErrTransport):
		msg = MsgConnection
	case errors.Is(err, errNotJSON), errors.Is(err, envelope.ErrEmptyBody), errors.Is(err, envelope.ErrMalformed):
		msg = MsgNotJSON
	default:
		msg = fmt.Sprintf(MsgUnexpected, err.Error())
	}

	c.log.Error("listing failed", slog.Int("status", status), slog.String("error", err.Error()))
	c.table.Clear()
	c.show(msg, feedback.KindError)
	return Result{Outcome: OutcomeFailed, StatusCode: status, Message: msg}
}

func (c *Controller) show(text string, kind feedback.Kind) {
	metrics.FeedbackTotal.WithLabelValues(page, string(kind)).Inc()
	c.banner.Show(text, kind)
}

func cell(v string) string {
	if v == "" {
		return Placeholder
	}
	return v
}
