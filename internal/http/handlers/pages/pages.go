// Package pages serves the two HTML pages of the front end: the student
// registration form (/cadastro) and the student listing (/consulta).
//
// Every visitor gets a Session, identified by a cookie, holding their own
// element model for both pages (form, buttons, banners, table), the way a
// browser tab owns its DOM. Handlers copy the request into the visitor's
// model, run the page controller and render the model back:
//
//	GET  /                        → 303 to /cadastro
//	GET  /cadastro                → registration page
//	POST /cadastro                → submit the form
//	POST /cadastro/campos/{campo} → live validation of one input (JSON)
//	GET  /consulta                → listing page
//	POST /consulta/buscar         → fetch all students
package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/config"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/controller/listing"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/controller/registration"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/dom"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/feedback"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/http/middleware"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/utils/response"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// API is the registration service as both pages see it.
type API interface {
	registration.Registrar
	listing.Lister
}

// Field describes one input of the registration form.
type Field struct {
	Name     string
	Label    string
	Type     string
	Required bool
	// Live inputs are re-checked on the server while the visitor edits them.
	// The password never is, so its keystrokes stay in the browser.
	Live bool
}

// Fields lists the registration inputs in display order.
var Fields = []Field{
	{Name: types.FieldFullName, Label: "Nome completo", Type: "text", Required: true, Live: true},
	{Name: types.FieldUsername, Label: "Usuário de acesso", Type: "text", Required: true, Live: true},
	{Name: types.FieldEmail, Label: "E-mail", Type: "email", Required: true, Live: true},
	{Name: types.FieldPassword, Label: "Senha", Type: "password", Required: true},
	{Name: types.FieldObservacao, Label: "Observação", Type: "textarea"},
}

func fieldNames() []string {
	names := make([]string, 0, len(Fields))
	for _, f := range Fields {
		names = append(names, f.Name)
	}
	return names
}

func liveField(name string) bool {
	for _, f := range Fields {
		if f.Name == name {
			return f.Live
		}
	}
	return false
}

// Site serves both pages to any number of visitors.
type Site struct {
	sessions *sessionStore
	log      *slog.Logger
}

type options struct {
	sched  feedback.Scheduler
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Site.
type Option func(*options)

// WithScheduler replaces time.AfterFunc for the banner and mark timers.
func WithScheduler(s feedback.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSessionTTL replaces DefaultSessionTTL. Non-positive values are ignored.
func WithSessionTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// WithClock replaces time.Now for session expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds a site whose pages talk to api.
func New(api API, fb config.Feedback, requireJSON bool, opts ...Option) *Site {
	o := options{
		sched:  feedback.RealScheduler,
		logger: slog.Default(),
		ttl:    DefaultSessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	build := func(id string) *Session {
		log := o.logger.With(slog.String("session", id))
		return &Session{
			ID:           id,
			Registration: newRegistration(api, fb, o.sched, log),
			Listing:      newListing(api, fb, requireJSON, o.sched, log),
		}
	}

	return &Site{
		sessions: newSessionStore(o.ttl, o.now, build),
		log:      o.logger,
	}
}

// Session returns the live session with the given ID.
func (s *Site) Session(id string) (*Session, bool) {
	return s.sessions.lookup(id)
}

// Sessions reports how many sessions are held.
func (s *Site) Sessions() int {
	return s.sessions.len()
}

// Handler routes every page endpoint, each observed under its route name.
func (s *Site) Handler() http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /{$}", middleware.Instrument("root", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/cadastro", http.StatusSeeOther)
	}))
	router.HandleFunc("GET /cadastro", middleware.Instrument("cadastro", s.RegistrationPage()))
	router.HandleFunc("POST /cadastro", middleware.Instrument("cadastro_submit", s.RegistrationSubmit()))
	router.HandleFunc("POST /cadastro/campos/{campo}", middleware.Instrument("cadastro_campo", s.RegistrationField()))
	router.HandleFunc("GET /consulta", middleware.Instrument("consulta", s.ListingPage()))
	router.HandleFunc("POST /consulta/buscar", middleware.Instrument("consulta_buscar", s.ListingFetch()))

	return router
}

// ─────────────────────────────────────────────────────────────────────────────
// Registration page
// ─────────────────────────────────────────────────────────────────────────────

// Registration is one visitor's registration page and its element model.
type Registration struct {
	Form          *dom.Form
	Button        *dom.Button
	BannerElement *dom.BannerElement
	Banner        *feedback.Banner

	ctrl *registration.Controller
}

func newRegistration(api registration.Registrar, fb config.Feedback, sched feedback.Scheduler, log *slog.Logger) *Registration {
	p := &Registration{
		Form:          dom.NewForm(fieldNames()...),
		Button:        dom.NewButton(registration.LabelIdle),
		BannerElement: &dom.BannerElement{},
	}
	p.Banner = feedback.NewBanner(p.BannerElement,
		feedback.WithScheduler(sched),
		feedback.WithHideDelay(fb.BannerDelay))
	p.ctrl = registration.New(registration.Deps{
		Form:      p.Form,
		Submit:    p.Button,
		Banner:    p.Banner,
		API:       api,
		Scheduler: sched,
		MarkDelay: fb.MarkDelay,
		Logger:    log.With(slog.String("page", "cadastro")),
	})
	return p
}

type inputView struct {
	Field
	Value string
	Mark  dom.Mark
}

type registrationView struct {
	Title  string
	Banner feedback.State
	Scroll bool
	Inputs []inputView
	Button string
	Busy   bool
}

func (p *Registration) view() registrationView {
	inputs := p.Form.Inputs()
	out := make([]inputView, 0, len(inputs))
	for i, in := range inputs {
		v := inputView{Field: Fields[i], Value: in.Value, Mark: in.Mark}
		// The password is never echoed back into the page.
		if v.Name == types.FieldPassword {
			v.Value = ""
		}
		out = append(out, v)
	}

	return registrationView{
		Title:  "Cadastro de Alunos",
		Banner: p.BannerElement.State(),
		Scroll: p.BannerElement.TakeScroll(),
		Inputs: out,
		Button: p.Button.Label(),
		Busy:   p.Button.Disabled(),
	}
}

// RegistrationPage handles GET /cadastro.
func (s *Site) RegistrationPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.sessions.get(w, r).Registration
		render(w, s.log, http.StatusOK, "cadastro.html", p.view())
	}
}

// RegistrationSubmit handles POST /cadastro. The page is rendered with
// whatever the controller left in the visitor's model, so a rejected
// submission keeps its values.
func (s *Site) RegistrationSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.get(w, r)

		if err := r.ParseForm(); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		values := make(map[string]string, len(Fields))
		for _, name := range fieldNames() {
			values[name] = r.PostForm.Get(name)
		}

		p := sess.Registration
		res := p.ctrl.SubmitValues(r.Context(), values)
		s.log.Info("registration submitted",
			slog.String("outcome", res.Outcome.String()),
			slog.Int("status", res.StatusCode),
			slog.String("session", sess.ID),
			slog.String("request_id", middleware.RequestIDFrom(r.Context())))

		render(w, s.log, http.StatusOK, "cadastro.html", p.view())
	}
}

// RegistrationField handles POST /cadastro/campos/{campo}: the form value
// "valor" is stored and the input re-checked as it would be on blur
// (e-mail) or on typing (name, username).
//
//	{ "campo": "email_aluno", "marca": "error" }
func (s *Site) RegistrationField() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("campo")
		if !liveField(name) {
			response.WriteJSON(w, http.StatusNotFound, response.MessageError(
				"Campo desconhecido: "+name, fmt.Errorf("no live check for field %q", name)))
			return
		}
		if err := r.ParseForm(); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		p := s.sessions.get(w, r).Registration
		p.Form.SetValue(name, r.PostForm.Get("valor"))

		var mark dom.Mark
		if name == types.FieldEmail {
			mark = p.ctrl.BlurEmail()
		} else {
			mark = p.ctrl.Input(name)
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"campo": name,
			"marca": string(mark),
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Listing page
// ─────────────────────────────────────────────────────────────────────────────

// Listing is one visitor's listing page and its element model.
type Listing struct {
	Table         *dom.Table
	Button        *dom.Button
	BannerElement *dom.BannerElement
	Banner        *feedback.Banner

	ctrl *listing.Controller
}

func newListing(api listing.Lister, fb config.Feedback, requireJSON bool, sched feedback.Scheduler, log *slog.Logger) *Listing {
	p := &Listing{
		Table:         &dom.Table{},
		Button:        dom.NewButton(listing.LabelIdle),
		BannerElement: &dom.BannerElement{},
	}
	p.Banner = feedback.NewBanner(p.BannerElement,
		feedback.WithScheduler(sched),
		feedback.WithHideDelay(fb.BannerDelay))
	p.ctrl = listing.New(listing.Deps{
		Table:       p.Table,
		Fetch:       p.Button,
		Banner:      p.Banner,
		API:         api,
		RequireJSON: requireJSON,
		Logger:      log.With(slog.String("page", "consulta")),
	})
	return p
}

type listingView struct {
	Title   string
	Banner  feedback.State
	Scroll  bool
	Columns []string
	Rows    []dom.Row
	Button  string
	Busy    bool
}

func (p *Listing) view() listingView {
	return listingView{
		Title:   "Consulta de Alunos",
		Banner:  p.BannerElement.State(),
		Scroll:  p.BannerElement.TakeScroll(),
		Columns: []string{"Nome Completo", "Usuário de Acesso", "E-mail"},
		Rows:    p.Table.Rows(),
		Button:  p.Button.Label(),
		Busy:    p.Button.Disabled(),
	}
}

// ListingPage handles GET /consulta.
func (s *Site) ListingPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.sessions.get(w, r).Listing
		render(w, s.log, http.StatusOK, "consulta.html", p.view())
	}
}

// ListingFetch handles POST /consulta/buscar.
func (s *Site) ListingFetch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.get(w, r)
		p := sess.Listing

		res := p.ctrl.Fetch(r.Context())
		s.log.Info("listing fetched",
			slog.String("outcome", res.Outcome.String()),
			slog.Int("status", res.StatusCode),
			slog.Int("records", len(res.Records)),
			slog.String("session", sess.ID),
			slog.String("request_id", middleware.RequestIDFrom(r.Context())))

		render(w, s.log, http.StatusOK, "consulta.html", p.view())
	}
}

// render executes the named template into a buffer first so a template
// failure still produces a clean 500.
func render(w http.ResponseWriter, log *slog.Logger, status int, name string, data any) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error("render page", slog.String("template", name), slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
