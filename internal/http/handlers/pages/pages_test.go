package pages_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/apiclient"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/config"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/controller/listing"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/controller/registration"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/dom"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/http/handlers/aluno"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/http/handlers/pages"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/storage/sqlite"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/testutil"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/types"
)

type fixture struct {
	site  *pages.Site
	h     http.Handler
	sched *testutil.ManualScheduler
	store *sqlite.SQLite
	api   *httptest.Server
}

// newFixture runs the stub API over an in-memory database and points a site
// at it.
func newFixture(t *testing.T, envelope string, opts ...pages.Option) *fixture {
	t.Helper()

	cfg := &config.Config{Stub: config.Stub{StoragePath: ":memory:", Envelope: envelope}}
	store, err := sqlite.New(cfg, sqlite.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	router := http.NewServeMux()
	router.HandleFunc("POST /api/alunos/cadastro", aluno.New(store))
	router.HandleFunc("GET /api/alunos", aluno.GetList(store, envelope))
	api := httptest.NewServer(router)
	t.Cleanup(api.Close)

	client := apiclient.New(api.URL+"/api/alunos/cadastro", api.URL+"/api/alunos")
	sched := &testutil.ManualScheduler{}
	site := pages.New(client, config.Feedback{BannerDelay: 5 * time.Second, MarkDelay: 3 * time.Second},
		true, append([]pages.Option{pages.WithScheduler(sched)}, opts...)...)

	return &fixture{site: site, h: site.Handler(), sched: sched, store: store, api: api}
}

// visitor is one browser: it keeps the session cookie the site hands out.
type visitor struct {
	cookie *http.Cookie
}

func (f *fixture) do(t *testing.T, v *visitor, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	if v.cookie != nil {
		req.AddCookie(v.cookie)
	}
	w := httptest.NewRecorder()
	f.h.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == pages.CookieName {
			v.cookie = c
		}
	}
	return w
}

func (f *fixture) post(t *testing.T, v *visitor, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(t, v, req)
}

func (f *fixture) get(t *testing.T, v *visitor, path string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, v, httptest.NewRequest(http.MethodGet, path, nil))
}

// session returns the pages held for v.
func (f *fixture) session(t *testing.T, v *visitor) *pages.Session {
	t.Helper()

	require.NotNil(t, v.cookie, "visitor has no session yet")
	sess, ok := f.site.Session(v.cookie.Value)
	require.True(t, ok)
	return sess
}

func validForm() url.Values {
	return url.Values{
		types.FieldFullName:   {"  Ana Souza  "},
		types.FieldUsername:   {"ana"},
		types.FieldEmail:      {"ana@escola.com"},
		types.FieldPassword:   {"s3nha"},
		types.FieldObservacao: {""},
	}
}

func TestRootRedirects(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	w := f.get(t, v, "/")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/cadastro", w.Header().Get("Location"))
}

func TestRegistrationPageRendersEmptyForm(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	w := f.get(t, v, "/cadastro")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `class="mensagem-feedback"`)
	assert.Contains(t, body, registration.LabelIdle)
	for _, field := range pages.Fields {
		assert.Contains(t, body, fmt.Sprintf(`name="%s"`, field.Name))
	}
}

func TestSubmitEmptyFormSendsNothing(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	w := f.post(t, v, "/cadastro", url.Values{})
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `class="mensagem-feedback show error"`)
	assert.Contains(t, body, registration.MsgRequired)

	for _, name := range types.RequiredFields {
		assert.Equal(t, dom.MarkError, f.session(t, v).Registration.Form.Mark(name), name)
	}

	students, err := f.store.GetStudents()
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.Empty(t, f.sched.Pending(), "error banners do not hide")
}

func TestSubmitInvalidEmailOnly(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	form := validForm()
	form.Set(types.FieldEmail, "ana@escola")
	w := f.post(t, v, "/cadastro", form)

	assert.Contains(t, w.Body.String(), registration.MsgInvalidEmail)
	assert.Equal(t, dom.MarkError, f.session(t, v).Registration.Form.Mark(types.FieldEmail))
	assert.Equal(t, dom.MarkSuccess, f.session(t, v).Registration.Form.Mark(types.FieldFullName))
	assert.Contains(t, w.Body.String(), `value="ana@escola"`, "values survive a rejected submit")
}

func TestSubmitCreatesStudent(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	w := f.post(t, v, "/cadastro", validForm())
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `class="mensagem-feedback show success"`)
	assert.Contains(t, body, registration.MsgCreated)
	assert.Contains(t, body, "scrollIntoView")
	assert.NotContains(t, body, "s3nha")

	students, err := f.store.GetStudents()
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ana Souza", students[0].FullName, "values are trimmed before sending")
	assert.Nil(t, students[0].Observacao, "an empty observacao is sent as null")

	form := f.session(t, v).Registration.Form
	for _, name := range types.RequiredFields {
		assert.Empty(t, form.Value(name), "form is reset")
		assert.Equal(t, dom.MarkSuccess, form.Mark(name))
	}
	assert.False(t, f.session(t, v).Registration.Button.Disabled())
	assert.Equal(t, registration.LabelIdle, f.session(t, v).Registration.Button.Label())

	// banner hide and mark clearing
	assert.Equal(t, 2, f.sched.FireAll())
	for _, name := range types.RequiredFields {
		assert.Equal(t, dom.MarkNone, form.Mark(name))
	}

	w = f.get(t, v, "/cadastro")
	assert.Contains(t, w.Body.String(), `class="mensagem-feedback success"`)
	assert.NotContains(t, w.Body.String(), "scrollIntoView")
}

func TestSubmitDuplicateShowsAPIMessage(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	f.post(t, v, "/cadastro", validForm())
	w := f.post(t, v, "/cadastro", validForm())

	assert.Contains(t, w.Body.String(), `class="mensagem-feedback show error"`)
	assert.Contains(t, w.Body.String(), aluno.MsgDuplicate)
	assert.Equal(t, "ana", f.session(t, v).Registration.Form.Value(types.FieldUsername), "form kept on failure")
}

func TestSubmitWithAPIDown(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}
	f.api.Close()

	w := f.post(t, v, "/cadastro", validForm())

	assert.Contains(t, w.Body.String(), registration.MsgConnection)
	assert.False(t, f.session(t, v).Registration.Button.Disabled())
}

func TestFieldEndpoint(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	check := func(field, value string) (int, map[string]string) {
		w := f.post(t, v, "/cadastro/campos/"+field, url.Values{"valor": {value}})
		var out map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return w.Code, out
	}

	code, out := check(types.FieldEmail, "nao-e-email")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"campo": types.FieldEmail, "marca": "error"}, out)

	_, out = check(types.FieldEmail, "ana@escola.com")
	assert.Equal(t, "success", out["marca"])

	_, out = check(types.FieldEmail, "   ")
	assert.Equal(t, "success", out["marca"], "an empty e-mail is left alone")

	f.session(t, v).Registration.Form.SetMark(types.FieldFullName, dom.MarkError)
	_, out = check(types.FieldFullName, "Ana")
	assert.Equal(t, "", out["marca"])

	code, _ = check(types.FieldPassword, "s3nha")
	assert.Equal(t, http.StatusNotFound, code, "the password is never checked field by field")
	assert.Empty(t, f.session(t, v).Registration.Form.Value(types.FieldPassword))
}

func TestListingEmpty(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	w := f.post(t, v, "/consulta/buscar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `class="mensagem-feedback show info"`)
	assert.Contains(t, body, `<td class="vazio" colspan="3">`+listing.MsgNoRecords+`</td>`)
	assert.Len(t, f.sched.Pending(), 1, "info banners hide")
}

func TestListingAfterRegistration(t *testing.T) {
	for _, envelope := range []string{config.EnvelopeAlunos, config.EnvelopeData, config.EnvelopeBare} {
		t.Run(envelope, func(t *testing.T) {
			f := newFixture(t, envelope)
			v := &visitor{}

			f.post(t, v, "/cadastro", validForm())
			bia := validForm()
			bia.Set(types.FieldUsername, "bia")
			bia.Set(types.FieldFullName, "Bia Lima")
			f.post(t, v, "/cadastro", bia)

			w := f.post(t, v, "/consulta/buscar", nil)
			body := w.Body.String()

			assert.Contains(t, body, fmt.Sprintf(listing.MsgFound, 2))
			assert.Contains(t, body, "<td>Ana Souza</td><td>ana</td><td>ana@escola.com</td>")
			assert.Contains(t, body, "<td>Bia Lima</td><td>bia</td><td>ana@escola.com</td>")
			assert.Len(t, f.session(t, v).Listing.Table.Rows(), 2)
			assert.Equal(t, listing.LabelIdle, f.session(t, v).Listing.Button.Label())
		})
	}
}

func TestListingWithAPIDown(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}
	f.api.Close()

	w := f.post(t, v, "/consulta/buscar", nil)

	assert.Contains(t, w.Body.String(), listing.MsgConnection)
	assert.Empty(t, f.session(t, v).Listing.Table.Rows())
	assert.False(t, f.session(t, v).Listing.Button.Disabled())
}

func TestListingPageRenders(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{}

	w := f.get(t, v, "/consulta")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), listing.LabelIdle)
	assert.Contains(t, w.Body.String(), "<th>Usuário de Acesso</th>")
}

// ─────────────────────────────────────────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────────────────────────────────────────

func TestVisitorsDoNotShareForms(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	alice, bob := &visitor{}, &visitor{}

	form := validForm()
	form.Set(types.FieldFullName, "Alice Segredo")
	form.Set(types.FieldEmail, "alice@private")
	w := f.post(t, alice, "/cadastro", form)
	require.Contains(t, w.Body.String(), registration.MsgInvalidEmail)
	require.Contains(t, w.Body.String(), "Alice Segredo")

	w = f.get(t, bob, "/cadastro")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "Alice Segredo")
	assert.NotContains(t, body, "alice@private")
	assert.NotContains(t, body, registration.MsgInvalidEmail)
	assert.Contains(t, body, `class="mensagem-feedback"`)

	require.NotNil(t, alice.cookie)
	require.NotNil(t, bob.cookie)
	assert.NotEqual(t, alice.cookie.Value, bob.cookie.Value)
	assert.Equal(t, 2, f.site.Sessions())

	assert.Equal(t, "Alice Segredo", f.session(t, alice).Registration.Form.Value(types.FieldFullName))
	assert.Empty(t, f.session(t, bob).Registration.Form.Value(types.FieldFullName))
	assert.Equal(t, dom.MarkNone, f.session(t, bob).Registration.Form.Mark(types.FieldEmail))

	// alice still sees her own rejected values
	w = f.get(t, alice, "/cadastro")
	assert.Contains(t, w.Body.String(), `value="alice@private"`)
}

func TestVisitorsDoNotShareListings(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	alice, bob := &visitor{}, &visitor{}

	f.post(t, alice, "/cadastro", validForm())
	f.post(t, alice, "/consulta/buscar", nil)
	assert.Len(t, f.session(t, alice).Listing.Table.Rows(), 1)

	w := f.get(t, bob, "/consulta")
	assert.NotContains(t, w.Body.String(), "<td>Ana Souza</td>")
	assert.Empty(t, f.session(t, bob).Listing.Table.Rows())
}

func TestVisitorsSubmitIndependently(t *testing.T) {
	cfg := &config.Config{Stub: config.Stub{StoragePath: ":memory:", Envelope: config.EnvelopeAlunos}}
	store, err := sqlite.New(cfg, sqlite.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// The first registration parks inside the API until released.
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	create := aluno.New(store)

	router := http.NewServeMux()
	router.HandleFunc("POST /api/alunos/cadastro", func(w http.ResponseWriter, r *http.Request) {
		park := false
		once.Do(func() { park = true })
		if park {
			close(entered)
			<-release
		}
		create(w, r)
	})
	api := httptest.NewServer(router)
	t.Cleanup(api.Close)

	var released sync.Once
	unblock := func() { released.Do(func() { close(release) }) }
	t.Cleanup(unblock)

	client := apiclient.New(api.URL+"/api/alunos/cadastro", api.URL+"/api/alunos")
	site := pages.New(client, config.Feedback{BannerDelay: 5 * time.Second, MarkDelay: 3 * time.Second},
		true, pages.WithScheduler(&testutil.ManualScheduler{}))
	f := &fixture{site: site, h: site.Handler(), store: store, api: api}

	alice, bob := &visitor{}, &visitor{}
	f.get(t, alice, "/cadastro")

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- f.post(t, alice, "/cadastro", validForm()) }()
	<-entered

	bia := validForm()
	bia.Set(types.FieldUsername, "bia")
	bia.Set(types.FieldFullName, "Bia Lima")
	w := f.post(t, bob, "/cadastro", bia)
	assert.Contains(t, w.Body.String(), registration.MsgCreated, "another visitor's submission is not in the way")

	unblock()
	w = <-done
	assert.Contains(t, w.Body.String(), registration.MsgCreated)

	students, err := store.GetStudents()
	require.NoError(t, err)
	assert.Len(t, students, 2)
}

func TestIdleSessionExpires(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f := newFixture(t, config.EnvelopeAlunos,
		pages.WithSessionTTL(10*time.Minute),
		pages.WithClock(func() time.Time { return now }))
	v := &visitor{}

	form := validForm()
	form.Set(types.FieldEmail, "ana@escola")
	f.post(t, v, "/cadastro", form)
	first := v.cookie.Value

	now = now.Add(9 * time.Minute)
	f.get(t, v, "/cadastro")
	assert.Equal(t, first, v.cookie.Value, "activity keeps the session alive")

	now = now.Add(10 * time.Minute)
	w := f.get(t, v, "/cadastro")
	assert.NotEqual(t, first, v.cookie.Value)
	assert.NotContains(t, w.Body.String(), "ana@escola")
	assert.Equal(t, 1, f.site.Sessions(), "the idle session is swept")

	_, ok := f.site.Session(first)
	assert.False(t, ok)
}

func TestUnknownSessionCookieGetsFreshID(t *testing.T) {
	f := newFixture(t, config.EnvelopeAlunos)
	v := &visitor{cookie: &http.Cookie{Name: pages.CookieName, Value: "escolhido-pelo-cliente"}}

	w := f.get(t, v, "/cadastro")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "escolhido-pelo-cliente", v.cookie.Value)
	assert.True(t, v.cookie.HttpOnly)

	_, ok := f.site.Session("escolhido-pelo-cliente")
	assert.False(t, ok)
}
