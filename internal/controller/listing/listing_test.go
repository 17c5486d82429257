package listing

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavo03toledo/frontCadastroAlunos/internal/apiclient"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/dom"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/feedback"
	"github.com/gustavo03toledo/frontCadastroAlunos/internal/testutil"
)

type fakeLister struct {
	mu    sync.Mutex
	calls int
	resp  *apiclient.Response
	err   error
	block chan struct{}
}

func (f *fakeLister) List(ctx context.Context) (*apiclient.Response, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return f.resp, f.err
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	table  *dom.Table
	button *dom.Button
	banner *feedback.Banner
	sched  *testutil.ManualScheduler
	api    *fakeLister
	ctrl   *Controller
}

func newFixture(t *testing.T, resp *apiclient.Response, err error) *fixture {
	t.Helper()

	f := &fixture{
		table:  &dom.Table{},
		button: dom.NewButton(LabelIdle),
		sched:  &testutil.ManualScheduler{},
		api:    &fakeLister{resp: resp, err: err},
	}
	f.banner = feedback.NewBanner(&dom.BannerElement{}, feedback.WithScheduler(f.sched))
	f.ctrl = New(Deps{
		Table:       f.table,
		Fetch:       f.button,
		Banner:      f.banner,
		API:         f.api,
		RequireJSON: true,
	})
	return f
}

func jsonResponse(status int, body string) *apiclient.Response {
	return &apiclient.Response{StatusCode: status, ContentType: "application/json; charset=utf-8", Body: []byte(body)}
}

func (f *fixture) assertIdle(t *testing.T) {
	t.Helper()
	assert.False(t, f.button.Disabled())
	assert.Equal(t, LabelIdle, f.button.Label())
}

func TestFetchEmptyArray(t *testing.T) {
	f := newFixture(t, jsonResponse(http.StatusOK, `[]`), nil)

	res := f.ctrl.Fetch(context.Background())

	assert.Equal(t, OutcomeListed, res.Outcome)
	assert.Equal(t, []dom.Row{{Cells: []string{MsgNoRecords}, Empty: true}}, f.table.Rows())
	assert.Equal(t, feedback.State{Text: MsgNoRecords, Kind: feedback.KindInfo, Visible: true}, f.banner.State())
	assert.Len(t, f.sched.Pending(), 1, "info banners hide themselves")
	f.assertIdle(t)
}

func TestFetchDataEnvelope(t *testing.T) {
	f := newFixture(t, jsonResponse(http.StatusOK,
		`{"data":[{"nome_completo":"A","usuario_acesso":"b","email_aluno":"a@b.com"}]}`), nil)

	res := f.ctrl.Fetch(context.Background())

	assert.Equal(t, OutcomeListed, res.Outcome)
	assert.Equal(t, []dom.Row{{Cells: []string{"A", "b", "a@b.com"}}}, f.table.Rows())
	assert.Equal(t, feedback.State{Text: "1 aluno(s) encontrado(s).", Kind: feedback.KindSuccess, Visible: true}, f.banner.State())
	f.assertIdle(t)
}

func TestFetchAlunosEnvelopeWithPlaceholders(t *testing.T) {
	f := newFixture(t, jsonResponse(http.StatusOK, `{"sucesso":true,"alunos":[
		{"nome_completo":"Ana","usuario_acesso":"ana","email_aluno":"ana@x.com"},
		{"nome_completo":"Bia"}
	]}`), nil)

	res := f.ctrl.Fetch(context.Background())

	assert.Equal(t, "2 aluno(s) encontrado(s).", res.Message)
	assert.Equal(t, []dom.Row{
		{Cells: []string{"Ana", "ana", "ana@x.com"}},
		{Cells: []string{"Bia", Placeholder, Placeholder}},
	}, f.table.Rows())
}

func TestFetchUnexpectedFormat(t *testing.T) {
	f := newFixture(t, jsonResponse(http.StatusOK, `{"foo":1}`), nil)
	f.table.AppendRow("velho", "velho", "velho")

	res := f.ctrl.Fetch(context.Background())

	assert.Equal(t, OutcomeBadFormat, res.Outcome)
	assert.Empty(t, f.table.Rows())
	assert.Equal(t, feedback.State{Text: MsgBadFormat, Kind: feedback.KindError, Visible: true}, f.banner.State())
	assert.Empty(t, f.sched.Pending(), "errors do not hide")
	f.assertIdle(t)
}

func TestFetchNetworkFailure(t *testing.T) {
	f := newFixture(t, nil, fmt.Errorf("%w: connection refused", apiclient.ErrTransport))
	f.table.AppendRow("velho", "velho", "velho")

	res := f.ctrl.Fetch(context.Background())

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, MsgConnection, f.banner.State().Text)
	assert.Empty(t, f.table.Rows())
	f.assertIdle(t)
}

func TestFetchNonJSONContentType(t *testing.T) {
	f := newFixture(t, &apiclient.Response{StatusCode: http.StatusOK, ContentType: "text/html", Body: []byte("<html>")}, nil)

	res := f.ctrl.Fetch(context.Background())

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, MsgNotJSON, f.banner.State().Text)
	f.assertIdle(t)
}

func TestFetchNonJSONContentTypeOnErrorStatus(t *testing.T) {
	f := newFixture(t, &apiclient.Response{StatusCode: http.StatusNotFound, ContentType: "text/html", Body: []byte("Cannot GET")}, nil)

	res := f.ctrl.Fetch(context.Background())

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, MsgNotJSON, res.Message)
}

func TestFetchWithoutContentTypeCheck(t *testing.T) {
	f := newFixture(t, &apiclient.Response{StatusCode: http.StatusOK, ContentType: "text/plain", Body: []byte(`[]`)}, nil)
	f.ctrl.requireJSON = false

	res := f.ctrl.Fetch(context.Background())
	assert.Equal(t, OutcomeListed, res.Outcome)

	f.api.resp = &apiclient.Response{StatusCode: http.StatusOK, ContentType: "text/plain", Body: []byte(`nope`)}
	res = f.ctrl.Fetch(context.Background())
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, MsgNotJSON, res.Message)

	f.api.resp = &apiclient.Response{StatusCode: http.StatusBadGateway, ContentType: "text/plain", Body: []byte(`Bad Gateway`)}
	res = f.ctrl.Fetch(context.Background())
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.Equal(t, fmt.Sprintf(MsgOtherStatus, http.StatusBadGateway), res.Message)
}

func TestFetchStatusMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"404 default", http.StatusNotFound, `{}`, MsgNotFound},
		{"404 mensagem", http.StatusNotFound, `{"mensagem":"rota"}`, "rota"},
		{"500 default", http.StatusInternalServerError, `{"ok":false}`, MsgServerError},
		{"500 erro", http.StatusInternalServerError, `{"erro":"banco"}`, "banco"},
		{"500 error", http.StatusInternalServerError, `{"error":"db"}`, "db"},
		{"503 default", http.StatusServiceUnavailable, `{}`, fmt.Sprintf(MsgOtherStatus, http.StatusServiceUnavailable)},
		{"401 message", http.StatusUnauthorized, `{"message":"token"}`, "token"},
		{"404 empty body", http.StatusNotFound, ``, MsgNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, jsonResponse(tt.status, tt.body), nil)
			f.table.AppendRow("velho", "velho", "velho")

			res := f.ctrl.Fetch(context.Background())

			assert.Equal(t, OutcomeRejected, res.Outcome)
			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, feedback.State{Text: tt.want, Kind: feedback.KindError, Visible: true}, f.banner.State())
			assert.Empty(t, f.table.Rows())
			f.assertIdle(t)
		})
	}
}

func TestFetchMalformedJSON(t *testing.T) {
	f := newFixture(t, jsonResponse(http.StatusOK, `[{"nome_completo":`), nil)

	res := f.ctrl.Fetch(context.Background())

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, MsgNotJSON, res.Message)
}

func TestFetchWhileInFlightIsIgnored(t *testing.T) {
	f := newFixture(t, jsonResponse(http.StatusOK, `[]`), nil)
	f.api.block = make(chan struct{})

	done := make(chan Result)
	go func() { done <- f.ctrl.Fetch(context.Background()) }()

	require.Eventually(t, func() bool { return f.api.callCount() == 1 }, time.Second, time.Millisecond)
	assert.True(t, f.button.Disabled())
	assert.Equal(t, LabelBusy, f.button.Label())

	assert.Equal(t, OutcomeIgnored, f.ctrl.Fetch(context.Background()).Outcome)

	close(f.api.block)
	assert.Equal(t, OutcomeListed, (<-done).Outcome)
	assert.Equal(t, 1, f.api.callCount())
	f.assertIdle(t)
}

func TestFetchClearsPreviousBanner(t *testing.T) {
	f := newFixture(t, jsonResponse(http.StatusOK, `{"foo":1}`), nil)
	f.ctrl.Fetch(context.Background())
	require.Equal(t, MsgBadFormat, f.banner.State().Text)

	f.api.resp = jsonResponse(http.StatusOK, `[{"nome_completo":"A"}]`)
	f.ctrl.Fetch(context.Background())

	assert.Equal(t, "1 aluno(s) encontrado(s).", f.banner.State().Text)
	assert.Equal(t, []dom.Row{{Cells: []string{"A", Placeholder, Placeholder}}}, f.table.Rows())
}
