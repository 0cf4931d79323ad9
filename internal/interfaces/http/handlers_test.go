package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/quickquote/internal/application/service"
	"github.com/garyjia/quickquote/internal/domain/entity"
	"github.com/garyjia/quickquote/internal/invoice"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeCredits struct {
	view    service.AccountView
	applied []*entity.PaymentNotification
	seen    map[string]bool
}

func (f *fakeCredits) Account(_ context.Context, email string) (*service.AccountView, error) {
	v := f.view
	v.Email = email
	return &v, nil
}

func (f *fakeCredits) ApplyPayment(_ context.Context, n *entity.PaymentNotification) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[n.EventID] {
		return false, nil
	}
	f.seen[n.EventID] = true
	f.applied = append(f.applied, n)
	return true, nil
}

type fakeGenerations struct {
	generateErr error
	gens        map[string]*entity.Generation
	lastInput   service.GenerateInput
}

func (f *fakeGenerations) Generate(_ context.Context, in service.GenerateInput) (*service.GenerateResult, error) {
	f.lastInput = in
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	g := &entity.Generation{
		ID:          "gen-1",
		Email:       in.Email,
		CompanyName: in.CompanyName,
		ClientName:  "John Doe",
		ItemCount:   3,
		GrandTotal:  1400,
		Status:      entity.GenerationStatusCompleted,
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	f.gens[g.ID] = g
	return &service.GenerateResult{
		Generation:  g,
		Document:    &invoice.Document{Number: 1234},
		CreditsLeft: 1,
	}, nil
}

func (f *fakeGenerations) Get(_ context.Context, email, id string) (*entity.Generation, error) {
	g, ok := f.gens[id]
	if !ok || g.Email != email {
		return nil, entity.ErrGenerationNotFound
	}
	return g, nil
}

func (f *fakeGenerations) List(_ context.Context, email string, _, _ int) ([]*entity.Generation, error) {
	var out []*entity.Generation
	for _, g := range f.gens {
		if g.Email == email {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGenerations) Download(ctx context.Context, email, id string) ([]byte, error) {
	if _, err := f.Get(ctx, email, id); err != nil {
		return nil, err
	}
	return []byte("%PDF-1.3 fake"), nil
}

func (f *fakeGenerations) Preview(ctx context.Context, email, id string) ([]byte, error) {
	if _, err := f.Get(ctx, email, id); err != nil {
		return nil, err
	}
	return []byte("\x89PNG"), nil
}

func (f *fakeGenerations) Export(_ context.Context, email string, w io.Writer) error {
	_, err := fmt.Fprintf(w, "xlsx for %s", email)
	return err
}

type fakeTranscriptions struct{ got []byte }

func (f *fakeTranscriptions) Transcribe(_ context.Context, _ string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", entity.ErrEmptyAudio
	}
	f.got = audio
	return "five lights", nil
}

type fakeIdentity struct {
	email       string
	gotVerifier string
}

func (f *fakeIdentity) NewVerifier() string { return "verifier-abc" }

func (f *fakeIdentity) AuthCodeURL(state, verifier string) string {
	return "https://idp.example/auth?state=" + url.QueryEscape(state) + "&v=" + verifier
}

func (f *fakeIdentity) Exchange(_ context.Context, code, verifier string) (string, error) {
	f.gotVerifier = verifier
	if code != "good" {
		return "", entity.ErrIdentityFailed
	}
	return f.email, nil
}

type fakeWebhook struct{}

func (fakeWebhook) ParseCheckout(payload []byte, sig string) (*entity.PaymentNotification, error) {
	if sig != "valid" {
		return nil, entity.ErrInvalidSignature
	}
	var body struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, err
	}
	if body.Type != "checkout.session.completed" {
		return nil, nil
	}
	return &entity.PaymentNotification{EventID: body.ID, Email: body.Email, Paid: true}, nil
}

type testServer struct {
	server      *Server
	sessions    *SessionIssuer
	credits     *fakeCredits
	generations *fakeGenerations
	identity    *fakeIdentity
	transcribe  *fakeTranscriptions
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, DefaultServerConfig())
}

func newTestServerWithConfig(t *testing.T, config ServerConfig) *testServer {
	t.Helper()
	sessions, err := NewSessionIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	ts := &testServer{
		sessions:    sessions,
		credits:     &fakeCredits{view: service.AccountView{Credits: 2, Plan: entity.PlanFree, LowBalance: true}},
		generations: &fakeGenerations{gens: map[string]*entity.Generation{}},
		identity:    &fakeIdentity{email: "pat@example.com"},
		transcribe:  &fakeTranscriptions{},
	}
	ts.server = NewServer(config, Services{
		Credits:        ts.credits,
		Generations:    ts.generations,
		Transcriptions: ts.transcribe,
		Identity:       ts.identity,
		Payments:       fakeWebhook{},
	}, sessions, nopLogger{})
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request, email string) *httptest.ResponseRecorder {
	t.Helper()
	if email != "" {
		token, _, err := ts.sessions.Issue(email)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "qq_session", Value: token})
	}
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestAPIRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	paths := []string{"/api/me", "/api/example", "/api/invoices", "/api/invoices/export", "/api/invoices/x/pdf"}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			w := ts.do(t, httptest.NewRequest(http.MethodGet, p, nil), "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, decode(t, w).Success)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "qq_session", Value: "forged.token.value"})
	w := ts.do(t, req, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeAndExample(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/me", nil), "pat@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "pat@example.com", data["email"])
	assert.EqualValues(t, 2, data["credits"])
	assert.Equal(t, true, data["low_balance"])

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/example", nil), "pat@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "John Doe")
}

func TestCreateInvoice(t *testing.T) {
	ts := newTestServer(t)

	body := strings.NewReader(`{"company_name":"Acme","job_details":"5 LED lights at $80"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", body)
	req.Header.Set("Content-Type", "application/json")
	w := ts.do(t, req, "pat@example.com")

	require.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "gen-1", data["id"])
	assert.Equal(t, "$1,400.00", data["total"])
	assert.Equal(t, "/api/invoices/gen-1/pdf", data["pdf_url"])
	assert.EqualValues(t, 1, data["credits_left"])
	assert.EqualValues(t, 1234, data["number"])
	assert.Equal(t, "pat@example.com", ts.generations.lastInput.Email)
	assert.Equal(t, "Acme", ts.generations.lastInput.CompanyName)
}

func TestCreateInvoice_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no credits", entity.ErrInsufficientCredits, http.StatusPaymentRequired},
		{"empty input", entity.ErrEmptyInput, http.StatusBadRequest},
		{"llm down", fmt.Errorf("%w: timeout", entity.ErrExtractionFailed), http.StatusBadGateway},
		{"malformed", fmt.Errorf("%w: bad", entity.ErrMalformedResponse), http.StatusBadGateway},
		{"storage", fmt.Errorf("failed to store invoice: disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.generations.generateErr = tt.err

			req := httptest.NewRequest(http.MethodPost, "/api/invoices", strings.NewReader(`{"job_details":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			w := ts.do(t, req, "pat@example.com")

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.NotContains(t, resp.Error, "timeout")
		})
	}

	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, ts.do(t, req, "pat@example.com").Code)
}

func TestInvoiceDownloadsAreScopedToOwner(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", strings.NewReader(`{"job_details":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, ts.do(t, req, "pat@example.com").Code)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/invoices/gen-1/pdf", nil), "pat@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="Invoice.pdf"`)
	assert.Equal(t, "%PDF-1.3 fake", w.Body.String())

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/invoices/gen-1/preview", nil), "pat@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/invoices/gen-1/pdf", nil), "eve@example.com")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/invoices", nil), "pat@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Len(t, data["invoices"], 1)

	w = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/invoices/export", nil), "pat@example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Equal(t, "xlsx for pat@example.com", w.Body.String())
}

func TestTranscribe(t *testing.T) {
	ts := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "memo.wav")
	require.NoError(t, err)
	_, err = part.Write([]byte("RIFFdata"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/transcriptions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := ts.do(t, req, "pat@example.com")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "five lights")
	assert.Equal(t, []byte("RIFFdata"), ts.transcribe.got)

	req = httptest.NewRequest(http.MethodPost, "/api/transcriptions", strings.NewReader(""))
	w = ts.do(t, req, "pat@example.com")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// countingReader records how much of a request body the server consumed
type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func TestTranscribe_OversizedUploadStopsReading(t *testing.T) {
	config := DefaultServerConfig()
	config.MaxUploadBytes = 1 << 10
	ts := newTestServerWithConfig(t, config)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("audio", "long.wav")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{'a'}, 4<<20))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	total := buf.Len()

	body := &countingReader{r: &buf}
	req := httptest.NewRequest(http.MethodPost, "/api/transcriptions", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := ts.do(t, req, "pat@example.com")

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Less(t, body.n, total/2)
	assert.Nil(t, ts.transcribe.got)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, httptest.NewRequest(http.MethodGet, "/auth/login", nil), "")
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	var stateCk, verifierCk *http.Cookie
	for _, ck := range w.Result().Cookies() {
		switch ck.Name {
		case stateCookie:
			stateCk = ck
		case verifierCookie:
			verifierCk = ck
		}
	}
	require.NotNil(t, stateCk)
	require.NotNil(t, verifierCk)
	assert.True(t, stateCk.HttpOnly)

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good&state=wrong", nil)
		req.AddCookie(stateCk)
		req.AddCookie(verifierCk)
		w := ts.do(t, req, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad&state="+url.QueryEscape(state), nil)
		req.AddCookie(stateCk)
		req.AddCookie(verifierCk)
		w := ts.do(t, req, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=good&state="+url.QueryEscape(state), nil)
		req.AddCookie(stateCk)
		req.AddCookie(verifierCk)
		w := ts.do(t, req, "")
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		assert.Equal(t, "verifier-abc", ts.identity.gotVerifier)

		var session *http.Cookie
		for _, ck := range w.Result().Cookies() {
			if ck.Name == "qq_session" {
				session = ck
			}
		}
		require.NotNil(t, session)

		me := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		me.AddCookie(session)
		w = ts.do(t, me, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pat@example.com")
	})

	w = ts.do(t, httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "qq_session" {
			assert.True(t, ck.MaxAge < 0)
		}
	}
}

func TestStripeWebhook(t *testing.T) {
	ts := newTestServer(t)
	event := `{"id":"evt_1","type":"checkout.session.completed","email":"pat@example.com"}`

	post := func(body, sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(body))
		req.Header.Set("Stripe-Signature", sig)
		return ts.do(t, req, "")
	}

	w := post(event, "forged")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.credits.applied)

	w = post(event, "valid")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"credited":true`)

	w = post(event, "valid")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"credited":false`)
	assert.Len(t, ts.credits.applied, 1)

	w = post(`{"id":"evt_2","type":"invoice.paid"}`, "valid")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, ts.credits.applied, 1)
}
