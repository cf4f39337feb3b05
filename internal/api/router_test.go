package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backoffice/admin-api/internal/api/handler"
	"github.com/backoffice/admin-api/internal/core/domain"
	"github.com/backoffice/admin-api/internal/core/service"
	"github.com/backoffice/admin-api/internal/infrastructure/auth"
	"github.com/backoffice/admin-api/internal/pkg/clock"
)

const (
	testSecret    = "router-test-secret-0123456789abcdef"
	adminEmail    = "root@x.com"
	adminPassword = "root-password-1"
)

// --- in-memory collaborators ---

type memCredentials struct {
	mu    sync.Mutex
	users map[string]*domain.Identity
}

func (m *memCredentials) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memCredentials) Insert(_ context.Context, identity *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[identity.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	clone := *identity
	m.users[identity.Email] = &clone
	return nil
}

type memProducts struct {
	mu     sync.Mutex
	byID   map[int64]*domain.Product
	nextID int64
}

func (m *memProducts) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	clone := *p
	m.byID[p.ID] = &clone
	return nil
}

func (m *memProducts) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memProducts) List(context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Product, 0, len(m.byID))
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.byID[id]; ok {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memProducts) Update(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return domain.ErrProductNotFound
	}
	clone := *p
	m.byID[p.ID] = &clone
	return nil
}

func (m *memProducts) Delete(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	delete(m.byID, id)
	return p, nil
}

type memImages struct{}

func (memImages) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (memImages) Delete(context.Context, string) error { return nil }

type memJanitor struct{ queued []string }

func (j *memJanitor) Enqueue(key string) { j.queued = append(j.queued, key) }

// --- harness ---

type testServer struct {
	t     *testing.T
	http  http.Handler
	clock *clock.Manual
}

func newTestServer(t *testing.T, openRegistration bool) *testServer {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	issuer, err := auth.NewJWTIssuer(testSecret, time.Hour, clk)
	require.NoError(t, err)

	credentials, err := service.NewCredentialService(
		&memCredentials{users: map[string]*domain.Identity{}},
		auth.NewBcryptHasher(4), clk, domain.RoleViewer, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, credentials.EnsureAdmin(context.Background(), adminEmail, adminPassword))

	products := service.NewProductService(
		&memProducts{byID: map[int64]*domain.Product{}}, memImages{}, &memJanitor{}, clk, zerolog.Nop())

	e := NewRouter(Deps{
		Credentials:           credentials,
		Tokens:                issuer,
		Products:              products,
		Health:                []handler.Dependency{{Name: "memory", Pinger: handler.PingFunc(func(context.Context) error { return nil })}},
		AllowOpenRegistration: openRegistration,
		Logger:                zerolog.Nop(),
	})
	return &testServer{t: t, http: e, clock: clk}
}

func (s *testServer) do(method, path, token, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	s.t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.http.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(path, token, body string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, path, token, "application/json", bytes.NewBufferString(body))
}

func (s *testServer) createUser(email, password string) string {
	s.t.Helper()
	rec := s.postJSON("/access/createUser", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return tokenFrom(s.t, rec)
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	rec := s.postJSON("/access/loginAccess", "", `{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return tokenFrom(s.t, rec)
}

func tokenFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

// --- scenarios ---

func TestRouter_AccessScenario(t *testing.T) {
	s := newTestServer(t, true)

	token := s.createUser("a@x.com", "Secret1")

	rec := s.do(http.MethodGet, "/access/me", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"viewer"`)

	rec = s.do(http.MethodGet, "/access/me", token+"x", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", errorMessage(t, rec))

	rec = s.postJSON("/access/createUser", "", `{"email":"A@X.com","password":"Other1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.postJSON("/access/loginAccess", "", `{"email":"a@x.com","password":"Secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret_hash")

	s.clock.Advance(time.Hour + time.Second)
	rec = s.do(http.MethodGet, "/access/me", token, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", errorMessage(t, rec))
}

func TestRouter_LoginFailuresLookTheSame(t *testing.T) {
	s := newTestServer(t, true)
	s.createUser("a@x.com", "Secret1")

	wrong := s.postJSON("/access/loginAccess", "", `{"email":"a@x.com","password":"nope"}`)
	unknown := s.postJSON("/access/loginAccess", "", `{"email":"ghost@x.com","password":"Secret1"}`)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestRouter_GuardRejections(t *testing.T) {
	s := newTestServer(t, true)

	headers := []string{"", "Bearer", "Basic abc", "Bearer not.a.jwt"}
	for _, h := range headers {
		req := httptest.NewRequest(http.MethodGet, "/access/me", nil)
		if h != "" {
			req.Header.Set("Authorization", h)
		}
		rec := httptest.NewRecorder()
		s.http.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", h)
	}
}

func TestRouter_OpenRegistrationCannotEscalate(t *testing.T) {
	s := newTestServer(t, true)

	rec := s.postJSON("/access/createUser", "", `{"email":"mallory@x.com","password":"Secret1","role":"admin"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	token := s.createUser("mallory@x.com", "Secret1")
	rec = s.do(http.MethodGet, "/access/me", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"viewer"`)

	body, ct := productForm(t, `{"name":"Lamp","price":3}`)
	rec = s.do(http.MethodPost, "/product/create-product", token, ct, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_ClosedRegistration(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.postJSON("/access/createUser", "", `{"email":"a@x.com","password":"Secret1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	admin := s.login(adminEmail, adminPassword)
	rec = s.postJSON("/access/createUser", admin, `{"email":"a@x.com","password":"Secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"viewer"`)

	viewer := s.login("a@x.com", "Secret1")
	rec = s.postJSON("/access/createUser", viewer, `{"email":"b@x.com","password":"Secret1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.postJSON("/access/createUser", admin, `{"email":"ops@x.com","password":"Secret1","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}

func productForm(t *testing.T, data string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("data", data))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="lamp.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nrest"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestRouter_ProductLifecycle(t *testing.T) {
	s := newTestServer(t, false)
	token := s.login(adminEmail, adminPassword)

	rec := s.do(http.MethodGet, "/product", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/product", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	body, ct := productForm(t, `{"name":"Lamp","price":19.5,"stock":2}`)
	rec = s.do(http.MethodPost, "/product/create-product", token, ct, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"id":1`)
	assert.Contains(t, rec.Body.String(), "https://cdn.test/products/")

	rec = s.do(http.MethodGet, "/product/1", token, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/product/abc", token, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = productForm(t, `{"name":"Lamp","price":0}`)
	rec = s.do(http.MethodPut, "/product/1", token, ct, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, ct = productForm(t, `{"name":"Lamp v2","price":21}`)
	rec = s.do(http.MethodPut, "/product/1", token, ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Lamp v2"`)

	rec = s.do(http.MethodDelete, "/product/1", token, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/product/1", token, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", errorMessage(t, rec))
}

func TestRouter_ProductWritesRequireAdmin(t *testing.T) {
	// Same secret and start time as the server's issuer.
	clk := clock.NewManual(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	issuer, err := auth.NewJWTIssuer(testSecret, time.Hour, clk)
	require.NoError(t, err)

	s := newTestServer(t, true)
	viewer, err := issuer.Issue(&domain.Identity{ID: "v1", Role: domain.RoleViewer})
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/product", viewer.Value, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	body, ct := productForm(t, `{"name":"Lamp","price":3}`)
	rec = s.do(http.MethodPost, "/product/create-product", viewer.Value, ct, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, "/product/1", viewer.Value, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, true)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/ready", "", "", nil).Code)
}
