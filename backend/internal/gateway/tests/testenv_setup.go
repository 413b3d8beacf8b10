package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"schooladmin/backend/internal/gateway"
	"schooladmin/backend/internal/notify"
	"schooladmin/backend/internal/shared"
	"schooladmin/backend/internal/store"
	"schooladmin/backend/internal/store/memstore"
)

// TestEnv holds all the running components for the test
type TestEnv struct {
	Router   http.Handler
	Store    *store.Store
	Services *gateway.Services
	Mailer   *notify.ConsoleMailer
	Dispatch *notify.Dispatcher
}

// Response is the decoded JSON envelope
type Response struct {
	Code int
	Body map[string]interface{}
	Raw  string
}

// Data returns the "data" member as an object
func (r Response) Data() map[string]interface{} {
	m, _ := r.Body["data"].(map[string]interface{})
	return m
}

// List returns the "data" member as an array
func (r Response) List() []interface{} {
	l, _ := r.Body["data"].([]interface{})
	return l
}

// setupGatewayTestEnv builds the whole API over the in-memory store
func setupGatewayTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	st := memstore.New()
	mailer := notify.NewConsoleMailer(zerolog.Nop())
	n, err := notify.NewTemplateNotifier(mailer, notify.Defaults{SchoolName: "Test School", AppURL: "http://app"})
	require.NoError(t, err)
	disp := notify.NewDispatcher(n, notify.DispatcherOptions{MaxAttempts: 1, Logger: zerolog.Nop()})

	cfg := &shared.ServiceConfig{
		ServiceName: "api-test",
		StoreDriver: shared.StoreDriverMemory,
		Security: shared.SecurityConfig{
			JWTSecret:            "test-secret",
			JWTIssuer:            "school-admin-test",
			JWTExpirationHours:   1,
			BCryptCost:           bcrypt.MinCost,
			OTPTTL:               10 * time.Minute,
			AdminRegistrationKey: "bootstrap-key",
		},
		Mail: shared.MailConfig{
			AdminEmail: "admissions@school.edu",
			AppURL:     "http://app",
		},
		CORS: shared.CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}

	svc := gateway.NewServices(st, disp, cfg)
	t.Cleanup(disp.Wait)

	return &TestEnv{
		Router:   gateway.SetupRoutes(svc, cfg.CORS),
		Store:    st,
		Services: svc,
		Mailer:   mailer,
		Dispatch: disp,
	}
}

// Do sends a request through the router. body may be nil.
func (env *TestEnv) Do(t *testing.T, method, path string, body interface{}, token string) Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)

	resp := Response{Code: rr.Code, Raw: rr.Body.String()}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp.Body)
	return resp
}

// Templates drains pending notifications and returns the sent template names
func (env *TestEnv) Templates() []string {
	env.Dispatch.Wait()
	var out []string
	for _, m := range env.Mailer.Sent() {
		out = append(out, m.Template)
	}
	return out
}

// CreateStudent stores a student with password "password1" and returns it with a token
func (env *TestEnv) CreateStudent(t *testing.T, n int) (*shared.Student, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	s := &shared.Student{
		StudentID:    fmt.Sprintf("STU%03d", n),
		FirstName:    "Student",
		LastName:     fmt.Sprintf("Number%d", n),
		Email:        fmt.Sprintf("student%d@example.com", n),
		Phone:        fmt.Sprintf("555-%04d", n),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	require.NoError(t, env.Store.Students.Create(context.Background(), s))

	token, _, err := env.Services.Auth.Tokens().Issue(s.ID.Hex(), s.Email, shared.RoleStudent)
	require.NoError(t, err)
	return s, token
}

// AdminToken stores an administrator account and returns a token for it
func (env *TestEnv) AdminToken(t *testing.T) string {
	t.Helper()

	a := &shared.Admin{Name: "Root", Email: "root@school.edu", CreatedAt: time.Now()}
	require.NoError(t, env.Store.Admins.Create(context.Background(), a))

	token, _, err := env.Services.Auth.Tokens().Issue(a.ID.Hex(), a.Email, shared.RoleAdmin)
	require.NoError(t, err)
	return token
}

