package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/solarsys/apps/api/echo"
	"github.com/trezcool/solarsys/core/user"
)

func Test_health(t *testing.T) {
	app := setup(t)
	runHTTPTests(t, app, []httpTest{
		{name: "ok", method: http.MethodGet, path: "/health", wantData: []byte(`{"ok": true}`)},
	})
}

func Test_authApi_register(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Grace", "grace@test.io", user.RoleTeacher)

	t.Run("student registered", func(t *testing.T) {
		body := []byte(`{"name": " Ada ", "email": "Ada@Test.io", "password": "` + testPassword + `"}`)
		rec := app.do(http.MethodPost, "/api/auth/register", "", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.AuthResponse
		decodeBody(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.User.ID)
		assert.Equal(t, "Ada", resp.User.Name)
		assert.Equal(t, "ada@test.io", resp.User.Email)
		assert.Equal(t, user.RoleStudent, resp.User.Role)
		assert.NotContains(t, rec.Body.String(), "password")

		// progress is created with the account
		prog, err := app.progress.GetProgress(context.Background(), resp.User.ID)
		require.NoError(t, err)
		assert.Zero(t, prog.Points)
		assert.Zero(t, prog.Visited.Len())

		// welcome email
		sent := app.mail.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "ada@test.io", sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "Hi Ada")
		assert.Contains(t, sent[0].HTMLContent, "Ada")
	})

	t.Run("teacher registered", func(t *testing.T) {
		body := []byte(`{"name": "Marie", "email": "marie@test.io", "password": "` + testPassword + `", "role": "teacher"}`)
		rec := app.do(http.MethodPost, "/api/auth/register", "", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp echoapi.AuthResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, user.RoleTeacher, resp.User.Role)
	})

	required := "this field is required"
	runHTTPTests(t, app, []httpTest{
		{
			name: "duplicate email", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"name": "Grace", "email": "GRACE@test.io", "password": "` + testPassword + `"}`),
			wantCode: http.StatusConflict,
			wantData: marshalObj(t, httpErr{Error: "a user with this email already exists"}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/register", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{
				Error:  "name: " + required,
				Fields: map[string]string{"name": required, "email": required, "password": required},
			}),
		},
		{
			name: "unknown role", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"name": "Eve", "email": "eve@test.io", "password": "` + testPassword + `", "role": "admin"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{
				Error:  "role: role must be one of: student, teacher",
				Fields: map[string]string{"role": "role must be one of: student, teacher"},
			}),
		},
		{
			name: "short password", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"name": "Eve", "email": "eve@test.io", "password": "x1!"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{
				Error:  "password: password must contain at least 8 characters",
				Fields: map[string]string{"password": "password must contain at least 8 characters"},
			}),
		},
		{
			name: "password too similar", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{"name": "Evelyne", "email": "evelyne@test.io", "password": "evelyne1"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{
				Error:  "password: password cannot be similar to user attributes",
				Fields: map[string]string{"password": "password cannot be similar to user attributes"},
			}),
		},
		{
			name: "malformed body", method: http.MethodPost, path: "/api/auth/register", body: []byte(`{"name": `),
			wantCode: http.StatusBadRequest,
		},
	})
}

func Test_authApi_login(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Ada", "ada@test.io", user.RoleStudent)

	t.Run("logged in", func(t *testing.T) {
		body := []byte(`{"email": " ADA@test.io", "password": "` + testPassword + `"}`)
		rec := app.do(http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.AuthResponse
		decodeBody(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, usr.ID, resp.User.ID)
		assert.True(t, resp.User.LastLogin.Valid)

		// the token works
		rec = app.do(http.MethodGet, "/api/auth/me", resp.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	badCreds := marshalObj(t, httpErr{Error: "invalid email or password"})
	runHTTPTests(t, app, []httpTest{
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login",
			body:     []byte(`{"email": "ada@test.io", "password": "wrong-Pass1"}`),
			wantCode: http.StatusUnauthorized, wantData: badCreds,
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/api/auth/login",
			body:     []byte(`{"email": "nobody@test.io", "password": "` + testPassword + `"}`),
			wantCode: http.StatusUnauthorized, wantData: badCreds,
		},
		{
			name: "missing password", method: http.MethodPost, path: "/api/auth/login",
			body:     []byte(`{"email": "ada@test.io"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{
				Error:  "password: this field is required",
				Fields: map[string]string{"password": "this field is required"},
			}),
		},
	})
}

func Test_authApi_me(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Ada", "ada@test.io", user.RoleStudent)
	ghost := user.User{ID: "b5a3c1a0-8f5e-4a59-9a43-0f1c3f6f2d11", Email: "ghost@test.io", Role: user.RoleTeacher}

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "invalid token", method: http.MethodGet, path: "/api/auth/me", token: "not.a.token",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "unknown user", method: http.MethodGet, path: "/api/auth/me", token: app.token(t, ghost),
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "user not authenticated"}),
		},
		{
			name: "current user", method: http.MethodGet, path: "/api/auth/me", token: app.token(t, usr),
			wantData: marshalObj(t, echoapi.UserResponse{User: usr}),
		},
	})
}

func Test_authApi_refreshToken(t *testing.T) {
	app := setup(t)
	usr := app.createUser(t, "Ada", "ada@test.io", user.RoleStudent)

	now := time.Now()
	stale := app.JWT().UserClaims(usr)
	stale.StandardClaims = jwt.StandardClaims{
		Subject:   usr.ID,
		ExpiresAt: now.Add(time.Hour).Unix(),
		IssuedAt:  now.Unix(),
	}
	stale.OrigIssuedAt = now.Add(-2 * app.conf.Server.JWTRefreshExpirationDelta).Unix() // older than threshold
	staleToken, err := app.JWT().GenerateToken(stale)
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/api/auth/token-refresh", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Refresh period expired", method: http.MethodPost, path: "/api/auth/token-refresh", token: staleToken,
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "refresh has expired"}),
		},
	})

	t.Run("Token refreshed", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/auth/token-refresh", app.token(t, usr))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.TokenResponse
		decodeBody(t, rec, &resp)
		require.NotEmpty(t, resp.Token)
		assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/api/auth/me", resp.Token).Code)
	})
}
