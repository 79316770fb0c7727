package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/malla/core/academic"
	"github.com/trezcool/malla/core/user"
	"github.com/trezcool/malla/tests"
)

func parseToken(t *testing.T, env testEnv, token string) *Claims {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(env.conf.SecretKey), nil
	})
	require.NoError(t, err)
	return claims
}

func Test_authApi_login(t *testing.T) {
	env := setup(t)
	failed := marshallObj(t, httpErr{Error: "authentication failed"})

	runHTTPTests(t, env, []httpTest{
		{
			name: "empty body", method: http.MethodPost, path: "/v1/auth/login", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login",
			body: []byte(`{"email": "ana@alumnos.ucn.cl", "password": "nope"}`), wantCode: http.StatusBadRequest, wantData: failed,
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/v1/auth/login",
			body: []byte(`{"email": "zoe@alumnos.ucn.cl", "password": "secreta"}`), wantCode: http.StatusBadRequest, wantData: failed,
		},
	})

	t.Run("success", func(t *testing.T) {
		rec := env.serve(httpTest{
			method: http.MethodPost, path: "/v1/auth/login",
			body: []byte(`{"email": " Ana@Alumnos.ucn.cl ", "password": "secreta"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp StudentLoginResponse
		unmarshall(t, rec, &resp)
		assert.Equal(t, testRUT, resp.RUT)
		assert.Equal(t, testStudent().Careers, resp.Careers)

		claims := parseToken(t, env, resp.Token)
		assert.True(t, claims.IsStudent)
		assert.False(t, claims.IsAdmin)
		assert.Equal(t, testRUT, claims.Subject)
		assert.Equal(t, testEmail, claims.Email)
	})

	t.Run("academic API down", func(t *testing.T) {
		env.academic.Err = academic.ErrUnavailable
		defer func() { env.academic.Err = nil }()

		rec := env.serve(httpTest{
			method: http.MethodPost, path: "/v1/auth/login",
			body: []byte(`{"email": "ana@alumnos.ucn.cl", "password": "secreta"}`),
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func Test_authApi_refreshToken(t *testing.T) {
	env := setup(t)
	active := testutil.CreateUser(t, env.usrRepo, "Admin", "admin", "admin@ucn.cl", "", []string{user.RoleAdmin}, true)
	inactive := testutil.CreateUser(t, env.usrRepo, "Old Admin", "oldadmin", "old@ucn.cl", "", []string{user.RoleAdmin}, false)

	expiredClaims := GetStudentClaims(env.conf, testStudent(), testEmail, time.Now().Add(-3*time.Hour).Unix())
	expired, err := GenerateToken(env.conf, expiredClaims)
	require.NoError(t, err)

	runHTTPTests(t, env, []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/v1/auth/token-refresh",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken),
		},
		{
			name: "refresh expired", method: http.MethodPost, path: "/v1/auth/token-refresh", token: expired,
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{
			name: "deactivated user", method: http.MethodPost, path: "/v1/auth/token-refresh", token: getToken(t, env.conf, inactive),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	t.Run("student", func(t *testing.T) {
		orig := GetStudentClaims(env.conf, testStudent(), testEmail, time.Now().Add(-time.Hour).Unix())
		token, err := GenerateToken(env.conf, orig)
		require.NoError(t, err)

		rec := env.serve(httpTest{method: http.MethodPost, path: "/v1/auth/token-refresh", token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp LoginResponse
		unmarshall(t, rec, &resp)

		claims := parseToken(t, env, resp.Token)
		assert.True(t, claims.IsStudent)
		assert.Equal(t, orig.OrigIssuedAt, claims.OrigIssuedAt)
		assert.Equal(t, testStudent().Careers, claims.Careers)
	})

	t.Run("staff", func(t *testing.T) {
		rec := env.serve(httpTest{method: http.MethodPost, path: "/v1/auth/token-refresh", token: getToken(t, env.conf, active)})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp LoginResponse
		unmarshall(t, rec, &resp)

		claims := parseToken(t, env, resp.Token)
		assert.True(t, claims.IsAdmin)
		assert.Equal(t, active.ID, claims.Subject)
	})
}
