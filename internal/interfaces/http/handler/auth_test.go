package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authapp "github.com/smartspace/backend/internal/application/auth"
	"github.com/smartspace/backend/internal/domain/workspace"
)

func TestAuthHandler_Login(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": demoAdminEmail, "password": demoPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decodeData[authapp.TokenResult](t, w)
	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, workspace.DemoCompanyID, result.User.CompanyID)
	assert.Contains(t, result.User.Permissions, workspace.PermissionAdmin)
}

func TestAuthHandler_LoginRejects(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name       string
		body       gin.H
		wantStatus int
		wantCode   string
	}{
		{"wrong password", gin.H{"email": demoAdminEmail, "password": "nope"}, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS"},
		{"unknown email", gin.H{"email": "ghost@demo.com", "password": demoPassword}, http.StatusUnauthorized, "ERR_INVALID_CREDENTIALS"},
		{"malformed email", gin.H{"email": "admin", "password": demoPassword}, http.StatusBadRequest, "ERR_VALIDATION"},
		{"missing password", gin.H{"email": demoAdminEmail}, http.StatusBadRequest, "ERR_VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestAuthHandler_RefreshIssuesNewPair(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": demoAdminEmail, "password": demoPassword})
	require.Equal(t, http.StatusOK, w.Code)
	login := decodeData[authapp.TokenResult](t, w)

	w = f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decodeData[authapp.TokenResult](t, w)
	assert.NotEmpty(t, refreshed.AccessToken)

	// an access token is not accepted as a refresh token
	w = f.do(t, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": login.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_MeAndLogout(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t)

	w := f.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decodeData[authapp.UserInfo](t, w)
	assert.Equal(t, "emp_admin", me.ID)
	assert.Equal(t, demoAdminEmail, me.Email)

	w = f.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ERR_TOKEN_REVOKED", errorCode(t, w))
}

func TestAuthHandler_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
