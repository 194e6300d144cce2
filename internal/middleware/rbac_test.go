package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/acadsys/class-record-api/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, paramID string, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/resource", nil)
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	RBAC(allowed...)(c)
	return w.Code
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	code := performRBAC(t, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, "", string(models.RoleAdmin))
	require.Equal(t, http.StatusOK, code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	code := performRBAC(t, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher}, "", string(models.RoleAdmin))
	require.Equal(t, http.StatusForbidden, code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	code := performRBAC(t, nil, "", string(models.RoleAdmin))
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestRBACSelfAccess(t *testing.T) {
	code := performRBAC(t, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher}, "u1", string(models.RoleAdmin), "SELF")
	require.Equal(t, http.StatusOK, code)

	code = performRBAC(t, &models.JWTClaims{UserID: "u1", Role: models.RoleTeacher}, "u2", string(models.RoleAdmin), "SELF")
	require.Equal(t, http.StatusForbidden, code)
}
