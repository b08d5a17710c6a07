package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/nutrimatch/backend/internal/types"
)

type stubValidator map[string]*types.TokenClaims

func (s stubValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func authRouter(v TokenValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(v), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": id, "username": c.GetString(ContextUsername)})
	})
	r.GET("/admin", AuthMiddleware(v), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func request(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	r := authRouter(stubValidator{
		"good": {UserID: userID, Username: "ana", Role: types.RoleUser},
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"extra parts", "Bearer good extra", http.StatusUnauthorized},
		{"bad token", "Bearer bad", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := request(r, "/me", tt.header)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, rr.Body.String(), userID.String())
				assert.Contains(t, rr.Body.String(), "ana")
			} else {
				assert.Contains(t, rr.Body.String(), `"error"`)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	r := authRouter(stubValidator{
		"user":  {UserID: uuid.New(), Role: types.RoleUser},
		"admin": {UserID: uuid.New(), Role: types.RoleAdmin},
	})

	assert.Equal(t, http.StatusForbidden, request(r, "/admin", "Bearer user").Code)
	assert.Equal(t, http.StatusNoContent, request(r, "/admin", "Bearer admin").Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, "/admin", "").Code)
}
