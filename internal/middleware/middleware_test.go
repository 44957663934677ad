package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newRouter(guard gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", guard, func(c *gin.Context) {
		if id, ok := c.Get("userId"); ok {
			c.String(http.StatusOK, id.(primitive.ObjectID).Hex())
			return
		}
		c.String(http.StatusOK, "ok")
	})
	return r
}

func serve(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserAuth(t *testing.T) {
	r := newRouter(UserAuth(secret))
	userID := primitive.NewObjectID()
	exp := time.Now().Add(time.Hour).Unix()

	valid := sign(t, jwt.MapClaims{"userId": userID.Hex(), "exp": exp}, jwt.SigningMethodHS256, []byte(secret))
	rec := serve(r, "Bearer "+valid)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.Hex(), rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	tests := []struct {
		name   string
		header string
		body   string
	}{
		{"missing", "", "missing token"},
		{"bad scheme", "Token " + valid, "invalid token"},
		{"wrong secret", "Bearer " + sign(t, jwt.MapClaims{"userId": userID.Hex()}, jwt.SigningMethodHS256, []byte("other")), "unauthorized"},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"userId": userID.Hex(), "exp": time.Now().Add(-time.Hour).Unix()}, jwt.SigningMethodHS256, []byte(secret)), "unauthorized"},
		{"no user id", "Bearer " + sign(t, jwt.MapClaims{"exp": exp}, jwt.SigningMethodHS256, []byte(secret)), "unauthorized"},
		{"bad user id", "Bearer " + sign(t, jwt.MapClaims{"userId": "nope"}, jwt.SigningMethodHS256, []byte(secret)), "unauthorized"},
		{"unsigned", "Bearer " + sign(t, jwt.MapClaims{"userId": userID.Hex()}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType), "unauthorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestAdminAuth(t *testing.T) {
	r := newRouter(AdminAuth(secret))

	admin := sign(t, jwt.MapClaims{"role": "admin"}, jwt.SigningMethodHS256, []byte(secret))
	assert.Equal(t, http.StatusOK, serve(r, "Bearer "+admin).Code)

	customer := sign(t, jwt.MapClaims{"role": "customer"}, jwt.SigningMethodHS256, []byte(secret))
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+customer).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
