package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/domain"
	"invoicing/internal/metrics"
	"invoicing/internal/store"
	"invoicing/internal/testutil"
	"invoicing/internal/utils"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, userID uint) string {
	t.Helper()
	token, err := utils.GenerateJWT(userID, "secret", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware("secret"), func(c *gin.Context) {
		sc, ok := ScopeFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "global": sc.Global()})
	})

	for name, tc := range map[string]struct {
		header string
		status int
	}{
		"missing":   {"", http.StatusUnauthorized},
		"no bearer": {"Token abc", http.StatusUnauthorized},
		"bad token": {"Bearer abc", http.StatusUnauthorized},
		"valid":     {bearer(t, 7), http.StatusOK},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := serve(r, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"global":false}`, rec.Body.String())
			}
		})
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	gdb := testutil.DB(t)
	admin := testutil.User(t, gdb, "admin@test", domain.RoleAdmin)
	user := testutil.User(t, gdb, "user@test", domain.RoleUser)
	r := gin.New()
	r.GET("/admin", JWTAuthMiddleware("secret"), AdminOnlyMiddleware(store.NewUsers(gdb)), func(c *gin.Context) {
		sc, _ := ScopeFrom(c)
		c.JSON(http.StatusOK, gin.H{"global": sc.Global(), "actor": sc.ActorID()})
	})

	req := func(id uint) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", bearer(t, id))
		return req
	}

	rec := serve(r, req(admin.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"global":true`)

	assert.Equal(t, http.StatusForbidden, serve(r, req(user.ID)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req(9999)).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	r := gin.New()
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(r, req).Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusNoContent, serve(r, other).Code, "limits are per client")

	rl.Cleanup(time.Now().Add(time.Hour))
	assert.Empty(t, rl.limiters)
}

func TestRequestLoggerAndMetrics(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(), Metrics(metrics.New()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(r, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
