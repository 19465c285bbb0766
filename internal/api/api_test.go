package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"invoicing/internal/domain"
	"invoicing/internal/mailer"
	"invoicing/internal/metrics"
	"invoicing/internal/middleware"
	"invoicing/internal/service"
	"invoicing/internal/testutil"
)

func init() { gin.SetMode(gin.TestMode) }

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, m mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return nil
}

type server struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	mail   *outbox
}

func newServer(t *testing.T, limiter *middleware.RateLimiter) *server {
	t.Helper()
	gdb := testutil.DB(t)
	mail := &outbox{}
	set := service.NewSet(service.Options{
		DB:        gdb,
		Mailer:    mail,
		Metrics:   metrics.New(),
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
		HashCost:  bcrypt.MinCost,
	})
	r, err := NewRouter(RouterConfig{
		Services:     set,
		Metrics:      metrics.New(),
		JWTSecret:    "test-secret",
		LoginLimiter: limiter,
	})
	require.NoError(t, err)
	return &server{t: t, db: gdb, router: r, mail: mail}
}

// do sends a JSON request and returns the recorder
func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// register creates an account and returns its id and token
func (s *server) register(email string) (uint, string) {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": email, "password": "secret1", "name": "Owner"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(s.t, w)
	user := body["user"].(map[string]any)
	return uint(user["id"].(float64)), body["token"].(string)
}

func (s *server) admin(email string) (uint, string) {
	id, token := s.register(email)
	require.NoError(s.t, s.db.Model(&domain.User{}).Where("id = ?", id).Update("role", domain.RoleAdmin).Error)
	return id, token
}

func (s *server) client(token, name string) uint {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/clients", token, gin.H{"name": name, "email": strings.ToLower(name) + "@client.test"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(s.t, w)["id"].(float64))
}

func (s *server) invoice(token string, clientID uint) uint {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/invoices", token, gin.H{
		"clientId": clientID,
		"dueDate":  time.Now().AddDate(0, 1, 0).Format(time.DateOnly),
		"taxRate":  "10",
		"items":    []gin.H{{"description": "Design", "quantity": "2", "unitPrice": "150"}},
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(s.t, w)["id"].(float64))
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil)
	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAuthFlow(t *testing.T) {
	s := newServer(t, nil)
	_, token := s.register("Owner@Example.com")

	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "owner@example.com", "password": "secret1", "name": "Other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w)["fields"].(map[string]any)["email"])

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "owner@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "owner@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["token"])

	w = s.do(http.MethodPut, "/api/auth/profile", token, gin.H{"companyName": "Acme Ltd"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "owner@example.com", me["email"])
	assert.Equal(t, "Acme Ltd", me["companyName"])
	assert.NotContains(t, me, "password")
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	s := newServer(t, nil)
	for _, path := range []string{"/api/clients", "/api/invoices", "/api/dashboard/stats", "/api/admin/users", "/api/auth/me"} {
		w := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := s.do(http.MethodGet, "/api/clients", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidationErrorsNameFields(t *testing.T) {
	s := newServer(t, nil)
	_, token := s.register("owner@example.com")

	w := s.do(http.MethodPost, "/api/clients", token, gin.H{"email": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Validation failed", body["error"])
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid email", fields["email"])

	clientID := s.client(token, "Globex")
	for field, item := range map[string]gin.H{
		"items[0].description": {"description": "", "quantity": "1", "unitPrice": "10"},
		"items[0].quantity":    {"description": "Design", "quantity": "0", "unitPrice": "10"},
		"items[0].unitPrice":   {"description": "Design", "quantity": "1", "unitPrice": "-1"},
	} {
		w = s.do(http.MethodPost, "/api/invoices", token, gin.H{"clientId": clientID, "dueDate": "2030-01-01", "items": []gin.H{item}})
		require.Equal(t, http.StatusBadRequest, w.Code, field)
		assert.Contains(t, decode(t, w)["fields"], field)
	}

	w = s.do(http.MethodGet, "/api/invoices/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/invoices?status=bogus", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrossTenantAccessIsNotFound(t *testing.T) {
	s := newServer(t, nil)
	_, alice := s.register("alice@example.com")
	_, bob := s.register("bob@example.com")
	clientID := s.client(alice, "Globex")
	invoiceID := s.invoice(alice, clientID)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, fmt.Sprintf("/api/invoices/%d", invoiceID)},
		{http.MethodDelete, fmt.Sprintf("/api/invoices/%d", invoiceID)},
		{http.MethodGet, fmt.Sprintf("/api/invoices/%d/pdf", invoiceID)},
		{http.MethodPost, fmt.Sprintf("/api/invoices/%d/send", invoiceID)},
		{http.MethodGet, fmt.Sprintf("/api/clients/%d", clientID)},
		{http.MethodDelete, fmt.Sprintf("/api/clients/%d", clientID)},
	} {
		w := s.do(tc.method, tc.path, bob, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.path)
	}

	// Bob cannot bill Alice's client either.
	w := s.do(http.MethodPost, "/api/invoices", bob, gin.H{
		"clientId": clientID,
		"dueDate":  "2030-01-01",
		"items":    []gin.H{{"description": "x", "quantity": "1", "unitPrice": "1"}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/invoices", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list)
}

func TestInvoiceLifecycle(t *testing.T) {
	s := newServer(t, nil)
	_, token := s.register("owner@example.com")
	clientID := s.client(token, "Globex")
	id := s.invoice(token, clientID)
	path := fmt.Sprintf("/api/invoices/%d", id)

	w := s.do(http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	inv := decode(t, w)
	assert.Equal(t, "DRAFT", inv["status"])
	assert.Equal(t, "300", inv["subtotal"])
	assert.Equal(t, "30", inv["taxAmount"])
	assert.Equal(t, "330", inv["total"])
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", time.Now().Year()), inv["invoiceNumber"])

	w = s.do(http.MethodPut, path, token, gin.H{"notes": "Net 30"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, path+"/send", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Invoice sent successfully", decode(t, w)["message"])
	require.Len(t, s.mail.sent, 1)
	assert.Equal(t, "globex@client.test", s.mail.sent[0].To)

	w = s.do(http.MethodPut, path, token, gin.H{"notes": "too late"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path+"/remind", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Reminder sent successfully", decode(t, w)["message"])

	w = s.do(http.MethodPatch, path+"/status", token, gin.H{"status": "PAID"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PAID", decode(t, w)["status"])

	w = s.do(http.MethodPost, path+"/remind", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, s.mail.sent, 2)

	w = s.do(http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/invoices?status=paid", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = s.do(http.MethodGet, "/api/dashboard/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.Equal(t, "330", stats["totalRevenue"])
	assert.EqualValues(t, 1, stats["paidInvoices"])

	w = s.do(http.MethodGet, "/api/dashboard/chart?months=3", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var points []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points, 3)
	assert.Equal(t, "330", points[2]["revenue"])

	w = s.do(http.MethodGet, "/api/dashboard/chart?months=zero", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDraftAndClient(t *testing.T) {
	s := newServer(t, nil)
	_, token := s.register("owner@example.com")
	clientID := s.client(token, "Globex")
	id := s.invoice(token, clientID)

	w := s.do(http.MethodDelete, fmt.Sprintf("/api/invoices/%d", id), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, fmt.Sprintf("/api/invoices/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/clients/%d", clientID), token, gin.H{"name": "Globex Corp", "email": "billing@globex.test"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Globex Corp", decode(t, w)["name"])

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/clients/%d", clientID), token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInvoicePDF(t *testing.T) {
	s := newServer(t, nil)
	_, token := s.register("owner@example.com")
	id := s.invoice(token, s.client(token, "Globex"))

	w := s.do(http.MethodGet, fmt.Sprintf("/api/invoices/%d/pdf", id), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	want := fmt.Sprintf(`attachment; filename="INV-%d-0001.pdf"`, time.Now().Year())
	assert.Equal(t, want, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestAdminRoutes(t *testing.T) {
	s := newServer(t, nil)
	adminID, adminToken := s.admin("root@example.com")
	userID, userToken := s.register("owner@example.com")
	s.invoice(userToken, s.client(userToken, "Globex"))

	w := s.do(http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	w = s.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["totalUsers"])

	w = s.do(http.MethodGet, fmt.Sprintf("/api/admin/invoices?userId=%d", userID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var invoices []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invoices))
	require.Len(t, invoices, 1)
	assert.Equal(t, "owner@example.com", invoices[0]["user"].(map[string]any)["email"])

	w = s.do(http.MethodGet, "/api/admin/clients", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	self := fmt.Sprintf("/api/admin/users/%d", adminID)
	w = s.do(http.MethodPut, self, adminToken, gin.H{"role": "USER"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot change your own role", decode(t, w)["error"])
	w = s.do(http.MethodDelete, self, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete your own account", decode(t, w)["error"])

	other := fmt.Sprintf("/api/admin/users/%d", userID)
	w = s.do(http.MethodPut, other, adminToken, gin.H{"role": "OWNER"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPut, other, adminToken, gin.H{"companyName": "Initech"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Initech", decode(t, w)["companyName"])

	w = s.do(http.MethodDelete, other, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, other, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// The deleted user's token no longer resolves to an account.
	w = s.do(http.MethodGet, "/api/auth/me", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newServer(t, middleware.NewRateLimiter(2))
	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "whatever"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@example.com", "password": "whatever"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t, nil)
	s.do(http.MethodGet, "/health", "", nil)
	w := s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `invoicing_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
