package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	done := m.Begin()
	done(http.MethodPost, "/api/invoices", http.StatusCreated)
	m.InvoiceEvent("created")
	m.InvoiceEvent("created")
	m.EmailDelivery("invoice", true)
	m.MarkedOverdue("cron", 3)
	m.MarkedOverdue("cron", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/invoices", "201")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.invoices.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emails.WithLabelValues("invoice", "true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sweeps.WithLabelValues("cron")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.InvoiceEvent("paid")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `invoicing_invoices_events_total{event="paid"} 1`)
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Begin()("GET", "/", 200)
	m.InvoiceEvent("created")
	m.EmailDelivery("reminder", false)
	m.MarkedOverdue("cli", 1)
}
