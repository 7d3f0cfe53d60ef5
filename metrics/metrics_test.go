package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/account-registry/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver(t *testing.T) {
	m, err := New("test", "127.0.0.1:0")
	require.NoError(t, err)

	m.AccountCreated()
	m.AccountCreated()
	m.CallExecuted(true)
	m.CallExecuted(false)
	m.CallExecuted(false)
	m.RequestReverted("execute", interfaces.ErrUnauthorized)
	m.RequestReverted("transfer", errors.New("insufficient funds"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.accountsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsExecuted.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.callsExecuted.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsReverted.WithLabelValues("execute", "Unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsReverted.WithLabelValues("transfer", "other")))
}

func TestMetricsEndpoint(t *testing.T) {
	m, err := New("registry", "127.0.0.1:0")
	require.NoError(t, err)

	m.AccountCreated()
	m.ObserveRequest(http.MethodPost, "/api/accounts", http.StatusCreated, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "registry_accounts_created_total 1"), body)
	assert.Contains(t, body, `registry_http_requests_total{method="POST",route="/api/accounts",status="201"} 1`)
}
