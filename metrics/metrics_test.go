package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"growledger-go/events"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestListenerCountsLedgerEvents(t *testing.T) {
	l := Listener()
	require.NoError(t, l.Handle(context.Background(), events.Event{
		Type:   events.ReferralBonusPaid,
		Amount: decimal.NewFromInt(80),
		Labels: map[string]string{"trigger": "plan_purchase", "tier": "Executive"},
	}))
	require.NoError(t, l.Handle(context.Background(), events.Event{
		Type:   events.TransactionDecided,
		Amount: decimal.NewFromInt(-100),
	}))

	body := scrape(t)
	assert.Contains(t, body, `growledger_ledger_events_total{type="referral.bonus_paid"}`)
	assert.Contains(t, body, `growledger_referral_bonuses_total{tier="Executive",trigger="plan_purchase"} 1`)
	assert.Contains(t, body, `growledger_ledger_volume_inr_total{type="transaction.decided"} 100`)
}

func TestInstrumentHandlerUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/api/plans/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/plans/abc-123", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	RecordSweep(20*time.Millisecond, true)

	body := scrape(t)
	assert.Contains(t, body, `growledger_http_requests_total{method="GET",path="/api/plans/{id}",status="418"} 1`)
	assert.Contains(t, body, `growledger_sweep_runs_total{success="true"} 1`)
}
