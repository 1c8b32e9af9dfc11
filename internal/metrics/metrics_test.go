package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPoll(t *testing.T) {
	before := testutil.ToFloat64(polls.WithLabelValues("ok"))
	RecordPoll("ok", 0.2)
	RecordPoll("ok", 0)
	assert.Equal(t, before+2, testutil.ToFloat64(polls.WithLabelValues("ok")))
}

func TestInFlightGauge(t *testing.T) {
	base := testutil.ToFloat64(pollInFlight)
	PollStarted()
	PollStarted()
	PollFinished()
	assert.Equal(t, base+1, testutil.ToFloat64(pollInFlight))
	PollFinished()
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordCalculation("ok")
	RecordSubmission("native", "ok")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "crossapp_wallet_transfer_max_sendable_total")
	assert.Contains(t, string(body), `crossapp_wallet_transfer_submissions_total{kind="native",status="ok"}`)
}
