package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/health", "200"))
	RecordAPIRequest("GET", "/api/health", 200, 3*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/health", "200"))
	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestRecordExternalLookup(t *testing.T) {
	RecordExternalLookup("search", time.Second, nil)
	RecordExternalLookup("search", time.Second, errors.New("timeout"))

	if n := testutil.CollectAndCount(ExternalLookupDuration); n < 2 {
		t.Errorf("series = %d, want at least success and error", n)
	}
}
