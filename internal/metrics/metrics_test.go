package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMatch(t *testing.T) {
	before := testutil.ToFloat64(MatchRequestsTotal.WithLabelValues(KindPartners, "ok"))

	RecordMatch(KindPartners, "ok", 3, 2*time.Millisecond)

	after := testutil.ToFloat64(MatchRequestsTotal.WithLabelValues(KindPartners, "ok"))
	if after != before+1 {
		t.Errorf("requests counter = %v, want %v", after, before+1)
	}
}

func TestRecordMatch_ErrorSkipsResults(t *testing.T) {
	before := testutil.CollectAndCount(MatchResults)

	RecordMatch(KindResources, "error", 0, time.Millisecond)

	// No new "resources" series is created for failed calls.
	if got := testutil.CollectAndCount(MatchResults); got != before {
		t.Errorf("results series = %d, want %d", got, before)
	}
}

func TestRecordHistoryWrite(t *testing.T) {
	before := testutil.ToFloat64(HistoryWritesTotal.WithLabelValues("failed"))

	RecordHistoryWrite("failed")
	RecordHistoryWrite("failed")

	if got := testutil.ToFloat64(HistoryWritesTotal.WithLabelValues("failed")); got != before+2 {
		t.Errorf("history counter = %v, want %v", got, before+2)
	}
}

func TestMetricsLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint: %v", err)
	}
	for _, p := range problems {
		t.Errorf("metric %s: %s", p.Metric, p.Text)
	}
}
