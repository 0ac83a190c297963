package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve(t *testing.T) {
	m := New(false)
	m.Observe("place_bet", ResultOK, time.Millisecond)
	m.Observe("place_bet", ResultOK, time.Millisecond)
	m.Observe("place_bet", "stale_read", time.Millisecond)

	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("place_bet", ResultOK)); got != 2 {
		t.Fatalf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Transitions.WithLabelValues("place_bet", "stale_read")); got != 1 {
		t.Fatalf("stale_read count = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.ApplyLatency); n != 1 {
		t.Fatalf("latency series = %d, want 1", n)
	}
}

func TestGauges(t *testing.T) {
	m := New(false)
	m.Bets.Set(3)
	m.QueueDepth.Inc()
	if got := testutil.ToFloat64(m.Bets); got != 3 {
		t.Fatalf("bets = %v", got)
	}
	if got := testutil.ToFloat64(m.QueueDepth); got != 1 {
		t.Fatalf("queue depth = %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New(true)
	m.Observe("initialize", ResultOK, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	for _, want := range []string{
		`zkbet_transitions_total{op="initialize",result="ok"} 1`,
		"zkbet_bets_total",
		"go_goroutines",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(false), New(false)
	a.Bets.Set(5)
	if testutil.ToFloat64(b.Bets) != 0 {
		t.Fatal("registries share state")
	}
}
