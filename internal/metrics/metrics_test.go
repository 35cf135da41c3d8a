package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestObserveReceipt(t *testing.T) {
	baseIssued := testutil.ToFloat64(receipts.WithLabelValues(OutcomeIssued))
	baseTickets := testutil.ToFloat64(ticketsIssued)

	ObserveReceipt(OutcomeIssued, 2)
	ObserveReceipt(OutcomeDuplicate, 0)

	if got := testutil.ToFloat64(receipts.WithLabelValues(OutcomeIssued)); got != baseIssued+1 {
		t.Fatalf("issued = %v, want %v", got, baseIssued+1)
	}
	if got := testutil.ToFloat64(ticketsIssued); got != baseTickets+2 {
		t.Fatalf("tickets = %v, want %v", got, baseTickets+2)
	}
}

func TestObserveHandler(t *testing.T) {
	ObserveHandler("tickets", "ok", 20*time.Millisecond)
	if n := testutil.CollectAndCount(handlerDuration); n == 0 {
		t.Fatal("no handler series collected")
	}
}

func TestHealthz(t *testing.T) {
	cases := []struct {
		name string
		db   Pinger
		want int
	}{
		{"no db", nil, http.StatusOK},
		{"healthy", fakePinger{}, http.StatusOK},
		{"down", fakePinger{err: errors.New("down")}, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewRouter(tc.db).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestServerServesMetrics(t *testing.T) {
	ObserveReceipt(OutcomeZero, 0)
	srv, err := Start("127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ticketbot_receipts_total") {
		t.Fatalf("metrics body missing receipts counter")
	}
}
