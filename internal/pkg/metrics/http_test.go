package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrument_UsesRoutePattern(t *testing.T) {
	m := New(false)
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/performance/{user_id}/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/performance/"+id+"/metrics", nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/performance/{user_id}/metrics", http.MethodGet, "404"))
	assert.Equal(t, 2.0, got)
}

func TestInstrument_NilMetrics(t *testing.T) {
	var m *Metrics
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Instrument(next))
}
