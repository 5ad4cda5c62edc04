// MODUL: metrics/metrics_test
// ZWECK: Tests fuer den Prometheus-Recorder
// ABHAENGIGKEITEN: testing, testify, client_golang/prometheus/testutil

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderZaehltRequests(t *testing.T) {
	r := NewRecorder()

	r.IncRequests("image", 1)
	r.IncRequests("image_batch", 5)
	r.IncRequests("text", 1)
	r.IncRequests("text_batch", 3)

	assert.Equal(t, float64(6), testutil.ToFloat64(r.imageRequests))
	assert.Equal(t, float64(4), testutil.ToFloat64(r.textRequests))
}

func TestRecorderBeobachtetLatenzProTyp(t *testing.T) {
	r := NewRecorder()

	r.ObserveDuration("image", 0.25)
	r.ObserveDuration("text", 0.01)
	r.ObserveDuration("text", 0.02)

	// Eine Histogramm-Serie pro Operations-Typ
	assert.Equal(t, 2, testutil.CollectAndCount(r.duration))
}

func TestRecorderHandlerExportiertMetriken(t *testing.T) {
	r := NewRecorder()
	r.IncRequests("image", 2)
	r.ObserveDuration("image", 0.1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "embed_image_requests_total 2")
	assert.Contains(t, body, "embed_text_requests_total 0")
	assert.Contains(t, body, `embed_duration_seconds_count{type="image"} 1`)
}
