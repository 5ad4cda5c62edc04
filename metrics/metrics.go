// MODUL: metrics
// ZWECK: Prometheus-Metriken fuer die Embedding-Pipeline
// INPUT: Ereignisse aus dem Encoder (Requests, Latenzen)
// OUTPUT: /metrics Export im Prometheus-Format
// NEBENEFFEKTE: Registriert Collectors in einer Registry
// ABHAENGIGKEITEN: prometheus/client_golang, clip (MetricsRecorder)
// HINWEISE: Latenzen werden nur fuer erfolgreiche Requests beobachtet,
//           der Encoder ruft ObserveDuration bei Fehlern nicht auf

package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implementiert clip.MetricsRecorder mit Prometheus-Collectors
type Recorder struct {
	registry      *prometheus.Registry
	imageRequests prometheus.Counter
	textRequests  prometheus.Counter
	duration      *prometheus.HistogramVec
}

// NewRecorder erstellt eine eigene Registry mit allen Collectors
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: registry,
		imageRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "embed_image_requests_total",
			Help: "Total number of image embedding requests",
		}),
		textRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "embed_text_requests_total",
			Help: "Total number of text embedding requests",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "embed_duration_seconds",
			Help: "Time to generate embeddings",
		}, []string{"type"}),
	}

	registry.MustRegister(r.imageRequests, r.textRequests, r.duration)
	return r
}

// IncRequests zaehlt eingehende Requests pro Operations-Typ.
// Batch-Operationen zaehlen jedes Item einzeln.
func (r *Recorder) IncRequests(op string, n int) {
	if strings.HasPrefix(op, "image") {
		r.imageRequests.Add(float64(n))
	} else {
		r.textRequests.Add(float64(n))
	}
}

// ObserveDuration beobachtet die Latenz eines erfolgreichen Requests
func (r *Recorder) ObserveDuration(op string, seconds float64) {
	r.duration.WithLabelValues(op).Observe(seconds)
}

// Handler gibt den HTTP-Handler fuer den /metrics Export zurueck
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
