// Package metrics holds the Prometheus counters of the review workflow.
package metrics

import (
	"net/http"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks backend selection and workflow activity.
type Metrics struct {
	BackendSelected   *prometheus.CounterVec
	BackendFallbacks  prometheus.Counter
	RecordsSaved      prometheus.Counter
	StatusUpdates     *prometheus.CounterVec
	AssigneesAdded    prometheus.Counter
	NotificationsSent *prometheus.CounterVec
	FilesUploaded     prometheus.Counter
	FileUploadBytes   prometheus.Histogram
}

// New registers all metrics with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendSelected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "poreview_backend_selected_total",
			Help: "Backend variant chosen at startup",
		}, []string{"mode"}),
		BackendFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "poreview_backend_fallbacks_total",
			Help: "Remote backends rejected during the startup probe",
		}),
		RecordsSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "poreview_records_saved_total",
			Help: "Records created",
		}),
		StatusUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "poreview_status_updates_total",
			Help: "Record status updates by target status",
		}, []string{"status"}),
		AssigneesAdded: f.NewCounter(prometheus.CounterOpts{
			Name: "poreview_assignees_added_total",
			Help: "Successful addAssignee calls",
		}),
		NotificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "poreview_notifications_sent_total",
			Help: "Notifications written by type",
		}, []string{"type"}),
		FilesUploaded: f.NewCounter(prometheus.CounterOpts{
			Name: "poreview_files_uploaded_total",
			Help: "Documents attached to records",
		}),
		FileUploadBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "poreview_file_upload_bytes",
			Help:    "Size of attached documents",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
	}
}

func (m *Metrics) IncBackendSelected(mode backend.Mode) {
	m.BackendSelected.WithLabelValues(string(mode)).Inc()
}

func (m *Metrics) IncBackendFallback() {
	m.BackendFallbacks.Inc()
}

func (m *Metrics) IncRecordSaved() {
	m.RecordsSaved.Inc()
}

func (m *Metrics) IncStatusUpdate(s models.Status) {
	m.StatusUpdates.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) IncAssigneeAdded() {
	m.AssigneesAdded.Inc()
}

func (m *Metrics) IncNotificationSent(t models.NotificationType) {
	m.NotificationsSent.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ObserveFileUpload(size int) {
	m.FilesUploaded.Inc()
	m.FileUploadBytes.Observe(float64(size))
}

// Handler exposes the metrics registered in g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
