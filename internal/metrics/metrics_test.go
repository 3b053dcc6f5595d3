package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncBackendSelected(backend.ModeLocal)
	m.IncBackendFallback()
	m.IncRecordSaved()
	m.IncRecordSaved()
	m.IncStatusUpdate(models.StatusApproved)
	m.IncAssigneeAdded()
	m.IncNotificationSent(models.NotificationReviewRequest)
	m.IncNotificationSent(models.NotificationReviewRequest)
	m.IncNotificationSent(models.NotificationReviewFeedback)
	m.ObserveFileUpload(2048)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendSelected.WithLabelValues("local")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BackendSelected.WithLabelValues("remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendFallbacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusUpdates.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssigneesAdded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("review_request")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues("review_feedback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesUploaded))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FileUploadBytes))
}

func TestNew_SeparateRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})

	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.IncRecordSaved()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "poreview_records_saved_total 1")
}
