package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"quote-service/internal/task"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCountsFinishedTasksOnly(t *testing.T) {
	m := New()
	start := time.Now()
	require.NoError(t, m.Record(context.Background(), task.Outcome{Kind: "quote", Status: task.StatusRunning, StartedAt: start}))
	require.NoError(t, m.Record(context.Background(), task.Outcome{Kind: "quote", Status: task.StatusPDFFailed, StartedAt: start, FinishedAt: start.Add(2 * time.Second)}))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.tasks.WithLabelValues("quote", task.StatusRunning)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("quote", task.StatusPDFFailed)))
}

func TestObservers(t *testing.T) {
	m := New()
	m.ObserveGraphQL("admin", "draftOrderCreate", 120*time.Millisecond, nil)
	m.ObserveGraphQL("admin", "draftOrderCreate", 80*time.Millisecond, errors.New("throttled"))
	m.ObserveUpload("ready", 3*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphqlRequests.WithLabelValues("admin", "draftOrderCreate", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("ready")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `shopify_graphql_requests_total{api="admin",operation="draftOrderCreate",result="ok"} 1`)
	assert.Contains(t, string(body), "pdf_upload_duration_seconds_count 1")
}
