package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(productViews.WithLabelValues("Auction"))
	RecordProductView("Auction")
	assert.Equal(t, before+1, testutil.ToFloat64(productViews.WithLabelValues("Auction")))

	RecordFilterCache("hit")
	assert.GreaterOrEqual(t, testutil.ToFloat64(filterCacheLookups.WithLabelValues("hit")), 1.0)

	done := RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(httpInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(httpInFlight))
}

func TestHandlerExposesCatalogMetrics(t *testing.T) {
	RecordSearch("Retail")
	RecordHTTPRequest(http.MethodGet, "/api/v1/retail/search", http.StatusOK, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(body, `royalbid_catalog_searches_total{variant="Retail"}`))
	assert.True(t, strings.Contains(body, `royalbid_http_requests_total{method="GET",route="/api/v1/retail/search",status="200"}`))
}
