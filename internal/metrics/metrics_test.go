package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(AnswerLookups.WithLabelValues("radio", "hit"))
	AnswerLookups.WithLabelValues("radio", "hit").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AnswerLookups.WithLabelValues("radio", "hit")))

	before = testutil.ToFloat64(Applications.WithLabelValues("skipped"))
	Applications.WithLabelValues("skipped").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Applications.WithLabelValues("skipped")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	FieldsFilled.WithLabelValues("textbox").Inc()
	StepsPerApplication.Observe(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"apply_agent_fields_filled_total",
		"apply_agent_steps_per_application",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
