package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "error", StatusClass(0))
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "3xx", StatusClass(302))
	assert.Equal(t, "4xx", StatusClass(401))
	assert.Equal(t, "5xx", StatusClass(503))
}

func TestSubmissionsTotal(t *testing.T) {
	before := testutil.ToFloat64(SubmissionsTotal.WithLabelValues("success"))
	SubmissionsTotal.WithLabelValues("success").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SubmissionsTotal.WithLabelValues("success")))
}
