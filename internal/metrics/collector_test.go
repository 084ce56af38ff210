package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounter_Inc(t *testing.T) {
	c := NewMetricsCollector()
	ctr := c.Counter("test_total", "test counter")
	ctr.Inc()
	ctr.Inc()
	if ctr.Value() != 2 {
		t.Errorf("Value = %d", ctr.Value())
	}
}

func TestCounter_SameNameSameCounter(t *testing.T) {
	c := NewMetricsCollector()
	a := c.Counter("dup_total", "h")
	b := c.Counter("dup_total", "h")
	a.Inc()
	if b.Value() != 1 {
		t.Error("counters with the same name should share state")
	}
}

func TestHistogram_Observe(t *testing.T) {
	c := NewMetricsCollector()
	h := c.Histogram("lat_seconds", "latency", []float64{1, 5, 10})
	h.Observe(0.5)
	h.Observe(7)
	if h.count != 2 {
		t.Errorf("count = %d", h.count)
	}
	if h.sum != 7.5 {
		t.Errorf("sum = %f", h.sum)
	}
	if h.buckets[0].count != 1 {
		t.Errorf("le=1 bucket = %d", h.buckets[0].count)
	}
	if h.buckets[2].count != 2 {
		t.Errorf("le=10 bucket = %d", h.buckets[2].count)
	}
}

func TestHandler_Exposition(t *testing.T) {
	c := NewMetricsCollector()
	c.Counter("relay_total", "relays").Inc()
	c.Histogram("relay_seconds", "latency", []float64{1, 10}).Observe(2)

	rr := httptest.NewRecorder()
	c.Handler()(rr, httptest.NewRequest("GET", "/metrics", nil))

	body := rr.Body.String()
	for _, want := range []string{
		"tutorbot_uptime_seconds",
		"# TYPE relay_total counter",
		"relay_total 1",
		"# TYPE relay_seconds histogram",
		`relay_seconds_bucket{le="10"} 1`,
		"relay_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\n%s", want, body)
		}
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
}
