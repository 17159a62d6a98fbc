package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "How many HTTP requests processed, partitioned by status code, method and URL.",
	Type:        "counter_vec",
	Args:        []string{"code", "method", "url"}}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "The HTTP request latencies in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"code", "method", "url"},
}

var standardMetrics = []*Metric{reqCnt, reqDur}

const defaultMetricPath = "/metrics"

type Logger interface {
	Errorf(format string, v ...interface{})
}

// URLLabelMappingFn controls the cardinality of the "url" label; the default
// uses the raw request path, callers usually map it to the route template.
type URLLabelMappingFn func(c *gin.Context) string

// Prometheus holds the HTTP metrics and an optional dedicated listener.
type Prometheus struct {
	reqCnt *prometheus.CounterVec
	reqDur *prometheus.HistogramVec

	listenAddress string
	MetricsPath   string

	URLLabelFn URLLabelMappingFn

	logger Logger
}

type NewPrometheusOptions struct {
	Subsystem   string
	MetricsPath string
	URLLabelFn  URLLabelMappingFn
	Logger      Logger
}

func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		MetricsPath: options.MetricsPath,
		URLLabelFn:  options.URLLabelFn,
		logger:      options.Logger,
	}
	if p.MetricsPath == "" {
		p.MetricsPath = defaultMetricPath
	}
	if p.URLLabelFn == nil {
		p.URLLabelFn = func(c *gin.Context) string { return c.Request.URL.Path }
	}

	for _, def := range standardMetrics {
		metric := NewMetric(def, options.Subsystem)
		if err := prometheus.Register(metric); err != nil && p.logger != nil {
			p.logger.Errorf("%s could not be registered in Prometheus, err=%v", def.Name, err)
		}
		switch def {
		case reqCnt:
			p.reqCnt = metric.(*prometheus.CounterVec)
		case reqDur:
			p.reqDur = metric.(*prometheus.HistogramVec)
		}
		def.MetricCollector = metric
	}

	return p
}

// SetListenAddress exposes /metrics on its own address instead of the
// application engine.
func (p *Prometheus) SetListenAddress(address string) {
	p.listenAddress = address
}

// Use attaches the middleware to the engine and mounts the metrics endpoint.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
	if p.listenAddress != "" {
		r := gin.New()
		r.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
		go func() { _ = r.Run(p.listenAddress) }()
		return
	}
	e.GET(p.MetricsPath, gin.WrapH(promhttp.Handler()))
}

// HandlerFunc records request count and latency per route.
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		url := p.URLLabelFn(c)

		p.reqDur.WithLabelValues(status, c.Request.Method, url).Observe(float64(time.Since(start).Milliseconds()))
		p.reqCnt.WithLabelValues(status, c.Request.Method, url).Inc()
	}
}
