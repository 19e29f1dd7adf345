// Package metrics exposes Prometheus instrumentation for the quiz service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeCorrect   = "correct"
	OutcomeIncorrect = "incorrect"
	OutcomeDuplicate = "duplicate"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

// Login outcomes.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
	LoginError   = "error"
)

// Recorder is the instrumentation surface used by services and the realtime hub.
type Recorder interface {
	RecordSubmission(outcome string)
	RecordLogin(outcome string)
	RecordRegistration(success bool)
	RecordBroadcast(recipients int, dropped int)
	SetSubscribers(n int)
}

// Collector records metrics into a Prometheus registry.
type Collector struct {
	submissions   *prometheus.CounterVec
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	broadcasts    prometheus.Counter
	deliveries    prometheus.Counter
	dropped       prometheus.Counter
	subscribers   prometheus.Gauge
	httpDuration  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizboard_submissions_total",
			Help: "Answer submissions by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizboard_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizboard_registrations_total",
			Help: "Registration attempts by result.",
		}, []string{"result"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizboard_scoreboard_broadcasts_total",
			Help: "Scoreboard broadcasts fanned out by this instance.",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizboard_scoreboard_deliveries_total",
			Help: "Scoreboard messages queued to subscribers.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quizboard_scoreboard_dropped_total",
			Help: "Scoreboard messages dropped because a subscriber queue was full.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quizboard_scoreboard_subscribers",
			Help: "Currently connected scoreboard subscribers.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quizboard_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		c.submissions,
		c.logins,
		c.registrations,
		c.broadcasts,
		c.deliveries,
		c.dropped,
		c.subscribers,
		c.httpDuration,
	)

	return c
}

func (c *Collector) RecordSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRegistration(success bool) {
	result := "created"
	if !success {
		result = "rejected"
	}
	c.registrations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordBroadcast(recipients int, dropped int) {
	c.broadcasts.Inc()
	c.deliveries.Add(float64(recipients))
	c.dropped.Add(float64(dropped))
}

func (c *Collector) SetSubscribers(n int) {
	c.subscribers.Set(float64(n))
}

// Middleware observes request latency labelled by the matched route template.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.httpDuration.
			WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every observation.
type Nop struct{}

func (Nop) RecordSubmission(string)  {}
func (Nop) RecordLogin(string)       {}
func (Nop) RecordRegistration(bool)  {}
func (Nop) RecordBroadcast(int, int) {}
func (Nop) SetSubscribers(int)       {}
