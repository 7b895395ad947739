package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metricsはアプリで使うcollectorのまとまり
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LoginsTotal     *prometheus.CounterVec
	RefreshTotal    *prometheus.CounterVec
}

// regに登録して返す。テストではprometheus.NewRegistry()を渡す。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by identity and result.",
		}, []string{"identity", "result"}),
		RefreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Refresh token rotations by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.LoginsTotal, m.RefreshTotal)
	return m
}

func (m *Metrics) ObserveLogin(identity string, err error) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(identity, result(err)).Inc()
}

func (m *Metrics) ObserveRefresh(err error) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
