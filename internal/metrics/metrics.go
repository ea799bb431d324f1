// Package metrics собирает метрики приёма родителей для Prometheus
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/colloqui/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "colloqui"

type Metrics struct {
	blocksCreated      prometheus.Counter
	blocksSkipped      prometheus.Counter
	generationDuration prometheus.Histogram
	requestTransitions *prometheus.CounterVec
	digestRuns         *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New регистрирует метрики в реестре
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		blocksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meeting_blocks_created_total",
			Help:      "Meeting blocks persisted by recurrence generation.",
		}),
		blocksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meeting_blocks_skipped_total",
			Help:      "Generated dates skipped because an overlapping block already existed.",
		}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of one recurrence generation run.",
			Buckets:   prometheus.DefBuckets,
		}),
		requestTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointment_requests_total",
			Help:      "Appointment request status transitions.",
		}, []string{"status"}),
		digestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_digest_runs_total",
			Help:      "Pending request digest job runs.",
		}, []string{"result"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.blocksCreated,
		m.blocksSkipped,
		m.generationDuration,
		m.requestTransitions,
		m.digestRuns,
	)

	return m
}

// ObserveGeneration учитывает один прогон генерации окон
func (m *Metrics) ObserveGeneration(created, skipped int, elapsed time.Duration) {
	m.blocksCreated.Add(float64(created))
	m.blocksSkipped.Add(float64(skipped))
	m.generationDuration.Observe(elapsed.Seconds())
}

// RequestTransition учитывает смену статуса заявки
func (m *Metrics) RequestTransition(status model.RequestStatus) {
	m.requestTransitions.WithLabelValues(string(status)).Inc()
}

// DigestRun учитывает запуск рассылки сводки
func (m *Metrics) DigestRun(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.digestRuns.WithLabelValues(result).Inc()
}

// Handler HTTP-обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Push отправляет все метрики реестра в Pushgateway; нужен короткоживущим командам,
// которые не доживают до опроса /metrics
func (m *Metrics) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	pusher := push.New(url, job).Gatherer(m.gatherer)
	for name, value := range grouping {
		pusher = pusher.Grouping(name, value)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
