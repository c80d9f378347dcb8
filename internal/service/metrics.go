package service

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vegcrib/internal/domain"
)

// Recorder 接收 Backend 的操作结果与环境占用情况
type Recorder interface {
	Observe(operation string, err error, duration time.Duration)
	SetOccupancy(environment string, occupied, capacity int)
	ForgetEnvironment(environment string)
}

type nopRecorder struct{}

func (nopRecorder) Observe(string, error, time.Duration) {}
func (nopRecorder) SetOccupancy(string, int, int) {}
func (nopRecorder) ForgetEnvironment(string) {}

// PrometheusRecorder exports operation counters and per-environment grid
// gauges.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	occupied   *prometheus.GaugeVec
	capacity   *prometheus.GaugeVec
}

// NewPrometheusRecorder registers the collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vegcrib",
			Name:      "operations_total",
			Help:      "Backend operations by name and result.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vegcrib",
			Name:      "operation_duration_seconds",
			Help:      "Backend operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		occupied: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vegcrib",
			Name:      "environment_occupied_slots",
			Help:      "Occupied grid slots per environment.",
		}, []string{"environment"}),
		capacity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vegcrib",
			Name:      "environment_capacity_slots",
			Help:      "Total grid slots per environment.",
		}, []string{"environment"}),
	}

	for _, c := range []prometheus.Collector{r.operations, r.durations, r.occupied, r.capacity} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe 按结果分类计数
func (r *PrometheusRecorder) Observe(operation string, err error, duration time.Duration) {
	r.operations.WithLabelValues(operation, resultLabel(err)).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *PrometheusRecorder) SetOccupancy(environment string, occupied, capacity int) {
	r.occupied.WithLabelValues(environment).Set(float64(occupied))
	r.capacity.WithLabelValues(environment).Set(float64(capacity))
}

func (r *PrometheusRecorder) ForgetEnvironment(environment string) {
	r.occupied.DeleteLabelValues(environment)
	r.capacity.DeleteLabelValues(environment)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrCapacity):
		return "capacity"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence"
	default:
		return "error"
	}
}
