package feature

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup outcomes reported by Metrics.
const (
	cacheResultHit   = "hit"
	cacheResultMiss  = "miss"
	cacheResultError = "error"
)

// Metrics exposes evaluation cache and rollout counters to Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	cacheRequests *prometheus.CounterVec
	evaluations   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// Collectors already registered on reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagkit",
			Name:      "cache_requests_total",
			Help:      "Evaluation cache lookups by result.",
		}, []string{"result"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagkit",
			Name:      "evaluations_total",
			Help:      "Flag evaluations by deciding strategy and outcome.",
		}, []string{"strategy", "enabled"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	m.cacheRequests, err = register(reg, m.cacheRequests)
	if err != nil {
		return nil, err
	}
	m.evaluations, err = register(reg, m.evaluations)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *Metrics) observeCache(result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) observeEvaluation(strategy string, enabled bool) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(strategy, strconv.FormatBool(enabled)).Inc()
}
