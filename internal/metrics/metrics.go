// Package metrics - Prometheus-метрики жизненного цикла подписок и HTTP-запросов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cvmanager/cvmanager/internal/models"
)

const namespace = "cvmanager"

// Recorder реализует lifecycle.Recorder поверх счётчиков Prometheus.
type Recorder struct {
	evaluations *prometheus.CounterVec
	transitions *prometheus.CounterVec
	sweeps      *prometheus.CounterVec
	swept       prometheus.Counter
	denials     *prometheus.CounterVec
}

// NewRecorder регистрирует метрики в reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_evaluations_total",
			Help:      "Количество проверок доступа по результату.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_transitions_total",
			Help:      "Применённые переходы статуса подписки.",
		}, []string{"from", "to"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trial_sweeps_total",
			Help:      "Запуски обхода просроченных пробных периодов.",
		}, []string{"result"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trial_sweep_transitions_total",
			Help:      "Подписки, переведённые обходом.",
		}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_access_denied_total",
			Help:      "Запросы, отклонённые проверкой подписки.",
		}, []string{"reason"}),
	}
	reg.MustRegister(r.evaluations, r.transitions, r.sweeps, r.swept, r.denials)
	return r
}

// Evaluation учитывает результат проверки доступа.
func (r *Recorder) Evaluation(outcome string) {
	r.evaluations.WithLabelValues(outcome).Inc()
}

// Transition учитывает применённый переход.
func (r *Recorder) Transition(from, to models.SubscriptionStatus) {
	r.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// Sweep учитывает завершённый обход.
func (r *Recorder) Sweep(transitioned int, err error) {
	if err != nil {
		r.sweeps.WithLabelValues("error").Inc()
		return
	}
	r.sweeps.WithLabelValues("ok").Inc()
	r.swept.Add(float64(transitioned))
}

// Denied учитывает отказ в доступе.
func (r *Recorder) Denied(reason string) {
	r.denials.WithLabelValues(reason).Inc()
}
