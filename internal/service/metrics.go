package service

import "github.com/prometheus/client_golang/prometheus"

var transitions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "evaluation_transitions_total",
	Help: "Evaluation workflow transitions by name and result.",
}, []string{"transition", "result"})

func init() {
	prometheus.MustRegister(transitions)
}

func countTransition(name string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	transitions.WithLabelValues(name, result).Inc()
}
