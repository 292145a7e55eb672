package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_task_mutations_total",
			Help: "Task mutations by operation and outcome",
		},
		[]string{"op", "result"},
	)

	authEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_auth_events_total",
			Help: "Signups, logins and logouts by outcome",
		},
		[]string{"event", "result"},
	)
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
