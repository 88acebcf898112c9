package service

import "github.com/prometheus/client_golang/prometheus"

var (
	registrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kapp_registrations_total", Help: "User registrations by result"},
		[]string{"result"},
	)
	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kapp_logins_total", Help: "Login attempts by result"},
		[]string{"result"},
	)
	mealQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kapp_meal_queries_total", Help: "Meal queries by operation"},
		[]string{"op"},
	)
	mealChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "kapp_meal_changes_total", Help: "Admin meal writes by operation and result"},
		[]string{"op", "result"},
	)
)

func init() {
	prometheus.MustRegister(registrationsTotal, loginsTotal, mealQueriesTotal, mealChangesTotal)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
