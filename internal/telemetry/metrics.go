package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// sendsTotal counts fire-and-forget sends by event type and result ("ok" or
// "failed").
var sendsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tekvoro",
		Subsystem: "client",
		Name:      "telemetry_sends_total",
		Help:      "Total number of telemetry sends attempted by the client, by result.",
	},
	[]string{"type", "result"},
)
