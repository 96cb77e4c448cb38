package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// attendanceOutcomes counts capture ingestion attempts by terminal state,
// exposed on /metrics alongside the default process collectors.
var attendanceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "face_attendance",
	Subsystem: "ingest",
	Name:      "outcomes_total",
	Help:      "Capture ingestion outcomes by terminal state.",
}, []string{"state"})
