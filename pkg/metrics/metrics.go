package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	inventoryReport = "inventory_report"

	batchesTotal        = "batches_total"
	recordsTotal        = "records_total"
	fieldFaultsTotal    = "field_faults_total"
	connectAttempts     = "connect_attempts_total"
	stageDurationSecond = "stage_duration_seconds"
	exportFaultsTotal   = "export_faults_total"

	// Labels
	kindLabel    = "kind"
	fieldLabel   = "field"
	outcomeLabel = "outcome"
	stageLabel   = "stage"
	fileLabel    = "file"
)

// Recorder holds the metrics of a single run. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	batches         *prometheus.CounterVec
	records         *prometheus.CounterVec
	fieldFaults     *prometheus.CounterVec
	connectAttempts *prometheus.CounterVec
	stageDuration   *prometheus.GaugeVec
	exportFaults    *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: inventoryReport,
				Name:      batchesTotal,
				Help:      "number of entity batches processed",
			},
			[]string{kindLabel},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: inventoryReport,
				Name:      recordsTotal,
				Help:      "number of records built",
			},
			[]string{kindLabel},
		),
		fieldFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: inventoryReport,
				Name:      fieldFaultsTotal,
				Help:      "number of fields replaced by the sentinel value",
			},
			[]string{kindLabel, fieldLabel},
		),
		connectAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: inventoryReport,
				Name:      connectAttempts,
				Help:      "number of connection attempts partitioned by outcome",
			},
			[]string{outcomeLabel},
		),
		stageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Subsystem: inventoryReport,
				Name:      stageDurationSecond,
				Help:      "time spent in each pipeline stage",
			},
			[]string{stageLabel},
		),
		exportFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: inventoryReport,
				Name:      exportFaultsTotal,
				Help:      "number of report artifacts that failed to export",
			},
			[]string{fileLabel},
		),
	}

	r.registry.MustRegister(r.batches, r.records, r.fieldFaults, r.connectAttempts, r.stageDuration, r.exportFaults)
	return r
}

func (r *Recorder) IncBatch(kind string) {
	if r == nil {
		return
	}
	r.batches.With(prometheus.Labels{kindLabel: kind}).Inc()
}

func (r *Recorder) AddRecords(kind string, n int) {
	if r == nil {
		return
	}
	r.records.With(prometheus.Labels{kindLabel: kind}).Add(float64(n))
}

func (r *Recorder) IncFieldFault(kind, field string) {
	if r == nil {
		return
	}
	r.fieldFaults.With(prometheus.Labels{kindLabel: kind, fieldLabel: field}).Inc()
}

func (r *Recorder) IncConnectAttempt(err error) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.connectAttempts.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.With(prometheus.Labels{stageLabel: stage}).Set(d.Seconds())
}

func (r *Recorder) IncExportFault(file string) {
	if r == nil {
		return
	}
	r.exportFaults.With(prometheus.Labels{fileLabel: file}).Inc()
}

func (r *Recorder) Batches() *prometheus.CounterVec {
	return r.batches
}

func (r *Recorder) Records() *prometheus.CounterVec {
	return r.records
}

func (r *Recorder) FieldFaults() *prometheus.CounterVec {
	return r.fieldFaults
}

func (r *Recorder) ExportFaults() *prometheus.CounterVec {
	return r.exportFaults
}

// WriteTextfile dumps the run metrics in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
