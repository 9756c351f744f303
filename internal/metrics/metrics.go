// Package metrics exposes one replicate's outcome as Prometheus series and
// writes them to a node-exporter textfile collector file.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"finsim/internal/stats"
)

// Recorder holds the series for a single process run.
type Recorder struct {
	reg *prometheus.Registry

	runs      *prometheus.CounterVec
	stage     *prometheus.HistogramVec
	seed      prometheus.Gauge
	trees     prometheus.Gauge
	tmrca     prometheus.Gauge
	mutations prometheus.Gauge
	segsites  prometheus.Gauge
	sites     prometheus.Gauge
	finished  prometheus.Gauge
}

// New registers the finsim series on a private registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finsim_runs_total",
			Help: "Replicate runs by terminal state.",
		}, []string{"state"}),
		stage: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "finsim_stage_duration_seconds",
			Help:    "Wall time spent reaching each pipeline state.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"state"}),
		seed:      gauge("finsim_last_seed", "Seed of the last replicate."),
		trees:     gauge("finsim_last_tree_count", "Marginal trees in the last replicate."),
		tmrca:     gauge("finsim_last_mean_scaled_tmrca", "Mean TMRCA (x8.4) of the last replicate."),
		mutations: gauge("finsim_last_total_mutations", "Mutation events in the last replicate."),
		segsites:  gauge("finsim_last_segregating_sites", "Segregating sites in the last replicate."),
		sites:     gauge("finsim_last_region_sites", "Length of the simulated region in sites."),
		finished:  gauge("finsim_last_finished_timestamp_seconds", "Unix time the last replicate finished."),
	}
	r.reg.MustRegister(r.runs, r.stage, r.seed, r.trees, r.tmrca, r.mutations, r.segsites, r.sites, r.finished)
	return r
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

// Registry is the gatherer backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Stage records the time taken to reach state.
func (r *Recorder) Stage(state string, d time.Duration) {
	r.stage.WithLabelValues(state).Observe(d.Seconds())
}

// Finish counts a run ending in state.
func (r *Recorder) Finish(state string, at time.Time) {
	r.runs.WithLabelValues(state).Inc()
	r.finished.Set(float64(at.Unix()))
}

// Replicate publishes the statistics of a successful run.
func (r *Recorder) Replicate(rec stats.Record, sites int) {
	r.seed.Set(float64(rec.Seed))
	r.trees.Set(float64(rec.TreeCount))
	r.tmrca.Set(rec.MeanTMRCA)
	r.mutations.Set(float64(rec.TotalMutations))
	r.segsites.Set(float64(rec.SegregatingSites))
	r.sites.Set(float64(sites))
}

// WriteTextfile atomically replaces path with the current series.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
