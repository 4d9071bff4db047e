// Package promstat exports managed thread statistics as Prometheus metrics.
//
// The collector reads each thread's last flushed snapshot on scrape, so it
// never contends with the run loop beyond one fixed-size copy per thread.
// Snapshot counters cover one flush window and are exported as gauges.
package promstat

import (
	"github.com/prometheus/client_golang/prometheus"

	"threadpace/stat"
)

// Source is anything that can report a thread's name, liveness and last
// flushed statistics. *thread.Thread satisfies it.
type Source interface {
	Name() string
	IsRunning() bool
	GetStatistic() stat.Statistic
}

// Collector implements prometheus.Collector over a fixed set of sources.
type Collector struct {
	sources []Source

	runningDesc    *prometheus.Desc
	loopsDesc      *prometheus.Desc
	emptyLoopsDesc *prometheus.Desc
	logicCallsDesc *prometheus.Desc
	itemsDesc      *prometheus.Desc
	sleepsDesc     *prometheus.Desc
	sleptDesc      *prometheus.Desc
	windowDesc     *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// New returns a collector for sources, labelled by thread name.
func New(sources ...Source) *Collector {
	labels := []string{"thread"}
	return &Collector{
		sources: sources,

		runningDesc: prometheus.NewDesc(
			"threadpace_thread_running",
			"Whether the managed OS thread is alive (1) or not (0).",
			labels, nil,
		),
		loopsDesc: prometheus.NewDesc(
			"threadpace_window_loops",
			"Run loop iterations in the last flushed window.",
			labels, nil,
		),
		emptyLoopsDesc: prometheus.NewDesc(
			"threadpace_window_empty_loops",
			"Logic calls that produced no work in the last flushed window.",
			labels, nil,
		),
		logicCallsDesc: prometheus.NewDesc(
			"threadpace_window_logic_calls",
			"Logic invocations in the last flushed window.",
			labels, nil,
		),
		itemsDesc: prometheus.NewDesc(
			"threadpace_window_items",
			"Work items reported by logic in the last flushed window.",
			labels, nil,
		),
		sleepsDesc: prometheus.NewDesc(
			"threadpace_window_sleeps",
			"Sleep phases entered in the last flushed window.",
			labels, nil,
		),
		sleptDesc: prometheus.NewDesc(
			"threadpace_window_slept_seconds",
			"Time spent sleeping in the last flushed window.",
			labels, nil,
		),
		windowDesc: prometheus.NewDesc(
			"threadpace_window_seconds",
			"Length of the last flushed window.",
			labels, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.runningDesc
	ch <- c.loopsDesc
	ch <- c.emptyLoopsDesc
	ch <- c.logicCallsDesc
	ch <- c.itemsDesc
	ch <- c.sleepsDesc
	ch <- c.sleptDesc
	ch <- c.windowDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.sources {
		name := src.Name()
		running := 0.0
		if src.IsRunning() {
			running = 1
		}
		s := src.GetStatistic()

		ch <- prometheus.MustNewConstMetric(c.runningDesc, prometheus.GaugeValue, running, name)
		ch <- prometheus.MustNewConstMetric(c.loopsDesc, prometheus.GaugeValue, float64(s.Loops), name)
		ch <- prometheus.MustNewConstMetric(c.emptyLoopsDesc, prometheus.GaugeValue, float64(s.EmptyLoops), name)
		ch <- prometheus.MustNewConstMetric(c.logicCallsDesc, prometheus.GaugeValue, float64(s.LogicCalls), name)
		ch <- prometheus.MustNewConstMetric(c.itemsDesc, prometheus.GaugeValue, float64(s.Items), name)
		ch <- prometheus.MustNewConstMetric(c.sleepsDesc, prometheus.GaugeValue, float64(s.Sleeps), name)
		ch <- prometheus.MustNewConstMetric(c.sleptDesc, prometheus.GaugeValue, s.Slept.Seconds(), name)
		ch <- prometheus.MustNewConstMetric(c.windowDesc, prometheus.GaugeValue, s.Window.Seconds(), name)
	}
}
