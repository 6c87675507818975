package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	entryRunning = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "subproc",
		Name:      "entry_running",
		Help:      "Whether a managed entry currently has a live child process (1=running, 0=stopped).",
	}, []string{"entry"})

	spawns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subproc",
		Name:      "spawns_total",
		Help:      "Total number of successful child process spawns per entry.",
	}, []string{"entry"})

	spawnFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subproc",
		Name:      "spawn_failures_total",
		Help:      "Total number of failed spawn attempts per entry.",
	}, []string{"entry"})

	restarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subproc",
		Name:      "restarts_total",
		Help:      "Total number of restarts initiated for each entry.",
	}, []string{"entry"})

	exits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "subproc",
		Name:      "exits_total",
		Help:      "Child process exits per entry, partitioned by outcome.",
	}, []string{"entry", "outcome"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "subproc",
		Name:      "build_info",
		Help:      "Build metadata for the running subproc binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(entryRunning, spawns, spawnFailures, restarts, exits, buildInfo)
}

// Registry returns the Prometheus registry containing all subproc metrics.
func Registry() *prometheus.Registry {
	return registry
}

// SetRunning records whether the entry currently has a live child.
func SetRunning(entry string, running bool) {
	if entry == "" {
		return
	}
	value := 0.0
	if running {
		value = 1.0
	}
	entryRunning.WithLabelValues(entry).Set(value)
}

// IncrementSpawn counts a successful spawn for an entry.
func IncrementSpawn(entry string) {
	if entry == "" {
		return
	}
	spawns.WithLabelValues(entry).Inc()
}

// IncrementSpawnFailure counts a failed spawn attempt for an entry.
func IncrementSpawnFailure(entry string) {
	if entry == "" {
		return
	}
	spawnFailures.WithLabelValues(entry).Inc()
}

// IncrementRestart increments the restart counter by one for an entry.
func IncrementRestart(entry string) {
	if entry == "" {
		return
	}
	restarts.WithLabelValues(entry).Inc()
}

// ObserveExit counts a child exit, labelled by outcome.
func ObserveExit(entry string, success bool) {
	if entry == "" {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	exits.WithLabelValues(entry, outcome).Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}

// ResetEntry clears all per-entry series, used when an entry is removed.
func ResetEntry(entry string) {
	if entry == "" {
		return
	}
	entryRunning.DeleteLabelValues(entry)
	spawns.DeleteLabelValues(entry)
	spawnFailures.DeleteLabelValues(entry)
	restarts.DeleteLabelValues(entry)
	exits.DeletePartialMatch(prometheus.Labels{"entry": entry})
}
