package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(buildInfo)
}

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "study_buddy_build_info",
		Help: "Always 1; labels identify the running binary and its build.",
	},
	[]string{"binary", "version", "commit"},
)

// SetBuildInfo marks binary (buddy, buddy-bot or devserver) as running.
// Empty version or commit are reported as "dev".
func SetBuildInfo(binary, version, commit string) {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		commit = "dev"
	}
	buildInfo.WithLabelValues(binary, version, commit).Set(1)
}
