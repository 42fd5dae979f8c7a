package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(httpRequests)
}

var httpRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "devserver_http_requests_total",
		Help: "Dev server requests per route, method and status code.",
	},
	[]string{"route", "method", "code"},
)

// IncHTTP records one request; unknown paths collapse into "other".
func IncHTTP(path, method, code string) {
	route := "other"
	switch strings.TrimRight(path, "/") {
	case "":
		route = "/"
	case "/chat", "/solve", "/health", "/metrics":
		route = strings.TrimRight(path, "/")
	}
	httpRequests.WithLabelValues(route, strings.ToUpper(method), code).Inc()
}
