package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry returns a registry with the go runtime, process and build
// info collectors, plus the given service specific ones (e.g. the db pool).
func NewRegistry(serviceCollectors ...prometheus.Collector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	all := append([]prometheus.Collector{
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}, serviceCollectors...)
	for i, c := range all {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector %d: %w", i, err)
		}
	}

	return reg, nil
}
