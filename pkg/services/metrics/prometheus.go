package metrics

import (
	"net/http"

	"github.com/nspcc-dev/sigma-go/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a service exposing registered collectors
// (block height, coin groups, serial and mempool gauges) on /metrics.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return NewService("Prometheus", newServers(cfg.GetAddresses(), mux), cfg, log)
}

func newServers(addrs []string, h http.Handler) []*http.Server {
	srvs := make([]*http.Server, len(addrs))
	for i, addr := range addrs {
		srvs[i] = &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: readHeaderTimeout,
		}
	}
	return srvs
}
