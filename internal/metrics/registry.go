package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// Register registers all SDK metrics plus the standard Go and process
// collectors with the default registry.
func Register(logger *logrus.Logger) {
	registerIfNotExists(collectors.NewGoCollector(), "go_collector", logger)
	registerIfNotExists(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), "process_collector", logger)

	registerIfNotExists(rpcRequestsTotal, "zcash_rpc_requests_total", logger)
	registerIfNotExists(rpcRequestDuration, "zcash_rpc_request_duration_seconds", logger)
	registerIfNotExists(operationsTotal, "zcash_tracker_operations_total", logger)
	registerIfNotExists(operationPollsTotal, "zcash_tracker_operation_polls_total", logger)
}

// registerIfNotExists registers a collector, tolerating re-registration.
func registerIfNotExists(collector prometheus.Collector, name string, logger *logrus.Logger) {
	if err := prometheus.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegErr) {
			logger.Debugf("%s already registered", name)
		} else {
			logger.Errorf("Failed to register %s: %v", name, err)
		}
	}
}
