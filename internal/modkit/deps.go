package modkit

import (
	"loopguard/internal/platform/config"
	"loopguard/internal/platform/logger"
	"loopguard/internal/platform/metrics"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log     logger.Logger
	Cfg     config.Conf
	Metrics *metrics.Recorder // optional; nil records nothing
}
