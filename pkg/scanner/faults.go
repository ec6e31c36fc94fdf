package scanner

import (
	"github.com/robinjoseph08/golib/logger"
)

// FaultReporter receives truly unexpected faults (recovered panics), never
// expected domain failures.
type FaultReporter interface {
	Notify(err error)
}

// LogReporter is the default FaultReporter; it writes faults to the process
// log.
type LogReporter struct {
	Log logger.Logger
}

func (r *LogReporter) Notify(err error) {
	r.Log.Err(err).Error("unexpected fault")
}
