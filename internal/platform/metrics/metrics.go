package metrics

import (
	"context"
	"sync/atomic"
	"time"

	"aper/internal/domain/evaluation"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	advanced  uint64
	rejected  uint64
	reopened  uint64
	completed uint64

	deniedStage      uint64
	deniedRole       uint64
	deniedIncomplete uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordEvent counts a committed lifecycle transition.
func (c *Collector) RecordEvent(evt evaluation.Event) {
	switch evt.Type {
	case evaluation.EventAdvanced:
		atomic.AddUint64(&c.advanced, 1)
		if evt.To == evaluation.StageCountersigned {
			atomic.AddUint64(&c.completed, 1)
		}
	case evaluation.EventRejected:
		atomic.AddUint64(&c.rejected, 1)
	case evaluation.EventReopened:
		atomic.AddUint64(&c.reopened, 1)
	}
}

// RecordDenial counts a gate denial by reason.
func (c *Collector) RecordDenial(reason string) {
	switch reason {
	case evaluation.ReasonWrongStage:
		atomic.AddUint64(&c.deniedStage, 1)
	case evaluation.ReasonWrongRole:
		atomic.AddUint64(&c.deniedRole, 1)
	case evaluation.ReasonIncompleteFields:
		atomic.AddUint64(&c.deniedIncomplete, 1)
	}
}

func (c *Collector) Hook() evaluation.Hook {
	return evaluation.HookFunc(func(_ context.Context, evt evaluation.Event) error {
		c.RecordEvent(evt)
		return nil
	})
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"evaluations": map[string]uint64{
			"advanced":  atomic.LoadUint64(&c.advanced),
			"rejected":  atomic.LoadUint64(&c.rejected),
			"reopened":  atomic.LoadUint64(&c.reopened),
			"completed": atomic.LoadUint64(&c.completed),
		},
		"denials": map[string]uint64{
			evaluation.ReasonWrongStage:       atomic.LoadUint64(&c.deniedStage),
			evaluation.ReasonWrongRole:        atomic.LoadUint64(&c.deniedRole),
			evaluation.ReasonIncompleteFields: atomic.LoadUint64(&c.deniedIncomplete),
		},
	}
}
