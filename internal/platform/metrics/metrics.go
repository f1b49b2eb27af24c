package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	gosiReports        uint64
	gosiReportedRows   uint64
	gosiUnmatchedRows  uint64
	mu                 sync.Mutex
	approvalsByOutcome map[string]uint64
}

func New() *Collector {
	return &Collector{approvalsByOutcome: map[string]uint64{}}
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

// RecordDecision counts one approve/reject decision per request type.
func (c *Collector) RecordDecision(requestType, decision string) {
	c.mu.Lock()
	c.approvalsByOutcome[requestType+"."+decision]++
	c.mu.Unlock()
}

func (c *Collector) RecordGOSIReport(employees, unmatched int) {
	atomic.AddUint64(&c.gosiReports, 1)
	atomic.AddUint64(&c.gosiReportedRows, uint64(employees))
	atomic.AddUint64(&c.gosiUnmatchedRows, uint64(unmatched))
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

	c.mu.Lock()
	decisions := make(map[string]uint64, len(c.approvalsByOutcome))
	for k, v := range c.approvalsByOutcome {
		decisions[k] = v
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":          total,
		"errorsTotal":            errs,
		"rateLimitedTotal":       limited,
		"avgDurationMs":          avg,
		"totalDurationMs":        totalMs,
		"gosiReportsTotal":       atomic.LoadUint64(&c.gosiReports),
		"gosiEmployeeRowsTotal":  atomic.LoadUint64(&c.gosiReportedRows),
		"gosiUnmatchedRowsTotal": atomic.LoadUint64(&c.gosiUnmatchedRows),
		"approvalDecisions":      decisions,
	}
}
