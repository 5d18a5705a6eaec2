package metrics

import "sync/atomic"

// Counters are process-wide and safe for concurrent use.
var (
	fetchFailures   int64
	writesSucceeded int64
	writesFailed    int64
	writesCoalesced int64
	submitsRejected int64
)

func IncFetchFailure()   { atomic.AddInt64(&fetchFailures, 1) }
func IncWriteSucceeded() { atomic.AddInt64(&writesSucceeded, 1) }
func IncWriteFailed()    { atomic.AddInt64(&writesFailed, 1) }
func IncWriteCoalesced() { atomic.AddInt64(&writesCoalesced, 1) }
func IncSubmitRejected() { atomic.AddInt64(&submitsRejected, 1) }

func Snapshot() map[string]int64 {
	return map[string]int64{
		"fetch_failures":   atomic.LoadInt64(&fetchFailures),
		"writes_succeeded": atomic.LoadInt64(&writesSucceeded),
		"writes_failed":    atomic.LoadInt64(&writesFailed),
		"writes_coalesced": atomic.LoadInt64(&writesCoalesced),
		"submits_rejected": atomic.LoadInt64(&submitsRejected),
	}
}
