package quack

import "sync"

var (
	maxThresholdMu sync.RWMutex
	maxThreshold   int
)

// SetMaxThreshold sets the process-wide upper bound T_MAX on accumulator
// thresholds. It sizes the field/powertable global table on its first
// use and gates New, but it is advisory: it does not retroactively
// shrink or rebuild a table already constructed with a different bound,
// and it never allocates anything itself.
func SetMaxThreshold(t int) {
	maxThresholdMu.Lock()
	defer maxThresholdMu.Unlock()
	maxThreshold = t
}

// MaxThreshold returns the current T_MAX, or 0 if it was never set (in
// which case New does not enforce an upper bound).
func MaxThreshold() int {
	maxThresholdMu.RLock()
	defer maxThresholdMu.RUnlock()
	return maxThreshold
}
