package quack

import "errors"

var (
	// ErrThresholdExceedsMax is returned by New when t exceeds the
	// process-wide T_MAX, or propagated from a lazily built global table
	// that was already constructed with a smaller bound.
	ErrThresholdExceedsMax = errors.New("quack: threshold exceeds configured max")

	// ErrThresholdMismatch is returned by SubAssign/Sub when the two
	// accumulators were built with different thresholds.
	ErrThresholdMismatch = errors.New("quack: accumulators have different thresholds")

	// ErrSerializationFormat is returned by Deserialize when the input
	// length is inconsistent with any valid header/threshold combination.
	ErrSerializationFormat = errors.New("quack: malformed serialized accumulator")
)
