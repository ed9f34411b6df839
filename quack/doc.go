// Package quack implements the power-sum accumulator ("quACK"): a
// fixed-size digest of a multiset of fixed-width unsigned integers that
// supports incremental insertion and removal, subtraction of one digest
// from another, and threshold-bounded recovery of the resulting set
// difference against a candidate log.
//
// The accumulator is generic over a narrow integer width (uint16,
// uint32 or uint64) and the field.Field implementation used for that
// width, so the same code serves the ordinary and Montgomery-form
// 64-bit fields without duplication.
package quack
