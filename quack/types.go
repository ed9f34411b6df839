package quack

// Narrow is the set of integer widths the accumulator supports. It
// embeds comparable so accumulator internals can compare field elements
// directly (e.g. when counting trailing zero coefficients) without
// routing every comparison through the Field interface.
type Narrow interface {
	comparable
	~uint16 | ~uint32 | ~uint64
}
