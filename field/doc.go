// Package field implements prime-field arithmetic over fixed-width unsigned
// integers.
//
// Each instantiation (Field16, Field32, Field64) fixes a prime modulus p and
// a narrow/wide type pair: values are represented in [0, p) using the narrow
// type, and intermediate products are computed in the wide type so that
// (p-1)^2 never overflows. All three share the same single-conditional-
// subtraction style for Add/Sub, and Fermat's-little-theorem exponentiation
// for Inv.
//
// field/montgomery provides an alternative 64-bit representation (REDC)
// implementing the same Field interface, for callers who multiply far more
// often than they add or serialize.
package field
