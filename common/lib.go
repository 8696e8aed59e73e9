package common

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
)

// CompareBytes asserts A and B are byte-wise equal
func CompareBytes(api frontend.API, A, B []uints.U8) {
	lenA := Len(api, A)
	lenB := Len(api, B)

	api.AssertIsEqual(lenA, lenB)

	for i := range A {
		api.AssertIsEqual(A[i].Val, B[i].Val)
	}
}

// Len computes the array size
func Len(api frontend.API, bytes []uints.U8) frontend.Variable {
	length := frontend.Variable(0)
	for range bytes {
		length = api.Add(length, 1)
	}
	return length
}

// AssertInRange asserts lo <= v <= hi, with v bounded to nbBits first so
// the comparison cannot wrap around the field
func AssertInRange(api frontend.API, v frontend.Variable, lo, hi uint64, nbBits int) {
	api.ToBinary(v, nbBits)
	api.AssertIsLessOrEqual(lo, v)
	api.AssertIsLessOrEqual(v, hi)
}
