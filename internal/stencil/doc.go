// Package stencil defines the finite-difference operators used to advance the
// heat equation by one timestep.
//
// Three orders are supported, each a central second-difference stencil applied
// along both axes and scaled by the axis Courant number:
//
//   - [Order2]: weights 1, -2, 1
//   - [Order4]: weights -1, 16, -30, 16, -1
//   - [Order8]: weights -9, 128, -1008, 8064, -14350, 8064, -1008, 128, -9
//
// Higher-order weights are unnormalised; the caller folds the divisor reported by
// [Order.Normalization] into the Courant numbers.
//
// # Example
//
//	op, err := stencil.Order4.Operator()
//	if err != nil {
//		return err
//	}
//	next[idx] = op(cur, idx, gx, xcfl, ycfl)
package stencil
