// Package device provides a data-parallel launch runtime for stencil kernels.
//
// A launch is a 2D grid of blocks, each a 2D team of threads:
//
//   - [Dim2]: extent or index in two dimensions
//   - [Thread]: block and thread coordinates handed to each kernel invocation
//   - [LaunchConfig]: grid shape, block shape and per-block scratch size
//   - [Phase]: one barrier-delimited step of a kernel
//
// Blocks run concurrently on a bounded set of goroutines with no ordering
// between them. Within a block, phases act as a team barrier: every thread
// completes phase k before any thread begins phase k+1, so a load phase can
// fill the block scratch buffer that a compute phase then reads.
//
// # Example
//
//	dev := device.New(0)
//	cfg := device.LaunchConfig{Grid: device.Dim2{X: 4, Y: 4}, Block: device.Dim2{X: 16, Y: 16}}
//	err := dev.Launch(ctx, cfg, func(t device.Thread, _ []float64) {
//		out[t.GlobalY()*64+t.GlobalX()] = 1
//	})
//
// # Failures
//
// An invalid configuration returns [ErrInvalidLaunch] before any block runs. A
// panic inside a block is recovered and returned as a [*FaultError]; remaining
// blocks are cancelled.
package device
