// Package analysis characterizes per-iteration step times.
//
//   - [Summarize]: mean, spread and percentiles of a run's step times
//   - [PowerSpectrum]: magnitude spectrum of the step-time series, for
//     spotting periodic stalls such as collector pauses
//   - [DominantPeriod]: the strongest non-constant period in iterations
package analysis
