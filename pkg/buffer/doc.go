// Package buffer provides the buffer types the pipeline stages use to pass
// data between goroutines.
//
//   - BoundedQueue: a fixed-capacity FIFO queue connecting adjacent stages.
//     Push blocks while full; Pull drains up to a caller-chosen count;
//     SetExhausted is a one-way latch propagating upstream EOF downstream.
//
//   - RingBuffer: a fixed-capacity sliding window used inside a stage to
//     accumulate enough input for one inference. Overflow and underflow are
//     programmer errors, not recoverable conditions.
//
// Every handoff in this pipeline has a known upper bound in advance (a
// queue depth, a window size), so both types are fixed-capacity; there is
// no growable buffer variant here.
package buffer
